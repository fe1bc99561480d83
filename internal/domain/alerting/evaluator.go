package alerting

import (
	"fmt"

	"github.com/jhoicas/flowlogic-api/internal/domain/entity"
)

// RuleFailure fallo aislado de una regla; las demás reglas siguen ejecutándose.
type RuleFailure struct {
	Rule string
	Err  error
}

// Report resultado de una evaluación.
type Report struct {
	Alerts   []entity.Alert
	Failures []RuleFailure
	// PerRule cantidad de alertas emitidas por cada regla (incluye ceros).
	PerRule map[string]int
}

// Evaluator ejecuta un conjunto ordenado de reglas.
type Evaluator struct {
	rules []Rule
}

// NewEvaluator construye el evaluador con las reglas dadas; sin reglas usa DefaultRules.
func NewEvaluator(t Thresholds, rules ...Rule) *Evaluator {
	if len(rules) == 0 {
		rules = DefaultRules(t)
	}
	return &Evaluator{rules: rules}
}

// Rules devuelve los nombres de las reglas en orden de ejecución.
func (e *Evaluator) Rules() []string {
	names := make([]string, 0, len(e.rules))
	for _, r := range e.rules {
		names = append(names, r.Name)
	}
	return names
}

// Evaluate aplica cada regla sobre el Input completo. Un error o panic de una regla
// se registra en Report.Failures y no impide las siguientes.
// Las alertas salen con CompanyID e IngestionID del Input.
func (e *Evaluator) Evaluate(in Input) Report {
	rep := Report{PerRule: make(map[string]int, len(e.rules))}
	for _, rule := range e.rules {
		alerts, err := runRule(rule, in)
		if err != nil {
			rep.Failures = append(rep.Failures, RuleFailure{Rule: rule.Name, Err: err})
			continue
		}
		rep.PerRule[rule.Name] = len(alerts)
		for _, a := range alerts {
			a.CompanyID = in.CompanyID
			a.IngestionID = in.IngestionID
			rep.Alerts = append(rep.Alerts, a)
		}
	}
	return rep
}

func runRule(rule Rule, in Input) (alerts []entity.Alert, err error) {
	defer func() {
		if r := recover(); r != nil {
			alerts = nil
			err = fmt.Errorf("regla %s: panic: %v", rule.Name, r)
		}
	}()
	return rule.Apply(in)
}
