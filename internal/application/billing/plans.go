package billing

import (
	"strings"

	"github.com/jhoicas/flowlogic-api/internal/application/dto"
	"github.com/jhoicas/flowlogic-api/internal/domain/entity"
)

// Unlimited valor de límite sin tope.
const Unlimited = -1

// Plan entrada del catálogo de suscripciones.
type Plan struct {
	ID       string
	Name     string
	PriceID  string
	Price    *int // USD/mes; nil = precio a medida
	Interval string
	Features dto.PlanFeatures
}

// PriceIDs identificadores de precio del proveedor por plan.
type PriceIDs struct {
	Starter      string
	Professional string
	Enterprise   string
}

// Catalog planes en orden de presentación.
func Catalog(prices PriceIDs) []Plan {
	starter, professional := 499, 1499
	return []Plan{
		{
			ID: entity.PlanStarter, Name: "Starter", PriceID: prices.Starter, Price: &starter, Interval: "month",
			Features: dto.PlanFeatures{MaxSKUs: 10000, MaxWarehouses: 1, MaxUsers: 5, AIAnalysis: "basic", Support: "email"},
		},
		{
			ID: entity.PlanProfessional, Name: "Professional", PriceID: prices.Professional, Price: &professional, Interval: "month",
			Features: dto.PlanFeatures{MaxSKUs: 100000, MaxWarehouses: 5, MaxUsers: 25, AIAnalysis: "advanced", Support: "priority"},
		},
		{
			ID: entity.PlanEnterprise, Name: "Enterprise", PriceID: prices.Enterprise, Interval: "month",
			Features: dto.PlanFeatures{MaxSKUs: Unlimited, MaxWarehouses: Unlimited, MaxUsers: Unlimited, AIAnalysis: "custom", Support: "24/7"},
		},
	}
}

func findPlan(plans []Plan, id string) (Plan, bool) {
	id = strings.ToLower(strings.TrimSpace(id))
	for _, p := range plans {
		if p.ID == id {
			return p, true
		}
	}
	return Plan{}, false
}

func toPlanResponse(p Plan) dto.PlanResponse {
	return dto.PlanResponse{ID: p.ID, Name: p.Name, Price: p.Price, Interval: p.Interval, Features: p.Features}
}
