// Package trial decide si una empresa puede usar la API según su plan y el fin de su prueba.
package trial

import (
	"context"
	"time"

	"github.com/jhoicas/flowlogic-api/internal/domain/entity"
	"github.com/jhoicas/flowlogic-api/internal/domain/repository"
	"github.com/jhoicas/flowlogic-api/pkg/logger"
)

// SettingTrialStartedAt sufijo de la clave con el inicio de la prueba (informativo).
const SettingTrialStartedAt = "trialStartedAt"

// Decision resultado de evaluar el gate para una empresa.
type Decision struct {
	Allow        bool
	TrialExpired bool
	Plan         string
	TrialEndsAt  *time.Time
}

// Gate evalúa plan y vencimiento de prueba con una sola lectura de settings.
type Gate struct {
	settings repository.SettingRepository
	log      *logger.Logger
	now      func() time.Time
}

// NewGate construye el gate.
func NewGate(settings repository.SettingRepository, log *logger.Logger) *Gate {
	return &Gate{
		settings: settings,
		log:      log.Component("trial"),
		now:      time.Now,
	}
}

// Check aplica las transiciones:
//
//	sin plan             -> permitir (cuentas antiguas o sembradas)
//	plan pagado          -> permitir, sin importar trialEndsAt
//	trial vigente        -> permitir
//	trial vencido        -> denegar (también si la fecha no se puede leer)
//	trial sin fecha      -> permitir
//	plan desconocido     -> permitir
//
// Si falla la lectura de settings se permite el acceso y se registra el error.
func (g *Gate) Check(ctx context.Context, companyID string) Decision {
	if companyID == "" {
		return Decision{Allow: true}
	}
	planKey := entity.CompanySettingKey(companyID, entity.SettingPlan)
	endsKey := entity.CompanySettingKey(companyID, entity.SettingTrialEndsAt)

	values, err := g.settings.GetMany(ctx, planKey, endsKey)
	if err != nil {
		g.log.Error().Err(err).Str("company_id", companyID).Msg("error consultando prueba; se permite el acceso")
		return Decision{Allow: true}
	}

	plan, ok := values[planKey]
	if !ok {
		return Decision{Allow: true}
	}
	d := Decision{Allow: true, Plan: plan}
	if plan != entity.PlanTrial {
		return d
	}

	raw, ok := values[endsKey]
	if !ok {
		return d
	}
	endsAt, err := ParseTime(raw)
	if err != nil {
		g.log.Warn().Str("company_id", companyID).Str("trial_ends_at", raw).Msg("fecha de fin de prueba ilegible; se trata como vencida")
		return Decision{Allow: false, TrialExpired: true, Plan: plan}
	}
	d.TrialEndsAt = &endsAt
	if endsAt.After(g.now()) {
		return d
	}
	d.Allow = false
	d.TrialExpired = true
	return d
}

// Start inicia la prueba de una empresa: plan=trial y fin en now+days.
func Start(ctx context.Context, settings repository.SettingRepository, companyID string, now time.Time, days int) (time.Time, error) {
	endsAt := now.UTC().AddDate(0, 0, days)
	values := [][2]string{
		{entity.CompanySettingKey(companyID, entity.SettingPlan), entity.PlanTrial},
		{entity.CompanySettingKey(companyID, SettingTrialStartedAt), FormatTime(now)},
		{entity.CompanySettingKey(companyID, entity.SettingTrialEndsAt), FormatTime(endsAt)},
	}
	for _, kv := range values {
		if err := settings.Set(ctx, kv[0], kv[1]); err != nil {
			return time.Time{}, err
		}
	}
	return endsAt, nil
}

// ParseTime acepta RFC 3339 (con o sin fracción) y fechas YYYY-MM-DD.
func ParseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

// FormatTime formato con el que se guardan fechas en settings.
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
