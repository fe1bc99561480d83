package entity

import "time"

// Company representa una organización/tenant del sistema (multi-tenant).
type Company struct {
	ID        string
	Code      string
	Name      string
	Email     string
	Status    string // active, suspended, inactive
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Planes de suscripción reconocidos por el gate de prueba y la facturación.
const (
	PlanTrial        = "trial"
	PlanStarter      = "starter"
	PlanProfessional = "professional"
	PlanEnterprise   = "enterprise"
)

// IsPaidPlan informa si el plan corresponde a una suscripción pagada.
func IsPaidPlan(plan string) bool {
	switch plan {
	case PlanStarter, PlanProfessional, PlanEnterprise:
		return true
	}
	return false
}
