package dto

import "time"

// PlanFeatures límites de un plan; -1 significa ilimitado.
type PlanFeatures struct {
	MaxSKUs       int    `json:"max_skus"`
	MaxWarehouses int    `json:"max_warehouses"`
	MaxUsers      int    `json:"max_users"`
	AIAnalysis    string `json:"ai_analysis"`
	Support       string `json:"support"`
}

// PlanResponse plan del catálogo. Price nulo indica precio a medida.
type PlanResponse struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Price    *int         `json:"price"`
	Interval string       `json:"interval"`
	Features PlanFeatures `json:"features"`
}

// PlansResponse respuesta de GET /billing/plans.
type PlansResponse struct {
	Plans []PlanResponse `json:"plans"`
}

// SubscriptionResponse estado de suscripción de la empresa.
type SubscriptionResponse struct {
	Status           string        `json:"status"`
	Plan             string        `json:"plan,omitempty"`
	TrialEndsAt      *time.Time    `json:"trial_ends_at,omitempty"`
	CurrentPeriodEnd *time.Time    `json:"current_period_end,omitempty"`
	Features         *PlanFeatures `json:"features,omitempty"`
}

// CheckoutRequest body de POST /billing/checkout.
type CheckoutRequest struct {
	PlanID string `json:"plan_id" validate:"required,oneof=starter professional enterprise"`
}

// CheckoutResponse sesión de checkout creada.
type CheckoutResponse struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

// PortalResponse sesión del portal de cliente.
type PortalResponse struct {
	URL string `json:"url"`
}

// UsageCounts consumo actual.
type UsageCounts struct {
	SKUs       int `json:"skus"`
	Warehouses int `json:"warehouses"`
	Users      int `json:"users"`
}

// UsageResponse respuesta de GET /billing/usage.
type UsageResponse struct {
	Usage  UsageCounts  `json:"usage"`
	Limits PlanFeatures `json:"limits"`
	Plan   string       `json:"plan,omitempty"`
}

// WebhookResponse acuse de recibo del webhook.
type WebhookResponse struct {
	Received bool `json:"received"`
}

// TrialExpiredResponse cuerpo 402 del gate de prueba.
type TrialExpiredResponse struct {
	Error        string `json:"error"`
	Message      string `json:"message"`
	TrialExpired bool   `json:"trialExpired"`
	UpgradeURL   string `json:"upgradeUrl"`
}
