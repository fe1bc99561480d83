package entity

import (
	"fmt"
	"time"
)

// Setting es una entrada del almacén clave-valor genérico (system_settings).
type Setting struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}

// Sufijos de claves por empresa; la clave completa es company.<id>.<sufijo>.
const (
	SettingPlan                 = "plan"
	SettingTrialEndsAt          = "trialEndsAt"
	SettingStripeCustomerID     = "stripeCustomerId"
	SettingStripeSubscriptionID = "stripeSubscriptionId"
	SettingSubscriptionStatus   = "subscriptionStatus"
	SettingCurrentPeriodEnd     = "currentPeriodEnd"
)

// CompanySettingKey arma la clave de configuración de una empresa.
func CompanySettingKey(companyID, name string) string {
	return fmt.Sprintf("company.%s.%s", companyID, name)
}
