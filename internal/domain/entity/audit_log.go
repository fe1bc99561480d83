package entity

import "time"

// Acciones registradas en la bitácora de auditoría.
const (
	AuditSubscriptionCreated  = "SUBSCRIPTION_CREATED"
	AuditSubscriptionCanceled = "SUBSCRIPTION_CANCELED"
	AuditIngestionCompleted   = "INGESTION_COMPLETED"
)

// AuditLog registro inmutable de una acción relevante para la empresa.
type AuditLog struct {
	ID         string
	CompanyID  string
	UserID     string
	Action     string
	EntityType string
	EntityID   string
	Details    map[string]any
	CreatedAt  time.Time
}
