package billing

import (
	"context"
	"time"

	"github.com/jhoicas/flowlogic-api/internal/domain/repository"
)

// BillingTxRunner ejecuta una función dentro de una transacción con los repos que modifica un webhook.
type BillingTxRunner interface {
	RunBilling(ctx context.Context, fn func(
		settingRepo repository.SettingRepository,
		auditRepo repository.AuditLogRepository,
	) error) error
}

// CustomerParams datos para registrar la empresa en el proveedor de pagos.
type CustomerParams struct {
	CompanyID   string
	CompanyName string
	Email       string
	UserID      string
}

// CheckoutParams sesión de checkout de una suscripción.
type CheckoutParams struct {
	CustomerID string
	PriceID    string
	CompanyID  string
	PlanID     string
	SuccessURL string
	CancelURL  string
	TrialDays  int
}

// CheckoutSession sesión creada por el proveedor.
type CheckoutSession struct {
	ID  string
	URL string
}

// Tipos de evento de webhook que se procesan.
const (
	EventCheckoutCompleted   = "checkout.session.completed"
	EventSubscriptionUpdated = "customer.subscription.updated"
	EventSubscriptionDeleted = "customer.subscription.deleted"
	EventPaymentFailed       = "invoice.payment_failed"
)

// WebhookEvent evento ya verificado y reducido a los campos que usa la aplicación.
type WebhookEvent struct {
	ID               string
	Type             string
	ObjectID         string // sesión, suscripción o factura según Type
	CompanyID        string // metadata.companyId
	PlanID           string // metadata.planId
	SubscriptionID   string
	Status           string
	CurrentPeriodEnd *time.Time
}

// PaymentProvider puerto de salida hacia el proveedor de suscripciones (Stripe).
type PaymentProvider interface {
	CreateCustomer(ctx context.Context, p CustomerParams) (string, error)
	// CustomerExists informa si el cliente sigue vigente en el proveedor (no borrado).
	CustomerExists(ctx context.Context, customerID string) (bool, error)
	CreateCheckoutSession(ctx context.Context, p CheckoutParams) (*CheckoutSession, error)
	CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error)
	// ParseWebhook verifica la firma con el secreto configurado y decodifica el evento.
	// Sin secreto devuelve domain.ErrWebhookNotConfigured; firma inválida, domain.ErrInvalidSignature.
	ParseWebhook(payload []byte, signature string) (*WebhookEvent, error)
}
