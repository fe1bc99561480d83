// Package stripe adaptador de billing.PaymentProvider sobre stripe-go.
package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	stripego "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/jhoicas/flowlogic-api/internal/application/billing"
	"github.com/jhoicas/flowlogic-api/internal/domain"
	"github.com/jhoicas/flowlogic-api/pkg/logger"
)

var _ billing.PaymentProvider = (*Provider)(nil)

// Claves de metadata compartidas con el front end y los webhooks.
const (
	metaCompanyID = "companyId"
	metaPlanID    = "planId"
	metaUserID    = "userId"
)

// backend subconjunto de la API de Stripe que usa el adaptador.
type backend interface {
	NewCustomer(params *stripego.CustomerParams) (*stripego.Customer, error)
	GetCustomer(id string, params *stripego.CustomerParams) (*stripego.Customer, error)
	NewCheckoutSession(params *stripego.CheckoutSessionParams) (*stripego.CheckoutSession, error)
	NewPortalSession(params *stripego.BillingPortalSessionParams) (*stripego.BillingPortalSession, error)
}

type apiBackend struct {
	api *client.API
}

func (b apiBackend) NewCustomer(p *stripego.CustomerParams) (*stripego.Customer, error) {
	return b.api.Customers.New(p)
}

func (b apiBackend) GetCustomer(id string, p *stripego.CustomerParams) (*stripego.Customer, error) {
	return b.api.Customers.Get(id, p)
}

func (b apiBackend) NewCheckoutSession(p *stripego.CheckoutSessionParams) (*stripego.CheckoutSession, error) {
	return b.api.CheckoutSessions.New(p)
}

func (b apiBackend) NewPortalSession(p *stripego.BillingPortalSessionParams) (*stripego.BillingPortalSession, error) {
	return b.api.BillingPortalSessions.New(p)
}

// Config credenciales y breaker.
type Config struct {
	SecretKey     string
	WebhookSecret string
	Breaker       BreakerConfig
}

// Provider implementa billing.PaymentProvider. Las llamadas salientes pasan por un circuit breaker.
type Provider struct {
	api           backend
	webhookSecret string
	breaker       *breaker
	log           *logger.Logger
}

// NewProvider crea el cliente de Stripe con la clave secreta.
func NewProvider(cfg Config, log *logger.Logger) *Provider {
	sc := &client.API{}
	sc.Init(cfg.SecretKey, nil)
	return newProvider(apiBackend{api: sc}, cfg, log)
}

func newProvider(api backend, cfg Config, log *logger.Logger) *Provider {
	log = log.Component("stripe")
	return &Provider{
		api:           api,
		webhookSecret: cfg.WebhookSecret,
		breaker:       newBreaker(cfg.Breaker, log),
		log:           log,
	}
}

func (p *Provider) CreateCustomer(ctx context.Context, in billing.CustomerParams) (string, error) {
	params := &stripego.CustomerParams{
		Email: stripego.String(in.Email),
		Name:  stripego.String(in.CompanyName),
	}
	params.Context = ctx
	params.AddMetadata(metaCompanyID, in.CompanyID)
	if in.UserID != "" {
		params.AddMetadata(metaUserID, in.UserID)
	}
	c, err := execute(p.breaker, func() (*stripego.Customer, error) { return p.api.NewCustomer(params) })
	if err != nil {
		return "", fmt.Errorf("stripe: crear cliente: %w", err)
	}
	return c.ID, nil
}

func (p *Provider) CustomerExists(ctx context.Context, customerID string) (bool, error) {
	params := &stripego.CustomerParams{}
	params.Context = ctx
	c, err := execute(p.breaker, func() (*stripego.Customer, error) { return p.api.GetCustomer(customerID, params) })
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("stripe: obtener cliente: %w", err)
	}
	return c != nil && !c.Deleted, nil
}

func (p *Provider) CreateCheckoutSession(ctx context.Context, in billing.CheckoutParams) (*billing.CheckoutSession, error) {
	params := &stripego.CheckoutSessionParams{
		Customer:          stripego.String(in.CustomerID),
		Mode:              stripego.String(string(stripego.CheckoutSessionModeSubscription)),
		ClientReferenceID: stripego.String(in.CompanyID),
		SuccessURL:        stripego.String(in.SuccessURL),
		CancelURL:         stripego.String(in.CancelURL),
		LineItems: []*stripego.CheckoutSessionLineItemParams{
			{Price: stripego.String(in.PriceID), Quantity: stripego.Int64(1)},
		},
		SubscriptionData: &stripego.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{metaCompanyID: in.CompanyID, metaPlanID: in.PlanID},
		},
	}
	if in.TrialDays > 0 {
		params.SubscriptionData.TrialPeriodDays = stripego.Int64(int64(in.TrialDays))
	}
	params.Context = ctx
	params.AddMetadata(metaCompanyID, in.CompanyID)
	params.AddMetadata(metaPlanID, in.PlanID)

	s, err := execute(p.breaker, func() (*stripego.CheckoutSession, error) { return p.api.NewCheckoutSession(params) })
	if err != nil {
		return nil, fmt.Errorf("stripe: crear checkout: %w", err)
	}
	return &billing.CheckoutSession{ID: s.ID, URL: s.URL}, nil
}

func (p *Provider) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	params := &stripego.BillingPortalSessionParams{
		Customer:  stripego.String(customerID),
		ReturnURL: stripego.String(returnURL),
	}
	params.Context = ctx
	s, err := execute(p.breaker, func() (*stripego.BillingPortalSession, error) { return p.api.NewPortalSession(params) })
	if err != nil {
		return "", fmt.Errorf("stripe: crear portal: %w", err)
	}
	return s.URL, nil
}

// ParseWebhook verifica la cabecera Stripe-Signature y reduce el evento a billing.WebhookEvent.
// Eventos de tipos no procesados se devuelven solo con ID y Type.
func (p *Provider) ParseWebhook(payload []byte, signature string) (*billing.WebhookEvent, error) {
	if p.webhookSecret == "" {
		return nil, domain.ErrWebhookNotConfigured
	}
	if signature == "" {
		return nil, domain.ErrInvalidSignature
	}
	ev, err := webhook.ConstructEventWithOptions(payload, signature, p.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidSignature, err)
	}

	out := &billing.WebhookEvent{ID: ev.ID, Type: string(ev.Type)}
	if ev.Data == nil {
		return out, nil
	}
	raw := ev.Data.Raw

	switch out.Type {
	case billing.EventCheckoutCompleted:
		var s stripego.CheckoutSession
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, decodeErr(out.Type, err)
		}
		out.ObjectID = s.ID
		out.CompanyID = s.Metadata[metaCompanyID]
		if out.CompanyID == "" {
			out.CompanyID = s.ClientReferenceID
		}
		out.PlanID = s.Metadata[metaPlanID]
		if s.Subscription != nil {
			out.SubscriptionID = s.Subscription.ID
		}

	case billing.EventSubscriptionUpdated, billing.EventSubscriptionDeleted:
		var sub stripego.Subscription
		if err := json.Unmarshal(raw, &sub); err != nil {
			return nil, decodeErr(out.Type, err)
		}
		out.ObjectID = sub.ID
		out.SubscriptionID = sub.ID
		out.CompanyID = sub.Metadata[metaCompanyID]
		out.PlanID = sub.Metadata[metaPlanID]
		out.Status = string(sub.Status)
		if sub.CurrentPeriodEnd > 0 {
			t := time.Unix(sub.CurrentPeriodEnd, 0).UTC()
			out.CurrentPeriodEnd = &t
		}

	case billing.EventPaymentFailed:
		var inv stripego.Invoice
		if err := json.Unmarshal(raw, &inv); err != nil {
			return nil, decodeErr(out.Type, err)
		}
		out.ObjectID = inv.ID
		out.CompanyID = inv.Metadata[metaCompanyID]
		if inv.Subscription != nil {
			out.SubscriptionID = inv.Subscription.ID
		}
	}
	return out, nil
}

func decodeErr(eventType string, err error) error {
	return errors.Join(domain.ErrInvalidInput, fmt.Errorf("stripe: decodificar %s: %w", eventType, err))
}
