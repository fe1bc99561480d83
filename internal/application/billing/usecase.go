// Package billing suscripciones: catálogo de planes, checkout, portal, uso y webhooks del proveedor.
package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/flowlogic-api/internal/application/dto"
	"github.com/jhoicas/flowlogic-api/internal/application/trial"
	"github.com/jhoicas/flowlogic-api/internal/domain"
	"github.com/jhoicas/flowlogic-api/internal/domain/entity"
	"github.com/jhoicas/flowlogic-api/internal/domain/repository"
	"github.com/jhoicas/flowlogic-api/pkg/logger"
)

// Estados de suscripción reportados al cliente además de los del proveedor.
const (
	StatusTrial    = "trial"
	StatusExpired  = "expired"
	StatusActive   = "active"
	StatusCanceled = "canceled"
)

// Config parámetros del caso de uso.
type Config struct {
	Prices    PriceIDs
	BaseURL   string // URL del front end para redirecciones
	TrialDays int
}

// UseCase casos de uso de facturación.
type UseCase struct {
	tx        BillingTxRunner
	settings  repository.SettingRepository
	companies repository.CompanyRepository
	users     repository.UserRepository
	analytics repository.AnalyticsRepository
	provider  PaymentProvider
	plans     []Plan
	cfg       Config
	log       *logger.Logger
	now       func() time.Time
}

// NewUseCase construye el caso de uso.
func NewUseCase(
	tx BillingTxRunner,
	settings repository.SettingRepository,
	companies repository.CompanyRepository,
	users repository.UserRepository,
	analytics repository.AnalyticsRepository,
	provider PaymentProvider,
	cfg Config,
	log *logger.Logger,
) *UseCase {
	if cfg.TrialDays <= 0 {
		cfg.TrialDays = 14
	}
	return &UseCase{
		tx:        tx,
		settings:  settings,
		companies: companies,
		users:     users,
		analytics: analytics,
		provider:  provider,
		plans:     Catalog(cfg.Prices),
		cfg:       cfg,
		log:       log.Component("billing"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Plans catálogo público.
func (uc *UseCase) Plans() dto.PlansResponse {
	out := dto.PlansResponse{Plans: make([]dto.PlanResponse, 0, len(uc.plans))}
	for _, p := range uc.plans {
		out.Plans = append(out.Plans, toPlanResponse(p))
	}
	return out
}

// Subscription estado de suscripción según lo registrado por los webhooks.
func (uc *UseCase) Subscription(ctx context.Context, companyID string) (*dto.SubscriptionResponse, error) {
	key := func(name string) string { return entity.CompanySettingKey(companyID, name) }
	values, err := uc.settings.GetMany(ctx,
		key(entity.SettingPlan),
		key(entity.SettingTrialEndsAt),
		key(entity.SettingSubscriptionStatus),
		key(entity.SettingCurrentPeriodEnd),
	)
	if err != nil {
		return nil, err
	}
	plan := values[key(entity.SettingPlan)]
	status := values[key(entity.SettingSubscriptionStatus)]
	out := &dto.SubscriptionResponse{Plan: plan}
	if t, err := trial.ParseTime(values[key(entity.SettingCurrentPeriodEnd)]); err == nil {
		out.CurrentPeriodEnd = &t
	}

	switch {
	case entity.IsPaidPlan(plan):
		p, _ := findPlan(uc.plans, plan)
		out.Status = status
		if out.Status == "" {
			out.Status = StatusActive
		}
		out.Features = &p.Features
	case plan == entity.PlanTrial:
		out.Status = StatusTrial
		if t, err := trial.ParseTime(values[key(entity.SettingTrialEndsAt)]); err == nil {
			out.TrialEndsAt = &t
			if !t.After(uc.now()) {
				out.Status = StatusExpired
			}
		}
		out.Features = uc.starterFeatures()
	case status == StatusCanceled:
		out.Status = StatusCanceled
	default:
		// Cuenta sin registro de plan: prueba implícita desde el alta de la empresa.
		company, err := uc.companies.GetByID(ctx, companyID)
		if err != nil {
			return nil, err
		}
		if company == nil {
			return nil, domain.ErrCompanyNotFound
		}
		ends := company.CreatedAt.UTC().AddDate(0, 0, uc.cfg.TrialDays)
		out.Status = StatusTrial
		out.Plan = entity.PlanStarter
		out.TrialEndsAt = &ends
		out.Features = uc.starterFeatures()
	}
	return out, nil
}

// Usage consumo actual frente a los límites del plan.
func (uc *UseCase) Usage(ctx context.Context, companyID string) (*dto.UsageResponse, error) {
	u, err := uc.analytics.GetUsage(ctx, companyID)
	if err != nil {
		return nil, err
	}
	sub, err := uc.Subscription(ctx, companyID)
	if err != nil {
		return nil, err
	}
	limits := *uc.starterFeatures()
	if sub.Features != nil {
		limits = *sub.Features
	}
	return &dto.UsageResponse{
		Usage:  dto.UsageCounts{SKUs: u.SKUs, Warehouses: u.Warehouses, Users: u.Users},
		Limits: limits,
		Plan:   sub.Plan,
	}, nil
}

// Checkout crea una sesión de pago para el plan pedido.
func (uc *UseCase) Checkout(ctx context.Context, companyID, userID, planID string) (*dto.CheckoutResponse, error) {
	plan, ok := findPlan(uc.plans, planID)
	if !ok || plan.PriceID == "" {
		return nil, domain.ErrInvalidPlan
	}
	customerID, err := uc.customer(ctx, companyID, userID)
	if err != nil {
		return nil, err
	}
	session, err := uc.provider.CreateCheckoutSession(ctx, CheckoutParams{
		CustomerID: customerID,
		PriceID:    plan.PriceID,
		CompanyID:  companyID,
		PlanID:     plan.ID,
		SuccessURL: uc.cfg.BaseURL + "/dashboard?checkout=success",
		CancelURL:  uc.cfg.BaseURL + "/dashboard?checkout=canceled",
		TrialDays:  uc.cfg.TrialDays,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: checkout: %v", domain.ErrUpstream, err)
	}
	uc.log.Info().Str("company_id", companyID).Str("plan", plan.ID).Str("session_id", session.ID).Msg("checkout creado")
	return &dto.CheckoutResponse{SessionID: session.ID, URL: session.URL}, nil
}

// Portal crea una sesión del portal de cliente del proveedor.
func (uc *UseCase) Portal(ctx context.Context, companyID, userID string) (*dto.PortalResponse, error) {
	customerID, err := uc.customer(ctx, companyID, userID)
	if err != nil {
		return nil, err
	}
	url, err := uc.provider.CreatePortalSession(ctx, customerID, uc.cfg.BaseURL+"/dashboard")
	if err != nil {
		return nil, fmt.Errorf("%w: portal: %v", domain.ErrUpstream, err)
	}
	return &dto.PortalResponse{URL: url}, nil
}

// customer devuelve el cliente del proveedor de la empresa, creándolo si no existe o fue borrado.
func (uc *UseCase) customer(ctx context.Context, companyID, userID string) (string, error) {
	key := entity.CompanySettingKey(companyID, entity.SettingStripeCustomerID)
	values, err := uc.settings.GetMany(ctx, key)
	if err != nil {
		return "", err
	}
	if id := values[key]; id != "" {
		exists, err := uc.provider.CustomerExists(ctx, id)
		if err == nil && exists {
			return id, nil
		}
		uc.log.Warn().Err(err).Str("customer_id", id).Msg("cliente del proveedor no disponible; se crea uno nuevo")
	}

	company, err := uc.companies.GetByID(ctx, companyID)
	if err != nil {
		return "", err
	}
	if company == nil {
		return "", domain.ErrCompanyNotFound
	}
	email := company.Email
	if user, err := uc.users.GetByID(ctx, userID); err == nil && user != nil && user.Email != "" {
		email = user.Email
	}
	id, err := uc.provider.CreateCustomer(ctx, CustomerParams{
		CompanyID:   companyID,
		CompanyName: company.Name,
		Email:       email,
		UserID:      userID,
	})
	if err != nil {
		return "", fmt.Errorf("%w: crear cliente: %v", domain.ErrUpstream, err)
	}
	if err := uc.settings.Set(ctx, key, id); err != nil {
		return "", err
	}
	return id, nil
}

// HandleWebhook verifica y aplica un evento del proveedor. La firma es obligatoria.
// Los eventos de tipos no manejados se aceptan sin efecto.
func (uc *UseCase) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if signature == "" {
		return domain.ErrInvalidSignature
	}
	ev, err := uc.provider.ParseWebhook(payload, signature)
	if err != nil {
		if errors.Is(err, domain.ErrWebhookNotConfigured) || errors.Is(err, domain.ErrInvalidSignature) {
			return err
		}
		return fmt.Errorf("%w: %v", domain.ErrInvalidSignature, err)
	}
	return uc.apply(ctx, ev)
}

func (uc *UseCase) apply(ctx context.Context, ev *WebhookEvent) error {
	log := uc.log.With().Str("event_id", ev.ID).Str("event_type", ev.Type).Str("company_id", ev.CompanyID).Logger()

	switch ev.Type {
	case EventCheckoutCompleted:
		if ev.CompanyID == "" || ev.PlanID == "" {
			log.Warn().Msg("checkout sin metadata de empresa o plan; se ignora")
			return nil
		}
		err := uc.tx.RunBilling(ctx, func(settings repository.SettingRepository, audit repository.AuditLogRepository) error {
			if err := uc.set(ctx, settings, ev.CompanyID, map[string]string{
				entity.SettingPlan:                 ev.PlanID,
				entity.SettingSubscriptionStatus:   StatusActive,
				entity.SettingStripeSubscriptionID: ev.SubscriptionID,
			}); err != nil {
				return err
			}
			return audit.Create(ctx, uc.auditEntry(ev.CompanyID, entity.AuditSubscriptionCreated, map[string]any{
				"planId": ev.PlanID, "sessionId": ev.ObjectID,
			}))
		})
		if err != nil {
			return err
		}
		log.Info().Str("plan", ev.PlanID).Msg("suscripción creada")

	case EventSubscriptionUpdated:
		if ev.CompanyID == "" {
			return nil
		}
		values := map[string]string{entity.SettingSubscriptionStatus: ev.Status}
		if ev.CurrentPeriodEnd != nil {
			values[entity.SettingCurrentPeriodEnd] = trial.FormatTime(*ev.CurrentPeriodEnd)
		}
		err := uc.tx.RunBilling(ctx, func(settings repository.SettingRepository, _ repository.AuditLogRepository) error {
			return uc.set(ctx, settings, ev.CompanyID, values)
		})
		if err != nil {
			return err
		}
		log.Info().Str("status", ev.Status).Msg("suscripción actualizada")

	case EventSubscriptionDeleted:
		if ev.CompanyID == "" {
			return nil
		}
		err := uc.tx.RunBilling(ctx, func(settings repository.SettingRepository, audit repository.AuditLogRepository) error {
			if err := uc.set(ctx, settings, ev.CompanyID, map[string]string{
				entity.SettingSubscriptionStatus: StatusCanceled,
			}); err != nil {
				return err
			}
			if err := settings.Delete(ctx, entity.CompanySettingKey(ev.CompanyID, entity.SettingPlan)); err != nil {
				return err
			}
			return audit.Create(ctx, uc.auditEntry(ev.CompanyID, entity.AuditSubscriptionCanceled, map[string]any{
				"subscriptionId": ev.ObjectID,
			}))
		})
		if err != nil {
			return err
		}
		log.Info().Msg("suscripción cancelada")

	case EventPaymentFailed:
		log.Warn().Str("invoice_id", ev.ObjectID).Msg("pago fallido")

	default:
		log.Debug().Msg("evento de webhook ignorado")
	}
	return nil
}

func (uc *UseCase) set(ctx context.Context, settings repository.SettingRepository, companyID string, values map[string]string) error {
	for name, v := range values {
		if v == "" {
			continue
		}
		if err := settings.Set(ctx, entity.CompanySettingKey(companyID, name), v); err != nil {
			return err
		}
	}
	return nil
}

func (uc *UseCase) auditEntry(companyID, action string, details map[string]any) *entity.AuditLog {
	return &entity.AuditLog{
		ID:         uuid.NewString(),
		CompanyID:  companyID,
		Action:     action,
		EntityType: "COMPANY",
		EntityID:   companyID,
		Details:    details,
		CreatedAt:  uc.now(),
	}
}

func (uc *UseCase) starterFeatures() *dto.PlanFeatures {
	p, _ := findPlan(uc.plans, entity.PlanStarter)
	return &p.Features
}
