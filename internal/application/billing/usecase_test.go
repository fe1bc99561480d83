package billing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/flowlogic-api/internal/domain"
	"github.com/jhoicas/flowlogic-api/internal/domain/entity"
	"github.com/jhoicas/flowlogic-api/internal/domain/repository"
	"github.com/jhoicas/flowlogic-api/pkg/logger"
)

const companyID = "c-1"

var now = time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)

type memSettings struct {
	values map[string]string
	err    error
}

func (m *memSettings) GetMany(_ context.Context, keys ...string) (map[string]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make(map[string]string)
	for _, k := range keys {
		if v, ok := m.values[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (m *memSettings) Set(_ context.Context, key, value string) error {
	m.values[key] = value
	return nil
}

func (m *memSettings) Delete(_ context.Context, key string) error {
	delete(m.values, key)
	return nil
}

type memAudit struct{ logs []*entity.AuditLog }

func (m *memAudit) Create(_ context.Context, l *entity.AuditLog) error {
	m.logs = append(m.logs, l)
	return nil
}

type memTx struct {
	settings *memSettings
	audit    *memAudit
}

func (t *memTx) RunBilling(_ context.Context, fn func(repository.SettingRepository, repository.AuditLogRepository) error) error {
	return fn(t.settings, t.audit)
}

type memCompanies struct{ c *entity.Company }

func (m *memCompanies) Create(context.Context, *entity.Company) error { return nil }
func (m *memCompanies) GetByID(context.Context, string) (*entity.Company, error) {
	return m.c, nil
}
func (m *memCompanies) GetByCode(context.Context, string) (*entity.Company, error) {
	return m.c, nil
}

type memUsers struct{}

func (memUsers) Create(context.Context, *entity.User) error { return nil }
func (memUsers) GetByID(_ context.Context, id string) (*entity.User, error) {
	return &entity.User{ID: id, Email: "ops@acme.test"}, nil
}
func (memUsers) FindByLogin(context.Context, string) (*entity.User, error) { return nil, nil }
func (memUsers) ExistsByEmail(context.Context, string) (bool, error)      { return false, nil }
func (memUsers) TouchLastLogin(context.Context, string, time.Time) error   { return nil }

type memAnalytics struct{}

func (memAnalytics) GetInventoryTotals(context.Context, string) (*repository.InventoryTotals, error) {
	return &repository.InventoryTotals{}, nil
}
func (memAnalytics) GetTopValueSKUs(context.Context, string, int) ([]repository.TopValueSKU, error) {
	return nil, nil
}
func (memAnalytics) GetUsage(context.Context, string) (*repository.Usage, error) {
	return &repository.Usage{SKUs: 120, Warehouses: 1, Users: 3}, nil
}

type fakeProvider struct {
	event      *WebhookEvent
	parseErr   error
	customers  []CustomerParams
	exists     bool
	checkouts  []CheckoutParams
	portalURLs []string
}

func (f *fakeProvider) CreateCustomer(_ context.Context, p CustomerParams) (string, error) {
	f.customers = append(f.customers, p)
	return "cus_new", nil
}

func (f *fakeProvider) CustomerExists(context.Context, string) (bool, error) { return f.exists, nil }

func (f *fakeProvider) CreateCheckoutSession(_ context.Context, p CheckoutParams) (*CheckoutSession, error) {
	f.checkouts = append(f.checkouts, p)
	return &CheckoutSession{ID: "cs_1", URL: "https://pay.test/cs_1"}, nil
}

func (f *fakeProvider) CreatePortalSession(_ context.Context, _ string, returnURL string) (string, error) {
	f.portalURLs = append(f.portalURLs, returnURL)
	return "https://pay.test/portal", nil
}

func (f *fakeProvider) ParseWebhook([]byte, string) (*WebhookEvent, error) {
	return f.event, f.parseErr
}

type fixture struct {
	uc       *UseCase
	settings *memSettings
	audit    *memAudit
	provider *fakeProvider
}

func newFixture() *fixture {
	settings := &memSettings{values: map[string]string{}}
	audit := &memAudit{}
	provider := &fakeProvider{}
	uc := NewUseCase(
		&memTx{settings: settings, audit: audit},
		settings,
		&memCompanies{c: &entity.Company{ID: companyID, Name: "Acme", Email: "billing@acme.test", CreatedAt: now.AddDate(0, 0, -3)}},
		memUsers{},
		memAnalytics{},
		provider,
		Config{Prices: PriceIDs{Starter: "price_s", Professional: "price_p", Enterprise: "price_e"}, BaseURL: "https://app.test"},
		logger.Nop(),
	)
	uc.now = func() time.Time { return now }
	return &fixture{uc: uc, settings: settings, audit: audit, provider: provider}
}

func key(name string) string { return entity.CompanySettingKey(companyID, name) }

func TestPlans_Catalog(t *testing.T) {
	f := newFixture()
	plans := f.uc.Plans().Plans
	require.Len(t, plans, 3)
	assert.Equal(t, "starter", plans[0].ID)
	assert.Equal(t, 499, *plans[0].Price)
	assert.Equal(t, 1499, *plans[1].Price)
	assert.Nil(t, plans[2].Price, "enterprise tiene precio a medida")
	assert.Equal(t, Unlimited, plans[2].Features.MaxSKUs)
}

func TestWebhook_RequiresSignature(t *testing.T) {
	f := newFixture()
	f.provider.event = &WebhookEvent{Type: EventCheckoutCompleted, CompanyID: companyID, PlanID: "starter"}

	err := f.uc.HandleWebhook(context.Background(), []byte(`{}`), "")
	assert.ErrorIs(t, err, domain.ErrInvalidSignature)
	assert.Empty(t, f.settings.values, "un evento sin firma no debe aplicarse")
}

func TestWebhook_NotConfiguredAndBadSignature(t *testing.T) {
	f := newFixture()
	f.provider.parseErr = domain.ErrWebhookNotConfigured
	err := f.uc.HandleWebhook(context.Background(), []byte(`{}`), "t=1,v1=abc")
	assert.ErrorIs(t, err, domain.ErrWebhookNotConfigured)

	f.provider.parseErr = errors.New("signature mismatch")
	err = f.uc.HandleWebhook(context.Background(), []byte(`{}`), "t=1,v1=abc")
	assert.ErrorIs(t, err, domain.ErrInvalidSignature)
}

func TestWebhook_CheckoutCompletedActivatesPlan(t *testing.T) {
	f := newFixture()
	f.settings.values[key(entity.SettingPlan)] = entity.PlanTrial
	f.provider.event = &WebhookEvent{
		ID: "evt_1", Type: EventCheckoutCompleted, ObjectID: "cs_1",
		CompanyID: companyID, PlanID: "professional", SubscriptionID: "sub_1",
	}

	require.NoError(t, f.uc.HandleWebhook(context.Background(), []byte(`{}`), "sig"))
	assert.Equal(t, "professional", f.settings.values[key(entity.SettingPlan)])
	assert.Equal(t, StatusActive, f.settings.values[key(entity.SettingSubscriptionStatus)])
	assert.Equal(t, "sub_1", f.settings.values[key(entity.SettingStripeSubscriptionID)])
	require.Len(t, f.audit.logs, 1)
	assert.Equal(t, entity.AuditSubscriptionCreated, f.audit.logs[0].Action)
	assert.Equal(t, "cs_1", f.audit.logs[0].Details["sessionId"])
}

func TestWebhook_SubscriptionLifecycle(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.settings.values[key(entity.SettingPlan)] = entity.PlanStarter
	periodEnd := now.AddDate(0, 1, 0)

	f.provider.event = &WebhookEvent{Type: EventSubscriptionUpdated, CompanyID: companyID, Status: "past_due", CurrentPeriodEnd: &periodEnd}
	require.NoError(t, f.uc.HandleWebhook(ctx, nil, "sig"))
	assert.Equal(t, "past_due", f.settings.values[key(entity.SettingSubscriptionStatus)])
	assert.Equal(t, "2026-03-01T09:00:00Z", f.settings.values[key(entity.SettingCurrentPeriodEnd)])

	f.provider.event = &WebhookEvent{Type: EventSubscriptionDeleted, CompanyID: companyID, ObjectID: "sub_1"}
	require.NoError(t, f.uc.HandleWebhook(ctx, nil, "sig"))
	assert.Equal(t, StatusCanceled, f.settings.values[key(entity.SettingSubscriptionStatus)])
	_, hasPlan := f.settings.values[key(entity.SettingPlan)]
	assert.False(t, hasPlan)
	require.Len(t, f.audit.logs, 1)
	assert.Equal(t, entity.AuditSubscriptionCanceled, f.audit.logs[0].Action)

	sub, err := f.uc.Subscription(ctx, companyID)
	require.NoError(t, err)
	assert.Equal(t, StatusCanceled, sub.Status)
	assert.Nil(t, sub.Features)
}

func TestWebhook_IgnoredEvents(t *testing.T) {
	f := newFixture()
	for _, ev := range []*WebhookEvent{
		{Type: EventPaymentFailed, ObjectID: "in_1", CompanyID: companyID},
		{Type: "customer.created"},
		{Type: EventCheckoutCompleted},
	} {
		f.provider.event = ev
		require.NoError(t, f.uc.HandleWebhook(context.Background(), nil, "sig"))
	}
	assert.Empty(t, f.settings.values)
	assert.Empty(t, f.audit.logs)
}

func TestSubscription_TrialStates(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	sub, err := f.uc.Subscription(ctx, companyID)
	require.NoError(t, err)
	assert.Equal(t, StatusTrial, sub.Status)
	assert.Equal(t, entity.PlanStarter, sub.Plan)
	require.NotNil(t, sub.TrialEndsAt)
	assert.Equal(t, now.AddDate(0, 0, 11), *sub.TrialEndsAt)

	f.settings.values[key(entity.SettingPlan)] = entity.PlanTrial
	f.settings.values[key(entity.SettingTrialEndsAt)] = "2026-01-15T00:00:00Z"
	sub, err = f.uc.Subscription(ctx, companyID)
	require.NoError(t, err)
	assert.Equal(t, StatusExpired, sub.Status)
}

func TestUsage_UsesPlanLimits(t *testing.T) {
	f := newFixture()
	f.settings.values[key(entity.SettingPlan)] = entity.PlanProfessional

	u, err := f.uc.Usage(context.Background(), companyID)
	require.NoError(t, err)
	assert.Equal(t, 120, u.Usage.SKUs)
	assert.Equal(t, 100000, u.Limits.MaxSKUs)
	assert.Equal(t, "professional", u.Plan)
}

func TestCheckout_CreatesCustomerOnce(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	out, err := f.uc.Checkout(ctx, companyID, "u-1", "Starter")
	require.NoError(t, err)
	assert.Equal(t, "cs_1", out.SessionID)
	require.Len(t, f.provider.customers, 1)
	assert.Equal(t, "ops@acme.test", f.provider.customers[0].Email)
	assert.Equal(t, "cus_new", f.settings.values[key(entity.SettingStripeCustomerID)])
	require.Len(t, f.provider.checkouts, 1)
	assert.Equal(t, "price_s", f.provider.checkouts[0].PriceID)
	assert.Equal(t, "https://app.test/dashboard?checkout=success", f.provider.checkouts[0].SuccessURL)

	f.provider.exists = true
	_, err = f.uc.Portal(ctx, companyID, "u-1")
	require.NoError(t, err)
	assert.Len(t, f.provider.customers, 1, "el cliente existente se reutiliza")
	assert.Equal(t, []string{"https://app.test/dashboard"}, f.provider.portalURLs)
}

func TestCheckout_InvalidPlan(t *testing.T) {
	f := newFixture()
	_, err := f.uc.Checkout(context.Background(), companyID, "u-1", "platinum")
	assert.ErrorIs(t, err, domain.ErrInvalidPlan)
}
