package stripe

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	stripego "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/flowlogic-api/internal/application/billing"
	"github.com/jhoicas/flowlogic-api/internal/domain"
	"github.com/jhoicas/flowlogic-api/pkg/logger"
)

const testSecret = "whsec_test"

type fakeBackend struct {
	customerErr  error
	getErr       error
	deleted      bool
	lastCheckout *stripego.CheckoutSessionParams
	calls        int
}

func (f *fakeBackend) NewCustomer(p *stripego.CustomerParams) (*stripego.Customer, error) {
	f.calls++
	if f.customerErr != nil {
		return nil, f.customerErr
	}
	return &stripego.Customer{ID: "cus_1", Email: *p.Email}, nil
}

func (f *fakeBackend) GetCustomer(id string, _ *stripego.CustomerParams) (*stripego.Customer, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return &stripego.Customer{ID: id, Deleted: f.deleted}, nil
}

func (f *fakeBackend) NewCheckoutSession(p *stripego.CheckoutSessionParams) (*stripego.CheckoutSession, error) {
	f.lastCheckout = p
	return &stripego.CheckoutSession{ID: "cs_1", URL: "https://checkout.stripe.test/cs_1"}, nil
}

func (f *fakeBackend) NewPortalSession(p *stripego.BillingPortalSessionParams) (*stripego.BillingPortalSession, error) {
	return &stripego.BillingPortalSession{URL: "https://billing.stripe.test/p"}, nil
}

func newTestProvider(b backend, secret string) *Provider {
	return newProvider(b, Config{WebhookSecret: secret, Breaker: BreakerConfig{FailureThreshold: 2, Timeout: time.Minute}}, logger.Nop())
}

func signed(t *testing.T, payload string) (string, []byte) {
	t.Helper()
	sp := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(payload),
		Secret:    testSecret,
		Timestamp: time.Now(),
	})
	return sp.Header, sp.Payload
}

func TestParseWebhook_CheckoutCompleted(t *testing.T) {
	p := newTestProvider(&fakeBackend{}, testSecret)
	header, body := signed(t, `{"id":"evt_1","object":"event","type":"checkout.session.completed",
		"data":{"object":{"id":"cs_1","object":"checkout.session","subscription":"sub_9",
		"metadata":{"companyId":"c1","planId":"professional"}}}}`)

	ev, err := p.ParseWebhook(body, header)
	require.NoError(t, err)
	assert.Equal(t, billing.EventCheckoutCompleted, ev.Type)
	assert.Equal(t, "c1", ev.CompanyID)
	assert.Equal(t, "professional", ev.PlanID)
	assert.Equal(t, "sub_9", ev.SubscriptionID)
	assert.Equal(t, "cs_1", ev.ObjectID)
}

func TestParseWebhook_SubscriptionUpdated(t *testing.T) {
	p := newTestProvider(&fakeBackend{}, testSecret)
	header, body := signed(t, `{"id":"evt_2","object":"event","type":"customer.subscription.updated",
		"data":{"object":{"id":"sub_9","object":"subscription","status":"past_due",
		"current_period_end":1767225600,"metadata":{"companyId":"c1"}}}}`)

	ev, err := p.ParseWebhook(body, header)
	require.NoError(t, err)
	assert.Equal(t, "past_due", ev.Status)
	require.NotNil(t, ev.CurrentPeriodEnd)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), *ev.CurrentPeriodEnd)
}

func TestParseWebhook_SignatureErrors(t *testing.T) {
	payload := []byte(`{"id":"evt_1","type":"x"}`)

	_, err := newTestProvider(&fakeBackend{}, "").ParseWebhook(payload, "t=1,v1=abc")
	assert.ErrorIs(t, err, domain.ErrWebhookNotConfigured)

	p := newTestProvider(&fakeBackend{}, testSecret)
	_, err = p.ParseWebhook(payload, "")
	assert.ErrorIs(t, err, domain.ErrInvalidSignature)

	_, err = p.ParseWebhook(payload, "t=1,v1=deadbeef")
	assert.ErrorIs(t, err, domain.ErrInvalidSignature)
}

func TestCreateCheckoutSession_SetsMetadata(t *testing.T) {
	fb := &fakeBackend{}
	p := newTestProvider(fb, testSecret)
	s, err := p.CreateCheckoutSession(context.Background(), billing.CheckoutParams{
		CustomerID: "cus_1", PriceID: "price_pro", CompanyID: "c1", PlanID: "professional",
		SuccessURL: "https://app/ok", CancelURL: "https://app/cancel",
	})
	require.NoError(t, err)
	assert.Equal(t, "cs_1", s.ID)
	require.NotNil(t, fb.lastCheckout)
	assert.Equal(t, "c1", fb.lastCheckout.Metadata[metaCompanyID])
	assert.Equal(t, "professional", fb.lastCheckout.SubscriptionData.Metadata[metaPlanID])
	assert.Nil(t, fb.lastCheckout.SubscriptionData.TrialPeriodDays)
}

func TestCustomerExists(t *testing.T) {
	p := newTestProvider(&fakeBackend{deleted: true}, testSecret)
	ok, err := p.CustomerExists(context.Background(), "cus_1")
	require.NoError(t, err)
	assert.False(t, ok)

	p = newTestProvider(&fakeBackend{getErr: &stripego.Error{HTTPStatusCode: 404, Code: stripego.ErrorCodeResourceMissing}}, testSecret)
	ok, err = p.CustomerExists(context.Background(), "cus_x")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	fb := &fakeBackend{customerErr: errors.New("connection reset")}
	p := newTestProvider(fb, testSecret)

	for i := 0; i < 2; i++ {
		_, err := p.CreateCustomer(context.Background(), billing.CustomerParams{Email: fmt.Sprintf("a%d@x.io", i)})
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, p.breaker.state())

	_, err := p.CreateCustomer(context.Background(), billing.CustomerParams{Email: "b@x.io"})
	assert.ErrorIs(t, err, domain.ErrUpstream)
	assert.Equal(t, 2, fb.calls)
}

func TestBreaker_ClientErrorsDoNotTrip(t *testing.T) {
	fb := &fakeBackend{customerErr: &stripego.Error{HTTPStatusCode: 400, Msg: "bad email"}}
	p := newTestProvider(fb, testSecret)
	for i := 0; i < 3; i++ {
		_, err := p.CreateCustomer(context.Background(), billing.CustomerParams{Email: "x"})
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateClosed, p.breaker.state())
}
