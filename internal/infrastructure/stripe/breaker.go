package stripe

import (
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	stripego "github.com/stripe/stripe-go/v76"

	"github.com/jhoicas/flowlogic-api/internal/domain"
	"github.com/jhoicas/flowlogic-api/pkg/logger"
)

// BreakerConfig parámetros del circuit breaker frente a la API de Stripe.
type BreakerConfig struct {
	FailureThreshold uint32        // fallos consecutivos que abren el circuito
	Timeout          time.Duration // tiempo abierto antes de pasar a half-open
	MaxRequests      uint32        // peticiones permitidas en half-open
}

func (c BreakerConfig) withDefaults() BreakerConfig {
	if c.FailureThreshold == 0 {
		c.FailureThreshold = 5
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxRequests == 0 {
		c.MaxRequests = 1
	}
	return c
}

type breaker struct {
	cb *gobreaker.CircuitBreaker
}

func newBreaker(cfg BreakerConfig, log *logger.Logger) *breaker {
	cfg = cfg.withDefaults()
	return &breaker{cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "stripe",
		MaxRequests: cfg.MaxRequests,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= cfg.FailureThreshold
		},
		// Los 4xx son errores del cliente, no una caída del proveedor.
		IsSuccessful: func(err error) bool {
			return err == nil || isClientError(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("circuit breaker cambió de estado")
		},
	})}
}

// execute corre fn a través del breaker. Circuito abierto o saturado → domain.ErrUpstream.
func execute[T any](b *breaker, fn func() (T, error)) (T, error) {
	var zero T
	out, err := b.cb.Execute(func() (interface{}, error) {
		return fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return zero, fmt.Errorf("stripe: %v: %w", err, domain.ErrUpstream)
	}
	if err != nil {
		return zero, err
	}
	return out.(T), nil
}

func (b *breaker) state() gobreaker.State { return b.cb.State() }

func isClientError(err error) bool {
	var se *stripego.Error
	if errors.As(err, &se) {
		return se.HTTPStatusCode >= 400 && se.HTTPStatusCode < 500 && se.HTTPStatusCode != 429
	}
	return false
}

func isNotFound(err error) bool {
	var se *stripego.Error
	return errors.As(err, &se) && (se.HTTPStatusCode == 404 || se.Code == stripego.ErrorCodeResourceMissing)
}
