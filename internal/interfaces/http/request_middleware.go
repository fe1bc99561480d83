package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/jhoicas/flowlogic-api/pkg/logger"
)

// HeaderRequestID cabecera de correlación; si el cliente no la envía se genera.
const HeaderRequestID = "X-Request-ID"

// httpObserver recibe una observación por petición; lo implementa *metrics.Recorder.
type httpObserver interface {
	ObserveHTTP(method, route string, status int, d time.Duration)
}

// RequestLogger registra cada petición con zerolog y alimenta las métricas HTTP.
// obs puede ser nil.
func RequestLogger(log *logger.Logger, obs httpObserver) fiber.Handler {
	log = log.Component("http")
	return func(c *fiber.Ctx) error {
		start := time.Now()
		reqID := c.Get(HeaderRequestID)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Set(HeaderRequestID, reqID)

		err := c.Next()
		if err != nil {
			// Deja que el ErrorHandler de la app escriba la respuesta antes de leer el status.
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}
		status := c.Response().StatusCode()
		elapsed := time.Since(start)

		route := c.Route().Path
		if obs != nil {
			obs.ObserveHTTP(c.Method(), route, status, elapsed)
		}

		ev := log.Info()
		switch {
		case status >= 500:
			ev = log.Error().Err(err)
		case status >= 400:
			ev = log.Warn()
		}
		ev.Str("request_id", reqID).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Str("route", route).
			Int("status", status).
			Dur("latency", elapsed).
			Str("company_id", GetCompanyID(c)).
			Msg("petición HTTP")
		return nil
	}
}
