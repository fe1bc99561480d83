package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/flowlogic-api/internal/application/dto"
	"github.com/jhoicas/flowlogic-api/internal/application/trial"
)

// trialChecker contrato mínimo del gate de prueba; lo implementa *trial.Gate.
type trialChecker interface {
	Check(ctx context.Context, companyID string) trial.Decision
}

// TrialMiddleware bloquea con 402 a las empresas con prueba vencida.
// Debe usarse DESPUÉS de AuthMiddleware. Sin company_id deja pasar; los fallos
// de lectura ya se resuelven como "permitir" dentro del gate.
func TrialMiddleware(gate trialChecker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		companyID := GetCompanyID(c)
		if companyID == "" {
			return c.Next()
		}
		d := gate.Check(c.Context(), companyID)
		if !d.Allow {
			return c.Status(fiber.StatusPaymentRequired).JSON(dto.TrialExpiredResponse{
				Error:        "Trial expired",
				Message:      "Your free trial has ended. Please upgrade to continue using FlowLogic.",
				TrialExpired: true,
				UpgradeURL:   "/billing",
			})
		}
		return c.Next()
	}
}
