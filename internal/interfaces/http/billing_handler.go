package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/flowlogic-api/internal/application/dto"
	"github.com/jhoicas/flowlogic-api/pkg/logger"
)

// BillingHandler planes, suscripción, checkout/portal y webhook del proveedor de pagos.
type BillingHandler struct {
	uc  billingService
	log *logger.Logger
}

// NewBillingHandler construye el handler.
func NewBillingHandler(uc billingService, log *logger.Logger) *BillingHandler {
	return &BillingHandler{uc: uc, log: log.Component("billing_http")}
}

// Plans godoc
// @Summary      Catálogo de planes
// @Tags         billing
// @Produce      json
// @Success      200  {object}  dto.PlansResponse
// @Router       /billing/plans [get]
func (h *BillingHandler) Plans(c *fiber.Ctx) error {
	return c.JSON(h.uc.Plans())
}

// Subscription godoc
// @Summary      Estado de la suscripción
// @Tags         billing
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.SubscriptionResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /billing/subscription [get]
func (h *BillingHandler) Subscription(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return noCompany(c)
	}
	out, err := h.uc.Subscription(c.Context(), companyID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Usage godoc
// @Summary      Uso frente a los límites del plan
// @Tags         billing
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.UsageResponse
// @Router       /billing/usage [get]
func (h *BillingHandler) Usage(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return noCompany(c)
	}
	out, err := h.uc.Usage(c.Context(), companyID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Checkout godoc
// @Summary      Crear sesión de checkout
// @Tags         billing
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CheckoutRequest  true  "plan_id"
// @Success      200   {object}  dto.CheckoutResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /billing/checkout [post]
func (h *BillingHandler) Checkout(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return noCompany(c)
	}
	var in dto.CheckoutRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	out, err := h.uc.Checkout(c.Context(), companyID, GetUserID(c), in.PlanID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Portal godoc
// @Summary      Crear sesión del portal de facturación
// @Tags         billing
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.PortalResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /billing/portal [post]
func (h *BillingHandler) Portal(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return noCompany(c)
	}
	out, err := h.uc.Portal(c.Context(), companyID, GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Webhook godoc
// @Summary      Webhook de Stripe
// @Description  Verifica siempre la cabecera Stripe-Signature contra STRIPE_WEBHOOK_SECRET.
// @Tags         billing
// @Accept       json
// @Produce      json
// @Param        Stripe-Signature  header  string  true  "firma del evento"
// @Success      200  {object}  dto.WebhookResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /billing/webhook [post]
func (h *BillingHandler) Webhook(c *fiber.Ctx) error {
	// c.Body() se reutiliza tras el handler; la firma se calcula sobre una copia.
	payload := append([]byte(nil), c.Body()...)
	if err := h.uc.HandleWebhook(c.Context(), payload, c.Get("Stripe-Signature")); err != nil {
		h.log.Warn().Err(err).Msg("webhook rechazado")
		return writeError(c, err)
	}
	return c.JSON(dto.WebhookResponse{Received: true})
}
