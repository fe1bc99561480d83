package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/flowlogic-api/internal/application/dto"
)

// DashboardHandler maneja el endpoint del Dashboard.
type DashboardHandler struct {
	uc dashboardService
}

// NewDashboardHandler construye el handler.
func NewDashboardHandler(uc dashboardService) *DashboardHandler {
	return &DashboardHandler{uc: uc}
}

// Get godoc
// @Summary      Dashboard
// @Description  Totales del inventario vigente, top SKUs por valor, alertas abiertas por
// @Description  severidad y última ingesta. Las consultas se ejecutan en paralelo.
// @Tags         dashboard
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.DashboardDTO
// @Failure      401  {object}  dto.ErrorResponse
// @Failure      402  {object}  dto.TrialExpiredResponse
// @Router       /api/dashboard [get]
func (h *DashboardHandler) Get(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return noCompany(c)
	}
	out, err := h.uc.GetDashboard(c.Context(), companyID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Code: "INTERNAL", Message: err.Error(),
		})
	}
	return c.JSON(out)
}
