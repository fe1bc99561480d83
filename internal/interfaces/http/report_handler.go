package http

import (
	"github.com/gofiber/fiber/v2"
)

// ReportHandler descargas PDF.
type ReportHandler struct {
	uc reportService
}

// NewReportHandler construye el handler.
func NewReportHandler(uc reportService) *ReportHandler {
	return &ReportHandler{uc: uc}
}

// AlertsPDF godoc
// @Summary      Reporte PDF de alertas abiertas
// @Tags         reports
// @Security     Bearer
// @Produce      application/pdf
// @Success      200  {file}  binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/reports/alerts.pdf [get]
func (h *ReportHandler) AlertsPDF(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return noCompany(c)
	}
	doc, filename, err := h.uc.UnresolvedAlertsPDF(c.Context(), companyID)
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(doc)
}
