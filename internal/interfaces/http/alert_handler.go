package http

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/flowlogic-api/internal/application/alerts"
	"github.com/jhoicas/flowlogic-api/internal/application/dto"
)

// AlertHandler endpoints de consulta y gestión de alertas. Todo se acota a la empresa del token.
type AlertHandler struct {
	uc      alertService
	insight insightService
}

// NewAlertHandler construye el handler. insight puede ser nil (endpoint responde 503).
func NewAlertHandler(uc alertService, insight insightService) *AlertHandler {
	return &AlertHandler{uc: uc, insight: insight}
}

// List godoc
// @Summary      Listar alertas
// @Description  Ordenadas por severidad y fecha descendente.
// @Tags         alerts
// @Security     Bearer
// @Produce      json
// @Param        warehouse_id  query  string  false  "bodega"
// @Param        type          query  string  false  "tipo"
// @Param        severity      query  string  false  "severidad"
// @Param        is_read       query  string  false  "true|false"
// @Param        is_resolved   query  string  false  "true|false"
// @Param        page          query  int     false  "página (desde 1)"
// @Param        limit         query  int     false  "tamaño (máx 100)"
// @Success      200  {object}  dto.AlertListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      402  {object}  dto.TrialExpiredResponse
// @Router       /api/alerts [get]
func (h *AlertHandler) List(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return noCompany(c)
	}
	var q dto.AlertListQuery
	if ok, err := parseQuery(c, &q); !ok {
		return err
	}
	out, err := h.uc.List(c.Context(), companyID, q)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Summary godoc
// @Summary      Resumen de alertas
// @Tags         alerts
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.AlertSummaryResponse
// @Router       /api/alerts/summary [get]
func (h *AlertHandler) Summary(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return noCompany(c)
	}
	out, err := h.uc.Summary(c.Context(), companyID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Unread godoc
// @Summary      Alertas no leídas
// @Tags         alerts
// @Security     Bearer
// @Produce      json
// @Param        warehouse_id  query  string  false  "bodega"
// @Param        limit         query  int     false  "máximo (por defecto 20)"
// @Success      200  {array}  dto.AlertResponse
// @Router       /api/alerts/unread [get]
func (h *AlertHandler) Unread(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return noCompany(c)
	}
	var warehouseID string
	if ok, err := parseWarehouseID(c, &warehouseID); !ok {
		return err
	}
	out, err := h.uc.Unread(c.Context(), companyID, warehouseID, c.QueryInt("limit", alerts.DefaultUnreadLimit))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Critical godoc
// @Summary      Alertas críticas abiertas
// @Tags         alerts
// @Security     Bearer
// @Produce      json
// @Param        warehouse_id  query  string  false  "bodega"
// @Success      200  {array}  dto.AlertResponse
// @Router       /api/alerts/critical [get]
func (h *AlertHandler) Critical(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return noCompany(c)
	}
	var warehouseID string
	if ok, err := parseWarehouseID(c, &warehouseID); !ok {
		return err
	}
	out, err := h.uc.Critical(c.Context(), companyID, warehouseID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Get godoc
// @Summary      Obtener alerta
// @Tags         alerts
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la alerta"
// @Success      200  {object}  dto.AlertResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/alerts/{id} [get]
func (h *AlertHandler) Get(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return noCompany(c)
	}
	var id string
	if ok, err := parseID(c, &id); !ok {
		return err
	}
	out, err := h.uc.Get(c.Context(), companyID, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Create godoc
// @Summary      Crear alerta manual
// @Tags         alerts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateAlertRequest  true  "alerta"
// @Success      201   {object}  dto.AlertResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/alerts [post]
func (h *AlertHandler) Create(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return noCompany(c)
	}
	var in dto.CreateAlertRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	out, err := h.uc.Create(c.Context(), companyID, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// MarkRead godoc
// @Summary      Marcar alerta como leída
// @Tags         alerts
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la alerta"
// @Success      200  {object}  dto.AlertResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/alerts/{id}/read [patch]
func (h *AlertHandler) MarkRead(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return noCompany(c)
	}
	var id string
	if ok, err := parseID(c, &id); !ok {
		return err
	}
	out, err := h.uc.MarkRead(c.Context(), companyID, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// BulkRead godoc
// @Summary      Marcar varias alertas como leídas
// @Tags         alerts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.BulkReadRequest  true  "1..100 IDs"
// @Success      200   {object}  dto.CountResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/alerts/bulk-read [patch]
func (h *AlertHandler) BulkRead(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return noCompany(c)
	}
	var in dto.BulkReadRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	n, err := h.uc.MarkManyRead(c.Context(), companyID, in.AlertIDs)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.CountResponse{Success: true, Count: n})
}

// MarkAllRead godoc
// @Summary      Marcar todas las alertas como leídas
// @Tags         alerts
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.CountResponse
// @Router       /api/alerts/mark-all-read [patch]
func (h *AlertHandler) MarkAllRead(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return noCompany(c)
	}
	n, err := h.uc.MarkAllRead(c.Context(), companyID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.CountResponse{Success: true, Count: n})
}

// Resolve godoc
// @Summary      Resolver alerta
// @Description  Idempotente: resolver una alerta ya resuelta devuelve su estado actual.
// @Tags         alerts
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la alerta"
// @Success      200  {object}  dto.AlertResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/alerts/{id}/resolve [patch]
func (h *AlertHandler) Resolve(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return noCompany(c)
	}
	var id string
	if ok, err := parseID(c, &id); !ok {
		return err
	}
	out, err := h.uc.Resolve(c.Context(), companyID, id, GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Cleanup godoc
// @Summary      Borrar alertas resueltas antiguas
// @Tags         alerts
// @Security     Bearer
// @Produce      json
// @Param        days_old  query  int  false  "antigüedad mínima en días (por defecto 30)"
// @Success      200  {object}  dto.CleanupResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/alerts/cleanup [delete]
func (h *AlertHandler) Cleanup(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return noCompany(c)
	}
	n, days, err := h.uc.Cleanup(c.Context(), companyID, c.QueryInt("days_old", alerts.DefaultCleanupDays))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.CleanupResponse{Success: true, Deleted: n, DaysOld: days})
}

// Insight godoc
// @Summary      Sugerir acción con IA
// @Description  Consulta el LLM y guarda la acción sugerida en la alerta. Timeout interno de 10 s.
// @Tags         alerts
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la alerta"
// @Success      200  {object}  dto.AlertInsightDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      408  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/alerts/{id}/insight [post]
func (h *AlertHandler) Insight(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return noCompany(c)
	}
	if h.insight == nil {
		return aiUnavailable(c)
	}
	var id string
	if ok, err := parseID(c, &id); !ok {
		return err
	}
	out, err := h.insight.Suggest(c.Context(), companyID, id)
	if err != nil {
		switch {
		case errors.Is(err, alerts.ErrInsightUnavailable):
			return aiUnavailable(c)
		case isTimeout(err):
			return c.Status(fiber.StatusRequestTimeout).JSON(dto.ErrorResponse{
				Code: "TIMEOUT", Message: "el servicio de IA tardó demasiado; intenta de nuevo",
			})
		}
		return writeError(c, err)
	}
	return c.JSON(out)
}

func aiUnavailable(c *fiber.Ctx) error {
	return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
		Code: "AI_UNAVAILABLE", Message: "el servicio de sugerencias IA no está configurado",
	})
}

// isTimeout detecta errores de timeout/cancelación de contexto en el mensaje de error.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "deadline exceeded") ||
		strings.Contains(msg, "cancelación")
}
