// Package alerts casos de uso de consulta y gestión de alertas.
package alerts

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/flowlogic-api/internal/application/dto"
	"github.com/jhoicas/flowlogic-api/internal/application/ports"
	"github.com/jhoicas/flowlogic-api/internal/domain"
	"github.com/jhoicas/flowlogic-api/internal/domain/entity"
	"github.com/jhoicas/flowlogic-api/internal/domain/repository"
	"github.com/jhoicas/flowlogic-api/pkg/logger"
)

const (
	DefaultLimit       = 50
	MaxLimit           = 100
	DefaultUnreadLimit = 20
	DefaultCleanupDays = 30
	criticalLimit      = 20
	maxBulkIDs         = 100
)

// UseCase lectura, creación manual y transiciones (leída/resuelta) de alertas.
// Todas las operaciones están acotadas a la empresa del token.
type UseCase struct {
	repo      repository.AlertRepository
	publisher ports.AlertPublisher
	metrics   ports.MetricsRecorder
	log       *logger.Logger
	now       func() time.Time
}

// NewUseCase construye el caso de uso. publisher y metrics pueden ser nil.
func NewUseCase(repo repository.AlertRepository, publisher ports.AlertPublisher, metrics ports.MetricsRecorder, log *logger.Logger) *UseCase {
	if publisher == nil {
		publisher = ports.NopPublisher{}
	}
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	return &UseCase{
		repo:      repo,
		publisher: publisher,
		metrics:   metrics,
		log:       log.Component("alerts"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// List página de alertas ordenada por severidad y fecha. page empieza en 1.
func (uc *UseCase) List(ctx context.Context, companyID string, q dto.AlertListQuery) (*dto.AlertListResponse, error) {
	page := q.Page
	if page < 1 {
		page = 1
	}
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	f := repository.AlertFilter{
		CompanyID:   companyID,
		WarehouseID: q.WarehouseID,
		Type:        entity.AlertType(q.Type),
		Severity:    entity.AlertSeverity(q.Severity),
		IsRead:      parseBool(q.IsRead),
		IsResolved:  parseBool(q.IsResolved),
		Limit:       limit,
		Offset:      (page - 1) * limit,
	}
	list, total, err := uc.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	return &dto.AlertListResponse{
		Data:       toResponses(list),
		Pagination: dto.NewPagination(page, limit, total),
	}, nil
}

// Summary conteos globales y desglose de alertas abiertas.
func (uc *UseCase) Summary(ctx context.Context, companyID string) (*dto.AlertSummaryResponse, error) {
	s, err := uc.repo.Summary(ctx, companyID)
	if err != nil {
		return nil, err
	}
	out := &dto.AlertSummaryResponse{
		Total:          s.Total,
		Unread:         s.Unread,
		Unresolved:     s.Unresolved,
		SeverityCounts: make(map[string]int, len(s.BySeverity)),
		TypeCounts:     make(map[string]int, len(s.ByType)),
	}
	for k, v := range s.BySeverity {
		out.SeverityCounts[string(k)] = v
	}
	for k, v := range s.ByType {
		out.TypeCounts[string(k)] = v
	}
	return out, nil
}

// Unread alertas no leídas, las más graves primero.
func (uc *UseCase) Unread(ctx context.Context, companyID, warehouseID string, limit int) ([]dto.AlertResponse, error) {
	if limit <= 0 {
		limit = DefaultUnreadLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	unread := false
	list, _, err := uc.repo.List(ctx, repository.AlertFilter{
		CompanyID:   companyID,
		WarehouseID: warehouseID,
		IsRead:      &unread,
		Limit:       limit,
	})
	if err != nil {
		return nil, err
	}
	return toResponses(list), nil
}

// Critical alertas abiertas CRITICAL o EMERGENCY.
func (uc *UseCase) Critical(ctx context.Context, companyID, warehouseID string) ([]dto.AlertResponse, error) {
	open := false
	list, _, err := uc.repo.List(ctx, repository.AlertFilter{
		CompanyID:   companyID,
		WarehouseID: warehouseID,
		MinSeverity: entity.SeverityCritical,
		IsResolved:  &open,
		Limit:       criticalLimit,
	})
	if err != nil {
		return nil, err
	}
	return toResponses(list), nil
}

// Get devuelve una alerta o domain.ErrNotFound.
func (uc *UseCase) Get(ctx context.Context, companyID, id string) (*dto.AlertResponse, error) {
	a, err := uc.find(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	out := ToResponse(a)
	return &out, nil
}

// Create registra una alerta manual. No lleva clave de deduplicación.
func (uc *UseCase) Create(ctx context.Context, companyID string, in dto.CreateAlertRequest) (*dto.AlertResponse, error) {
	if !validType(entity.AlertType(in.Type)) || entity.AlertSeverity(in.Severity).Rank() == 0 {
		return nil, fmt.Errorf("%w: tipo o severidad desconocidos", domain.ErrInvalidInput)
	}
	if in.Title == "" || in.Message == "" {
		return nil, fmt.Errorf("%w: title y message son requeridos", domain.ErrInvalidInput)
	}
	a := &entity.Alert{
		ID:           uuid.New().String(),
		CompanyID:    companyID,
		WarehouseID:  in.WarehouseID,
		Type:         entity.AlertType(in.Type),
		Severity:     entity.AlertSeverity(in.Severity),
		Title:        in.Title,
		Message:      in.Message,
		SKU:          in.SKU,
		LocationCode: in.LocationCode,
		CreatedAt:    uc.now(),
	}
	if _, err := uc.repo.Insert(ctx, a, false); err != nil {
		return nil, err
	}
	uc.metrics.AlertsCreated(string(a.Type), 1)
	if err := uc.publisher.Publish(ctx, []entity.Alert{*a}); err != nil {
		uc.log.Warn().Err(err).Str("alert_id", a.ID).Msg("no se pudo publicar la alerta manual")
	}
	out := ToResponse(a)
	return &out, nil
}

// MarkRead marca una alerta como leída.
func (uc *UseCase) MarkRead(ctx context.Context, companyID, id string) (*dto.AlertResponse, error) {
	ok, err := uc.repo.MarkRead(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrNotFound
	}
	return uc.Get(ctx, companyID, id)
}

// MarkManyRead marca como leídas entre 1 y 100 alertas. Los ids de otra empresa se ignoran.
func (uc *UseCase) MarkManyRead(ctx context.Context, companyID string, ids []string) (int64, error) {
	if len(ids) == 0 || len(ids) > maxBulkIDs {
		return 0, fmt.Errorf("%w: se requieren entre 1 y %d ids", domain.ErrInvalidInput, maxBulkIDs)
	}
	return uc.repo.MarkManyRead(ctx, companyID, ids)
}

// MarkAllRead marca como leídas todas las alertas de la empresa.
func (uc *UseCase) MarkAllRead(ctx context.Context, companyID string) (int64, error) {
	return uc.repo.MarkAllRead(ctx, companyID)
}

// Resolve resuelve una alerta. Resolver dos veces conserva la primera resolución.
func (uc *UseCase) Resolve(ctx context.Context, companyID, id, userID string) (*dto.AlertResponse, error) {
	a, err := uc.repo.Resolve(ctx, companyID, id, userID, uc.now())
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, domain.ErrNotFound
	}
	out := ToResponse(a)
	return &out, nil
}

// Cleanup borra alertas resueltas hace más de daysOld días (0 usa el valor por defecto).
func (uc *UseCase) Cleanup(ctx context.Context, companyID string, daysOld int) (int64, int, error) {
	if daysOld < 0 {
		return 0, 0, fmt.Errorf("%w: days_old debe ser positivo", domain.ErrInvalidInput)
	}
	if daysOld == 0 {
		daysOld = DefaultCleanupDays
	}
	cutoff := uc.now().AddDate(0, 0, -daysOld)
	n, err := uc.repo.DeleteResolvedBefore(ctx, companyID, cutoff)
	if err != nil {
		return 0, daysOld, err
	}
	uc.log.Info().Str("company_id", companyID).Int64("deleted", n).Int("days_old", daysOld).Msg("limpieza de alertas resueltas")
	return n, daysOld, nil
}

func (uc *UseCase) find(ctx context.Context, companyID, id string) (*entity.Alert, error) {
	return findAlert(ctx, uc.repo, companyID, id)
}

func findAlert(ctx context.Context, repo repository.AlertRepository, companyID, id string) (*entity.Alert, error) {
	a, err := repo.GetByID(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, domain.ErrNotFound
	}
	return a, nil
}

// ToResponse convierte la entidad a DTO.
func ToResponse(a *entity.Alert) dto.AlertResponse {
	return dto.AlertResponse{
		ID:              a.ID,
		WarehouseID:     a.WarehouseID,
		IngestionID:     a.IngestionID,
		Type:            string(a.Type),
		Severity:        string(a.Severity),
		Title:           a.Title,
		Message:         a.Message,
		SKU:             a.SKU,
		LocationCode:    a.LocationCode,
		SuggestedAction: a.SuggestedAction,
		IsRead:          a.IsRead,
		IsResolved:      a.IsResolved,
		ResolvedBy:      a.ResolvedBy,
		ResolvedAt:      a.ResolvedAt,
		CreatedAt:       a.CreatedAt,
	}
}

func toResponses(list []*entity.Alert) []dto.AlertResponse {
	out := make([]dto.AlertResponse, 0, len(list))
	for _, a := range list {
		out = append(out, ToResponse(a))
	}
	return out
}

func validType(t entity.AlertType) bool {
	for _, v := range entity.AlertTypes {
		if v == t {
			return true
		}
	}
	return false
}

func parseBool(s string) *bool {
	switch s {
	case "true":
		v := true
		return &v
	case "false":
		v := false
		return &v
	}
	return nil
}
