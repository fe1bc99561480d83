package repository

import (
	"context"
	"time"

	"github.com/jhoicas/flowlogic-api/internal/domain/entity"
)

// AlertFilter filtros de listado; los campos vacíos/nil no filtran.
type AlertFilter struct {
	CompanyID   string
	WarehouseID string
	Type        entity.AlertType
	Severity    entity.AlertSeverity
	MinSeverity entity.AlertSeverity // severidad igual o mayor
	IsRead      *bool
	IsResolved  *bool
	Limit       int
	Offset      int
}

// AlertSummary conteos agregados de alertas de una empresa.
type AlertSummary struct {
	Total      int
	Unread     int
	Unresolved int
	BySeverity map[entity.AlertSeverity]int // solo no resueltas
	ByType     map[entity.AlertType]int     // solo no resueltas
}

// AlertRepository persistencia de alertas. Toda operación está acotada a una empresa.
type AlertRepository interface {
	// Insert persiste la alerta. Con dedupe=true y DedupeKey no vacío, no inserta si ya existe
	// una alerta sin resolver con la misma clave y devuelve inserted=false.
	Insert(ctx context.Context, alert *entity.Alert, dedupe bool) (inserted bool, err error)
	GetByID(ctx context.Context, companyID, id string) (*entity.Alert, error)
	List(ctx context.Context, f AlertFilter) ([]*entity.Alert, int, error)
	Summary(ctx context.Context, companyID string) (*AlertSummary, error)
	MarkRead(ctx context.Context, companyID, id string) (bool, error)
	MarkManyRead(ctx context.Context, companyID string, ids []string) (int64, error)
	MarkAllRead(ctx context.Context, companyID string) (int64, error)
	Resolve(ctx context.Context, companyID, id, userID string, at time.Time) (*entity.Alert, error)
	SetSuggestedAction(ctx context.Context, companyID, id, action string) error
	// DeleteResolvedBefore borra alertas resueltas con resolved_at anterior a before.
	DeleteResolvedBefore(ctx context.Context, companyID string, before time.Time) (int64, error)
}
