package repository

import (
	"context"

	"github.com/jhoicas/flowlogic-api/internal/domain/entity"
)

// AuditLogRepository bitácora de auditoría (solo inserción).
type AuditLogRepository interface {
	Create(ctx context.Context, log *entity.AuditLog) error
}
