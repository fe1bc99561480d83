package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/flowlogic-api/internal/domain/entity"
	"github.com/jhoicas/flowlogic-api/internal/domain/repository"
)

var _ repository.AuditLogRepository = (*AuditLogRepo)(nil)

// AuditLogRepo bitácora de auditoría sobre audit_logs.
type AuditLogRepo struct {
	db Querier
}

// NewAuditLogRepository construye el adaptador de auditoría.
func NewAuditLogRepository(db Querier) *AuditLogRepo {
	return &AuditLogRepo{db: db}
}

// Create inserta un registro. Details se guarda como JSONB.
func (r *AuditLogRepo) Create(ctx context.Context, log *entity.AuditLog) error {
	query := `
		INSERT INTO audit_logs (id, company_id, user_id, action, entity_type, entity_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.Exec(ctx, query,
		log.ID, log.CompanyID, nullIfEmpty(log.UserID), log.Action,
		log.EntityType, log.EntityID, log.Details, log.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}
