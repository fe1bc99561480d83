package repository

import (
	"context"

	"github.com/jhoicas/flowlogic-api/internal/domain/entity"
)

// IngestionRepository persistencia de ejecuciones de importación y del puntero al lote vigente.
type IngestionRepository interface {
	// LockSource serializa ingestas concurrentes del mismo origen. Solo tiene efecto dentro de una transacción.
	LockSource(ctx context.Context, companyID, sourceKey string) error
	Create(ctx context.Context, ing *entity.Ingestion) error
	Finalize(ctx context.Context, ing *entity.Ingestion) error
	// SetCurrent mueve el puntero "lote vigente" del origen a ingestionID.
	SetCurrent(ctx context.Context, companyID, sourceKey, ingestionID string) error
	GetByID(ctx context.Context, companyID, id string) (*entity.Ingestion, error)
	ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]*entity.Ingestion, error)
	Last(ctx context.Context, companyID string) (*entity.Ingestion, error)
}
