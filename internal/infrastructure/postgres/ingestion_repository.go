package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/flowlogic-api/internal/domain/entity"
	"github.com/jhoicas/flowlogic-api/internal/domain/repository"
)

var _ repository.IngestionRepository = (*IngestionRepo)(nil)

// IngestionRepo persistencia de ingestas y de ingestion_sources.
type IngestionRepo struct {
	db Querier
}

// NewIngestionRepository construye el adaptador de ingestas.
func NewIngestionRepository(db Querier) *IngestionRepo {
	return &IngestionRepo{db: db}
}

const ingestionColumns = `id, company_id, source_key, source, filename, data_type, mapping_type, status,
	record_count, error_count, product_count, checksum, errors, started_at, completed_at`

// LockSource toma un advisory lock de transacción sobre (empresa, origen).
// Se libera solo al terminar la transacción.
func (r *IngestionRepo) LockSource(ctx context.Context, companyID, sourceKey string) error {
	if _, err := r.db.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, companyID+"|"+sourceKey); err != nil {
		return fmt.Errorf("lock ingestion source: %w", err)
	}
	return nil
}

// Create inserta la ingesta (normalmente en PENDING).
func (r *IngestionRepo) Create(ctx context.Context, ing *entity.Ingestion) error {
	query := `
		INSERT INTO ingestions (` + ingestionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err := r.db.Exec(ctx, query,
		ing.ID, ing.CompanyID, ing.SourceKey, ing.Source, ing.Filename, ing.DataType,
		ing.MappingType, ing.Status, ing.RecordCount, ing.ErrorCount, ing.ProductCount,
		ing.Checksum, errorsJSON(ing.Errors), ing.StartedAt, ing.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert ingestion: %w", err)
	}
	return nil
}

// Finalize guarda estado, conteos y errores finales.
func (r *IngestionRepo) Finalize(ctx context.Context, ing *entity.Ingestion) error {
	query := `
		UPDATE ingestions
		   SET status = $2, record_count = $3, error_count = $4, product_count = $5,
		       checksum = $6, errors = $7, completed_at = $8
		 WHERE id = $1`
	_, err := r.db.Exec(ctx, query,
		ing.ID, ing.Status, ing.RecordCount, ing.ErrorCount, ing.ProductCount,
		ing.Checksum, errorsJSON(ing.Errors), ing.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("finalize ingestion: %w", err)
	}
	return nil
}

// SetCurrent mueve el puntero del lote vigente.
func (r *IngestionRepo) SetCurrent(ctx context.Context, companyID, sourceKey, ingestionID string) error {
	query := `
		INSERT INTO ingestion_sources (company_id, source_key, current_ingestion_id, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (company_id, source_key)
		DO UPDATE SET current_ingestion_id = EXCLUDED.current_ingestion_id, updated_at = now()`
	if _, err := r.db.Exec(ctx, query, companyID, sourceKey, ingestionID); err != nil {
		return fmt.Errorf("set current ingestion: %w", err)
	}
	return nil
}

// GetByID obtiene una ingesta de la empresa.
func (r *IngestionRepo) GetByID(ctx context.Context, companyID, id string) (*entity.Ingestion, error) {
	row := r.db.QueryRow(ctx, `SELECT `+ingestionColumns+` FROM ingestions WHERE company_id = $1 AND id = $2`, companyID, id)
	ing, err := scanIngestion(row)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get ingestion: %w", err)
	}
	return ing, nil
}

// Last devuelve la ingesta más reciente de la empresa o nil.
func (r *IngestionRepo) Last(ctx context.Context, companyID string) (*entity.Ingestion, error) {
	row := r.db.QueryRow(ctx, `SELECT `+ingestionColumns+` FROM ingestions WHERE company_id = $1 ORDER BY started_at DESC LIMIT 1`, companyID)
	ing, err := scanIngestion(row)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("last ingestion: %w", err)
	}
	return ing, nil
}

// ListByCompany historial de ingestas, la más reciente primero.
func (r *IngestionRepo) ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]*entity.Ingestion, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+ingestionColumns+` FROM ingestions
		 WHERE company_id = $1 ORDER BY started_at DESC LIMIT $2 OFFSET $3`, companyID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list ingestions: %w", err)
	}
	defer rows.Close()

	var list []*entity.Ingestion
	for rows.Next() {
		ing, err := scanIngestion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ingestion: %w", err)
		}
		list = append(list, ing)
	}
	return list, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIngestion(row rowScanner) (*entity.Ingestion, error) {
	var ing entity.Ingestion
	err := row.Scan(
		&ing.ID, &ing.CompanyID, &ing.SourceKey, &ing.Source, &ing.Filename, &ing.DataType,
		&ing.MappingType, &ing.Status, &ing.RecordCount, &ing.ErrorCount, &ing.ProductCount,
		&ing.Checksum, &ing.Errors, &ing.StartedAt, &ing.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &ing, nil
}

func errorsJSON(errs []entity.IngestionError) []entity.IngestionError {
	if errs == nil {
		return []entity.IngestionError{}
	}
	return errs
}
