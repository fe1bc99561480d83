package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/flowlogic-api/internal/domain"
	"github.com/jhoicas/flowlogic-api/internal/domain/entity"
	"github.com/jhoicas/flowlogic-api/internal/domain/repository"
)

var _ repository.WarehouseRepository = (*WarehouseRepo)(nil)

// WarehouseRepo implementación del puerto WarehouseRepository sobre PostgreSQL.
type WarehouseRepo struct {
	db Querier
}

// NewWarehouseRepository construye el adaptador de persistencia para bodegas.
func NewWarehouseRepository(db Querier) *WarehouseRepo {
	return &WarehouseRepo{db: db}
}

// Create persiste una nueva bodega.
func (r *WarehouseRepo) Create(ctx context.Context, warehouse *entity.Warehouse) error {
	query := `
		INSERT INTO warehouses (id, company_id, code, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.Exec(ctx, query,
		warehouse.ID, warehouse.CompanyID, warehouse.Code, warehouse.Name,
		warehouse.CreatedAt, warehouse.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert warehouse: %w", err)
	}
	return nil
}

// GetByID obtiene una bodega de la empresa por ID.
func (r *WarehouseRepo) GetByID(ctx context.Context, companyID, id string) (*entity.Warehouse, error) {
	query := `
		SELECT id, company_id, code, name, created_at, updated_at
		FROM warehouses WHERE company_id = $1 AND id = $2`
	var w entity.Warehouse
	err := r.db.QueryRow(ctx, query, companyID, id).Scan(
		&w.ID, &w.CompanyID, &w.Code, &w.Name, &w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get warehouse: %w", err)
	}
	return &w, nil
}

// ListByCompany lista las bodegas de una empresa ordenadas por código.
func (r *WarehouseRepo) ListByCompany(ctx context.Context, companyID string) ([]*entity.Warehouse, error) {
	query := `
		SELECT id, company_id, code, name, created_at, updated_at
		FROM warehouses WHERE company_id = $1 ORDER BY code`
	rows, err := r.db.Query(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("list warehouses: %w", err)
	}
	defer rows.Close()

	var list []*entity.Warehouse
	for rows.Next() {
		var w entity.Warehouse
		if err := rows.Scan(&w.ID, &w.CompanyID, &w.Code, &w.Name, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan warehouse: %w", err)
		}
		list = append(list, &w)
	}
	return list, rows.Err()
}
