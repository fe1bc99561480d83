package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/flowlogic-api/internal/domain/repository"
)

// Asegura en tiempo de compilación que AnalyticsRepo implementa la interfaz.
var _ repository.AnalyticsRepository = (*AnalyticsRepo)(nil)

// AnalyticsRepo implementa consultas analíticas de solo lectura sobre PostgreSQL.
// Todas las consultas leen únicamente los lotes vigentes (ingestion_sources).
type AnalyticsRepo struct {
	db Querier
}

// NewAnalyticsRepository construye el adaptador analítico.
func NewAnalyticsRepository(db Querier) *AnalyticsRepo {
	return &AnalyticsRepo{db: db}
}

const currentSnapshots = `
	inventory_snapshots s
	JOIN ingestion_sources src ON src.current_ingestion_id = s.ingestion_id`

// GetInventoryTotals agregados del inventario vigente. COALESCE devuelve ceros sin datos.
func (r *AnalyticsRepo) GetInventoryTotals(ctx context.Context, companyID string) (*repository.InventoryTotals, error) {
	query := `
		SELECT count(DISTINCT s.sku),
		       count(DISTINCT s.location_code),
		       count(*),
		       COALESCE(SUM(s.quantity_on_hand), 0),
		       COALESCE(SUM(s.quantity_available), 0),
		       COALESCE(SUM(s.quantity_on_hand * s.unit_cost), 0)
		  FROM ` + currentSnapshots + `
		 WHERE src.company_id = $1`
	var t repository.InventoryTotals
	err := r.db.QueryRow(ctx, query, companyID).Scan(
		&t.SKUs, &t.Locations, &t.Snapshots, &t.QuantityOnHand, &t.QuantityATP, &t.TotalValue,
	)
	if err != nil {
		return nil, fmt.Errorf("inventory totals: %w", err)
	}
	return &t, nil
}

// GetTopValueSKUs SKUs ordenados por valor (qty × costo) descendente.
func (r *AnalyticsRepo) GetTopValueSKUs(ctx context.Context, companyID string, limit int) ([]repository.TopValueSKU, error) {
	query := `
		SELECT s.sku,
		       MAX(s.product_name),
		       SUM(s.quantity_on_hand),
		       SUM(s.quantity_on_hand * s.unit_cost) AS value,
		       count(DISTINCT s.location_code)
		  FROM ` + currentSnapshots + `
		 WHERE src.company_id = $1
		 GROUP BY s.sku
		 ORDER BY value DESC, s.sku
		 LIMIT $2`
	rows, err := r.db.Query(ctx, query, companyID, limit)
	if err != nil {
		return nil, fmt.Errorf("top value skus: %w", err)
	}
	defer rows.Close()

	var out []repository.TopValueSKU
	for rows.Next() {
		var t repository.TopValueSKU
		if err := rows.Scan(&t.SKU, &t.ProductName, &t.Quantity, &t.Value, &t.Locations); err != nil {
			return nil, fmt.Errorf("scan top sku: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// GetUsage consumo del plan: SKUs vigentes, bodegas y usuarios activos.
func (r *AnalyticsRepo) GetUsage(ctx context.Context, companyID string) (*repository.Usage, error) {
	query := `
		SELECT
		  (SELECT count(DISTINCT s.sku) FROM ` + currentSnapshots + ` WHERE src.company_id = $1),
		  (SELECT count(*) FROM warehouses WHERE company_id = $1),
		  (SELECT count(*) FROM users WHERE company_id = $1 AND status = 'active')`
	var u repository.Usage
	if err := r.db.QueryRow(ctx, query, companyID).Scan(&u.SKUs, &u.Warehouses, &u.Users); err != nil {
		return nil, fmt.Errorf("usage: %w", err)
	}
	return &u, nil
}
