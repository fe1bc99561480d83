package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/flowlogic-api/internal/domain/entity"
	"github.com/jhoicas/flowlogic-api/internal/domain/repository"
)

var _ repository.SnapshotRepository = (*SnapshotRepo)(nil)

// SnapshotRepo almacén append-only de inventory_snapshots.
type SnapshotRepo struct {
	db Querier
}

// NewSnapshotRepository construye el adaptador de snapshots.
func NewSnapshotRepository(db Querier) *SnapshotRepo {
	return &SnapshotRepo{db: db}
}

var snapshotColumns = []string{
	"id", "company_id", "ingestion_id", "sku", "product_name", "location_code", "location_type",
	"facility_id", "license_plate", "lot_number", "quantity_on_hand", "quantity_allocated",
	"quantity_available", "unit_cost", "currency", "snapshot_at", "raw_data",
}

// InsertBatch copia los snapshots con el protocolo COPY.
func (r *SnapshotRepo) InsertBatch(ctx context.Context, snapshots []entity.InventorySnapshot) (int64, error) {
	if len(snapshots) == 0 {
		return 0, nil
	}
	n, err := r.db.CopyFrom(ctx, pgx.Identifier{"inventory_snapshots"}, snapshotColumns,
		pgx.CopyFromSlice(len(snapshots), func(i int) ([]any, error) {
			s := &snapshots[i]
			return []any{
				s.ID, s.CompanyID, s.IngestionID, s.SKU, s.ProductName, s.LocationCode, s.LocationType,
				s.FacilityID, s.LicensePlate, s.LotNumber, s.QuantityOnHand, s.QuantityAllocated,
				s.QuantityAvailable, s.UnitCost, s.Currency, s.SnapshotAt, s.RawData,
			}, nil
		}),
	)
	if err != nil {
		return 0, fmt.Errorf("copy snapshots: %w", err)
	}
	return n, nil
}

// ListCurrent devuelve los snapshots de los lotes vigentes, ordenados por SKU y ubicación.
func (r *SnapshotRepo) ListCurrent(ctx context.Context, companyID string, limit int) ([]entity.InventorySnapshot, error) {
	query := `
		SELECT s.id, s.company_id, s.ingestion_id, s.sku, s.product_name, s.location_code, s.location_type,
		       s.facility_id, s.license_plate, s.lot_number, s.quantity_on_hand, s.quantity_allocated,
		       s.quantity_available, s.unit_cost, s.currency, s.snapshot_at
		  FROM inventory_snapshots s
		  JOIN ingestion_sources src ON src.current_ingestion_id = s.ingestion_id
		 WHERE src.company_id = $1
		 ORDER BY s.sku, s.location_code
		 LIMIT $2`
	rows, err := r.db.Query(ctx, query, companyID, limit)
	if err != nil {
		return nil, fmt.Errorf("list current snapshots: %w", err)
	}
	defer rows.Close()

	var list []entity.InventorySnapshot
	for rows.Next() {
		var s entity.InventorySnapshot
		if err := rows.Scan(
			&s.ID, &s.CompanyID, &s.IngestionID, &s.SKU, &s.ProductName, &s.LocationCode, &s.LocationType,
			&s.FacilityID, &s.LicensePlate, &s.LotNumber, &s.QuantityOnHand, &s.QuantityAllocated,
			&s.QuantityAvailable, &s.UnitCost, &s.Currency, &s.SnapshotAt,
		); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		list = append(list, s)
	}
	return list, rows.Err()
}
