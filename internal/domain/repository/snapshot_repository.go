package repository

import (
	"context"

	"github.com/jhoicas/flowlogic-api/internal/domain/entity"
)

// SnapshotRepository almacén append-only de snapshots de inventario.
type SnapshotRepository interface {
	// InsertBatch inserta todos los snapshots en bloque y devuelve cuántos se copiaron.
	InsertBatch(ctx context.Context, snapshots []entity.InventorySnapshot) (int64, error)
	// ListCurrent devuelve los snapshots de los lotes vigentes de la empresa (uno por origen).
	ListCurrent(ctx context.Context, companyID string, limit int) ([]entity.InventorySnapshot, error)
}
