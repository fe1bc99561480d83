package entity

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de ubicación conocidos. El origen puede enviar otros valores; se guardan tal cual.
const (
	LocationPick      = "PICK"
	LocationReserve   = "RESERVE"
	LocationForward   = "FWRD"
	LocationBulk      = "BULK"
	LocationWarehouse = "WAREHOUSE"
)

// DefaultLocationCode se usa cuando el registro externo no trae ubicación.
const DefaultLocationCode = "DEFAULT"

// InventorySnapshot cantidad de un SKU en una ubicación en un instante dado.
// Es inmutable: una importación posterior agrega filas nuevas, nunca actualiza estas.
type InventorySnapshot struct {
	ID                string
	CompanyID         string
	IngestionID       string
	SKU               string
	ProductName       string
	LocationCode      string
	LocationType      string
	FacilityID        string
	LicensePlate      string
	LotNumber         string
	QuantityOnHand    decimal.Decimal
	QuantityAllocated decimal.Decimal
	QuantityAvailable decimal.Decimal // ATP
	UnitCost          decimal.Decimal
	Currency          string
	SnapshotAt        time.Time
	RawData           map[string]any
}

// Reserved devuelve la cantidad comprometida (on-hand menos ATP), nunca negativa.
func (s *InventorySnapshot) Reserved() decimal.Decimal {
	r := s.QuantityOnHand.Sub(s.QuantityAvailable)
	if r.IsNegative() {
		return decimal.Zero
	}
	return r
}

// TotalValue devuelve on-hand × costo unitario.
func (s *InventorySnapshot) TotalValue() decimal.Decimal {
	return s.QuantityOnHand.Mul(s.UnitCost)
}

// IsForwardPick informa si la ubicación es de picking avanzado (FWRD).
func (s *InventorySnapshot) IsForwardPick() bool {
	return strings.EqualFold(s.LocationType, LocationForward) ||
		strings.HasPrefix(strings.ToUpper(s.LocationCode), LocationForward)
}

// DisplayName nombre legible del producto; cae al SKU si no hay nombre.
func (s *InventorySnapshot) DisplayName() string {
	if s.ProductName != "" {
		return s.ProductName
	}
	return s.SKU
}
