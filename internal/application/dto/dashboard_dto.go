package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// DashboardDTO respuesta de GET /api/dashboard.
// Los totales de inventario se calculan sobre los lotes vigentes de cada origen.
type DashboardDTO struct {
	Inventory     InventoryTotalsDTO `json:"inventory"`
	TopValueSKUs  []TopValueSKUDTO   `json:"top_value_skus"`
	Alerts        AlertCountsDTO     `json:"alerts"`
	LastIngestion *IngestionDTO      `json:"last_ingestion,omitempty"`
	GeneratedAt   time.Time          `json:"generated_at"`
}

// InventoryTotalsDTO agregados del inventario vigente.
type InventoryTotalsDTO struct {
	SKUs           int             `json:"skus"`
	Locations      int             `json:"locations"`
	Snapshots      int             `json:"snapshots"`
	QuantityOnHand decimal.Decimal `json:"quantity_on_hand"`
	QuantityATP    decimal.Decimal `json:"quantity_atp"`
	TotalValue     decimal.Decimal `json:"total_value"`
}

// TopValueSKUDTO SKU de mayor valor para el widget del dashboard.
type TopValueSKUDTO struct {
	SKU         string          `json:"sku"`
	ProductName string          `json:"product_name,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	Value       decimal.Decimal `json:"value"`
	Locations   int             `json:"locations"`
}

// AlertCountsDTO conteos de alertas abiertas.
type AlertCountsDTO struct {
	Unread     int            `json:"unread"`
	Unresolved int            `json:"unresolved"`
	BySeverity map[string]int `json:"by_severity"`
}
