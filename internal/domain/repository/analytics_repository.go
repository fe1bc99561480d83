package repository

import (
	"context"

	"github.com/shopspring/decimal"
)

// InventoryTotals agregados del inventario vigente de una empresa.
type InventoryTotals struct {
	SKUs           int
	Locations      int
	Snapshots      int
	QuantityOnHand decimal.Decimal
	QuantityATP    decimal.Decimal
	TotalValue     decimal.Decimal // Σ qty × unit_cost
}

// TopValueSKU SKU con mayor valor de inventario.
type TopValueSKU struct {
	SKU         string
	ProductName string
	Quantity    decimal.Decimal
	Value       decimal.Decimal
	Locations   int
}

// Usage consumo actual frente a los límites del plan.
type Usage struct {
	SKUs       int
	Warehouses int
	Users      int
}

// AnalyticsRepository define las consultas de lectura para dashboard y uso del plan.
// Las implementaciones son read-only (no modifican datos).
type AnalyticsRepository interface {
	// GetInventoryTotals agrega sobre los lotes vigentes (puntero ingestion_sources).
	GetInventoryTotals(ctx context.Context, companyID string) (*InventoryTotals, error)

	// GetTopValueSKUs devuelve los `limit` SKUs de mayor valor en el inventario vigente.
	GetTopValueSKUs(ctx context.Context, companyID string, limit int) ([]TopValueSKU, error)

	// GetUsage cuenta SKUs vigentes, bodegas y usuarios activos.
	GetUsage(ctx context.Context, companyID string) (*Usage, error)
}
