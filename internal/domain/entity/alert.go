package entity

import (
	"strings"
	"time"
)

// AlertType categoría de un hallazgo.
type AlertType string

const (
	AlertLowStock             AlertType = "LOW_STOCK"
	AlertInventoryDiscrepancy AlertType = "INVENTORY_DISCREPANCY"
	AlertFWRDFragmentation    AlertType = "FWRD_FRAGMENTATION"
	AlertCapacityWarning      AlertType = "CAPACITY_WARNING"
	AlertOrderLate            AlertType = "ORDER_LATE"
	AlertCustom               AlertType = "CUSTOM"
)

// AlertTypes lista de tipos válidos (validación de entrada).
var AlertTypes = []AlertType{
	AlertLowStock, AlertInventoryDiscrepancy, AlertFWRDFragmentation,
	AlertCapacityWarning, AlertOrderLate, AlertCustom,
}

// AlertSeverity gravedad de un hallazgo.
type AlertSeverity string

const (
	SeverityInfo      AlertSeverity = "INFO"
	SeverityWarning   AlertSeverity = "WARNING"
	SeverityCritical  AlertSeverity = "CRITICAL"
	SeverityEmergency AlertSeverity = "EMERGENCY"
)

// Rank orden numérico de la severidad (mayor = más grave).
func (s AlertSeverity) Rank() int {
	switch s {
	case SeverityInfo:
		return 1
	case SeverityWarning:
		return 2
	case SeverityCritical:
		return 3
	case SeverityEmergency:
		return 4
	}
	return 0
}

// Alert hallazgo derivado del inventario o creado manualmente.
// Solo lo modifican las acciones de lectura/resolución; re-evaluar no lo toca.
type Alert struct {
	ID              string
	CompanyID       string
	WarehouseID     string
	IngestionID     string
	Type            AlertType
	Severity        AlertSeverity
	Title           string
	Message         string
	SKU             string
	LocationCode    string
	DedupeKey       string
	SuggestedAction string
	IsRead          bool
	IsResolved      bool
	ResolvedBy      string
	ResolvedAt      *time.Time
	CreatedAt       time.Time
}

// AlertDedupeKey clave de idempotencia (type|sku|location) para alertas derivadas.
func AlertDedupeKey(t AlertType, sku, location string) string {
	return strings.Join([]string{string(t), sku, location}, "|")
}

// Resolve marca la alerta como resuelta y leída.
func (a *Alert) Resolve(userID string, at time.Time) {
	a.IsResolved = true
	a.IsRead = true
	a.ResolvedBy = userID
	a.ResolvedAt = &at
}
