// Package alerting deriva alertas a partir de un conjunto de snapshots de inventario.
//
// Cada regla es una función pura del conjunto de snapshots; no hace I/O ni depende
// de las demás. El Evaluator las ejecuta en orden fijo y aísla sus fallos.
package alerting

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jhoicas/flowlogic-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// Input conjunto sobre el que se evalúan las reglas (normalmente un lote de ingesta).
type Input struct {
	CompanyID     string
	IngestionID   string
	SourceLabel   string // nombre legible del origen, ej. "OFBiz"
	Snapshots     []entity.InventorySnapshot
	ImportedCount int // registros importados; si es 0 se usa len(Snapshots)
	ProductCount  int
}

// Rule regla con nombre. Apply no debe modificar el Input.
type Rule struct {
	Name  string
	Apply func(in Input) ([]entity.Alert, error)
}

// Nombres de las reglas por defecto (también usados como etiqueta de métricas).
const (
	RuleLowStock      = "low_stock"
	RuleReserved      = "reserved_inventory"
	RuleHighValue     = "high_value"
	RuleFragmentation = "multi_location"
	RuleFWRD          = "fwrd_fragmentation"
	RuleSyncComplete  = "sync_complete"
)

// DefaultRules reglas en el orden de emisión: stock bajo, ATP, alto valor,
// multi-ubicación, FWRD y aviso de sincronización.
func DefaultRules(t Thresholds) []Rule {
	return []Rule{
		{Name: RuleLowStock, Apply: LowStock(t)},
		{Name: RuleReserved, Apply: ReservedInventory(t)},
		{Name: RuleHighValue, Apply: HighValue(t)},
		{Name: RuleFragmentation, Apply: MultiLocation(t)},
		{Name: RuleFWRD, Apply: FWRDFragmentation(t)},
		{Name: RuleSyncComplete, Apply: SyncComplete},
	}
}

// LowStock emite una alerta por snapshot con 0 < qty < LowStockMax, en orden de entrada.
// CRITICAL si qty < CriticalStockMax.
func LowStock(t Thresholds) func(Input) ([]entity.Alert, error) {
	return func(in Input) ([]entity.Alert, error) {
		var out []entity.Alert
		for i := range in.Snapshots {
			if len(out) >= t.LowStockLimit {
				break
			}
			s := &in.Snapshots[i]
			if !s.QuantityOnHand.IsPositive() || !s.QuantityOnHand.LessThan(t.LowStockMax) {
				continue
			}
			severity := entity.SeverityWarning
			if s.QuantityOnHand.LessThan(t.CriticalStockMax) {
				severity = entity.SeverityCritical
			}
			out = append(out, derived(entity.AlertLowStock, severity, s,
				"Low Stock: "+s.SKU,
				fmt.Sprintf("%s at %s has only %s units. ATP: %s",
					s.DisplayName(), s.LocationCode, s.QuantityOnHand, s.QuantityAvailable),
			))
		}
		return out, nil
	}
}

// ReservedInventory emite INFO cuando ATP < on-hand (hay cantidad reservada).
func ReservedInventory(t Thresholds) func(Input) ([]entity.Alert, error) {
	return func(in Input) ([]entity.Alert, error) {
		var out []entity.Alert
		for i := range in.Snapshots {
			if len(out) >= t.ReservedLimit {
				break
			}
			s := &in.Snapshots[i]
			if !s.QuantityOnHand.IsPositive() || !s.QuantityAvailable.LessThan(s.QuantityOnHand) {
				continue
			}
			out = append(out, derived(entity.AlertInventoryDiscrepancy, entity.SeverityInfo, s,
				"Reserved Inventory: "+s.SKU,
				fmt.Sprintf("%s has %s units reserved. On-hand: %s, ATP: %s",
					s.DisplayName(), s.Reserved(), s.QuantityOnHand, s.QuantityAvailable),
			))
		}
		return out, nil
	}
}

// HighValue emite una sola alerta para el snapshot de mayor valor (qty × costo)
// que supere HighValueFloor. En empate gana el primero en orden de entrada.
func HighValue(t Thresholds) func(Input) ([]entity.Alert, error) {
	return func(in Input) ([]entity.Alert, error) {
		type valued struct {
			idx   int
			value decimal.Decimal
		}
		var candidates []valued
		for i := range in.Snapshots {
			v := in.Snapshots[i].TotalValue()
			if v.GreaterThan(t.HighValueFloor) {
				candidates = append(candidates, valued{idx: i, value: v})
			}
		}
		if len(candidates) == 0 {
			return nil, nil
		}
		sort.SliceStable(candidates, func(a, b int) bool {
			return candidates[a].value.GreaterThan(candidates[b].value)
		})
		top := &in.Snapshots[candidates[0].idx]
		return []entity.Alert{derived(entity.AlertCapacityWarning, entity.SeverityInfo, top,
			"High Value Inventory: "+top.SKU,
			fmt.Sprintf("%s has $%s worth of inventory (%s units @ $%s/ea)",
				top.DisplayName(), candidates[0].value.StringFixed(2), top.QuantityOnHand, top.UnitCost.StringFixed(2)),
		)}, nil
	}
}

type skuGroup struct {
	sku       string
	name      string
	locations []string
	seen      map[string]struct{}
	total     decimal.Decimal
}

// MultiLocation agrupa por SKU y emite WARNING para cada SKU presente en más de
// una ubicación distinta. Las ubicaciones se listan en orden de aparición.
func MultiLocation(t Thresholds) func(Input) ([]entity.Alert, error) {
	return func(in Input) ([]entity.Alert, error) {
		var order []*skuGroup
		groups := make(map[string]*skuGroup)
		for i := range in.Snapshots {
			s := &in.Snapshots[i]
			g, ok := groups[s.SKU]
			if !ok {
				g = &skuGroup{sku: s.SKU, name: s.DisplayName(), seen: make(map[string]struct{})}
				groups[s.SKU] = g
				order = append(order, g)
			}
			if _, dup := g.seen[s.LocationCode]; !dup {
				g.seen[s.LocationCode] = struct{}{}
				g.locations = append(g.locations, s.LocationCode)
			}
			g.total = g.total.Add(s.QuantityOnHand)
		}

		var out []entity.Alert
		for _, g := range order {
			if len(out) >= t.FragmentationLimit {
				break
			}
			if len(g.locations) < 2 {
				continue
			}
			locs := strings.Join(g.locations, ", ")
			out = append(out, entity.Alert{
				Type:         entity.AlertInventoryDiscrepancy,
				Severity:     entity.SeverityWarning,
				Title:        "Split Inventory: " + g.sku,
				Message:      fmt.Sprintf("%s is split across %d locations (%s). Total: %s units. Consider consolidation.", g.name, len(g.locations), locs, g.total),
				SKU:          g.sku,
				LocationCode: locs,
				DedupeKey:    entity.AlertDedupeKey(entity.AlertInventoryDiscrepancy, g.sku, "*"),
			})
		}
		return out, nil
	}
}

type plateGroup struct {
	location string
	sku      string
	name     string
	plates   []string
	seen     map[string]struct{}
	total    decimal.Decimal
}

// FWRDFragmentation detecta ubicaciones FWRD con el mismo SKU repartido en varias
// license plates; esa fragmentación bloquea la reducción automática de balance.
func FWRDFragmentation(t Thresholds) func(Input) ([]entity.Alert, error) {
	return func(in Input) ([]entity.Alert, error) {
		var order []*plateGroup
		groups := make(map[string]*plateGroup)
		for i := range in.Snapshots {
			s := &in.Snapshots[i]
			if !s.IsForwardPick() || s.LicensePlate == "" {
				continue
			}
			key := s.LocationCode + "|" + s.SKU
			g, ok := groups[key]
			if !ok {
				g = &plateGroup{location: s.LocationCode, sku: s.SKU, name: s.DisplayName(), seen: make(map[string]struct{})}
				groups[key] = g
				order = append(order, g)
			}
			if _, dup := g.seen[s.LicensePlate]; !dup {
				g.seen[s.LicensePlate] = struct{}{}
				g.plates = append(g.plates, s.LicensePlate)
			}
			g.total = g.total.Add(s.QuantityOnHand)
		}

		var out []entity.Alert
		for _, g := range order {
			if len(out) >= t.FWRDLimit {
				break
			}
			if len(g.plates) < t.FWRDMinPlates {
				continue
			}
			out = append(out, entity.Alert{
				Type:     entity.AlertFWRDFragmentation,
				Severity: entity.SeverityWarning,
				Title:    fmt.Sprintf("FWRD Fragmentation: %s @ %s", g.sku, g.location),
				Message: fmt.Sprintf("%s at %s is held on %d license plates (%s) totaling %s units. Consolidate to one plate to allow balance-on-hand reduction.",
					g.name, g.location, len(g.plates), strings.Join(g.plates, ", "), g.total),
				SKU:             g.sku,
				LocationCode:    g.location,
				DedupeKey:       entity.AlertDedupeKey(entity.AlertFWRDFragmentation, g.sku, g.location),
				SuggestedAction: "Consolidate license plates in " + g.location,
			})
		}
		return out, nil
	}
}

// SyncComplete emite siempre un único aviso informativo ya resuelto con el resumen de la importación.
func SyncComplete(in Input) ([]entity.Alert, error) {
	source := in.SourceLabel
	if source == "" {
		source = "WMS"
	}
	imported := in.ImportedCount
	if imported == 0 {
		imported = len(in.Snapshots)
	}
	return []entity.Alert{{
		Type:       entity.AlertCustom,
		Severity:   entity.SeverityInfo,
		Title:      source + " Sync Complete",
		Message:    fmt.Sprintf("Successfully imported %d inventory items and %d products from %s.", imported, in.ProductCount, source),
		IsResolved: true,
	}}, nil
}

func derived(t entity.AlertType, sev entity.AlertSeverity, s *entity.InventorySnapshot, title, msg string) entity.Alert {
	return entity.Alert{
		Type:         t,
		Severity:     sev,
		Title:        title,
		Message:      msg,
		SKU:          s.SKU,
		LocationCode: s.LocationCode,
		DedupeKey:    entity.AlertDedupeKey(t, s.SKU, s.LocationCode),
	}
}
