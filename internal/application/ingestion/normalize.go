package ingestion

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/flowlogic-api/internal/domain/entity"
)

// Campos canónicos de una fila (nomenclatura OFBiz).
const (
	FieldProductID    = "productId"
	FieldProductName  = "productName"
	FieldInternalName = "internalName"
	FieldOnHand       = "quantityOnHand"
	FieldAllocated    = "quantityAllocated"
	FieldATP          = "availableToPromise"
	FieldLocation     = "locationSeqId"
	FieldLocationType = "locationType"
	FieldFacility     = "facilityId"
	FieldUnitCost     = "unitCost"
	FieldCurrency     = "currency"
	FieldLicensePlate = "licensePlate"
	FieldLot          = "lotId"

	// FieldRecordError lo asigna el decodificador a un registro ilegible; Normalize
	// lo devuelve como error de esa fila.
	FieldRecordError = "_recordError"
)

const defaultCurrency = "USD"

// Normalize convierte una fila externa en snapshot. No asigna IDs, empresa ni fecha.
// Reglas: cantidad ausente = 0; ATP ausente = on-hand - asignado; sin ubicación = DEFAULT;
// SKU ausente o números ilegibles son error del registro.
func Normalize(row map[string]any, products map[string]string) (entity.InventorySnapshot, error) {
	var s entity.InventorySnapshot

	if msg := text(row[FieldRecordError]); msg != "" {
		return s, errors.New(msg)
	}

	s.SKU = text(row[FieldProductID])
	if s.SKU == "" {
		return s, fmt.Errorf("falta %s", FieldProductID)
	}

	var err error
	if s.QuantityOnHand, _, err = number(row, FieldOnHand); err != nil {
		return s, err
	}
	allocated, hasAllocated, err := number(row, FieldAllocated)
	if err != nil {
		return s, err
	}
	atp, hasATP, err := number(row, FieldATP)
	if err != nil {
		return s, err
	}
	switch {
	case hasATP && hasAllocated:
		s.QuantityAvailable, s.QuantityAllocated = atp, allocated
	case hasATP:
		s.QuantityAvailable = atp
		s.QuantityAllocated = decimal.Max(s.QuantityOnHand.Sub(atp), decimal.Zero)
	default:
		s.QuantityAllocated = allocated
		s.QuantityAvailable = s.QuantityOnHand.Sub(allocated)
	}
	if s.UnitCost, _, err = number(row, FieldUnitCost); err != nil {
		return s, err
	}

	s.LocationCode = text(row[FieldLocation])
	if s.LocationCode == "" {
		s.LocationCode = entity.DefaultLocationCode
	}
	s.LocationType = LocationType(text(row[FieldLocationType]), s.LocationCode)
	s.FacilityID = text(row[FieldFacility])
	s.LicensePlate = text(row[FieldLicensePlate])
	s.LotNumber = text(row[FieldLot])
	s.Currency = strings.ToUpper(text(row[FieldCurrency]))
	if s.Currency == "" {
		s.Currency = defaultCurrency
	}

	s.ProductName = products[s.SKU]
	if s.ProductName == "" {
		s.ProductName = text(row[FieldProductName])
	}
	if s.ProductName == "" {
		s.ProductName = text(row[FieldInternalName])
	}
	s.RawData = row
	return s, nil
}

// LocationType usa el tipo explícito si viene; si no, lo infiere del prefijo del código.
func LocationType(explicit, code string) string {
	if t := strings.ToUpper(strings.TrimSpace(explicit)); t != "" {
		return t
	}
	upper := strings.ToUpper(code)
	switch {
	case strings.HasPrefix(upper, entity.LocationForward):
		return entity.LocationForward
	case strings.HasPrefix(upper, entity.LocationPick):
		return entity.LocationPick
	case strings.HasPrefix(upper, entity.LocationReserve), strings.HasPrefix(upper, "RSV"):
		return entity.LocationReserve
	case strings.HasPrefix(upper, entity.LocationBulk):
		return entity.LocationBulk
	}
	return entity.LocationWarehouse
}

// number lee un campo numérico: número JSON o cadena numérica. ok=false si el campo no viene.
func number(row map[string]any, field string) (decimal.Decimal, bool, error) {
	v, present := row[field]
	if !present || v == nil {
		return decimal.Zero, false, nil
	}
	switch n := v.(type) {
	case json.Number:
		d, err := decimal.NewFromString(n.String())
		if err != nil {
			return decimal.Zero, true, fmt.Errorf("%s inválido: %q", field, n.String())
		}
		return d, true, nil
	case float64:
		return decimal.NewFromFloat(n), true, nil
	case int:
		return decimal.NewFromInt(int64(n)), true, nil
	case int64:
		return decimal.NewFromInt(n), true, nil
	case string:
		str := strings.TrimSpace(n)
		if str == "" {
			return decimal.Zero, false, nil
		}
		d, err := decimal.NewFromString(strings.ReplaceAll(str, ",", ""))
		if err != nil {
			return decimal.Zero, true, fmt.Errorf("%s inválido: %q", field, n)
		}
		return d, true, nil
	}
	return decimal.Zero, true, fmt.Errorf("%s inválido: tipo %T", field, v)
}

// text convierte un valor escalar en cadena recortada.
func text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	return strings.TrimSpace(fmt.Sprint(v))
}
