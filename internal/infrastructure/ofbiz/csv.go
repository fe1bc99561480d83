package ofbiz

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jhoicas/flowlogic-api/internal/application/ingestion"
)

// Nombres de los mapeos CSV.
const (
	MappingGeneric   = "generic"
	MappingManhattan = "manhattan"
	MappingSAP       = "sap"
	MappingOFBiz     = "ofbiz"
)

// DefaultMappings columnas de origen -> campo canónico por sistema.
func DefaultMappings() map[string]map[string]string {
	return map[string]map[string]string{
		MappingGeneric: {
			"sku":           ingestion.FieldProductID,
			"name":          ingestion.FieldProductName,
			"location":      ingestion.FieldLocation,
			"location_type": ingestion.FieldLocationType,
			"quantity":      ingestion.FieldOnHand,
			"allocated":     ingestion.FieldAllocated,
			"available":     ingestion.FieldATP,
			"unit_cost":     ingestion.FieldUnitCost,
			"currency":      ingestion.FieldCurrency,
			"license_plate": ingestion.FieldLicensePlate,
			"lot":           ingestion.FieldLot,
		},
		MappingManhattan: {
			"SKU":           ingestion.FieldProductID,
			"Location ID":   ingestion.FieldLocation,
			"On Hand Qty":   ingestion.FieldOnHand,
			"Allocated Qty": ingestion.FieldAllocated,
			"Available Qty": ingestion.FieldATP,
			"LPN":           ingestion.FieldLicensePlate,
		},
		MappingSAP: {
			"MATNR": ingestion.FieldProductID,
			"MAKTX": ingestion.FieldProductName,
			"LGPLA": ingestion.FieldLocation,
			"VERME": ingestion.FieldOnHand,
			"CHARG": ingestion.FieldLot,
			"LENUM": ingestion.FieldLicensePlate,
		},
		MappingOFBiz: {
			ingestion.FieldProductID:    ingestion.FieldProductID,
			ingestion.FieldProductName:  ingestion.FieldProductName,
			ingestion.FieldLocation:     ingestion.FieldLocation,
			ingestion.FieldFacility:     ingestion.FieldFacility,
			"quantityOnHandTotal":       ingestion.FieldOnHand,
			ingestion.FieldOnHand:       ingestion.FieldOnHand,
			"availableToPromiseTotal":   ingestion.FieldATP,
			ingestion.FieldATP:          ingestion.FieldATP,
			ingestion.FieldUnitCost:     ingestion.FieldUnitCost,
			"currencyUomId":             ingestion.FieldCurrency,
			ingestion.FieldLot:          ingestion.FieldLot,
			ingestion.FieldLicensePlate: ingestion.FieldLicensePlate,
		},
	}
}

func defaultMapping(name string) string {
	if name == "" {
		return MappingGeneric
	}
	return strings.ToLower(name)
}

// decodeCSV lee un CSV con cabecera. Las columnas mapeadas se renombran al campo canónico;
// las demás se conservan con su nombre original. Las cabeceras se comparan sin distinguir mayúsculas.
func decodeCSV(text []byte, mapping map[string]string) ([]map[string]any, error) {
	reader := csv.NewReader(bytes.NewReader(text))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("CSV inválido: %w", err)
	}

	lower := make(map[string]string, len(mapping))
	for src, dst := range mapping {
		lower[strings.ToLower(src)] = dst
	}
	columns := make([]string, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if dst, ok := lower[strings.ToLower(h)]; ok {
			columns[i] = dst
		} else {
			columns[i] = h
		}
	}

	var rows []map[string]any
	for line := 2; ; line++ {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			// El registro ilegible cuenta como error de su fila; la lectura sigue.
			rows = append(rows, recordError("CSV inválido en línea %d: %v", pe.StartLine, pe.Err))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("CSV inválido en línea %d: %w", line, err)
		}
		row := make(map[string]any, len(columns))
		for i, v := range rec {
			if i >= len(columns) {
				break
			}
			row[columns[i]] = strings.TrimSpace(v)
		}
		rows = append(rows, row)
	}
	return rows, nil
}
