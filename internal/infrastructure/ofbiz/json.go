package ofbiz

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/jhoicas/flowlogic-api/internal/application/ingestion"
)

// Claves en las que algunas exportaciones envuelven el arreglo de registros.
var envelopeKeys = []string{"data", "items", "inventory", "inventoryItems", "results"}

// decodeJSONRows acepta un arreglo de objetos o un objeto que lo envuelve.
// Los números se conservan como json.Number para no perder precisión.
// Un elemento que no es objeto no invalida el archivo: se devuelve como fila
// marcada con ingestion.FieldRecordError.
func decodeJSONRows(text []byte) ([]map[string]any, error) {
	text = bytes.TrimSpace(text)
	if len(text) == 0 {
		return nil, nil
	}

	if text[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(text, &items); err != nil {
			return nil, fmt.Errorf("JSON inválido: %w", err)
		}
		return decodeRecords(items), nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(text, &envelope); err != nil {
		return nil, fmt.Errorf("JSON inválido: %w", err)
	}
	for _, k := range envelopeKeys {
		raw, ok := envelope[k]
		if !ok {
			continue
		}
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("JSON inválido en %q: %w", k, err)
		}
		return decodeRecords(items), nil
	}
	return nil, fmt.Errorf("JSON sin arreglo de registros")
}

func decodeRecords(items []json.RawMessage) []map[string]any {
	rows := make([]map[string]any, 0, len(items))
	for i, raw := range items {
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		var row map[string]any
		err := dec.Decode(&row)
		switch {
		case err != nil:
			row = recordError("registro %d: no es un objeto JSON: %v", i+1, err)
		case row == nil:
			row = recordError("registro %d: null", i+1)
		}
		rows = append(rows, row)
	}
	return rows
}

func recordError(format string, args ...any) map[string]any {
	return map[string]any{ingestion.FieldRecordError: fmt.Sprintf(format, args...)}
}
