// Package ofbiz lee exportaciones de inventario de Apache OFBiz (JSON y entity-engine XML)
// y archivos CSV de otros WMS con mapeos de columnas.
package ofbiz

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/flowlogic-api/internal/application/ingestion"
)

var _ ingestion.Decoder = (*Decoder)(nil)

// Decoder implementa ingestion.Decoder para JSON, XML y CSV.
type Decoder struct {
	mappings map[string]map[string]string
}

// NewDecoder construye el decodificador con los mapeos CSV por defecto.
func NewDecoder() *Decoder {
	return &Decoder{mappings: DefaultMappings()}
}

// Decode lee el archivo completo, calcula el checksum y delega según el formato.
func (d *Decoder) Decode(r io.Reader, opts ingestion.DecodeOptions) (*ingestion.Document, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("leer archivo: %w", err)
	}
	switch strings.ToLower(opts.Format) {
	case ingestion.FormatXML:
		return decodeXML(raw)
	case ingestion.FormatCSV:
		mapping, ok := d.mappings[defaultMapping(opts.Mapping)]
		if !ok {
			return nil, fmt.Errorf("mapeo desconocido: %q", opts.Mapping)
		}
		text, err := toUTF8(raw, opts.Encoding)
		if err != nil {
			return nil, err
		}
		rows, err := decodeCSV(text, mapping)
		if err != nil {
			return nil, err
		}
		return &ingestion.Document{Rows: rows, Checksum: checksum(raw)}, nil
	case ingestion.FormatJSON, "":
		text, err := toUTF8(raw, opts.Encoding)
		if err != nil {
			return nil, err
		}
		rows, err := decodeJSONRows(text)
		if err != nil {
			return nil, err
		}
		return &ingestion.Document{Rows: rows, Checksum: checksum(raw)}, nil
	}
	return nil, fmt.Errorf("formato no soportado: %q", opts.Format)
}

// DecodeProducts lee un catálogo JSON de productos.
func (d *Decoder) DecodeProducts(r io.Reader, opts ingestion.DecodeOptions) (map[string]string, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("leer catálogo: %w", err)
	}
	text, err := toUTF8(raw, opts.Encoding)
	if err != nil {
		return nil, err
	}
	rows, err := decodeJSONRows(text)
	if err != nil {
		return nil, err
	}
	return productNames(rows), nil
}

// Mappings copia de los mapeos CSV disponibles.
func (d *Decoder) Mappings() map[string]map[string]string {
	out := make(map[string]map[string]string, len(d.mappings))
	for name, m := range d.mappings {
		cp := make(map[string]string, len(m))
		for k, v := range m {
			cp[k] = v
		}
		out[name] = cp
	}
	return out
}

func checksum(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// toUTF8 decodifica ISO-8859-1 / Windows-1252; cualquier otro valor se asume UTF-8.
func toUTF8(raw []byte, encoding string) ([]byte, error) {
	var dec *charmap.Charmap
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(encoding), "_", "-")) {
	case "", "utf-8", "utf8":
		return bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf")), nil
	case "iso-8859-1", "iso8859-1", "latin1", "latin-1":
		dec = charmap.ISO8859_1
	case "windows-1252", "cp1252":
		dec = charmap.Windows1252
	default:
		return nil, fmt.Errorf("codificación no soportada: %q", encoding)
	}
	out, _, err := transform.Bytes(dec.NewDecoder(), raw)
	if err != nil {
		return nil, fmt.Errorf("decodificar %s: %w", encoding, err)
	}
	return out, nil
}

// productNames arma productId -> nombre a partir de filas de catálogo.
func productNames(rows []map[string]any) map[string]string {
	out := make(map[string]string, len(rows))
	for _, row := range rows {
		id := str(row[ingestion.FieldProductID])
		if id == "" {
			continue
		}
		name := str(row[ingestion.FieldProductName])
		if name == "" {
			name = str(row["name"])
		}
		if name == "" {
			name = str(row[ingestion.FieldInternalName])
		}
		if name != "" {
			out[id] = name
		}
	}
	return out
}

func str(v any) string {
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	if v == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(v))
}
