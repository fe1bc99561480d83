package ingestion

import (
	"context"
	"io"

	"github.com/jhoicas/flowlogic-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Una ingesta completa (lock, snapshots, puntero y alertas) es atómica.
type TxRunner interface {
	RunIngestion(ctx context.Context, fn func(
		ingRepo repository.IngestionRepository,
		snapRepo repository.SnapshotRepository,
		alertRepo repository.AlertRepository,
		auditRepo repository.AuditLogRepository,
	) error) error
}

// Formatos de archivo soportados.
const (
	FormatJSON = "json"
	FormatXML  = "xml"
	FormatCSV  = "csv"
)

// DecodeOptions indica cómo leer el archivo externo.
type DecodeOptions struct {
	Format   string // json | xml | csv
	Mapping  string // generic | manhattan | sap | ofbiz (solo CSV)
	Encoding string // utf-8 (default) | iso-8859-1
}

// Document archivo externo ya decodificado. Cada fila usa los nombres de campo
// de OFBiz (productId, quantityOnHand, availableToPromise, locationSeqId, ...).
type Document struct {
	Rows     []map[string]any
	Products map[string]string // productId -> nombre, si el archivo los trae
	Checksum string            // sha256 hex del contenido (canónico en XML)
}

// Decoder puerto de lectura de exportaciones externas.
type Decoder interface {
	Decode(r io.Reader, opts DecodeOptions) (*Document, error)
	// DecodeProducts lee un catálogo de productos (productId, productName/internalName).
	DecodeProducts(r io.Reader, opts DecodeOptions) (map[string]string, error)
	// Mappings nombres de los mapeos CSV disponibles y sus columnas de origen.
	Mappings() map[string]map[string]string
}
