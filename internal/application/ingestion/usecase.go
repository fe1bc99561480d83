// Package ingestion importa exportaciones de WMS externos como snapshots de inventario
// y deriva alertas del lote importado.
package ingestion

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/flowlogic-api/internal/application/ports"
	"github.com/jhoicas/flowlogic-api/internal/domain"
	"github.com/jhoicas/flowlogic-api/internal/domain/alerting"
	"github.com/jhoicas/flowlogic-api/internal/domain/entity"
	"github.com/jhoicas/flowlogic-api/internal/domain/repository"
	"github.com/jhoicas/flowlogic-api/pkg/logger"
)

const (
	maxStoredErrors   = 100 // errores guardados en la ingesta
	maxReportedErrors = 20  // errores devueltos al cliente
)

// ImportRequest una importación de un archivo externo.
type ImportRequest struct {
	CompanyID   string
	UserID      string
	SourceKey   string // identidad del origen; si vacío se usa "<source>:<mapping>"
	Source      string // etiqueta legible: OFBiz, manhattan, sap, manual
	Filename    string
	Format      string // si vacío se infiere de la extensión de Filename
	MappingType string
	Encoding    string
	Data        io.Reader
	Products    io.Reader // catálogo opcional de productos
}

// ImportResult resumen de la importación.
type ImportResult struct {
	IngestionID   string
	Status        string
	Imported      int
	ErrorCount    int
	Errors        []entity.IngestionError // primeros 20
	ProductCount  int
	AlertsCreated int
	AlertsSkipped int // descartadas por deduplicación
	RuleFailures  []string
}

// ImportUseCase orquesta decodificación, normalización, persistencia y evaluación de reglas.
type ImportUseCase struct {
	tx         TxRunner
	ingestions repository.IngestionRepository
	decoder    Decoder
	evaluator  *alerting.Evaluator
	publisher  ports.AlertPublisher
	metrics    ports.MetricsRecorder
	dedupe     bool
	log        *logger.Logger
	now        func() time.Time
}

// NewImportUseCase construye el caso de uso. publisher y metrics pueden ser nil.
func NewImportUseCase(
	tx TxRunner,
	ingestions repository.IngestionRepository,
	decoder Decoder,
	evaluator *alerting.Evaluator,
	publisher ports.AlertPublisher,
	metrics ports.MetricsRecorder,
	dedupe bool,
	log *logger.Logger,
) *ImportUseCase {
	if publisher == nil {
		publisher = ports.NopPublisher{}
	}
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	return &ImportUseCase{
		tx:         tx,
		ingestions: ingestions,
		decoder:    decoder,
		evaluator:  evaluator,
		publisher:  publisher,
		metrics:    metrics,
		dedupe:     dedupe,
		log:        log.Component("ingestion"),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Mappings mapeos CSV disponibles.
func (uc *ImportUseCase) Mappings() map[string]map[string]string {
	return uc.decoder.Mappings()
}

// History historial de ingestas de la empresa, la más reciente primero.
func (uc *ImportUseCase) History(ctx context.Context, companyID string, limit, offset int) ([]*entity.Ingestion, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return uc.ingestions.ListByCompany(ctx, companyID, limit, offset)
}

// Import ejecuta una importación completa. Los registros inválidos se cuentan como errores
// y no abortan; un archivo ilegible devuelve domain.ErrInvalidInput.
func (uc *ImportUseCase) Import(ctx context.Context, req ImportRequest) (*ImportResult, error) {
	if req.CompanyID == "" || req.Data == nil {
		return nil, domain.ErrInvalidInput
	}
	opts := DecodeOptions{
		Format:   detectFormat(req.Format, req.Filename),
		Mapping:  strings.ToLower(req.MappingType),
		Encoding: req.Encoding,
	}
	if req.Source == "" {
		req.Source = "manual"
	}
	if req.SourceKey == "" {
		req.SourceKey = strings.ToLower(req.Source) + ":" + defaultString(opts.Mapping, opts.Format)
	}

	doc, err := uc.decoder.Decode(req.Data, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	products := doc.Products
	if req.Products != nil {
		extra, err := uc.decoder.DecodeProducts(req.Products, DecodeOptions{Format: FormatJSON, Encoding: req.Encoding})
		if err != nil {
			return nil, fmt.Errorf("%w: catálogo de productos: %v", domain.ErrInvalidInput, err)
		}
		products = mergeProducts(products, extra)
	}

	now := uc.now()
	ing := &entity.Ingestion{
		ID:           uuid.NewString(),
		CompanyID:    req.CompanyID,
		SourceKey:    req.SourceKey,
		Source:       req.Source,
		Filename:     req.Filename,
		DataType:     entity.DataTypeInventorySnapshot,
		MappingType:  opts.Mapping,
		Status:       entity.IngestionPending,
		ProductCount: len(products),
		Checksum:     doc.Checksum,
		StartedAt:    now,
	}

	snapshots, recordErrs := uc.normalize(doc.Rows, products, ing, now)

	res := &ImportResult{IngestionID: ing.ID, ProductCount: len(products)}
	var created []entity.Alert
	err = uc.tx.RunIngestion(ctx, func(
		ingRepo repository.IngestionRepository,
		snapRepo repository.SnapshotRepository,
		alertRepo repository.AlertRepository,
		auditRepo repository.AuditLogRepository,
	) error {
		if err := ingRepo.LockSource(ctx, ing.CompanyID, ing.SourceKey); err != nil {
			return err
		}
		if err := ingRepo.Create(ctx, ing); err != nil {
			return err
		}
		n, err := snapRepo.InsertBatch(ctx, snapshots)
		if err != nil {
			return err
		}

		ing.Errors = truncate(recordErrs, maxStoredErrors)
		ing.Finalize(int(n), len(recordErrs), uc.now())
		if err := ingRepo.Finalize(ctx, ing); err != nil {
			return err
		}
		// Un lote sin ningún registro válido no reemplaza el inventario vigente.
		if ing.Status != entity.IngestionFailed {
			if err := ingRepo.SetCurrent(ctx, ing.CompanyID, ing.SourceKey, ing.ID); err != nil {
				return err
			}
		}

		report := uc.evaluator.Evaluate(alerting.Input{
			CompanyID:     ing.CompanyID,
			IngestionID:   ing.ID,
			SourceLabel:   ing.Source,
			Snapshots:     snapshots,
			ImportedCount: int(n),
			ProductCount:  len(products),
		})
		for _, f := range report.Failures {
			uc.log.Error().Err(f.Err).Str("rule", f.Rule).Str("ingestion_id", ing.ID).Msg("regla de alertas falló")
			res.RuleFailures = append(res.RuleFailures, f.Rule)
		}

		created = created[:0]
		res.AlertsSkipped = 0
		for i := range report.Alerts {
			a := report.Alerts[i]
			a.ID = uuid.NewString()
			a.CreatedAt = now
			if a.IsResolved && a.ResolvedAt == nil {
				a.ResolvedAt = &now
			}
			inserted, err := alertRepo.Insert(ctx, &a, uc.dedupe)
			if err != nil {
				return err
			}
			if !inserted {
				res.AlertsSkipped++
				continue
			}
			created = append(created, a)
		}

		return auditRepo.Create(ctx, &entity.AuditLog{
			ID:         uuid.NewString(),
			CompanyID:  ing.CompanyID,
			UserID:     req.UserID,
			Action:     entity.AuditIngestionCompleted,
			EntityType: "ingestion",
			EntityID:   ing.ID,
			Details: map[string]any{
				"source_key": ing.SourceKey,
				"status":     ing.Status,
				"records":    ing.RecordCount,
				"errors":     ing.ErrorCount,
				"alerts":     len(created),
			},
			CreatedAt: now,
		})
	})
	if err != nil {
		uc.metrics.IngestionFinished(entity.IngestionFailed, 0, len(recordErrs))
		return nil, fmt.Errorf("importar %s: %w", req.SourceKey, err)
	}

	res.Status = ing.Status
	res.Imported = ing.RecordCount
	res.ErrorCount = ing.ErrorCount
	res.Errors = truncate(recordErrs, maxReportedErrors)
	res.AlertsCreated = len(created)

	uc.record(res, created)
	if len(created) > 0 {
		if err := uc.publisher.Publish(ctx, created); err != nil {
			uc.log.Warn().Err(err).Str("ingestion_id", ing.ID).Msg("no se pudieron publicar alertas")
		}
	}
	uc.log.Info().
		Str("ingestion_id", ing.ID).
		Str("company_id", ing.CompanyID).
		Str("source_key", ing.SourceKey).
		Str("status", ing.Status).
		Int("records", res.Imported).
		Int("errors", res.ErrorCount).
		Int("alerts", res.AlertsCreated).
		Int("alerts_skipped", res.AlertsSkipped).
		Msg("ingesta finalizada")
	return res, nil
}

// normalize convierte filas en snapshots; las filas son 1-based en los errores.
func (uc *ImportUseCase) normalize(rows []map[string]any, products map[string]string, ing *entity.Ingestion, at time.Time) ([]entity.InventorySnapshot, []entity.IngestionError) {
	snapshots := make([]entity.InventorySnapshot, 0, len(rows))
	var errs []entity.IngestionError
	for i, row := range rows {
		s, err := Normalize(row, products)
		if err != nil {
			errs = append(errs, entity.IngestionError{Row: i + 1, Message: err.Error()})
			continue
		}
		s.ID = uuid.NewString()
		s.CompanyID = ing.CompanyID
		s.IngestionID = ing.ID
		s.SnapshotAt = at
		snapshots = append(snapshots, s)
	}
	return snapshots, errs
}

func (uc *ImportUseCase) record(res *ImportResult, created []entity.Alert) {
	uc.metrics.IngestionFinished(res.Status, res.Imported, res.ErrorCount)
	byType := make(map[entity.AlertType]int)
	for _, a := range created {
		byType[a.Type]++
	}
	for t, n := range byType {
		uc.metrics.AlertsCreated(string(t), n)
	}
	if res.AlertsSkipped > 0 {
		uc.metrics.AlertsDeduplicated(res.AlertsSkipped)
	}
	for _, r := range res.RuleFailures {
		uc.metrics.RuleFailed(r)
	}
}

func detectFormat(format, filename string) string {
	if f := strings.ToLower(strings.TrimSpace(format)); f != "" {
		return f
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xml":
		return FormatXML
	case ".csv", ".txt":
		return FormatCSV
	}
	return FormatJSON
}

func mergeProducts(a, b map[string]string) map[string]string {
	out := make(map[string]string, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}

func truncate(errs []entity.IngestionError, n int) []entity.IngestionError {
	if len(errs) > n {
		return errs[:n]
	}
	return errs
}

func defaultString(s, def string) string {
	if s != "" {
		return s
	}
	return def
}
