package ingestion

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/flowlogic-api/internal/application/ports"
	"github.com/jhoicas/flowlogic-api/internal/domain"
	"github.com/jhoicas/flowlogic-api/internal/domain/alerting"
	"github.com/jhoicas/flowlogic-api/internal/domain/entity"
	"github.com/jhoicas/flowlogic-api/internal/domain/repository"
	"github.com/jhoicas/flowlogic-api/pkg/logger"
)

const companyID = "11111111-1111-1111-1111-111111111111"

type recordingMetrics struct {
	ports.NopMetrics
	statuses []string
	dedup    int
	failed   []string
}

func (m *recordingMetrics) IngestionFinished(status string, _, _ int) {
	m.statuses = append(m.statuses, status)
}
func (m *recordingMetrics) AlertsDeduplicated(n int) { m.dedup += n }
func (m *recordingMetrics) RuleFailed(rule string)   { m.failed = append(m.failed, rule) }

type recordingPublisher struct {
	ports.NopPublisher
	published [][]entity.Alert
	err       error
}

func (p *recordingPublisher) Publish(_ context.Context, alerts []entity.Alert) error {
	p.published = append(p.published, alerts)
	return p.err
}

type historyRepo struct {
	repository.IngestionRepository
	limit, offset int
}

func (h *historyRepo) ListByCompany(_ context.Context, _ string, limit, offset int) ([]*entity.Ingestion, error) {
	h.limit, h.offset = limit, offset
	return []*entity.Ingestion{{ID: "i1"}}, nil
}

type fixture struct {
	store     *memStore
	decoder   *stubDecoder
	metrics   *recordingMetrics
	publisher *recordingPublisher
	uc        *ImportUseCase
}

func newFixture(t *testing.T, rows []map[string]any, rules ...alerting.Rule) *fixture {
	t.Helper()
	f := &fixture{
		store:     newMemStore(),
		decoder:   &stubDecoder{doc: &Document{Rows: rows, Checksum: "abc"}},
		metrics:   &recordingMetrics{},
		publisher: &recordingPublisher{},
	}
	ev := alerting.NewEvaluator(alerting.DefaultThresholds(), rules...)
	f.uc = NewImportUseCase(f.store, &historyRepo{}, f.decoder, ev, f.publisher, f.metrics, true, logger.Nop())
	f.uc.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return f
}

func req() ImportRequest {
	return ImportRequest{
		CompanyID: companyID,
		SourceKey: "ofbiz:derby-export",
		Source:    "OFBiz",
		Filename:  "ofbiz-inventory.json",
		Data:      strings.NewReader("[]"),
	}
}

func row(sku, qty, atp, loc string) map[string]any {
	return map[string]any{
		"productId":          sku,
		"quantityOnHand":     json.Number(qty),
		"availableToPromise": json.Number(atp),
		"locationSeqId":      loc,
	}
}

// ─── Casos ────────────────────────────────────────────────────────────────────

func TestImport_ConjuntoVacio_SoloSyncComplete(t *testing.T) {
	f := newFixture(t, nil)

	res, err := f.uc.Import(context.Background(), req())
	require.NoError(t, err)

	assert.Equal(t, entity.IngestionCompleted, res.Status)
	assert.Zero(t, res.Imported)
	assert.Empty(t, f.store.snapshots)
	require.Len(t, f.store.alerts, 1)
	a := f.store.alerts[0]
	assert.Equal(t, entity.AlertCustom, a.Type)
	assert.True(t, a.IsResolved)
	assert.NotNil(t, a.ResolvedAt)
	assert.Equal(t, "OFBiz Sync Complete", a.Title)
	assert.Equal(t, 1, res.AlertsCreated)
}

func TestImport_RegistrosInvalidosSeCuentan(t *testing.T) {
	rows := []map[string]any{
		row("A", "20", "20", "L1"),
		{"quantityOnHand": "3"},                     // sin SKU
		{"productId": "B", "quantityOnHand": "mal"}, // número ilegible
		row("C", "30", "30", "L2"),
	}
	f := newFixture(t, rows)

	res, err := f.uc.Import(context.Background(), req())
	require.NoError(t, err)

	assert.Equal(t, entity.IngestionCompletedWithErrors, res.Status)
	assert.Equal(t, 2, res.Imported)
	assert.Equal(t, 2, res.ErrorCount)
	require.Len(t, res.Errors, 2)
	assert.Equal(t, 2, res.Errors[0].Row)
	assert.Equal(t, 3, res.Errors[1].Row)
	assert.Len(t, f.store.snapshots, 2)
}

func TestImport_RegistroIlegibleDelDecodificadorSeCuenta(t *testing.T) {
	rows := []map[string]any{
		row("A", "3", "3", "L1"),
		row("B", "4", "4", "L2"),
		{FieldRecordError: "registro 3: no es un objeto JSON"},
	}
	f := newFixture(t, rows)

	res, err := f.uc.Import(context.Background(), req())
	require.NoError(t, err)

	assert.Equal(t, entity.IngestionCompletedWithErrors, res.Status)
	assert.Equal(t, 2, res.Imported)
	assert.Equal(t, 1, res.ErrorCount)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, 3, res.Errors[0].Row)
	assert.Contains(t, res.Errors[0].Message, "no es un objeto JSON")
	assert.Len(t, f.store.snapshots, 2)
}

func TestImport_TodosInvalidos_FailedNoMuevePuntero(t *testing.T) {
	f := newFixture(t, []map[string]any{{"quantityOnHand": "1"}})

	res, err := f.uc.Import(context.Background(), req())
	require.NoError(t, err)

	assert.Equal(t, entity.IngestionFailed, res.Status)
	assert.Empty(t, f.store.current)
}

func TestImport_AlertasTrazablesYPunteroVigente(t *testing.T) {
	f := newFixture(t, []map[string]any{row("WG-1", "3", "1", "PICK-01")})

	res, err := f.uc.Import(context.Background(), req())
	require.NoError(t, err)

	assert.Equal(t, res.IngestionID, f.store.current[companyID+"|ofbiz:derby-export"])
	assert.Equal(t, []string{companyID + "|ofbiz:derby-export"}, f.store.locks)
	for _, a := range f.store.alerts {
		assert.Equal(t, companyID, a.CompanyID)
		assert.Equal(t, res.IngestionID, a.IngestionID)
		assert.NotEmpty(t, a.ID)
	}
	for _, s := range f.store.snapshots {
		assert.Equal(t, res.IngestionID, s.IngestionID)
		assert.Equal(t, companyID, s.CompanyID)
	}
	require.Len(t, f.store.audits, 1)
	assert.Equal(t, entity.AuditIngestionCompleted, f.store.audits[0].Action)
	require.Len(t, f.publisher.published, 1)
	assert.Len(t, f.publisher.published[0], res.AlertsCreated)
	assert.Equal(t, []string{entity.IngestionCompleted}, f.metrics.statuses)
}

func TestImport_AppendOnly_SegundaImportacionConservaAnterior(t *testing.T) {
	f := newFixture(t, []map[string]any{row("A", "50", "50", "L1")})

	first, err := f.uc.Import(context.Background(), req())
	require.NoError(t, err)
	second, err := f.uc.Import(context.Background(), req())
	require.NoError(t, err)

	assert.Len(t, f.store.snapshots, 2)
	assert.Equal(t, first.IngestionID, f.store.snapshots[0].IngestionID)
	assert.Equal(t, second.IngestionID, f.store.current[companyID+"|ofbiz:derby-export"])
}

func TestImport_DeduplicaAlertasAbiertas(t *testing.T) {
	f := newFixture(t, []map[string]any{row("LOW", "3", "3", "L1")})

	first, err := f.uc.Import(context.Background(), req())
	require.NoError(t, err)
	second, err := f.uc.Import(context.Background(), req())
	require.NoError(t, err)

	assert.Equal(t, 2, first.AlertsCreated) // low stock + sync
	assert.Equal(t, 1, second.AlertsCreated)
	assert.Equal(t, 1, second.AlertsSkipped)
	assert.Equal(t, 1, f.metrics.dedup)
}

func TestImport_ReglaFallidaNoAborta(t *testing.T) {
	boom := alerting.Rule{Name: "boom", Apply: func(alerting.Input) ([]entity.Alert, error) {
		return nil, errors.New("falla")
	}}
	sync := alerting.Rule{Name: alerting.RuleSyncComplete, Apply: alerting.SyncComplete}
	f := newFixture(t, nil, boom, sync)

	res, err := f.uc.Import(context.Background(), req())
	require.NoError(t, err)
	assert.Equal(t, []string{"boom"}, res.RuleFailures)
	assert.Equal(t, 1, res.AlertsCreated)
	assert.Equal(t, []string{"boom"}, f.metrics.failed)
}

func TestImport_ErrorDePersistenciaRevierte(t *testing.T) {
	f := newFixture(t, []map[string]any{row("A", "3", "3", "L1")})
	f.store.failAlertInsert = errors.New("db caída")

	_, err := f.uc.Import(context.Background(), req())
	require.Error(t, err)
	assert.Empty(t, f.store.snapshots)
	assert.Empty(t, f.store.ingestions)
	assert.Empty(t, f.publisher.published)
	assert.Equal(t, []string{entity.IngestionFailed}, f.metrics.statuses)
}

func TestImport_PublicacionFallidaNoFalla(t *testing.T) {
	f := newFixture(t, nil)
	f.publisher.err = errors.New("kafka caído")

	_, err := f.uc.Import(context.Background(), req())
	assert.NoError(t, err)
}

func TestImport_ArchivoIlegible(t *testing.T) {
	f := newFixture(t, nil)
	f.decoder.err = errors.New("JSON inválido")

	_, err := f.uc.Import(context.Background(), req())
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestImport_SinEmpresa(t *testing.T) {
	f := newFixture(t, nil)
	r := req()
	r.CompanyID = ""
	_, err := f.uc.Import(context.Background(), r)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestImport_FormatoYSourceKeyPorDefecto(t *testing.T) {
	f := newFixture(t, nil)
	r := req()
	r.SourceKey = ""
	r.Source = ""
	r.Filename = "export.CSV"
	r.MappingType = "Manhattan"

	_, err := f.uc.Import(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f.decoder.lastOpts.Format)
	assert.Equal(t, "manhattan", f.decoder.lastOpts.Mapping)
	assert.Contains(t, f.store.current, companyID+"|manual:manhattan")
}

func TestImport_CatalogoDeProductos(t *testing.T) {
	f := newFixture(t, []map[string]any{row("A", "3", "3", "L1")})
	f.decoder.products = map[string]string{"A": "Widget A"}
	r := req()
	r.Products = strings.NewReader("[]")

	res, err := f.uc.Import(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, 1, res.ProductCount)
	assert.Equal(t, "Widget A", f.store.snapshots[0].ProductName)
}

func TestHistory_LimitesPorDefecto(t *testing.T) {
	h := &historyRepo{}
	uc := NewImportUseCase(newMemStore(), h, &stubDecoder{}, alerting.NewEvaluator(alerting.DefaultThresholds()), nil, nil, true, logger.Nop())

	list, err := uc.History(context.Background(), companyID, 500, -3)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, 20, h.limit)
	assert.Equal(t, 0, h.offset)
}
