package ingestion

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/jhoicas/flowlogic-api/internal/domain/entity"
	"github.com/jhoicas/flowlogic-api/internal/domain/repository"
)

// ─── Decoder ──────────────────────────────────────────────────────────────────

type stubDecoder struct {
	doc      *Document
	err      error
	products map[string]string
	lastOpts DecodeOptions
}

func (d *stubDecoder) Decode(r io.Reader, opts DecodeOptions) (*Document, error) {
	_, _ = io.ReadAll(r)
	d.lastOpts = opts
	if d.err != nil {
		return nil, d.err
	}
	return d.doc, nil
}

func (d *stubDecoder) DecodeProducts(io.Reader, DecodeOptions) (map[string]string, error) {
	return d.products, nil
}

func (d *stubDecoder) Mappings() map[string]map[string]string {
	return map[string]map[string]string{"generic": {"sku": FieldProductID}}
}

// ─── Store en memoria con semántica transaccional ─────────────────────────────

type memStore struct {
	mu         sync.Mutex
	ingestions map[string]*entity.Ingestion
	current    map[string]string // company|source -> ingestion
	snapshots  []entity.InventorySnapshot
	alerts     []*entity.Alert
	audits     []*entity.AuditLog
	locks      []string

	failAlertInsert error
}

func newMemStore() *memStore {
	return &memStore{ingestions: map[string]*entity.Ingestion{}, current: map[string]string{}}
}

// RunIngestion ejecuta fn sobre una copia y la confirma solo si fn no falla.
func (m *memStore) RunIngestion(ctx context.Context, fn func(
	repository.IngestionRepository,
	repository.SnapshotRepository,
	repository.AlertRepository,
	repository.AuditLogRepository,
) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memTx{parent: m, current: map[string]string{}}
	for k, v := range m.current {
		tx.current[k] = v
	}
	if err := fn(memIngRepo{tx}, memSnapRepo{tx}, memAlertRepo{tx}, memAuditRepo{tx}); err != nil {
		return err
	}
	for _, ing := range tx.ingestions {
		m.ingestions[ing.ID] = ing
	}
	m.current = tx.current
	m.snapshots = append(m.snapshots, tx.snapshots...)
	m.alerts = append(m.alerts, tx.alerts...)
	m.audits = append(m.audits, tx.audits...)
	m.locks = append(m.locks, tx.locks...)
	return nil
}

func (m *memStore) openDedupe(key string, pending []*entity.Alert) bool {
	for _, list := range [][]*entity.Alert{m.alerts, pending} {
		for _, a := range list {
			if a.DedupeKey == key && !a.IsResolved {
				return true
			}
		}
	}
	return false
}

type memTx struct {
	parent     *memStore
	ingestions []*entity.Ingestion
	current    map[string]string
	snapshots  []entity.InventorySnapshot
	alerts     []*entity.Alert
	audits     []*entity.AuditLog
	locks      []string
}

type (
	memIngRepo   struct{ t *memTx }
	memSnapRepo  struct{ t *memTx }
	memAlertRepo struct{ t *memTx }
	memAuditRepo struct{ t *memTx }
)

func (r memIngRepo) LockSource(_ context.Context, companyID, sourceKey string) error {
	r.t.locks = append(r.t.locks, companyID+"|"+sourceKey)
	return nil
}
func (r memIngRepo) Create(_ context.Context, ing *entity.Ingestion) error {
	r.t.ingestions = append(r.t.ingestions, ing)
	return nil
}
func (r memIngRepo) Finalize(context.Context, *entity.Ingestion) error { return nil }
func (r memIngRepo) SetCurrent(_ context.Context, companyID, sourceKey, id string) error {
	r.t.current[companyID+"|"+sourceKey] = id
	return nil
}
func (r memIngRepo) GetByID(context.Context, string, string) (*entity.Ingestion, error) {
	return nil, errNoImpl
}
func (r memIngRepo) ListByCompany(context.Context, string, int, int) ([]*entity.Ingestion, error) {
	return nil, errNoImpl
}
func (r memIngRepo) Last(context.Context, string) (*entity.Ingestion, error) { return nil, errNoImpl }

func (r memSnapRepo) InsertBatch(_ context.Context, s []entity.InventorySnapshot) (int64, error) {
	r.t.snapshots = append(r.t.snapshots, s...)
	return int64(len(s)), nil
}
func (r memSnapRepo) ListCurrent(context.Context, string, int) ([]entity.InventorySnapshot, error) {
	return nil, errNoImpl
}

func (r memAuditRepo) Create(_ context.Context, l *entity.AuditLog) error {
	r.t.audits = append(r.t.audits, l)
	return nil
}

var errNoImpl = errors.New("no implementado")

func (r memAlertRepo) Insert(_ context.Context, a *entity.Alert, dedupe bool) (bool, error) {
	if r.t.parent.failAlertInsert != nil {
		return false, r.t.parent.failAlertInsert
	}
	if dedupe && a.DedupeKey != "" && r.t.parent.openDedupe(a.DedupeKey, r.t.alerts) {
		return false, nil
	}
	cp := *a
	r.t.alerts = append(r.t.alerts, &cp)
	return true, nil
}
func (r memAlertRepo) GetByID(context.Context, string, string) (*entity.Alert, error) {
	return nil, errNoImpl
}
func (r memAlertRepo) List(context.Context, repository.AlertFilter) ([]*entity.Alert, int, error) {
	return nil, 0, errNoImpl
}
func (r memAlertRepo) Summary(context.Context, string) (*repository.AlertSummary, error) {
	return nil, errNoImpl
}
func (r memAlertRepo) MarkRead(context.Context, string, string) (bool, error) { return false, errNoImpl }
func (r memAlertRepo) MarkManyRead(context.Context, string, []string) (int64, error) {
	return 0, errNoImpl
}
func (r memAlertRepo) MarkAllRead(context.Context, string) (int64, error) { return 0, errNoImpl }
func (r memAlertRepo) Resolve(context.Context, string, string, string, time.Time) (*entity.Alert, error) {
	return nil, errNoImpl
}
func (r memAlertRepo) SetSuggestedAction(context.Context, string, string, string) error {
	return errNoImpl
}
func (r memAlertRepo) DeleteResolvedBefore(context.Context, string, time.Time) (int64, error) {
	return 0, errNoImpl
}

var (
	_ repository.IngestionRepository = memIngRepo{}
	_ repository.SnapshotRepository  = memSnapRepo{}
	_ repository.AlertRepository     = memAlertRepo{}
	_ repository.AuditLogRepository  = memAuditRepo{}
)
