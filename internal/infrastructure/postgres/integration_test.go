//go:build integration

// Pruebas contra un PostgreSQL real:
//
//	FLOWLOGIC_TEST_DATABASE_URL=postgres://... go test -tags integration ./internal/infrastructure/postgres/
package postgres

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/flowlogic-api/internal/domain/entity"
	"github.com/jhoicas/flowlogic-api/pkg/config"
	"github.com/jhoicas/flowlogic-api/pkg/logger"
)

func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("FLOWLOGIC_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("FLOWLOGIC_TEST_DATABASE_URL no definido")
	}
	ctx := context.Background()
	pool, err := NewPool(ctx, config.DBConfig{DatabaseURL: url, MaxConns: 8})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, Migrate(ctx, pool, logger.New(logger.Config{Env: "test", Level: "error"})))
	return pool
}

func testCompany(t *testing.T, pool *pgxpool.Pool) string {
	t.Helper()
	now := time.Now().UTC()
	c := &entity.Company{
		ID: uuid.NewString(), Code: "it-" + uuid.NewString()[:8], Name: "Integración",
		Status: "active", CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, NewCompanyRepository(pool).Create(context.Background(), c))
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `DELETE FROM companies WHERE id = $1`, c.ID)
	})
	return c.ID
}

func TestIntegration_MigrateConcurrenteEsIdempotente(t *testing.T) {
	pool := testPool(t)
	log := logger.New(logger.Config{Env: "test", Level: "error"})

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = Migrate(context.Background(), pool, log)
		}(i)
	}
	wg.Wait()
	assert.NoError(t, errs[0])
	assert.NoError(t, errs[1])
}

func TestIntegration_LockSourceSerializaMismoOrigen(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	companyID := testCompany(t, pool)

	tx1, err := pool.Begin(ctx)
	require.NoError(t, err)
	defer func() { _ = tx1.Rollback(ctx) }()
	require.NoError(t, NewIngestionRepository(tx1).LockSource(ctx, companyID, "ofbiz:a"))

	// Otro origen de la misma empresa no espera.
	other, err := pool.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, NewIngestionRepository(other).LockSource(ctx, companyID, "ofbiz:b"))
	require.NoError(t, other.Rollback(ctx))

	acquired := make(chan error, 1)
	go func() {
		tx2, err := pool.Begin(ctx)
		if err != nil {
			acquired <- err
			return
		}
		defer func() { _ = tx2.Rollback(ctx) }()
		acquired <- NewIngestionRepository(tx2).LockSource(ctx, companyID, "ofbiz:a")
	}()

	select {
	case <-acquired:
		t.Fatal("el segundo lock no esperó a la primera transacción")
	case <-time.After(300 * time.Millisecond):
	}

	require.NoError(t, tx1.Commit(ctx))
	select {
	case err := <-acquired:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("el lock no se liberó al terminar la transacción")
	}
}

func TestIntegration_AlertInsertDedupeSoloAbiertas(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	companyID := testCompany(t, pool)
	repo := NewAlertRepository(pool)

	newAlert := func() *entity.Alert {
		return &entity.Alert{
			ID: uuid.NewString(), CompanyID: companyID, Type: entity.AlertLowStock,
			Severity: entity.SeverityWarning, Title: "Stock bajo", Message: "SKU-1 en PICK-01",
			SKU: "SKU-1", LocationCode: "PICK-01",
			DedupeKey: entity.AlertDedupeKey(entity.AlertLowStock, "SKU-1", "PICK-01"),
			CreatedAt: time.Now().UTC(),
		}
	}

	first := newAlert()
	ok, err := repo.Insert(ctx, first, true)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Insert(ctx, newAlert(), true)
	require.NoError(t, err)
	assert.False(t, ok, "una alerta abierta con la misma clave se descarta")

	// Sin dedupe la clave no se guarda y el índice parcial no aplica.
	ok, err = repo.Insert(ctx, newAlert(), false)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = repo.Resolve(ctx, companyID, first.ID, uuid.NewString(), time.Now().UTC())
	require.NoError(t, err)

	ok, err = repo.Insert(ctx, newAlert(), true)
	require.NoError(t, err)
	assert.True(t, ok, "resuelta la anterior, la clave vuelve a estar libre")
}

func TestIntegration_ListCurrentSigueElPuntero(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	companyID := testCompany(t, pool)
	ingRepo := NewIngestionRepository(pool)
	snapRepo := NewSnapshotRepository(pool)

	batch := func(sku string) string {
		now := time.Now().UTC()
		ing := &entity.Ingestion{
			ID: uuid.NewString(), CompanyID: companyID, SourceKey: "ofbiz:inv", Source: "OFBiz",
			DataType: entity.DataTypeInventorySnapshot, Status: entity.IngestionPending, StartedAt: now,
		}
		require.NoError(t, ingRepo.Create(ctx, ing))
		n, err := snapRepo.InsertBatch(ctx, []entity.InventorySnapshot{{
			ID: uuid.NewString(), CompanyID: companyID, IngestionID: ing.ID, SKU: sku,
			LocationCode: "PICK-01", LocationType: entity.LocationPick,
			QuantityOnHand: decimal.NewFromInt(5), QuantityAvailable: decimal.NewFromInt(5),
			UnitCost: decimal.RequireFromString("2.50"), Currency: "USD", SnapshotAt: now,
		}})
		require.NoError(t, err)
		require.EqualValues(t, 1, n)
		return ing.ID
	}

	first := batch("SKU-A")
	require.NoError(t, ingRepo.SetCurrent(ctx, companyID, "ofbiz:inv", first))

	second := batch("SKU-B")
	list, err := snapRepo.ListCurrent(ctx, companyID, 100)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "SKU-A", list[0].SKU, "sin mover el puntero sigue vigente el primer lote")

	require.NoError(t, ingRepo.SetCurrent(ctx, companyID, "ofbiz:inv", second))
	list, err = snapRepo.ListCurrent(ctx, companyID, 100)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "SKU-B", list[0].SKU)
	assert.True(t, list[0].UnitCost.Equal(decimal.RequireFromString("2.50")))

	var kept int
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT count(*) FROM inventory_snapshots WHERE ingestion_id = $1`, first).Scan(&kept))
	assert.Equal(t, 1, kept, "el lote anterior se conserva")
}
