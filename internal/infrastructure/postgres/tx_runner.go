package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/flowlogic-api/internal/application/auth"
	"github.com/jhoicas/flowlogic-api/internal/application/billing"
	"github.com/jhoicas/flowlogic-api/internal/application/ingestion"
	"github.com/jhoicas/flowlogic-api/internal/domain/repository"
)

var (
	_ ingestion.TxRunner      = (*TxRunner)(nil)
	_ billing.BillingTxRunner = (*TxRunner)(nil)
	_ auth.SignupTxRunner     = (*TxRunner)(nil)
)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// RunIngestion inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
func (r *TxRunner) RunIngestion(ctx context.Context, fn func(
	ingRepo repository.IngestionRepository,
	snapRepo repository.SnapshotRepository,
	alertRepo repository.AlertRepository,
	auditRepo repository.AuditLogRepository,
) error) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		return fn(
			NewIngestionRepository(tx),
			NewSnapshotRepository(tx),
			NewAlertRepository(tx),
			NewAuditLogRepository(tx),
		)
	})
}

// RunBilling agrupa en una transacción los cambios de settings y la auditoría de un evento de facturación.
func (r *TxRunner) RunBilling(ctx context.Context, fn func(
	settingRepo repository.SettingRepository,
	auditRepo repository.AuditLogRepository,
) error) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		return fn(NewSettingRepository(tx), NewAuditLogRepository(tx))
	})
}

// RunSignup crea en una sola transacción la empresa de prueba, su bodega, su administrador y sus settings.
func (r *TxRunner) RunSignup(ctx context.Context, fn func(
	companyRepo repository.CompanyRepository,
	userRepo repository.UserRepository,
	warehouseRepo repository.WarehouseRepository,
	settingRepo repository.SettingRepository,
) error) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		return fn(
			NewCompanyRepository(tx),
			NewUserRepository(tx),
			NewWarehouseRepository(tx),
			NewSettingRepository(tx),
		)
	})
}

func (r *TxRunner) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
