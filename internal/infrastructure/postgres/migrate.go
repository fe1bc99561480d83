package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/tern/v2/migrate"

	"github.com/jhoicas/flowlogic-api/pkg/logger"
)

// versionTable guarda la versión aplicada; tern la protege con un advisory lock,
// así dos réplicas que arrancan a la vez no aplican la misma migración dos veces.
const versionTable = "schema_version"

//go:embed migrations/*.sql
var migrationsFS embed.FS

// migrations devuelve los archivos NNN_nombre.sql en la raíz, como los espera tern.
func migrations() (fs.FS, error) {
	return fs.Sub(migrationsFS, "migrations")
}

// Migrate lleva el esquema a la última versión embebida.
func Migrate(ctx context.Context, pool *pgxpool.Pool, log *logger.Logger) error {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire migration conn: %w", err)
	}
	defer conn.Release()

	m, err := migrate.NewMigrator(ctx, conn.Conn(), versionTable)
	if err != nil {
		return fmt.Errorf("new migrator: %w", err)
	}
	files, err := migrations()
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}
	if err := m.LoadMigrations(files); err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	m.OnStart = func(sequence int32, name, direction, _ string) {
		log.Info().Int32("version", sequence).Str("migration", name).Str("direction", direction).Msg("aplicando migración")
	}

	if err := m.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	v, err := m.GetCurrentVersion(ctx)
	if err != nil {
		return fmt.Errorf("schema version: %w", err)
	}
	log.Info().Int32("version", v).Msg("esquema al día")
	return nil
}
