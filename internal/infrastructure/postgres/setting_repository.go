package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/flowlogic-api/internal/domain/repository"
)

var _ repository.SettingRepository = (*SettingRepo)(nil)

// SettingRepo almacén clave-valor sobre system_settings.
type SettingRepo struct {
	db Querier
}

// NewSettingRepository construye el adaptador de configuración clave-valor.
func NewSettingRepository(db Querier) *SettingRepo {
	return &SettingRepo{db: db}
}

// GetMany lee varias claves con una sola consulta.
func (r *SettingRepo) GetMany(ctx context.Context, keys ...string) (map[string]string, error) {
	out := make(map[string]string, len(keys))
	if len(keys) == 0 {
		return out, nil
	}
	rows, err := r.db.Query(ctx, `SELECT key, value FROM system_settings WHERE key = ANY($1)`, keys)
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		out[k] = v
	}
	return out, rows.Err()
}

// Set inserta o actualiza una clave.
func (r *SettingRepo) Set(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO system_settings (key, value, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`
	if _, err := r.db.Exec(ctx, query, key, value); err != nil {
		return fmt.Errorf("upsert setting %s: %w", key, err)
	}
	return nil
}

// Delete elimina una clave; no falla si no existe.
func (r *SettingRepo) Delete(ctx context.Context, key string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM system_settings WHERE key = $1`, key); err != nil {
		return fmt.Errorf("delete setting %s: %w", key, err)
	}
	return nil
}
