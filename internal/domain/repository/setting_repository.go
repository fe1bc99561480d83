package repository

import "context"

// SettingRepository almacén clave-valor (system_settings).
type SettingRepository interface {
	// GetMany devuelve los valores existentes de las claves pedidas en una sola consulta.
	// Las claves ausentes no aparecen en el mapa.
	GetMany(ctx context.Context, keys ...string) (map[string]string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
