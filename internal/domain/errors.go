package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound             = errors.New("recurso no encontrado")
	ErrUserNotFound         = errors.New("usuario no encontrado")
	ErrCompanyNotFound      = errors.New("empresa no encontrada")
	ErrEmailAlreadyExists   = errors.New("el email ya está registrado")
	ErrInvalidInput         = errors.New("entrada inválida")
	ErrDuplicate            = errors.New("recurso duplicado")
	ErrUnauthorized         = errors.New("no autorizado")
	ErrForbidden            = errors.New("acceso denegado")
	ErrConflict             = errors.New("conflicto con el estado actual")
	ErrInvalidPlan          = errors.New("plan inválido")
	ErrInvalidSignature     = errors.New("firma de webhook inválida")
	ErrWebhookNotConfigured = errors.New("secreto de webhook no configurado")
	ErrUpstream             = errors.New("fallo del proveedor externo")
)
