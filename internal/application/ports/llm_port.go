package ports

import (
	"context"

	"github.com/jhoicas/flowlogic-api/internal/application/dto"
	"github.com/jhoicas/flowlogic-api/internal/domain/entity"
)

// LLMService define el puerto de salida para los servicios de inteligencia artificial.
// Cualquier adaptador (Anthropic, mock) debe implementar esta interfaz.
type LLMService interface {
	// SuggestAlertAction analiza una alerta de inventario y propone la acción operativa
	// a seguir. El contexto debe llevar un timeout para evitar bloqueos en llamadas externas.
	SuggestAlertAction(ctx context.Context, alert *entity.Alert) (*dto.AlertInsightDTO, error)
}
