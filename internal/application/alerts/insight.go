package alerts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jhoicas/flowlogic-api/internal/application/dto"
	"github.com/jhoicas/flowlogic-api/internal/application/ports"
	"github.com/jhoicas/flowlogic-api/internal/domain/repository"
	"github.com/jhoicas/flowlogic-api/pkg/logger"
)

// ErrInsightUnavailable no hay proveedor LLM configurado.
var ErrInsightUnavailable = errors.New("sugerencias IA no disponibles")

const insightTimeout = 10 * time.Second

// InsightUseCase pide al LLM una acción sugerida para una alerta y la guarda
// en la propia alerta (suggested_action).
type InsightUseCase struct {
	repo    repository.AlertRepository
	llm     ports.LLMService
	log     *logger.Logger
	timeout time.Duration
}

// NewInsightUseCase construye el caso de uso. llm nil deja la funcionalidad deshabilitada.
func NewInsightUseCase(repo repository.AlertRepository, llm ports.LLMService, log *logger.Logger) *InsightUseCase {
	return &InsightUseCase{repo: repo, llm: llm, log: log.Component("alert_insight"), timeout: insightTimeout}
}

// Suggest carga la alerta de la empresa, consulta al LLM con timeout de 10 s y
// persiste la acción sugerida.
func (uc *InsightUseCase) Suggest(ctx context.Context, companyID, alertID string) (*dto.AlertInsightDTO, error) {
	if uc.llm == nil {
		return nil, ErrInsightUnavailable
	}
	a, err := findAlert(ctx, uc.repo, companyID, alertID)
	if err != nil {
		return nil, err
	}

	llmCtx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	insight, err := uc.llm.SuggestAlertAction(llmCtx, a)
	if err != nil {
		return nil, fmt.Errorf("sugerencia IA: %w", err)
	}
	if err := uc.repo.SetSuggestedAction(ctx, companyID, a.ID, insight.SuggestedAction); err != nil {
		return nil, err
	}
	uc.log.Info().Str("alert_id", a.ID).Float64("confidence", insight.ConfidenceScore).Msg("sugerencia IA guardada")
	return insight, nil
}
