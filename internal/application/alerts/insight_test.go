package alerts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/flowlogic-api/internal/application/dto"
	"github.com/jhoicas/flowlogic-api/internal/domain"
	"github.com/jhoicas/flowlogic-api/internal/domain/entity"
	"github.com/jhoicas/flowlogic-api/pkg/logger"
)

type mockLLM struct {
	mock.Mock
}

func (m *mockLLM) SuggestAlertAction(ctx context.Context, a *entity.Alert) (*dto.AlertInsightDTO, error) {
	args := m.Called(ctx, a)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.AlertInsightDTO), args.Error(1)
}

func TestInsight_SavesSuggestion(t *testing.T) {
	repo := &mockAlertRepo{}
	llm := &mockLLM{}
	a := &entity.Alert{ID: "a1", CompanyID: "c1", Type: entity.AlertLowStock}
	repo.On("GetByID", mock.Anything, "c1", "a1").Return(a, nil)
	llm.On("SuggestAlertAction", mock.MatchedBy(func(ctx context.Context) bool {
		dl, ok := ctx.Deadline()
		return ok && time.Until(dl) <= insightTimeout
	}), a).Return(&dto.AlertInsightDTO{AlertID: "a1", SuggestedAction: "Replenish SKU-1", ConfidenceScore: 0.8}, nil)
	repo.On("SetSuggestedAction", mock.Anything, "c1", "a1", "Replenish SKU-1").Return(nil)

	got, err := NewInsightUseCase(repo, llm, logger.Nop()).Suggest(context.Background(), "c1", "a1")
	require.NoError(t, err)
	assert.Equal(t, "Replenish SKU-1", got.SuggestedAction)
	repo.AssertExpectations(t)
	llm.AssertExpectations(t)
}

func TestInsight_NotFound(t *testing.T) {
	repo := &mockAlertRepo{}
	repo.On("GetByID", mock.Anything, "c1", "x").Return(nil, nil)
	_, err := NewInsightUseCase(repo, &mockLLM{}, logger.Nop()).Suggest(context.Background(), "c1", "x")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestInsight_LLMErrorNotSaved(t *testing.T) {
	repo := &mockAlertRepo{}
	llm := &mockLLM{}
	a := &entity.Alert{ID: "a1"}
	repo.On("GetByID", mock.Anything, "c1", "a1").Return(a, nil)
	llm.On("SuggestAlertAction", mock.Anything, a).Return(nil, errors.New("boom"))

	_, err := NewInsightUseCase(repo, llm, logger.Nop()).Suggest(context.Background(), "c1", "a1")
	require.Error(t, err)
	repo.AssertNotCalled(t, "SetSuggestedAction", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestInsight_Disabled(t *testing.T) {
	_, err := NewInsightUseCase(&mockAlertRepo{}, nil, logger.Nop()).Suggest(context.Background(), "c1", "a1")
	assert.ErrorIs(t, err, ErrInsightUnavailable)
}
