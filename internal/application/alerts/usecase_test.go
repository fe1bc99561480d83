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
	"github.com/jhoicas/flowlogic-api/internal/domain/repository"
	"github.com/jhoicas/flowlogic-api/pkg/logger"
)

const companyID = "c-1"

var fixedNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

type capturePublisher struct {
	published []entity.Alert
	err       error
}

func (p *capturePublisher) Publish(_ context.Context, alerts []entity.Alert) error {
	p.published = append(p.published, alerts...)
	return p.err
}

func (p *capturePublisher) Close() error { return nil }

func newUseCase(repo *mockAlertRepo, pub *capturePublisher) *UseCase {
	uc := NewUseCase(repo, pub, nil, logger.Nop())
	uc.now = func() time.Time { return fixedNow }
	return uc
}

func TestList_PaginationDefaultsAndFilters(t *testing.T) {
	repo := new(mockAlertRepo)
	uc := newUseCase(repo, &capturePublisher{})
	ctx := context.Background()

	repo.On("List", ctx, mock.MatchedBy(func(f repository.AlertFilter) bool {
		return f.CompanyID == companyID && f.Limit == 10 && f.Offset == 20 &&
			f.Severity == entity.SeverityCritical && f.IsRead != nil && !*f.IsRead && f.IsResolved == nil
	})).Return([]*entity.Alert{{ID: "a1", Type: entity.AlertLowStock, Severity: entity.SeverityCritical}}, 41, nil)

	out, err := uc.List(ctx, companyID, dto.AlertListQuery{Page: 3, Limit: 10, Severity: "CRITICAL", IsRead: "false"})
	require.NoError(t, err)
	require.Len(t, out.Data, 1)
	assert.Equal(t, "a1", out.Data[0].ID)
	assert.Equal(t, dto.Pagination{Page: 3, Limit: 10, Total: 41, Pages: 5}, out.Pagination)
	repo.AssertExpectations(t)
}

func TestList_ClampsLimit(t *testing.T) {
	repo := new(mockAlertRepo)
	uc := newUseCase(repo, &capturePublisher{})
	ctx := context.Background()

	repo.On("List", ctx, mock.MatchedBy(func(f repository.AlertFilter) bool {
		return f.Limit == MaxLimit && f.Offset == 0
	})).Return([]*entity.Alert{}, 0, nil)

	out, err := uc.List(ctx, companyID, dto.AlertListQuery{Limit: 500})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Pagination.Page)
	assert.Equal(t, 0, out.Pagination.Pages)
	assert.NotNil(t, out.Data)
}

func TestCritical_FiltersOpenHighSeverity(t *testing.T) {
	repo := new(mockAlertRepo)
	uc := newUseCase(repo, &capturePublisher{})
	ctx := context.Background()

	repo.On("List", ctx, mock.MatchedBy(func(f repository.AlertFilter) bool {
		return f.MinSeverity == entity.SeverityCritical && f.IsResolved != nil && !*f.IsResolved && f.Limit == criticalLimit
	})).Return([]*entity.Alert{{ID: "a1", Severity: entity.SeverityEmergency}}, 1, nil)

	out, err := uc.Critical(ctx, companyID, "")
	require.NoError(t, err)
	assert.Len(t, out, 1)
	repo.AssertExpectations(t)
}

func TestSummary_ConvertsKeys(t *testing.T) {
	repo := new(mockAlertRepo)
	uc := newUseCase(repo, &capturePublisher{})
	ctx := context.Background()

	repo.On("Summary", ctx, companyID).Return(&repository.AlertSummary{
		Total: 7, Unread: 3, Unresolved: 4,
		BySeverity: map[entity.AlertSeverity]int{entity.SeverityWarning: 3, entity.SeverityCritical: 1},
		ByType:     map[entity.AlertType]int{entity.AlertLowStock: 4},
	}, nil)

	out, err := uc.Summary(ctx, companyID)
	require.NoError(t, err)
	assert.Equal(t, 7, out.Total)
	assert.Equal(t, 3, out.SeverityCounts["WARNING"])
	assert.Equal(t, 4, out.TypeCounts["LOW_STOCK"])
}

func TestGet_NotFound(t *testing.T) {
	repo := new(mockAlertRepo)
	uc := newUseCase(repo, &capturePublisher{})
	ctx := context.Background()

	repo.On("GetByID", ctx, companyID, "missing").Return(nil, nil)

	_, err := uc.Get(ctx, companyID, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreate_ManualAlertIsPublishedWithoutDedupe(t *testing.T) {
	repo := new(mockAlertRepo)
	pub := &capturePublisher{err: errors.New("broker caído")}
	uc := newUseCase(repo, pub)
	ctx := context.Background()

	repo.On("Insert", ctx, mock.AnythingOfType("*entity.Alert"), false).Return(true, nil)

	out, err := uc.Create(ctx, companyID, dto.CreateAlertRequest{
		Type: "CUSTOM", Severity: "WARNING", Title: "Dock door jammed", Message: "Door 4 will not close",
	})
	require.NoError(t, err, "un fallo de publicación no debe propagarse")
	assert.Equal(t, "WARNING", out.Severity)
	assert.Equal(t, fixedNow, out.CreatedAt)
	require.Len(t, pub.published, 1)
	assert.Equal(t, companyID, pub.published[0].CompanyID)
	assert.Empty(t, pub.published[0].DedupeKey)
}

func TestCreate_RejectsUnknownType(t *testing.T) {
	repo := new(mockAlertRepo)
	uc := newUseCase(repo, &capturePublisher{})

	_, err := uc.Create(context.Background(), companyID, dto.CreateAlertRequest{
		Type: "NOPE", Severity: "INFO", Title: "x", Message: "y",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	repo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything, mock.Anything)
}

func TestMarkRead_UnknownAlert(t *testing.T) {
	repo := new(mockAlertRepo)
	uc := newUseCase(repo, &capturePublisher{})
	ctx := context.Background()

	repo.On("MarkRead", ctx, companyID, "a1").Return(false, nil)

	_, err := uc.MarkRead(ctx, companyID, "a1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMarkManyRead_Bounds(t *testing.T) {
	repo := new(mockAlertRepo)
	uc := newUseCase(repo, &capturePublisher{})
	ctx := context.Background()

	_, err := uc.MarkManyRead(ctx, companyID, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	tooMany := make([]string, maxBulkIDs+1)
	_, err = uc.MarkManyRead(ctx, companyID, tooMany)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	ids := []string{"a1", "a2"}
	repo.On("MarkManyRead", ctx, companyID, ids).Return(int64(2), nil)
	n, err := uc.MarkManyRead(ctx, companyID, ids)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestResolve_UsesClockAndUser(t *testing.T) {
	repo := new(mockAlertRepo)
	uc := newUseCase(repo, &capturePublisher{})
	ctx := context.Background()

	resolved := &entity.Alert{ID: "a1", IsResolved: true, IsRead: true, ResolvedBy: "u-1", ResolvedAt: &fixedNow}
	repo.On("Resolve", ctx, companyID, "a1", "u-1", fixedNow).Return(resolved, nil)
	repo.On("Resolve", ctx, companyID, "zz", "u-1", fixedNow).Return(nil, nil)

	out, err := uc.Resolve(ctx, companyID, "a1", "u-1")
	require.NoError(t, err)
	assert.True(t, out.IsResolved)
	assert.Equal(t, "u-1", out.ResolvedBy)

	_, err = uc.Resolve(ctx, companyID, "zz", "u-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCleanup_DefaultAndCutoff(t *testing.T) {
	repo := new(mockAlertRepo)
	uc := newUseCase(repo, &capturePublisher{})
	ctx := context.Background()

	repo.On("DeleteResolvedBefore", ctx, companyID, fixedNow.AddDate(0, 0, -30)).Return(int64(4), nil)
	repo.On("DeleteResolvedBefore", ctx, companyID, fixedNow.AddDate(0, 0, -7)).Return(int64(1), nil)

	n, days, err := uc.Cleanup(ctx, companyID, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	assert.Equal(t, 30, days)

	n, days, err = uc.Cleanup(ctx, companyID, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, 7, days)

	_, _, err = uc.Cleanup(ctx, companyID, -1)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
