package alerts

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/jhoicas/flowlogic-api/internal/domain/entity"
	"github.com/jhoicas/flowlogic-api/internal/domain/repository"
)

type mockAlertRepo struct {
	mock.Mock
}

var _ repository.AlertRepository = (*mockAlertRepo)(nil)

func (m *mockAlertRepo) Insert(ctx context.Context, a *entity.Alert, dedupe bool) (bool, error) {
	args := m.Called(ctx, a, dedupe)
	return args.Bool(0), args.Error(1)
}

func (m *mockAlertRepo) GetByID(ctx context.Context, companyID, id string) (*entity.Alert, error) {
	args := m.Called(ctx, companyID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Alert), args.Error(1)
}

func (m *mockAlertRepo) List(ctx context.Context, f repository.AlertFilter) ([]*entity.Alert, int, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*entity.Alert), args.Int(1), args.Error(2)
}

func (m *mockAlertRepo) Summary(ctx context.Context, companyID string) (*repository.AlertSummary, error) {
	args := m.Called(ctx, companyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.AlertSummary), args.Error(1)
}

func (m *mockAlertRepo) MarkRead(ctx context.Context, companyID, id string) (bool, error) {
	args := m.Called(ctx, companyID, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockAlertRepo) MarkManyRead(ctx context.Context, companyID string, ids []string) (int64, error) {
	args := m.Called(ctx, companyID, ids)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockAlertRepo) MarkAllRead(ctx context.Context, companyID string) (int64, error) {
	args := m.Called(ctx, companyID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockAlertRepo) Resolve(ctx context.Context, companyID, id, userID string, at time.Time) (*entity.Alert, error) {
	args := m.Called(ctx, companyID, id, userID, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Alert), args.Error(1)
}

func (m *mockAlertRepo) SetSuggestedAction(ctx context.Context, companyID, id, action string) error {
	return m.Called(ctx, companyID, id, action).Error(0)
}

func (m *mockAlertRepo) DeleteResolvedBefore(ctx context.Context, companyID string, before time.Time) (int64, error) {
	args := m.Called(ctx, companyID, before)
	return args.Get(0).(int64), args.Error(1)
}
