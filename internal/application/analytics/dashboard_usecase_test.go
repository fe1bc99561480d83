package analytics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/flowlogic-api/internal/domain/entity"
	"github.com/jhoicas/flowlogic-api/internal/domain/repository"
)

type stubAnalytics struct {
	totals *repository.InventoryTotals
	top    []repository.TopValueSKU
	err    error
}

func (s stubAnalytics) GetInventoryTotals(context.Context, string) (*repository.InventoryTotals, error) {
	return s.totals, s.err
}
func (s stubAnalytics) GetTopValueSKUs(_ context.Context, _ string, limit int) ([]repository.TopValueSKU, error) {
	if len(s.top) > limit {
		return s.top[:limit], nil
	}
	return s.top, nil
}
func (s stubAnalytics) GetUsage(context.Context, string) (*repository.Usage, error) {
	return &repository.Usage{}, nil
}

// Solo implementan lo que usa el dashboard; el resto entra en pánico si se llama.
type stubAlerts struct {
	repository.AlertRepository
	summary *repository.AlertSummary
}

func (s stubAlerts) Summary(context.Context, string) (*repository.AlertSummary, error) {
	return s.summary, nil
}

type stubIngestions struct {
	repository.IngestionRepository
	last *entity.Ingestion
}

func (s stubIngestions) Last(context.Context, string) (*entity.Ingestion, error) {
	return s.last, nil
}

func TestGetDashboard_Aggregates(t *testing.T) {
	completed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	uc := NewDashboardUseCase(
		stubAnalytics{
			totals: &repository.InventoryTotals{
				SKUs: 3, Locations: 4, Snapshots: 5,
				QuantityOnHand: decimal.NewFromInt(120), QuantityATP: decimal.NewFromInt(100),
				TotalValue: decimal.RequireFromString("1234.5678"),
			},
			top: []repository.TopValueSKU{{SKU: "A", Value: decimal.RequireFromString("999.999"), Locations: 2}},
		},
		stubAlerts{summary: &repository.AlertSummary{
			Unread: 4, Unresolved: 6,
			BySeverity: map[entity.AlertSeverity]int{entity.SeverityCritical: 2, entity.SeverityInfo: 4},
		}},
		stubIngestions{last: &entity.Ingestion{ID: "ing-1", SourceKey: "ofbiz:inbox", Status: entity.IngestionCompleted, CompletedAt: &completed}},
	)

	out, err := uc.GetDashboard(context.Background(), "c-1")
	require.NoError(t, err)
	assert.Equal(t, 3, out.Inventory.SKUs)
	assert.Equal(t, "1234.57", out.Inventory.TotalValue.String())
	require.Len(t, out.TopValueSKUs, 1)
	assert.Equal(t, "1000", out.TopValueSKUs[0].Value.String())
	assert.Equal(t, 2, out.Alerts.BySeverity["CRITICAL"])
	assert.Equal(t, 6, out.Alerts.Unresolved)
	require.NotNil(t, out.LastIngestion)
	assert.Equal(t, "ing-1", out.LastIngestion.ID)
}

func TestGetDashboard_EmptyCompany(t *testing.T) {
	uc := NewDashboardUseCase(
		stubAnalytics{totals: &repository.InventoryTotals{}},
		stubAlerts{summary: &repository.AlertSummary{}},
		stubIngestions{},
	)
	out, err := uc.GetDashboard(context.Background(), "c-1")
	require.NoError(t, err)
	assert.Nil(t, out.LastIngestion)
	assert.NotNil(t, out.TopValueSKUs)
	assert.Empty(t, out.Alerts.BySeverity)
}

func TestGetDashboard_PropagatesErrors(t *testing.T) {
	uc := NewDashboardUseCase(
		stubAnalytics{err: errors.New("db down")},
		stubAlerts{summary: &repository.AlertSummary{}},
		stubIngestions{},
	)
	_, err := uc.GetDashboard(context.Background(), "c-1")
	assert.ErrorContains(t, err, "totales de inventario")
}
