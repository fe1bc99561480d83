// Package analytics casos de uso de lectura para el dashboard operativo.
package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/flowlogic-api/internal/application/dto"
	"github.com/jhoicas/flowlogic-api/internal/domain/entity"
	"github.com/jhoicas/flowlogic-api/internal/domain/repository"
)

const dashboardTopSKUs = 5 // número de SKUs en el widget del dashboard

// DashboardUseCase arma el resumen de GET /api/dashboard.
//
// Fuentes: AnalyticsRepository (inventario vigente), AlertRepository (conteos) e
// IngestionRepository (última importación). Todas las consultas son read-only.
type DashboardUseCase struct {
	analyticsRepo repository.AnalyticsRepository
	alertRepo     repository.AlertRepository
	ingestionRepo repository.IngestionRepository
	now           func() time.Time
}

// NewDashboardUseCase construye el caso de uso.
func NewDashboardUseCase(
	analyticsRepo repository.AnalyticsRepository,
	alertRepo repository.AlertRepository,
	ingestionRepo repository.IngestionRepository,
) *DashboardUseCase {
	return &DashboardUseCase{
		analyticsRepo: analyticsRepo,
		alertRepo:     alertRepo,
		ingestionRepo: ingestionRepo,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// GetDashboard construye el DashboardDTO para la empresa indicada.
//
// Cuatro llamadas en paralelo:
//  1. GetInventoryTotals   → totales del inventario vigente
//  2. GetTopValueSKUs      → top 5 por valor
//  3. Summary de alertas   → no leídas / abiertas por severidad
//  4. Last ingestion       → última importación
func (uc *DashboardUseCase) GetDashboard(ctx context.Context, companyID string) (*dto.DashboardDTO, error) {
	type totalsResult struct {
		totals *repository.InventoryTotals
		err    error
	}
	type topResult struct {
		skus []repository.TopValueSKU
		err  error
	}
	type alertsResult struct {
		summary *repository.AlertSummary
		err     error
	}
	type ingestionResult struct {
		last *entity.Ingestion
		err  error
	}

	totalsCh := make(chan totalsResult, 1)
	topCh := make(chan topResult, 1)
	alertsCh := make(chan alertsResult, 1)
	ingCh := make(chan ingestionResult, 1)

	go func() {
		t, err := uc.analyticsRepo.GetInventoryTotals(ctx, companyID)
		totalsCh <- totalsResult{t, err}
	}()
	go func() {
		s, err := uc.analyticsRepo.GetTopValueSKUs(ctx, companyID, dashboardTopSKUs)
		topCh <- topResult{s, err}
	}()
	go func() {
		s, err := uc.alertRepo.Summary(ctx, companyID)
		alertsCh <- alertsResult{s, err}
	}()
	go func() {
		l, err := uc.ingestionRepo.Last(ctx, companyID)
		ingCh <- ingestionResult{l, err}
	}()

	totals := <-totalsCh
	top := <-topCh
	alerts := <-alertsCh
	ing := <-ingCh

	if totals.err != nil {
		return nil, fmt.Errorf("dashboard: totales de inventario: %w", totals.err)
	}
	if top.err != nil {
		return nil, fmt.Errorf("dashboard: top SKUs: %w", top.err)
	}
	if alerts.err != nil {
		return nil, fmt.Errorf("dashboard: resumen de alertas: %w", alerts.err)
	}
	if ing.err != nil {
		return nil, fmt.Errorf("dashboard: última ingesta: %w", ing.err)
	}

	out := &dto.DashboardDTO{
		TopValueSKUs: make([]dto.TopValueSKUDTO, 0, len(top.skus)),
		Alerts:       dto.AlertCountsDTO{BySeverity: map[string]int{}},
		GeneratedAt:  uc.now(),
	}
	if t := totals.totals; t != nil {
		out.Inventory = dto.InventoryTotalsDTO{
			SKUs:           t.SKUs,
			Locations:      t.Locations,
			Snapshots:      t.Snapshots,
			QuantityOnHand: t.QuantityOnHand,
			QuantityATP:    t.QuantityATP,
			TotalValue:     t.TotalValue.Round(2),
		}
	}
	for _, s := range top.skus {
		out.TopValueSKUs = append(out.TopValueSKUs, dto.TopValueSKUDTO{
			SKU:         s.SKU,
			ProductName: s.ProductName,
			Quantity:    s.Quantity,
			Value:       s.Value.Round(2),
			Locations:   s.Locations,
		})
	}
	if s := alerts.summary; s != nil {
		out.Alerts.Unread = s.Unread
		out.Alerts.Unresolved = s.Unresolved
		for k, v := range s.BySeverity {
			out.Alerts.BySeverity[string(k)] = v
		}
	}
	if ing.last != nil {
		d := ToIngestionDTO(ing.last)
		out.LastIngestion = &d
	}
	return out, nil
}

// ToIngestionDTO convierte una ingesta a su DTO de historial.
func ToIngestionDTO(i *entity.Ingestion) dto.IngestionDTO {
	return dto.IngestionDTO{
		ID:           i.ID,
		SourceKey:    i.SourceKey,
		Source:       i.Source,
		Filename:     i.Filename,
		DataType:     i.DataType,
		MappingType:  i.MappingType,
		Status:       i.Status,
		RecordCount:  i.RecordCount,
		ErrorCount:   i.ErrorCount,
		ProductCount: i.ProductCount,
		Checksum:     i.Checksum,
		StartedAt:    i.StartedAt,
		CompletedAt:  i.CompletedAt,
	}
}
