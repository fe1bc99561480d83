// Package reports reportes descargables (PDF) del estado de alertas.
package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/flowlogic-api/internal/domain"
	"github.com/jhoicas/flowlogic-api/internal/domain/entity"
	"github.com/jhoicas/flowlogic-api/internal/domain/repository"
)

const maxReportAlerts = 500

// AlertReport datos del reporte de alertas abiertas.
type AlertReport struct {
	Company     *entity.Company
	GeneratedAt time.Time
	Inventory   *repository.InventoryTotals
	Summary     *repository.AlertSummary
	Alerts      []*entity.Alert // abiertas, más graves primero
	Truncated   bool
}

// AlertReportGenerator puerto de salida que renderiza el reporte.
type AlertReportGenerator interface {
	GenerateAlertReport(ctx context.Context, r AlertReport) ([]byte, error)
}

// UseCase genera el PDF de alertas sin resolver de una empresa.
type UseCase struct {
	alertRepo     repository.AlertRepository
	companyRepo   repository.CompanyRepository
	analyticsRepo repository.AnalyticsRepository
	generator     AlertReportGenerator
	now           func() time.Time
}

// NewUseCase construye el caso de uso inyectando todas sus dependencias.
func NewUseCase(
	alertRepo repository.AlertRepository,
	companyRepo repository.CompanyRepository,
	analyticsRepo repository.AnalyticsRepository,
	generator AlertReportGenerator,
) *UseCase {
	return &UseCase{
		alertRepo:     alertRepo,
		companyRepo:   companyRepo,
		analyticsRepo: analyticsRepo,
		generator:     generator,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// UnresolvedAlertsPDF devuelve el PDF y el nombre de archivo sugerido.
//
// Retorna domain.ErrCompanyNotFound si la empresa del token no existe.
func (uc *UseCase) UnresolvedAlertsPDF(ctx context.Context, companyID string) ([]byte, string, error) {
	company, err := uc.companyRepo.GetByID(ctx, companyID)
	if err != nil {
		return nil, "", fmt.Errorf("reporte: obtener empresa: %w", err)
	}
	if company == nil {
		return nil, "", domain.ErrCompanyNotFound
	}

	open := false
	alerts, total, err := uc.alertRepo.List(ctx, repository.AlertFilter{
		CompanyID:  companyID,
		IsResolved: &open,
		Limit:      maxReportAlerts,
	})
	if err != nil {
		return nil, "", fmt.Errorf("reporte: listar alertas: %w", err)
	}
	summary, err := uc.alertRepo.Summary(ctx, companyID)
	if err != nil {
		return nil, "", fmt.Errorf("reporte: resumen de alertas: %w", err)
	}
	totals, err := uc.analyticsRepo.GetInventoryTotals(ctx, companyID)
	if err != nil {
		return nil, "", fmt.Errorf("reporte: totales de inventario: %w", err)
	}

	now := uc.now()
	doc, err := uc.generator.GenerateAlertReport(ctx, AlertReport{
		Company:     company,
		GeneratedAt: now,
		Inventory:   totals,
		Summary:     summary,
		Alerts:      alerts,
		Truncated:   total > len(alerts),
	})
	if err != nil {
		return nil, "", fmt.Errorf("reporte: generar PDF: %w", err)
	}
	return doc, fmt.Sprintf("alertas-%s-%s.pdf", company.Code, now.Format("20060102")), nil
}
