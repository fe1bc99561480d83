// Package pdf genera el reporte de alertas abiertas con Maroto v2.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Empresa + código   │  Título + fecha de generación  │
//	│  ─────────────────────────────────────────────────────────  │
//	│  KPIs: SKUs | Ubicaciones | Valor | Abiertas | No leídas     │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Severidad | Tipo | SKU | Ubicación | Título | Fecha  │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER: QR al listado de alertas + leyenda                  │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strings"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/jhoicas/flowlogic-api/internal/application/reports"
	"github.com/jhoicas/flowlogic-api/internal/domain/entity"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary  = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray     = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorCritical = &props.Color{Red: 178, Green: 34, Blue: 34}
	colorWarning  = &props.Color{Red: 204, Green: 122, Blue: 0}
)

var _ reports.AlertReportGenerator = (*MarotoPDFGenerator)(nil)

// MarotoPDFGenerator implementa reports.AlertReportGenerator usando Maroto v2.
type MarotoPDFGenerator struct {
	baseURL string // si no está vacío se imprime un QR hacia <baseURL>/alerts
}

// NewMarotoPDFGenerator construye el generador.
func NewMarotoPDFGenerator(baseURL string) *MarotoPDFGenerator {
	return &MarotoPDFGenerator{baseURL: strings.TrimRight(baseURL, "/")}
}

// GenerateAlertReport genera el PDF y devuelve sus bytes.
func (g *MarotoPDFGenerator) GenerateAlertReport(_ context.Context, r reports.AlertReport) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Reporte de alertas abiertas", true).
		WithAuthor(r.Company.Name, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(r))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(kpiRow(r))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	if len(r.Alerts) == 0 {
		m.AddRows(row.New(10).Add(col.New(12).Add(
			text.New("No hay alertas abiertas.", props.Text{Size: 9, Align: align.Center, Top: 3, Color: colorGray}),
		)))
	}
	for _, rw := range alertRows(r.Alerts) {
		m.AddRows(rw)
	}
	if r.Truncated {
		m.AddRows(row.New(6).Add(col.New(12).Add(
			text.New(fmt.Sprintf("Se muestran las %d alertas más graves; consulte la API para el listado completo.", len(r.Alerts)),
				props.Text{Size: 7, Color: colorGray, Top: 1}),
		)))
	}

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(g.footerRows(r)...)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: empresa (izq) y título + fecha (der).
func headerRow(r reports.AlertReport) core.Row {
	return row.New(18).Add(
		col.New(7).Add(
			text.New(r.Company.Name, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Código: "+nonEmpty(r.Company.Code, "—"), props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("REPORTE DE ALERTAS ABIERTAS", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: colorPrimary, Top: 1,
			}),
			text.New(r.GeneratedAt.Format("02/01/2006 15:04")+" UTC", props.Text{
				Size: 8, Align: align.Right, Top: 8, Color: colorGray,
			}),
		),
	)
}

// kpiRow: indicadores del inventario vigente y de alertas.
func kpiRow(r reports.AlertReport) core.Row {
	kpi := func(label, value string) core.Col {
		return col.New(2).Add(
			text.New(label, props.Text{Size: 7, Color: colorGray, Align: align.Center, Top: 1}),
			text.New(value, props.Text{Style: fontstyle.Bold, Size: 11, Align: align.Center, Top: 5}),
		)
	}
	skus, locations, value := "0", "0", "0.00"
	if inv := r.Inventory; inv != nil {
		skus = fmt.Sprint(inv.SKUs)
		locations = fmt.Sprint(inv.Locations)
		value = formatMoney(inv.TotalValue.StringFixed(2))
	}
	unresolved, unread, critical := 0, 0, 0
	if s := r.Summary; s != nil {
		unresolved, unread = s.Unresolved, s.Unread
		critical = s.BySeverity[entity.SeverityCritical] + s.BySeverity[entity.SeverityEmergency]
	}
	return row.New(14).Add(
		kpi("SKUs", skus),
		kpi("Ubicaciones", locations),
		kpi("Valor inventario", "$"+value),
		kpi("Abiertas", fmt.Sprint(unresolved)),
		kpi("Críticas", fmt.Sprint(critical)),
		kpi("No leídas", fmt.Sprint(unread)),
	)
}

// tableHeaderRow: cabecera de la tabla de alertas.
func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Severidad", 2, align.Left),
		h("Tipo", 2, align.Left),
		h("SKU", 2, align.Left),
		h("Ubicación", 2, align.Left),
		h("Título", 3, align.Left),
		h("Fecha", 1, align.Right),
	)
}

// alertRows: una fila por alerta.
func alertRows(alerts []*entity.Alert) []core.Row {
	result := make([]core.Row, 0, len(alerts))
	cell := func(s string, size int, p props.Text) core.Col {
		p.Size, p.Top = 7.5, 1
		return col.New(size).Add(text.New(s, p))
	}
	for _, a := range alerts {
		result = append(result, row.New(7).Add(
			cell(string(a.Severity), 2, props.Text{Style: fontstyle.Bold, Color: severityColor(a.Severity), Left: 1}),
			cell(string(a.Type), 2, props.Text{Left: 1}),
			cell(nonEmpty(a.SKU, "—"), 2, props.Text{Left: 1}),
			cell(truncate(nonEmpty(a.LocationCode, "—"), 24), 2, props.Text{Left: 1}),
			cell(truncate(a.Title, 48), 3, props.Text{Left: 1}),
			cell(a.CreatedAt.Format("02/01/06"), 1, props.Text{Align: align.Right, Right: 1}),
		))
	}
	return result
}

// footerRows: QR al listado (si hay URL base) + leyenda.
func (g *MarotoPDFGenerator) footerRows(r reports.AlertReport) []core.Row {
	legend := text.New(
		"Alertas derivadas de los snapshots de inventario vigentes. "+
			"Las alertas resueltas no se incluyen.",
		props.Text{Size: 7, Color: colorGray, Top: 4, Left: 3},
	)
	if g.baseURL == "" {
		return []core.Row{row.New(10).Add(col.New(12).Add(legend))}
	}
	return []core.Row{row.New(36).Add(
		col.New(3).Add(code.NewQr(g.baseURL+"/alerts", props.Rect{Percent: 95, Center: true})),
		col.New(9).Add(
			text.New("Escanea el código QR para abrir el listado de alertas.", props.Text{
				Size: 8, Top: 4, Left: 3, Color: colorGray,
			}),
			legend,
		),
	)}
}

// ── helpers ───────────────────────────────────────────────────────────────────

func severityColor(s entity.AlertSeverity) *props.Color {
	switch s {
	case entity.SeverityCritical, entity.SeverityEmergency:
		return colorCritical
	case entity.SeverityWarning:
		return colorWarning
	}
	return colorGray
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// formatMoney inserta comas de miles en un string numérico con decimales.
// Ej: "25000.50" → "25,000.50", "-1234567.00" → "-1,234,567.00"
func formatMoney(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, hasFrac := strings.Cut(s, ".")
	n := len(intPart)
	buf := make([]byte, 0, n+n/3)
	for i, c := range []byte(intPart) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, ',')
		}
		buf = append(buf, c)
	}
	out := sign + string(buf)
	if hasFrac {
		out += "." + frac
	}
	return out
}
