// Package export renders yearly summaries as Excel workbooks and branded PDF reports.
package export

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/garyjia/sri-declaraciones/internal/models"
	"github.com/garyjia/sri-declaraciones/internal/period"
)

// Content types of the rendered files
const (
	ContentTypeExcel = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypePDF   = "application/pdf"
)

// PDF engine names accepted by NewPDFRenderer
const (
	EngineFPDF   = "fpdf"
	EngineChrome = "chrome"
)

// PDFRenderer renders a branded yearly summary report
type PDFRenderer interface {
	Render(ctx context.Context, summary *models.YearlySummary, branding models.PDFBranding) ([]byte, error)
}

// Filename builds "{company}_{year}_summary.{ext}"
func Filename(company, year, ext string) string {
	return models.SummaryFilename(company, year, ext)
}

// column is one amount column of a summary table
type column struct {
	title string
	value func(row int) float64
}

// table is the tabular form of one summary section shared by every renderer
type table struct {
	title   string
	months  []int
	periods []string
	columns []column
	totals  []float64
}

func form103Table(s models.Form103Summary) table {
	details := append([]models.Form103MonthDetail(nil), s.MonthlyDetails...)
	sort.SliceStable(details, func(i, j int) bool { return details[i].Month < details[j].Month })

	t := table{title: "Formulario 103 - Retenciones en la Fuente"}
	for _, d := range details {
		t.months = append(t.months, d.Month)
		t.periods = append(t.periods, periodLabel(d.Month, d.PeriodoFiscal))
	}
	t.columns = []column{
		{"Subtotal Operaciones País", func(i int) float64 { return details[i].SubtotalOperacionesPais }},
		{"Total Retención", func(i int) float64 { return details[i].TotalRetencion }},
		{"Total Impuesto a Pagar", func(i int) float64 { return details[i].TotalImpuestoPagar }},
		{"Total Pagado", func(i int) float64 { return details[i].TotalPagado }},
	}
	t.totals = []float64{s.SubtotalOperacionesPais, s.TotalRetencion, s.TotalImpuestoPagar, s.TotalPagado}
	return t
}

func form104Table(s models.Form104Summary) table {
	details := append([]models.Form104MonthDetail(nil), s.MonthlyDetails...)
	sort.SliceStable(details, func(i, j int) bool { return details[i].Month < details[j].Month })

	t := table{title: "Formulario 104 - IVA"}
	for _, d := range details {
		t.months = append(t.months, d.Month)
		t.periods = append(t.periods, periodLabel(d.Month, d.PeriodoFiscal))
	}
	t.columns = []column{
		{"Ventas Netas", func(i int) float64 { return details[i].TotalVentasNeto }},
		{"Impuesto Generado", func(i int) float64 { return details[i].TotalImpuestoGenerado }},
		{"Adquisiciones", func(i int) float64 { return details[i].TotalAdquisiciones }},
		{"Crédito Tributario", func(i int) float64 { return details[i].CreditoTributarioAplicable }},
		{"Impuesto Causado", func(i int) float64 { return details[i].ImpuestoCausado }},
		{"Retenciones Efectuadas", func(i int) float64 { return details[i].RetencionesEfectuadas }},
		{"Impuesto Retenido", func(i int) float64 { return details[i].TotalImpuestoRetenido }},
		{"Total Pagado", func(i int) float64 { return details[i].TotalPagado }},
	}
	t.totals = []float64{
		s.TotalVentasNeto, s.TotalImpuestoGenerado, s.TotalAdquisiciones, s.CreditoTributarioAplicable,
		s.ImpuestoCausado, s.RetencionesEfectuadas, s.TotalImpuestoRetenido, s.TotalPagado,
	}
	return t
}

func periodLabel(month int, periodo *string) string {
	if periodo != nil && *periodo != "" {
		return *periodo
	}
	if name := period.MonthName(month); name != "" {
		return name
	}
	return "Sin período"
}

// monthList renders month numbers as Spanish names
func monthList(months []int) string {
	names := make([]string, 0, len(months))
	for _, m := range months {
		names = append(names, period.MonthName(m))
	}
	return strings.Join(names, ", ")
}

// formatAmount renders 1234.5 as "1,234.50"
func formatAmount(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	intPart, frac := s[:len(s)-3], s[len(s)-3:]

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := b.String() + frac
	if neg {
		return "-" + out
	}
	return out
}
