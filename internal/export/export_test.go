package export

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/garyjia/sri-declaraciones/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

func strPtr(s string) *string { return &s }

func sampleSummary() *models.YearlySummary {
	return &models.YearlySummary{
		RazonSocial: "ACME S.A.",
		Year:        "2024",
		Form103Summary: models.Form103Summary{
			SubtotalOperacionesPais: 3500,
			TotalRetencion:          185,
			TotalImpuestoPagar:      185,
			TotalPagado:             186.25,
			MonthlyDetails: []models.Form103MonthDetail{
				{Month: 3, PeriodoFiscal: strPtr("MARZO 2024"), SubtotalOperacionesPais: 2000, TotalRetencion: 35, TotalImpuestoPagar: 35, TotalPagado: 35},
				{Month: 1, PeriodoFiscal: strPtr("ENERO 2024"), SubtotalOperacionesPais: 1500, TotalRetencion: 150, TotalImpuestoPagar: 150, TotalPagado: 151.25},
			},
		},
		Form104Summary: models.Form104Summary{
			TotalVentasNeto: 9500,
			TotalPagado:     1200,
			MonthlyDetails: []models.Form104MonthDetail{
				{Month: 1, TotalVentasNeto: 9500, TotalPagado: 1200},
			},
		},
		MissingMonths: models.MissingMonths{
			Form103: []int{2, 4, 5, 6, 7, 8, 9, 10, 11},
			Form104: []int{2, 3, 4, 5, 6, 7, 8, 9, 10, 11},
		},
		ExcludedMonths: []int{12},
	}
}

func completeBranding() models.PDFBranding {
	b := models.DefaultBranding()
	b.CompanyName = "Contadores Asociados"
	b.FooterText = "Documento confidencial"
	return b
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "ACME_S.A._2024_summary.xlsx", Filename("ACME S.A.", "2024", "xlsx"))
	assert.Equal(t, "Mi_Empresa_2023_summary.pdf", Filename("Mi   Empresa", "2023", "pdf"))
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0.00"},
		{12.5, "12.50"},
		{1234.5, "1,234.50"},
		{1234567.891, "1,234,567.89"},
		{-9876.5, "-9,876.50"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatAmount(tt.in))
	}
}

func TestHexToRGB(t *testing.T) {
	rgb, err := hexToRGB("#1a73e8")
	require.NoError(t, err)
	assert.Equal(t, [3]int{0x1a, 0x73, 0xe8}, rgb)

	_, err = hexToRGB("1a73e8")
	assert.ErrorIs(t, err, models.ErrInvalidColor)
	_, err = hexToRGB("#zzzzzz")
	assert.ErrorIs(t, err, models.ErrInvalidColor)
}

func TestExcelExporter_Render(t *testing.T) {
	data, err := NewExcelExporter(zap.NewNop()).Render(sampleSummary())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetForm103, SheetForm104}, f.GetSheetList())

	rows, err := f.GetRows(SheetForm103)
	require.NoError(t, err)

	// header block, blank row, column header, two months, TOTAL
	require.GreaterOrEqual(t, len(rows), 9)
	assert.Equal(t, "Razón Social: ACME S.A.", rows[1][0])
	assert.Equal(t, "Mes", rows[5][0])
	assert.Equal(t, "1", rows[6][0], "months are sorted ascending")
	assert.Equal(t, "ENERO 2024", rows[6][1])
	assert.Equal(t, "3", rows[7][0])
	assert.Equal(t, "TOTAL", rows[8][0])

	total, err := f.GetCellValue(SheetForm103, "C9", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "3500", total)

	var notes []string
	for _, r := range rows[9:] {
		if len(r) > 0 {
			notes = append(notes, r[0])
		}
	}
	assert.Contains(t, notes, "Meses excluidos: Diciembre")
}

func TestExcelExporter_EmptySummary(t *testing.T) {
	data, err := NewExcelExporter(zap.NewNop()).Render(&models.YearlySummary{RazonSocial: "X", Year: "2024"})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	v, err := f.GetCellValue(SheetForm104, "A7")
	require.NoError(t, err)
	assert.Equal(t, "TOTAL", v)
}

func TestFPDFRenderer_Render(t *testing.T) {
	r := NewFPDFRenderer(nil, zap.NewNop())

	t.Run("renders a PDF", func(t *testing.T) {
		out, err := r.Render(context.Background(), sampleSummary(), completeBranding())
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
	})

	t.Run("requires company name and footer", func(t *testing.T) {
		_, err := r.Render(context.Background(), sampleSummary(), models.DefaultBranding())
		assert.ErrorIs(t, err, models.ErrBrandingIncomplete)
	})

	t.Run("rejects invalid colours", func(t *testing.T) {
		b := completeBranding()
		b.PrimaryColor = "blue"
		_, err := r.Render(context.Background(), sampleSummary(), b)
		assert.ErrorIs(t, err, models.ErrInvalidColor)
	})

	t.Run("unreachable logo is skipped", func(t *testing.T) {
		b := completeBranding()
		b.LogoURL = "http://127.0.0.1:1/logo.png"
		out, err := r.Render(context.Background(), sampleSummary(), b)
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
	})
}

func TestChromeRenderer_RenderHTML(t *testing.T) {
	r := NewChromeRenderer("", time.Second, zap.NewNop())
	r.now = func() time.Time { return time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC) }

	b := completeBranding()
	b.CompanyName = "Tom & Jerry <Contadores>"
	html, err := r.RenderHTML(sampleSummary(), b)
	require.NoError(t, err)

	assert.Contains(t, html, "Tom &amp; Jerry &lt;Contadores&gt;")
	assert.Contains(t, html, "Generado 15-01-2025")
	assert.Contains(t, html, "Meses excluidos: Diciembre")
	assert.Contains(t, html, "3,500.00")
	assert.Contains(t, html, "Formulario 104 - IVA")
	assert.Less(t, bytes.Index([]byte(html), []byte("ENERO 2024")), bytes.Index([]byte(html), []byte("MARZO 2024")))
}

func TestNewPDFRenderer(t *testing.T) {
	r, err := NewPDFRenderer("", "", 0, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &FPDFRenderer{}, r)

	r, err = NewPDFRenderer(EngineChrome, "/usr/bin/chromium", 0, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &ChromeRenderer{}, r)

	_, err = NewPDFRenderer("wkhtml", "", 0, zap.NewNop())
	assert.Error(t, err)
}
