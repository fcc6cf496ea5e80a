package sri

import (
	"testing"
	"time"

	"github.com/garyjia/sri-declaraciones/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHeader(t *testing.T) {
	h := ParseHeader(form103Text)

	assert.Equal(t, "ABC123XYZ", h.CodigoVerificador)
	assert.Equal(t, "871234567", h.NumeroSerial)
	assert.Equal(t, "20-05-2025", h.FechaRecaudacion)
	assert.Equal(t, "1790012345001", h.Identificacion)
	assert.Equal(t, "ACME S.A.", h.RazonSocial)
	assert.Equal(t, "ABRIL", h.PeriodoMes)
	assert.Equal(t, "2025", h.PeriodoAnio)
	assert.Equal(t, "ORIGINAL", h.TipoDeclaracion)

	fecha, ok := h.FechaRecaudacionTime()
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 5, 20, 0, 0, 0, 0, time.UTC), fecha)
}

func TestParseHeader_RazonSocialBeforePeriodo(t *testing.T) {
	h := ParseHeader("Razón Social: COMERCIAL ANDINA CIA. LTDA. Período Fiscal: MARZO 2024\n")
	assert.Equal(t, "COMERCIAL ANDINA CIA. LTDA.", h.RazonSocial)
	assert.Equal(t, "MARZO", h.PeriodoMes)
	assert.Equal(t, "2024", h.PeriodoAnio)
}

func TestParseHeader_Empty(t *testing.T) {
	h := ParseHeader("nothing useful here")
	assert.Equal(t, Header{}, h)
	_, ok := h.FechaRecaudacionTime()
	assert.False(t, ok)
}

func TestParseAmount(t *testing.T) {
	assert.Equal(t, 1234.56, ParseAmount("1,234.56"))
	assert.Equal(t, 0.0, ParseAmount(""))
	assert.Equal(t, 0.0, ParseAmount("abc"))
	assert.Equal(t, 10.0, ParseAmount(" 10 "))
}

func TestForm103Parser_Parse(t *testing.T) {
	result := NewForm103Parser().Parse(form103Text)

	assert.Equal(t, models.FormType103, result.FormType)
	require.Len(t, result.LineItems, 2)

	first := result.LineItems[0]
	assert.Equal(t, "Honorarios profesionales", first.Concepto)
	assert.Equal(t, "303", first.CodigoBase)
	assert.Equal(t, 1500.0, first.BaseImponible)
	assert.Equal(t, "353", first.CodigoRetencion)
	assert.Equal(t, 150.0, first.ValorRetenido)
	assert.Equal(t, 0, first.OrderIndex)

	second := result.LineItems[1]
	assert.Equal(t, "Transferencia de bienes muebles", second.Concepto)
	assert.Equal(t, 2000.0, second.BaseImponible)
	assert.Equal(t, 35.0, second.ValorRetenido)
	assert.Equal(t, 1, second.OrderIndex)

	totals := result.Totals
	assert.Equal(t, 3500.0, totals.SubtotalOperacionesPais)
	assert.Equal(t, 185.0, totals.TotalRetencion)
	assert.Equal(t, 185.0, totals.TotalImpuestoPagar)
	assert.Equal(t, 1.25, totals.Intereses)
	assert.Equal(t, 0.0, totals.Multa)
	assert.Equal(t, 186.25, totals.TotalPagado)
}

func TestForm103Parser_NoLineItems(t *testing.T) {
	result := NewForm103Parser().Parse("Período Fiscal: ENERO 2024")
	assert.NotNil(t, result.LineItems)
	assert.Empty(t, result.LineItems)
	assert.Equal(t, models.Form103Totals{}, result.Totals)
}

func TestForm104Parser_Parse(t *testing.T) {
	result := NewForm104Parser().Parse(form104Text)

	assert.Equal(t, models.FormType104, result.FormType)
	assert.Equal(t, "XYZ789", result.Header.CodigoVerificador)
	assert.Equal(t, "ABRIL", result.Header.PeriodoMes)

	v := result.Ventas
	assert.Equal(t, 10000.0, v.VentasTarifaDiferenteCeroBruto)
	assert.Equal(t, 9500.0, v.VentasTarifaDiferenteCeroNeto)
	assert.Equal(t, 1425.0, v.ImpuestoGenerado)
	assert.Equal(t, 10000.0, v.TotalVentasBruto)
	assert.Equal(t, 9500.0, v.TotalVentasNeto)
	assert.Equal(t, 1425.0, v.TotalImpuestoGenerado)

	c := result.Compras
	assert.Equal(t, 4000.0, c.AdquisicionesTarifaDiferenteCeroBruto)
	assert.Equal(t, 4000.0, c.AdquisicionesTarifaDiferenteCeroNeto)
	assert.Equal(t, 600.0, c.ImpuestoCompras)
	assert.Equal(t, 300.0, c.AdquisicionesTarifaCero)
	assert.Equal(t, 4300.0, c.TotalAdquisiciones)
	assert.Equal(t, 600.0, c.CreditoTributarioAplicable)

	assert.Equal(t, []models.RetencionIVA{
		{Porcentaje: 30, Valor: 45},
		{Porcentaje: 100, Valor: 12.5},
	}, result.RetencionesIVA)

	tot := result.Totals
	assert.Equal(t, 825.0, tot.ImpuestoCausado)
	assert.Equal(t, 75.0, tot.RetencionesEfectuadas)
	assert.Equal(t, 750.0, tot.SubtotalAPagar)
	assert.Equal(t, 57.5, tot.TotalImpuestoRetenido)
	assert.Equal(t, 57.5, tot.TotalImpuestoPagarRetencion)
	assert.Equal(t, 807.5, tot.TotalConsolidadoIVA)
	assert.Equal(t, 807.5, tot.TotalPagado)
}

func TestParse_DispatchesByFormType(t *testing.T) {
	parsed, err := Parse(models.FormType103, form103Text)
	require.NoError(t, err)
	assert.IsType(t, &Form103Result{}, parsed)
	assert.Equal(t, "ACME S.A.", parsed.FormHeader().RazonSocial)

	parsed, err = Parse(models.FormType104, form104Text)
	require.NoError(t, err)
	assert.IsType(t, &Form104Result{}, parsed)

	_, err = Parse(models.FormTypeUnknown, "")
	assert.ErrorIs(t, err, ErrUnknownFormType)
}

func TestDetectFormType(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		filename string
		expected models.FormType
	}{
		{name: "filename 103", filename: "Formulario_103_abril.pdf", expected: models.FormType103},
		{name: "filename 104", filename: "104-marzo.PDF", expected: models.FormType104},
		{name: "filename wins over content", text: form104Text, filename: "f103.pdf", expected: models.FormType103},
		{name: "content 103", text: form103Text, filename: "scan.pdf", expected: models.FormType103},
		{name: "content 104", text: form104Text, filename: "scan.pdf", expected: models.FormType104},
		{name: "unknown", text: "factura", filename: "scan.pdf", expected: models.FormTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetectFormType(tt.text, tt.filename))
		})
	}
}
