package formview

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/sri-declaraciones/internal/models"
)

func sample103() *models.Form103Data {
	return &models.Form103Data{
		Filename: "abril.pdf",
		LineItems: []models.Form103LineItem{
			{Concepto: "Honorarios profesionales", CodigoBase: "303", BaseImponible: 1000, CodigoRetencion: "353", ValorRetenido: 100},
			{Concepto: "Servicios", CodigoBase: "307", BaseImponible: 0, CodigoRetencion: "357", ValorRetenido: 0},
			{Concepto: "Arriendos", CodigoBase: "320", BaseImponible: 0, CodigoRetencion: "370", ValorRetenido: 50},
		},
	}
}

func sample104() *models.Form104Data {
	return &models.Form104Data{
		Filename: "mayo.pdf",
		Ventas: models.Form104Ventas{
			VentasTarifaDiferenteCeroBruto: 1200,
			VentasTarifaDiferenteCeroNeto:  1000,
			ImpuestoGenerado:               150,
			TotalVentasBruto:               0,
			TotalVentasNeto:                1000,
			TotalImpuestoGenerado:          150,
		},
		Compras: models.Form104Compras{TotalAdquisiciones: 400},
		RetencionesIVA: []models.RetencionIVA{
			{Porcentaje: 30, Valor: 12.5},
			{Porcentaje: 70, Valor: 0},
		},
		Totals: models.Form104Totals{ImpuestoCausado: 90, TotalPagado: 90},
	}
}

func keys(fields []models.Field) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.Key
	}
	return out
}

func TestForm103LineItems_ZeroFilter(t *testing.T) {
	data := sample103()

	assert.Len(t, Form103LineItems(data, Filters{}), 3)

	visible := Form103LineItems(data, Filters{HideZero: true})
	require.Len(t, visible, 2)
	assert.Equal(t, "303", visible[0].CodigoBase)
	assert.Equal(t, "320", visible[1].CodigoBase, "a row with only valor retenido set stays visible")
}

func TestForm104_Filters(t *testing.T) {
	data := sample104()

	t.Run("no filters", func(t *testing.T) {
		view := Form104(data, Filters{})
		assert.Len(t, view.Ventas, 6)
		assert.Len(t, view.RetencionesIVA, 2)
	})

	t.Run("zero only", func(t *testing.T) {
		view := Form104(data, Filters{HideZero: true})
		assert.NotContains(t, keys(view.Ventas), "total_ventas_bruto")
		assert.Contains(t, keys(view.Ventas), "ventas_tarifa_diferente_cero_bruto")
		assert.Equal(t, []string{"total_adquisiciones"}, keys(view.Compras))
		require.Len(t, view.RetencionesIVA, 1)
		assert.Equal(t, 30, view.RetencionesIVA[0].Porcentaje)
	})

	t.Run("gross only", func(t *testing.T) {
		view := Form104(data, Filters{HideGross: true})
		for _, k := range keys(view.Ventas) {
			assert.NotContains(t, k, "bruto")
		}
		assert.Len(t, view.Ventas, 4)
		assert.Len(t, view.RetencionesIVA, 2, "gross filter does not touch retenciones")
	})

	t.Run("both", func(t *testing.T) {
		view := Form104(data, Filters{HideZero: true, HideGross: true})
		assert.Equal(t, []string{"ventas_tarifa_diferente_cero_neto", "impuesto_generado", "total_ventas_neto", "total_impuesto_generado"}, keys(view.Ventas))
		assert.Equal(t, []string{"impuesto_causado", "total_pagado"}, keys(view.Totals))
	})
}

func readCSV(t *testing.T, buf *bytes.Buffer) [][]string {
	t.Helper()
	raw := buf.Bytes()
	require.True(t, bytes.HasPrefix(raw, utf8BOM))
	r := csv.NewReader(bytes.NewReader(raw[len(utf8BOM):]))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	require.NoError(t, err)
	return records
}

func TestWriteForm103CSV_ReflectsFilters(t *testing.T) {
	var all, filtered bytes.Buffer
	require.NoError(t, WriteForm103CSV(&all, sample103(), Filters{}))
	require.NoError(t, WriteForm103CSV(&filtered, sample103(), Filters{HideZero: true}))

	records := readCSV(t, &all)
	require.Len(t, records, 4)
	assert.Equal(t, []string{"Concepto", "Código Base", "BASE IMPONIBLE", "Código Retención", "VALOR RETENIDO"}, records[0])
	assert.Equal(t, []string{"Honorarios profesionales", "303", "1000.00", "353", "100.00"}, records[1])

	assert.Len(t, readCSV(t, &filtered), 3)
}

func TestWriteForm104CSV_Sections(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteForm104CSV(&buf, sample104(), Filters{HideZero: true, HideGross: true}))

	text := buf.String()
	for _, title := range []string{"=== VENTAS ===", "=== COMPRAS ===", "=== RETENCIONES IVA ===", "=== TOTALS ==="} {
		assert.Contains(t, text, title)
	}
	assert.NotContains(t, text, "bruto")
	assert.Contains(t, text, "30%,12.50")
	assert.NotContains(t, text, "70%")
	assert.False(t, strings.HasSuffix(text, "\n\n"))
}

func TestCSVFilename(t *testing.T) {
	assert.Equal(t, "form_103_abril.csv", CSVFilename(models.FormType103, "abril.pdf"))
	assert.Equal(t, "form_104_MAYO.csv", CSVFilename(models.FormType104, "MAYO.PDF"))
}
