// Package formview applies the zero-value and gross-value display filters to
// parsed Form 103/104 data and exports the filtered view as CSV.
package formview

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/garyjia/sri-declaraciones/internal/models"
)

// utf8BOM lets spreadsheet programs detect the encoding of accented headers
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Filters are the display toggles of a form view
type Filters struct {
	HideZero  bool
	HideGross bool // Form 104 only
}

// Form103LineItems returns the line items left visible by f. A row is hidden
// only when both base imponible and valor retenido are zero.
func Form103LineItems(data *models.Form103Data, f Filters) []models.Form103LineItem {
	items := make([]models.Form103LineItem, 0, len(data.LineItems))
	for _, li := range data.LineItems {
		if f.HideZero && li.IsZero() {
			continue
		}
		items = append(items, li)
	}
	return items
}

// Form104View is the visible part of a Form 104
type Form104View struct {
	Ventas         []models.Field
	Compras        []models.Field
	RetencionesIVA []models.RetencionIVA
	Totals         []models.Field
}

// Form104 applies f to each section. Both filters apply together.
func Form104(data *models.Form104Data, f Filters) Form104View {
	view := Form104View{
		Ventas:         filterFields(data.Ventas.Fields(), f),
		Compras:        filterFields(data.Compras.Fields(), f),
		Totals:         filterFields(data.Totals.Fields(), f),
		RetencionesIVA: make([]models.RetencionIVA, 0, len(data.RetencionesIVA)),
	}
	for _, r := range data.RetencionesIVA {
		if f.HideZero && r.Valor == 0 {
			continue
		}
		view.RetencionesIVA = append(view.RetencionesIVA, r)
	}
	return view
}

func filterFields(fields []models.Field, f Filters) []models.Field {
	out := make([]models.Field, 0, len(fields))
	for _, field := range fields {
		if f.HideZero && field.Value == 0 {
			continue
		}
		if f.HideGross && field.IsGross() {
			continue
		}
		out = append(out, field)
	}
	return out
}

// CSVFilename names the CSV export of a form, e.g. form_103_abril.csv
func CSVFilename(formType models.FormType, filename string) string {
	base := strings.TrimSuffix(filename, ".pdf")
	base = strings.TrimSuffix(base, ".PDF")
	return fmt.Sprintf("%s_%s.csv", formType, base)
}

// WriteForm103CSV writes the visible line items of data
func WriteForm103CSV(w io.Writer, data *models.Form103Data, f Filters) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	records := [][]string{{"Concepto", "Código Base", "BASE IMPONIBLE", "Código Retención", "VALOR RETENIDO"}}
	for _, li := range Form103LineItems(data, f) {
		records = append(records, []string{
			li.Concepto,
			li.CodigoBase,
			amount(li.BaseImponible),
			li.CodigoRetencion,
			amount(li.ValorRetenido),
		})
	}
	return writeAll(cw, records)
}

// WriteForm104CSV writes the visible sections of data
func WriteForm104CSV(w io.Writer, data *models.Form104Data, f Filters) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return err
	}
	view := Form104(data, f)
	cw := csv.NewWriter(w)

	var records [][]string
	section := func(title string, fields []models.Field) {
		records = append(records, []string{"=== " + title + " ==="}, []string{"Concepto", "Valor"})
		for _, field := range fields {
			records = append(records, []string{field.Key, amount(field.Value)})
		}
		records = append(records, []string{""})
	}

	section("VENTAS", view.Ventas)
	section("COMPRAS", view.Compras)

	records = append(records, []string{"=== RETENCIONES IVA ==="}, []string{"Porcentaje", "Valor"})
	for _, r := range view.RetencionesIVA {
		records = append(records, []string{strconv.Itoa(r.Porcentaje) + "%", amount(r.Valor)})
	}
	records = append(records, []string{""})

	section("TOTALS", view.Totals)
	return writeAll(cw, records[:len(records)-1])
}

func writeAll(cw *csv.Writer, records [][]string) error {
	if err := cw.WriteAll(records); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}

func amount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
