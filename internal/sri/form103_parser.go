package sri

import (
	"regexp"
	"strings"

	"github.com/garyjia/sri-declaraciones/internal/models"
)

// Form103Result is the parser output for a withholding declaration
type Form103Result struct {
	FormType  models.FormType          `json:"form_type"`
	Header    Header                   `json:"header"`
	LineItems []models.Form103LineItem `json:"line_items"`
	Totals    models.Form103Totals     `json:"totals"`
}

var (
	// concepto, codigo base, base imponible, codigo retencion, valor retenido
	form103LinePattern = regexp.MustCompile(`([A-Za-zÁÉÍÓÚáéíóúñÑ \t()\-,/.]+?)[ \t]+(\d{3,4})[ \t]+([\d.,]+)[ \t]+(\d{3,4})[ \t]+([\d.,]+)`)

	form103SkipWords = []string{"BASE IMPONIBLE", "VALOR RETENIDO", "TOTAL", "SUBTOTAL"}

	subtotalOperacionesPattern = regexp.MustCompile(`(?i)SUBTOTAL OPERACIONES EFECTUADAS EN EL PA[IÍ]S\s+\d+\s+([\d.,]+)\s+\d+\s+([\d.,]+)`)
	totalRetencionPattern      = regexp.MustCompile(`(?i)TOTAL DE RETENCI[OÓ]N DE IMPUESTO A LA RENTA\s+[\d\s+]+\s+\d+\s+([\d.,]+)`)
	totalImpuestoPagarPattern  = regexp.MustCompile(`(?i)TOTAL IMPUESTO A PAGAR\s+[\d\s\-]+\s+\d+\s+([\d.,]+)`)
	interesesPattern           = regexp.MustCompile(`(?i)Inter[eé]s por mora\s+\d+\s+([\d.,]+)`)
	multaPattern               = regexp.MustCompile(`(?i)Multa\s+\d+\s+([\d.,]+)`)
	totalPagadoPattern         = regexp.MustCompile(`(?i)TOTAL PAGADO\s+\d+\s+([\d.,]+)`)
)

// Form103Parser parses Form 103 text
type Form103Parser struct{}

// NewForm103Parser creates a Form 103 parser
func NewForm103Parser() *Form103Parser {
	return &Form103Parser{}
}

// Parse extracts header, non-zero line items and totals
func (p *Form103Parser) Parse(text string) *Form103Result {
	return &Form103Result{
		FormType:  models.FormType103,
		Header:    ParseHeader(text),
		LineItems: p.parseLineItems(text),
		Totals:    p.parseTotals(text),
	}
}

func (p *Form103Parser) parseLineItems(text string) []models.Form103LineItem {
	items := make([]models.Form103LineItem, 0)
	for _, m := range form103LinePattern.FindAllStringSubmatch(text, -1) {
		concepto := strings.Join(strings.Fields(m[1]), " ")
		if concepto == "" || isForm103HeaderLine(concepto) {
			continue
		}
		item := models.Form103LineItem{
			Concepto:        concepto,
			CodigoBase:      m[2],
			BaseImponible:   ParseAmount(m[3]),
			CodigoRetencion: m[4],
			ValorRetenido:   ParseAmount(m[5]),
		}
		if item.IsZero() {
			continue
		}
		item.OrderIndex = len(items)
		items = append(items, item)
	}
	return items
}

func isForm103HeaderLine(concepto string) bool {
	upper := strings.ToUpper(concepto)
	for _, skip := range form103SkipWords {
		if strings.Contains(upper, skip) {
			return true
		}
	}
	return false
}

func (p *Form103Parser) parseTotals(text string) models.Form103Totals {
	var t models.Form103Totals
	if m := subtotalOperacionesPattern.FindStringSubmatch(text); m != nil {
		t.SubtotalOperacionesPais = ParseAmount(m[1]) // box 349, the base
	}
	t.TotalRetencion, _ = amountAfter(totalRetencionPattern, text)
	t.TotalImpuestoPagar, _ = amountAfter(totalImpuestoPagarPattern, text)
	t.Intereses, _ = amountAfter(interesesPattern, text)
	t.Multa, _ = amountAfter(multaPattern, text)
	t.TotalPagado, _ = amountAfter(totalPagadoPattern, text)
	return t
}
