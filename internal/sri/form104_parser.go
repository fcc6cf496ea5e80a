package sri

import (
	"regexp"
	"strconv"

	"github.com/garyjia/sri-declaraciones/internal/models"
)

// Form104Result is the parser output for a VAT declaration
type Form104Result struct {
	FormType       models.FormType       `json:"form_type"`
	Header         Header                `json:"header"`
	Ventas         models.Form104Ventas  `json:"ventas"`
	Compras        models.Form104Compras `json:"compras"`
	RetencionesIVA []models.RetencionIVA `json:"retenciones_iva"`
	Totals         models.Form104Totals  `json:"totals"`
}

const amt = `([\d.,]+)`

var (
	ventasDiferenteCero  = `(?is)Ventas locales.*?tarifa diferente de cero\s+\d+\s+`
	totalVentas          = `(?is)TOTAL VENTAS Y OTRAS OPERACIONES\s+\d+\s+`
	comprasDiferenteCero = `(?is)Adquisiciones y pagos.*?tarifa diferente de cero.*?con derecho\s+\d+\s+`
	skipAmount           = `[\d.,]+\s+\d+\s+`

	ventasBrutoPattern    = regexp.MustCompile(ventasDiferenteCero + amt)
	ventasNetoPattern     = regexp.MustCompile(ventasDiferenteCero + skipAmount + amt)
	impuestoGenPattern    = regexp.MustCompile(ventasDiferenteCero + skipAmount + skipAmount + amt)
	totalVentasBrutoPat   = regexp.MustCompile(totalVentas + amt)
	totalVentasNetoPat    = regexp.MustCompile(totalVentas + skipAmount + amt)
	totalImpuestoGenPat   = regexp.MustCompile(totalVentas + skipAmount + skipAmount + amt)
	comprasBrutoPattern   = regexp.MustCompile(comprasDiferenteCero + amt)
	comprasNetoPattern    = regexp.MustCompile(comprasDiferenteCero + skipAmount + amt)
	impuestoComprasPat    = regexp.MustCompile(comprasDiferenteCero + skipAmount + skipAmount + amt)
	comprasTarifaCeroPat  = regexp.MustCompile(`(?is)Adquisiciones y pagos.*?tarifa 0%\s+\d+\s+` + amt)
	totalAdquisicionesPat = regexp.MustCompile(`(?is)TOTAL ADQUISICIONES Y PAGOS\s+\d+\s+` + amt)
	creditoTributarioPat  = regexp.MustCompile(`(?is)Cr[eé]dito tributario aplicable en este per[ií]odo.*?\s+\d+\s+` + amt)

	impuestoCausadoPat       = regexp.MustCompile(`(?is)Impuesto causado.*?\s+\d+\s+` + amt)
	retencionesEfectuadasPat = regexp.MustCompile(`(?is)Retenciones en la fuente de IVA que le han sido efectuadas en este per[ií]odo\s+\d+\s+` + amt)
	subtotalAPagarPat        = regexp.MustCompile(`(?is)SUBTOTAL A PAGAR.*?\s+\d+\s+` + amt)
	totalImpuestoRetenidoPat = regexp.MustCompile(`(?is)TOTAL IMPUESTO RETENIDO\s+[\d\s+]+\s+\d+\s+` + amt)
	totalPagarRetencionPat   = regexp.MustCompile(`(?is)TOTAL IMPUESTO A PAGAR POR RETENCI[OÓ]N.*?\s+\d+\s+` + amt)
	totalConsolidadoPat      = regexp.MustCompile(`(?is)TOTAL CONSOLIDADO DE IMPUESTO AL VALOR AGREGADO\s+[\d\s+]+\s+\d+\s+` + amt)
	totalPagado104Pat        = regexp.MustCompile(`(?is)TOTAL PAGADO\s+\d+\s+` + amt)

	retencionPercentages = []int{10, 20, 30, 50, 70, 100}
	retencionPatterns    = compileRetencionPatterns()
)

func compileRetencionPatterns() map[int]*regexp.Regexp {
	patterns := make(map[int]*regexp.Regexp, len(retencionPercentages))
	for _, pct := range retencionPercentages {
		patterns[pct] = regexp.MustCompile(`(?i)Retenci[oó]n del ` + strconv.Itoa(pct) + `%\s+\d+\s+` + amt)
	}
	return patterns
}

// Form104Parser parses Form 104 text
type Form104Parser struct{}

// NewForm104Parser creates a Form 104 parser
func NewForm104Parser() *Form104Parser {
	return &Form104Parser{}
}

// Parse extracts header, ventas, compras, VAT withholdings and totals
func (p *Form104Parser) Parse(text string) *Form104Result {
	return &Form104Result{
		FormType:       models.FormType104,
		Header:         ParseHeader(text),
		Ventas:         p.parseVentas(text),
		Compras:        p.parseCompras(text),
		RetencionesIVA: p.parseRetenciones(text),
		Totals:         p.parseTotals(text),
	}
}

func (p *Form104Parser) parseVentas(text string) models.Form104Ventas {
	var v models.Form104Ventas
	v.VentasTarifaDiferenteCeroBruto, _ = amountAfter(ventasBrutoPattern, text)
	v.VentasTarifaDiferenteCeroNeto, _ = amountAfter(ventasNetoPattern, text)
	v.ImpuestoGenerado, _ = amountAfter(impuestoGenPattern, text)
	v.TotalVentasBruto, _ = amountAfter(totalVentasBrutoPat, text)
	v.TotalVentasNeto, _ = amountAfter(totalVentasNetoPat, text)
	v.TotalImpuestoGenerado, _ = amountAfter(totalImpuestoGenPat, text)
	return v
}

func (p *Form104Parser) parseCompras(text string) models.Form104Compras {
	var c models.Form104Compras
	c.AdquisicionesTarifaDiferenteCeroBruto, _ = amountAfter(comprasBrutoPattern, text)
	c.AdquisicionesTarifaDiferenteCeroNeto, _ = amountAfter(comprasNetoPattern, text)
	c.ImpuestoCompras, _ = amountAfter(impuestoComprasPat, text)
	c.AdquisicionesTarifaCero, _ = amountAfter(comprasTarifaCeroPat, text)
	c.TotalAdquisiciones, _ = amountAfter(totalAdquisicionesPat, text)
	c.CreditoTributarioAplicable, _ = amountAfter(creditoTributarioPat, text)
	return c
}

// parseRetenciones keeps only the percentage buckets with a positive amount
func (p *Form104Parser) parseRetenciones(text string) []models.RetencionIVA {
	out := make([]models.RetencionIVA, 0, len(retencionPercentages))
	for _, pct := range retencionPercentages {
		valor, ok := amountAfter(retencionPatterns[pct], text)
		if !ok || valor <= 0 {
			continue
		}
		out = append(out, models.RetencionIVA{Porcentaje: pct, Valor: valor})
	}
	return out
}

func (p *Form104Parser) parseTotals(text string) models.Form104Totals {
	var t models.Form104Totals
	t.ImpuestoCausado, _ = amountAfter(impuestoCausadoPat, text)
	t.RetencionesEfectuadas, _ = amountAfter(retencionesEfectuadasPat, text)
	t.SubtotalAPagar, _ = amountAfter(subtotalAPagarPat, text)
	t.TotalImpuestoRetenido, _ = amountAfter(totalImpuestoRetenidoPat, text)
	t.TotalImpuestoPagarRetencion, _ = amountAfter(totalPagarRetencionPat, text)
	t.TotalConsolidadoIVA, _ = amountAfter(totalConsolidadoPat, text)
	t.TotalPagado, _ = amountAfter(totalPagado104Pat, text)
	return t
}
