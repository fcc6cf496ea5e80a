package sri

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Header holds the identification block shared by both forms
type Header struct {
	CodigoVerificador    string `json:"codigo_verificador,omitempty"`
	NumeroSerial         string `json:"numero_serial,omitempty"`
	FechaRecaudacion     string `json:"fecha_recaudacion,omitempty"` // dd-mm-yyyy
	ObligacionTributaria string `json:"obligacion_tributaria,omitempty"`
	Identificacion       string `json:"identificacion,omitempty"`
	RazonSocial          string `json:"razon_social,omitempty"`
	PeriodoMes           string `json:"periodo_mes,omitempty"`
	PeriodoAnio          string `json:"periodo_anio,omitempty"`
	TipoDeclaracion      string `json:"tipo_declaracion,omitempty"`
}

// FechaRecaudacionTime parses the collection date
func (h Header) FechaRecaudacionTime() (time.Time, bool) {
	if h.FechaRecaudacion == "" {
		return time.Time{}, false
	}
	t, err := time.Parse("02-01-2006", h.FechaRecaudacion)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

var (
	codigoVerificadorPattern = regexp.MustCompile(`(?im)C[OÓ]DIGO VERIFICADOR\s+([A-Z0-9]+)`)
	numeroSerialPattern      = regexp.MustCompile(`(?im)N[UÚ]MERO SERIAL\s+(\d+)`)
	fechaRecaudacionPattern  = regexp.MustCompile(`(?im)FECHA RECAUDACI[OÓ]N\s+(\d{2}-\d{2}-\d{4})`)
	obligacionPattern        = regexp.MustCompile(`(?im)Obligaci[oó]n Tributaria:\s+(\d+\s*-?\s*[A-ZÁÉÍÓÚÑ ]+)`)
	identificacionPattern    = regexp.MustCompile(`(?im)Identificaci[oó]n:\s+(\d+)`)
	razonSocialPattern       = regexp.MustCompile(`(?im)Raz[oó]n Social:[ \t]+([A-ZÁÉÍÓÚÑ \t.&]+?)[ \t]*(?:\n|Per[ií]odo|$)`)
	periodoFiscalPattern     = regexp.MustCompile(`(?im)Per[ií]odo Fiscal:\s+([A-ZÁÉÍÓÚÑ]+)\s+(\d{4})`)
	tipoDeclaracionPattern   = regexp.MustCompile(`(?im)Tipo Declaraci[oó]n:\s+([A-Z]+)`)
)

// ParseHeader extracts the identification block
func ParseHeader(text string) Header {
	var h Header
	h.CodigoVerificador = firstGroup(codigoVerificadorPattern, text)
	h.NumeroSerial = firstGroup(numeroSerialPattern, text)
	h.FechaRecaudacion = firstGroup(fechaRecaudacionPattern, text)
	h.ObligacionTributaria = firstGroup(obligacionPattern, text)
	h.Identificacion = firstGroup(identificacionPattern, text)
	h.RazonSocial = strings.Join(strings.Fields(firstGroup(razonSocialPattern, text)), " ")
	h.TipoDeclaracion = firstGroup(tipoDeclaracionPattern, text)
	if m := periodoFiscalPattern.FindStringSubmatch(text); m != nil {
		h.PeriodoMes = strings.ToUpper(m[1])
		h.PeriodoAnio = m[2]
	}
	return h
}

func firstGroup(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// ParseAmount reads an amount printed with thousands separators, e.g. "1,234.56".
// Unparseable input yields 0.
func ParseAmount(s string) float64 {
	v, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", ""), 64)
	if err != nil {
		return 0
	}
	return v
}

// amountAfter returns the last capture group of the first match as an amount
func amountAfter(re *regexp.Regexp, text string) (float64, bool) {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	return ParseAmount(m[len(m)-1]), true
}
