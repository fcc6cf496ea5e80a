package period

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MonthNames holds the Spanish month names indexed 1-12
var MonthNames = [13]string{
	"", "Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
	"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
}

var monthsByName = map[string]int{
	"ENERO": 1, "FEBRERO": 2, "MARZO": 3, "ABRIL": 4, "MAYO": 5, "JUNIO": 6,
	"JULIO": 7, "AGOSTO": 8, "SEPTIEMBRE": 9, "SETIEMBRE": 9, "OCTUBRE": 10,
	"NOVIEMBRE": 11, "DICIEMBRE": 12,
}

// MonthName returns the Spanish name of month, or "" when out of range
func MonthName(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return MonthNames[month]
}

// MonthNumber resolves a Spanish month name, ignoring case and accents
func MonthNumber(name string) (int, bool) {
	n, ok := monthsByName[Fold(name)]
	return n, ok
}

// Fold upper-cases s and strips combining marks, so "Período" becomes "PERIODO"
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToUpper(strings.TrimSpace(out))
}
