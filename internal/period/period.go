// Package period validates and parses SRI fiscal periods.
package period

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/garyjia/sri-declaraciones/internal/models"
)

// Year bounds accepted as a fiscal year
const (
	MinYear = 1900
	MaxYear = 2100
)

// ErrInvalidExcludeMonths is returned for a malformed exclude_months list
var ErrInvalidExcludeMonths = errors.New("invalid exclude_months format")

var (
	digitsOnly    = regexp.MustCompile(`^\d+$`)
	periodPattern = regexp.MustCompile(`^\s*([\p{L}]+)\s+(\d{4})\s*$`)
)

// IsValidYear reports whether year is a usable fiscal year: all digits,
// within [MinYear, MaxYear] and not one of the UNKNOWN / N/A placeholders.
func IsValidYear(year string) bool {
	y := strings.TrimSpace(year)
	if y == "" {
		return false
	}
	switch strings.ToUpper(y) {
	case "UNKNOWN", "N/A":
		return false
	}
	if !digitsOnly.MatchString(y) {
		return false
	}
	n, err := strconv.Atoi(y)
	if err != nil {
		return false
	}
	return n >= MinYear && n <= MaxYear
}

// Period is a parsed "MES AÑO" label
type Period struct {
	Mes   string // upper case, as printed on the form
	Anio  string
	Month int
	Label string
}

// Parse reads a fiscal period such as "ABRIL 2025" or "Septiembre 2024"
func Parse(s string) (Period, bool) {
	m := periodPattern.FindStringSubmatch(s)
	if m == nil {
		return Period{}, false
	}
	month, ok := MonthNumber(m[1])
	if !ok || !IsValidYear(m[2]) {
		return Period{}, false
	}
	mes := strings.ToUpper(m[1])
	return Period{
		Mes:   mes,
		Anio:  m[2],
		Month: month,
		Label: mes + " " + m[2],
	}, true
}

// ParseExcludeMonths parses a comma separated month list such as "1,5,12".
// An empty string yields no exclusions. Duplicates collapse and the result is sorted.
func ParseExcludeMonths(csv string) ([]int, error) {
	if strings.TrimSpace(csv) == "" {
		return []int{}, nil
	}
	seen := make(map[int]struct{})
	for _, part := range strings.Split(csv, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidExcludeMonths, part)
		}
		if n < 1 || n > 12 {
			return nil, fmt.Errorf("%w: month %d out of range", ErrInvalidExcludeMonths, n)
		}
		seen[n] = struct{}{}
	}
	months := make([]int, 0, len(seen))
	for n := range seen {
		months = append(months, n)
	}
	sort.Ints(months)
	return months, nil
}

// FormatExcludeMonths renders months as a sorted comma separated list
func FormatExcludeMonths(months []int) string {
	sorted := append([]int(nil), months...)
	sort.Ints(sorted)
	parts := make([]string, len(sorted))
	for i, m := range sorted {
		parts[i] = strconv.Itoa(m)
	}
	return strings.Join(parts, ",")
}

// CompletionRate is the rounded percentage of listed months that have both
// forms. An empty list yields 0.
func CompletionRate(months []models.MonthData) int {
	if len(months) == 0 {
		return 0
	}
	complete := 0
	for _, m := range months {
		if m.IsComplete() {
			complete++
		}
	}
	return int(math.Round(100 * float64(complete) / float64(len(months))))
}
