// Package clientview holds the client-facing state for one taxpayer: documents
// grouped by fiscal year and month, completion per year and form drill-down.
package clientview

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/garyjia/sri-declaraciones/internal/apiclient"
	"github.com/garyjia/sri-declaraciones/internal/models"
	"github.com/garyjia/sri-declaraciones/internal/period"
)

// InvalidPeriodBadge marks a year whose period could not be trusted
const InvalidPeriodBadge = "(Período inválido)"

// Errors surfaced to the user
var (
	ErrNoData            = errors.New("no se encontraron datos con períodos válidos para este cliente")
	ErrNoValidPeriods    = errors.New("no se encontraron períodos válidos en los documentos")
	ErrReprocessRequired = errors.New("los documentos de este cliente no tienen información de período válida, reprocese los documentos")
	ErrInvalidYear       = errors.New("el período no es válido")
	ErrNotInOverview     = errors.New("only available from the overview")
)

// ViewMode is the screen currently shown for the client
type ViewMode string

// View modes. Drill-down is one level deep and always returns to overview.
const (
	ModeOverview      ViewMode = "overview"
	ModeForm103       ViewMode = "form103"
	ModeForm104       ViewMode = "form104"
	ModeYearlySummary ViewMode = "yearly-summary"
)

// API is the part of the API client used by ClientDetail
type API interface {
	ClientDocuments(ctx context.Context, razonSocial string) (*models.ClientDocuments, error)
	Form103(ctx context.Context, id int64) (*models.Form103Data, error)
	Form104(ctx context.Context, id int64) (*models.Form104Data, error)
}

// MonthRow is one month of a year row
type MonthRow struct {
	Month         int
	MonthName     string
	PeriodoFiscal string
	Form103ID     *int64
	Form104ID     *int64
	Complete      bool
}

// YearRow is a year as displayed in the overview
type YearRow struct {
	Year           string
	Valid          bool
	Badge          string // InvalidPeriodBadge for invalid years
	SummaryEnabled bool
	CompletionRate int
	CompleteMonths int
	Months         []MonthRow
}

// ClientDetail is the state of one client's detail screen
type ClientDetail struct {
	api         API
	razonSocial string
	logger      *zap.Logger

	mu           sync.RWMutex
	data         *models.ClientDocuments
	selectedYear string
	mode         ViewMode
	form         models.FormData
	formID       int64
	loading      bool
	refreshing   bool
	lastErr      error
}

// NewClientDetail creates the detail state for razonSocial. Nothing is fetched
// until LoadClientData is called.
func NewClientDetail(api API, razonSocial string, logger *zap.Logger) *ClientDetail {
	return &ClientDetail{
		api:         api,
		razonSocial: razonSocial,
		logger:      logger,
		mode:        ModeOverview,
	}
}

// RazonSocial returns the client name
func (d *ClientDetail) RazonSocial() string { return d.razonSocial }

// LoadClientData fetches the client's documents and selects the first valid
// year in data order. forceRefresh marks the call as a manual refresh. A
// failed fetch keeps the previous data so the call can simply be retried.
func (d *ClientDetail) LoadClientData(ctx context.Context, forceRefresh bool) error {
	d.mu.Lock()
	if forceRefresh {
		d.refreshing = true
	} else {
		d.loading = true
	}
	d.lastErr = nil
	d.mu.Unlock()

	docs, err := d.api.ClientDocuments(ctx, d.razonSocial)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.loading = false
	d.refreshing = false

	if err != nil {
		d.lastErr = classifyLoadError(err)
		d.logger.Warn("Failed to load client documents",
			zap.String("razon_social", d.razonSocial),
			zap.Error(err))
		return d.lastErr
	}

	if docs == nil || len(docs.Years) == 0 {
		d.data = nil
		d.selectedYear = ""
		d.lastErr = ErrNoData
		return d.lastErr
	}

	d.data = docs
	d.selectedYear = ""
	for _, y := range docs.Years {
		if period.IsValidYear(y.Year) {
			d.selectedYear = y.Year
			break
		}
	}
	if d.selectedYear == "" {
		d.lastErr = ErrNoValidPeriods
		return d.lastErr
	}
	return nil
}

func classifyLoadError(err error) error {
	if apiErr, ok := apiclient.AsAPIError(err); ok && apiErr.IsNoValidPeriods() {
		return ErrReprocessRequired
	}
	return fmt.Errorf("error al cargar datos: %w", err)
}

// IsValidYear reports whether year can back a yearly summary
func IsValidYear(year string) bool {
	return period.IsValidYear(year)
}

// ShowSummary switches to the yearly summary of year. Invalid years are
// refused and the view stays in overview.
func (d *ClientDetail) ShowSummary(year string) error {
	if !period.IsValidYear(year) {
		return fmt.Errorf("%w: no se puede mostrar el resumen para el año %q", ErrInvalidYear, year)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.mode != ModeOverview {
		return ErrNotInOverview
	}
	d.selectedYear = year
	d.mode = ModeYearlySummary
	return nil
}

// ViewForm fetches a form and shows it. On failure the view does not change.
func (d *ClientDetail) ViewForm(ctx context.Context, formType models.FormType, id int64) error {
	d.mu.RLock()
	mode := d.mode
	d.mu.RUnlock()
	if mode != ModeOverview {
		return ErrNotInOverview
	}

	var (
		data models.FormData
		next ViewMode
		err  error
	)
	switch formType {
	case models.FormType103:
		var f *models.Form103Data
		if f, err = d.api.Form103(ctx, id); err == nil {
			data, next = f, ModeForm103
		}
	case models.FormType104:
		var f *models.Form104Data
		if f, err = d.api.Form104(ctx, id); err == nil {
			data, next = f, ModeForm104
		}
	default:
		return fmt.Errorf("unsupported form type %q", formType)
	}
	if err != nil {
		d.logger.Warn("Failed to load form",
			zap.String("form_type", string(formType)),
			zap.Int64("document_id", id),
			zap.Error(err))
		return fmt.Errorf("error al cargar el formulario: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	// another view may have opened while the form was loading
	if d.mode != ModeOverview {
		return ErrNotInOverview
	}
	d.form = data
	d.formID = id
	d.mode = next
	return nil
}

// Back returns to the overview from any view
func (d *ClientDetail) Back() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.mode = ModeOverview
	d.form = nil
	d.formID = 0
}

// SelectYear selects a year shown in the overview, valid or not
func (d *ClientDetail) SelectYear(year string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.data == nil {
		return ErrNoData
	}
	for _, y := range d.data.Years {
		if y.Year == year {
			d.selectedYear = year
			return nil
		}
	}
	return fmt.Errorf("year %q not found", year)
}

// Mode returns the current view mode
func (d *ClientDetail) Mode() ViewMode {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.mode
}

// SelectedYear returns the selected year, or "" when none is selected
func (d *ClientDetail) SelectedYear() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.selectedYear
}

// Form returns the form shown in form103/form104 mode
func (d *ClientDetail) Form() (models.FormData, int64) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.form, d.formID
}

// Err returns the error of the last load, if any
func (d *ClientDetail) Err() error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.lastErr
}

// Loading reports whether a load or refresh is in flight
func (d *ClientDetail) Loading() (loading, refreshing bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.loading, d.refreshing
}

// Data returns the last successfully loaded documents
func (d *ClientDetail) Data() *models.ClientDocuments {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.data
}

// CompletionRate returns the completion percentage of year, computed over the
// months listed for it in data order
func (d *ClientDetail) CompletionRate(year string) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.data == nil {
		return 0
	}
	for _, y := range d.data.Years {
		if y.Year == year {
			return period.CompletionRate(y.Months)
		}
	}
	return 0
}

// YearRows returns every loaded year, invalid ones included with a badge
func (d *ClientDetail) YearRows() []YearRow {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.data == nil {
		return nil
	}

	rows := make([]YearRow, 0, len(d.data.Years))
	for _, y := range d.data.Years {
		row := YearRow{
			Year:           y.Year,
			Valid:          period.IsValidYear(y.Year),
			CompletionRate: period.CompletionRate(y.Months),
			Months:         make([]MonthRow, 0, len(y.Months)),
		}
		row.SummaryEnabled = row.Valid
		if !row.Valid {
			row.Badge = InvalidPeriodBadge
		}
		for _, m := range y.Months {
			mr := MonthRow{
				Month:     m.Month,
				MonthName: period.MonthName(m.Month),
				Complete:  m.IsComplete(),
			}
			if m.PeriodoFiscal != nil {
				mr.PeriodoFiscal = *m.PeriodoFiscal
			}
			if m.Forms.Form103 != nil {
				id := m.Forms.Form103.ID
				mr.Form103ID = &id
			}
			if m.Forms.Form104 != nil {
				id := m.Forms.Form104.ID
				mr.Form104ID = &id
			}
			if mr.Complete {
				row.CompleteMonths++
			}
			row.Months = append(row.Months, mr)
		}
		rows = append(rows, row)
	}
	return rows
}
