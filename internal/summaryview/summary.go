// Package summaryview holds the yearly summary screen: month exclusion,
// totals re-requested from the backend, and Excel/PDF downloads.
package summaryview

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/garyjia/sri-declaraciones/internal/apiclient"
	"github.com/garyjia/sri-declaraciones/internal/models"
	"github.com/garyjia/sri-declaraciones/internal/period"
)

var (
	// ErrStaleResponse is returned when a newer request was issued while this
	// one was in flight. Its result is dropped.
	ErrStaleResponse = errors.New("response superseded by a newer request")

	ErrInvalidMonth = errors.New("month must be between 1 and 12")
	ErrNoSummary    = errors.New("summary not loaded")
)

// API is the part of the API client used by YearlySummary
type API interface {
	YearlySummary(ctx context.Context, razonSocial, year string, excluded []int) (*models.YearlySummary, error)
	ExportExcel(ctx context.Context, razonSocial, year string, excluded []int) (*apiclient.Download, error)
	ExportPDF(ctx context.Context, razonSocial, year string, excluded []int, branding models.PDFBranding) (*apiclient.Download, error)
}

// Form103Row is a monthly Form 103 row; excluded months stay listed
type Form103Row struct {
	models.Form103MonthDetail
	Excluded bool
}

// Form104Row is a monthly Form 104 row; excluded months stay listed
type Form104Row struct {
	models.Form104MonthDetail
	Excluded bool
}

// YearlySummary is the state of one client's yearly summary
type YearlySummary struct {
	api         API
	razonSocial string
	year        string
	outputDir   string
	logger      *zap.Logger

	mu           sync.Mutex
	excluded     map[int]struct{}
	issued       uint64
	summary      *models.YearlySummary
	lastErr      error
	branding     models.PDFBranding
	brandingOpen bool
}

// New creates the summary state for one client year. Exports are written to outputDir.
func New(api API, razonSocial, year, outputDir string, logger *zap.Logger) (*YearlySummary, error) {
	if !period.IsValidYear(year) {
		return nil, fmt.Errorf("invalid fiscal year %q", year)
	}
	return &YearlySummary{
		api:         api,
		razonSocial: razonSocial,
		year:        year,
		outputDir:   outputDir,
		logger:      logger,
		excluded:    make(map[int]struct{}),
		branding:    models.DefaultBranding(),
	}, nil
}

// LoadSummary requests the summary with the current exclusion set. Responses
// to requests older than the latest one are discarded with ErrStaleResponse.
// A failed request keeps the previously loaded summary.
func (s *YearlySummary) LoadSummary(ctx context.Context) error {
	return s.load(ctx, nil)
}

// load fetches the summary for the current exclusion set. undo runs under
// the lock when the latest request fails, so the set matches the totals shown.
func (s *YearlySummary) load(ctx context.Context, undo func()) error {
	s.mu.Lock()
	s.issued++
	token := s.issued
	excluded := s.excludedLocked()
	s.mu.Unlock()

	summary, err := s.api.YearlySummary(ctx, s.razonSocial, s.year, excluded)

	s.mu.Lock()
	defer s.mu.Unlock()
	if token != s.issued {
		s.logger.Debug("Discarding stale yearly summary",
			zap.Uint64("token", token),
			zap.Uint64("latest", s.issued))
		return ErrStaleResponse
	}
	if err != nil {
		if undo != nil {
			undo()
		}
		s.lastErr = err
		return fmt.Errorf("failed to load yearly summary: %w", err)
	}
	s.summary = summary
	s.lastErr = nil
	return nil
}

// ToggleMonth flips month in the exclusion set and reloads the summary. The
// flip is undone when the reload fails.
func (s *YearlySummary) ToggleMonth(ctx context.Context, month int) error {
	if month < 1 || month > 12 {
		return fmt.Errorf("%w: %d", ErrInvalidMonth, month)
	}
	s.mu.Lock()
	s.flipLocked(month)
	s.mu.Unlock()

	return s.load(ctx, func() { s.flipLocked(month) })
}

func (s *YearlySummary) flipLocked(month int) {
	if _, ok := s.excluded[month]; ok {
		delete(s.excluded, month)
	} else {
		s.excluded[month] = struct{}{}
	}
}

// SetExcludedMonths replaces the exclusion set without loading. Exports read
// the set directly, so they need no summary round trip.
func (s *YearlySummary) SetExcludedMonths(months []int) error {
	excluded := make(map[int]struct{}, len(months))
	for _, m := range months {
		if m < 1 || m > 12 {
			return fmt.Errorf("%w: %d", ErrInvalidMonth, m)
		}
		excluded[m] = struct{}{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.excluded = excluded
	return nil
}

// ExcludedMonths returns the exclusion set in ascending order
func (s *YearlySummary) ExcludedMonths() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.excludedLocked()
}

func (s *YearlySummary) excludedLocked() []int {
	months := make([]int, 0, len(s.excluded))
	for m := range s.excluded {
		months = append(months, m)
	}
	sort.Ints(months)
	return months
}

// Summary returns the last loaded summary
func (s *YearlySummary) Summary() *models.YearlySummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summary
}

// Err returns the error of the last load, if any
func (s *YearlySummary) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Form103Details returns the monthly Form 103 rows sorted by month
func (s *YearlySummary) Form103Details() []Form103Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.summary == nil {
		return nil
	}
	rows := make([]Form103Row, 0, len(s.summary.Form103Summary.MonthlyDetails))
	for _, d := range s.summary.Form103Summary.MonthlyDetails {
		_, excluded := s.excluded[d.Month]
		rows = append(rows, Form103Row{Form103MonthDetail: d, Excluded: excluded})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Month < rows[j].Month })
	return rows
}

// Form104Details returns the monthly Form 104 rows sorted by month
func (s *YearlySummary) Form104Details() []Form104Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.summary == nil {
		return nil
	}
	rows := make([]Form104Row, 0, len(s.summary.Form104Summary.MonthlyDetails))
	for _, d := range s.summary.Form104Summary.MonthlyDetails {
		_, excluded := s.excluded[d.Month]
		rows = append(rows, Form104Row{Form104MonthDetail: d, Excluded: excluded})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Month < rows[j].Month })
	return rows
}

// SetBranding replaces the PDF branding form contents
func (s *YearlySummary) SetBranding(b models.PDFBranding) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.branding = b
}

// Branding returns the PDF branding form contents
func (s *YearlySummary) Branding() models.PDFBranding {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.branding
}

// BrandingFormOpen reports whether the branding form is shown
func (s *YearlySummary) BrandingFormOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.brandingOpen
}

// SetBrandingFormOpen shows or hides the branding form
func (s *YearlySummary) SetBrandingFormOpen(open bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.brandingOpen = open
}

// ExportExcel downloads the workbook for the current exclusion set and
// returns the written path
func (s *YearlySummary) ExportExcel(ctx context.Context) (string, error) {
	excluded := s.ExcludedMonths()
	dl, err := s.api.ExportExcel(ctx, s.razonSocial, s.year, excluded)
	if err != nil {
		return "", fmt.Errorf("error al exportar a Excel: %w", err)
	}
	return s.save(models.SummaryFilename(s.razonSocial, s.year, "xlsx"), dl.Data)
}

// ExportPDF downloads the branded report for the current exclusion set. With
// company name or footer missing no request is made, the branding form is
// opened and models.ErrBrandingIncomplete is returned.
func (s *YearlySummary) ExportPDF(ctx context.Context) (string, error) {
	s.mu.Lock()
	branding := s.branding
	if !branding.IsComplete() {
		s.brandingOpen = true
		s.mu.Unlock()
		return "", models.ErrBrandingIncomplete
	}
	excluded := s.excludedLocked()
	s.mu.Unlock()

	dl, err := s.api.ExportPDF(ctx, s.razonSocial, s.year, excluded, branding)
	if err != nil {
		return "", fmt.Errorf("error al exportar a PDF: %w", err)
	}
	return s.save(models.SummaryFilename(s.razonSocial, s.year, "pdf"), dl.Data)
}

func (s *YearlySummary) save(name string, data []byte) (string, error) {
	if err := os.MkdirAll(s.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(s.outputDir, filepath.Base(name))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	s.logger.Info("Export saved", zap.String("path", path), zap.Int("bytes", len(data)))
	return path, nil
}
