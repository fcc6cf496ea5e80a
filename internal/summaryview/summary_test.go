package summaryview

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/sri-declaraciones/internal/apiclient"
	"github.com/garyjia/sri-declaraciones/internal/models"
)

// fakeAPI computes summaries from fixed monthly amounts the way the backend does
type fakeAPI struct {
	mu          sync.Mutex
	amounts     map[int]float64
	summaryHook func(excluded []int) // runs before the response is built
	summaryErr  error
	exportErr   error

	summaryCalls int
	excelCalls   int
	pdfCalls     int
	lastBranding models.PDFBranding
	lastExcluded []int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{amounts: map[int]float64{3: 300, 1: 100, 5: 500, 2: 200}}
}

func (f *fakeAPI) YearlySummary(ctx context.Context, razonSocial, year string, excluded []int) (*models.YearlySummary, error) {
	f.mu.Lock()
	f.summaryCalls++
	hook := f.summaryHook
	f.mu.Unlock()
	if hook != nil {
		hook(excluded)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastExcluded = excluded
	if f.summaryErr != nil {
		return nil, f.summaryErr
	}
	skip := make(map[int]bool)
	for _, m := range excluded {
		skip[m] = true
	}
	s := &models.YearlySummary{RazonSocial: razonSocial, Year: year, ExcludedMonths: excluded}
	for m, v := range f.amounts {
		s.Form103Summary.MonthlyDetails = append(s.Form103Summary.MonthlyDetails, models.Form103MonthDetail{Month: m, TotalPagado: v})
		s.Form104Summary.MonthlyDetails = append(s.Form104Summary.MonthlyDetails, models.Form104MonthDetail{Month: m, TotalPagado: v})
		if !skip[m] {
			s.Form103Summary.TotalPagado += v
			s.Form104Summary.TotalPagado += v
		}
	}
	return s, nil
}

func (f *fakeAPI) ExportExcel(ctx context.Context, razonSocial, year string, excluded []int) (*apiclient.Download, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.excelCalls++
	f.lastExcluded = excluded
	if f.exportErr != nil {
		return nil, f.exportErr
	}
	return &apiclient.Download{Filename: "server.xlsx", Data: []byte("xlsx")}, nil
}

func (f *fakeAPI) ExportPDF(ctx context.Context, razonSocial, year string, excluded []int, branding models.PDFBranding) (*apiclient.Download, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pdfCalls++
	f.lastExcluded = excluded
	f.lastBranding = branding
	if f.exportErr != nil {
		return nil, f.exportErr
	}
	return &apiclient.Download{Filename: "server.pdf", Data: []byte("%PDF")}, nil
}

func newSummary(t *testing.T, api API) (*YearlySummary, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := New(api, "ACME S.A.", "2024", dir, zap.NewNop())
	require.NoError(t, err)
	return s, dir
}

func TestNew_RejectsInvalidYear(t *testing.T) {
	_, err := New(newFakeAPI(), "ACME S.A.", "UNKNOWN", t.TempDir(), zap.NewNop())
	assert.Error(t, err)
}

func TestToggleMonth_RoundTripRestoresTotals(t *testing.T) {
	api := newFakeAPI()
	s, _ := newSummary(t, api)
	ctx := context.Background()

	require.NoError(t, s.LoadSummary(ctx))
	original := s.Summary().Form103Summary.TotalPagado
	assert.Equal(t, 1100.0, original)

	require.NoError(t, s.ToggleMonth(ctx, 5))
	assert.Equal(t, []int{5}, s.ExcludedMonths())
	assert.Equal(t, 600.0, s.Summary().Form103Summary.TotalPagado)
	assert.Equal(t, []int{5}, api.lastExcluded)

	require.NoError(t, s.ToggleMonth(ctx, 5))
	assert.Empty(t, s.ExcludedMonths())
	assert.Equal(t, original, s.Summary().Form103Summary.TotalPagado)
	assert.Equal(t, 3, api.summaryCalls)
}

func TestToggleMonth_FailedReloadRestoresExclusions(t *testing.T) {
	api := newFakeAPI()
	s, _ := newSummary(t, api)
	ctx := context.Background()
	require.NoError(t, s.LoadSummary(ctx))

	api.summaryErr = errors.New("network down")
	require.Error(t, s.ToggleMonth(ctx, 5))
	assert.Error(t, s.Err())
	assert.Empty(t, s.ExcludedMonths())
	assert.Equal(t, 1100.0, s.Summary().Form103Summary.TotalPagado)
	for _, row := range s.Form103Details() {
		assert.False(t, row.Excluded, "month %d", row.Month)
	}

	// exports keep the set the totals were computed with
	api.summaryErr = nil
	_, err := s.ExportExcel(ctx)
	require.NoError(t, err)
	assert.Empty(t, api.lastExcluded)
}

func TestSetExcludedMonths(t *testing.T) {
	api := newFakeAPI()
	s, _ := newSummary(t, api)

	require.NoError(t, s.SetExcludedMonths([]int{5, 2, 5}))
	assert.Equal(t, []int{2, 5}, s.ExcludedMonths())
	assert.Zero(t, api.summaryCalls)

	assert.ErrorIs(t, s.SetExcludedMonths([]int{3, 13}), ErrInvalidMonth)
	assert.Equal(t, []int{2, 5}, s.ExcludedMonths(), "invalid input leaves the set alone")
}

func TestToggleMonth_RejectsOutOfRange(t *testing.T) {
	api := newFakeAPI()
	s, _ := newSummary(t, api)

	assert.ErrorIs(t, s.ToggleMonth(context.Background(), 0), ErrInvalidMonth)
	assert.ErrorIs(t, s.ToggleMonth(context.Background(), 13), ErrInvalidMonth)
	assert.Zero(t, api.summaryCalls)
}

func TestDetails_SortedWithExcludedRowsKept(t *testing.T) {
	s, _ := newSummary(t, newFakeAPI())
	ctx := context.Background()
	require.NoError(t, s.ToggleMonth(ctx, 2))

	rows := s.Form103Details()
	require.Len(t, rows, 4)
	months := []int{rows[0].Month, rows[1].Month, rows[2].Month, rows[3].Month}
	assert.Equal(t, []int{1, 2, 3, 5}, months)
	assert.True(t, rows[1].Excluded)
	assert.False(t, rows[0].Excluded)

	rows104 := s.Form104Details()
	require.Len(t, rows104, 4)
	assert.Equal(t, 1, rows104[0].Month)
	assert.True(t, rows104[1].Excluded)
}

func TestLoadSummary_DiscardsStaleResponse(t *testing.T) {
	api := newFakeAPI()
	release := make(chan struct{})
	started := make(chan struct{})
	api.summaryHook = func(excluded []int) {
		if len(excluded) == 0 {
			close(started)
			<-release
		}
	}
	s, _ := newSummary(t, api)
	ctx := context.Background()

	slow := make(chan error, 1)
	go func() { slow <- s.LoadSummary(ctx) }()
	<-started

	// A newer request completes while the first is still in flight
	require.NoError(t, s.ToggleMonth(ctx, 1))
	close(release)

	assert.ErrorIs(t, <-slow, ErrStaleResponse)
	assert.Equal(t, []int{1}, s.Summary().ExcludedMonths)
	assert.Equal(t, 1000.0, s.Summary().Form103Summary.TotalPagado)
}

func TestLoadSummary_FailureKeepsSummary(t *testing.T) {
	api := newFakeAPI()
	s, _ := newSummary(t, api)
	ctx := context.Background()
	require.NoError(t, s.LoadSummary(ctx))

	api.summaryErr = errors.New("backend down")
	require.Error(t, s.LoadSummary(ctx))
	assert.Error(t, s.Err())
	assert.NotNil(t, s.Summary())
}

func TestExportExcel_WritesFile(t *testing.T) {
	api := newFakeAPI()
	s, dir := newSummary(t, api)
	ctx := context.Background()
	require.NoError(t, s.ToggleMonth(ctx, 3))

	path, err := s.ExportExcel(ctx)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "ACME_S.A._2024_summary.xlsx"), path)
	assert.Equal(t, []int{3}, api.lastExcluded)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("xlsx"), data)
}

func TestExportPDF_BlockedWithoutBranding(t *testing.T) {
	api := newFakeAPI()
	s, dir := newSummary(t, api)
	require.NoError(t, s.LoadSummary(context.Background()))
	before := s.Summary()

	s.SetBranding(models.PDFBranding{CompanyName: "", FooterText: "Pie"})
	_, err := s.ExportPDF(context.Background())
	assert.ErrorIs(t, err, models.ErrBrandingIncomplete)
	assert.True(t, s.BrandingFormOpen())
	assert.Zero(t, api.pdfCalls, "no request may be issued")
	assert.Same(t, before, s.Summary())

	entries, _ := os.ReadDir(dir)
	assert.Empty(t, entries)
}

func TestExportPDF_SendsBranding(t *testing.T) {
	api := newFakeAPI()
	s, dir := newSummary(t, api)
	s.SetBranding(models.PDFBranding{CompanyName: "Contadores", FooterText: "Pie", PrimaryColor: "#112233", SecondaryColor: "#445566"})

	path, err := s.ExportPDF(context.Background())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "ACME_S.A._2024_summary.pdf"), path)
	assert.Equal(t, "Contadores", api.lastBranding.CompanyName)
	assert.Equal(t, 1, api.pdfCalls)
}

func TestExport_FailureLeavesSummary(t *testing.T) {
	api := newFakeAPI()
	s, _ := newSummary(t, api)
	ctx := context.Background()
	require.NoError(t, s.LoadSummary(ctx))
	before := s.Summary()

	api.exportErr = errors.New("render failed")
	_, err := s.ExportExcel(ctx)
	require.Error(t, err)
	assert.Same(t, before, s.Summary())
	assert.NoError(t, s.Err())
}
