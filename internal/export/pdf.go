package export

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/garyjia/sri-declaraciones/internal/models"
	"github.com/go-pdf/fpdf"
	"go.uber.org/zap"
)

const maxLogoBytes = 2 << 20

// FPDFRenderer draws the branded report directly with fpdf
type FPDFRenderer struct {
	httpClient *http.Client
	logger     *zap.Logger
	now        func() time.Time
}

// NewFPDFRenderer creates a renderer; the HTTP client is used to fetch logos
func NewFPDFRenderer(httpClient *http.Client, logger *zap.Logger) *FPDFRenderer {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &FPDFRenderer{httpClient: httpClient, logger: logger, now: time.Now}
}

// Render produces a landscape A4 report with both summary tables
func (r *FPDFRenderer) Render(ctx context.Context, summary *models.YearlySummary, branding models.PDFBranding) ([]byte, error) {
	if err := branding.Validate(); err != nil {
		return nil, err
	}
	primary, err := hexToRGB(branding.PrimaryColor)
	if err != nil {
		return nil, err
	}
	secondary, err := hexToRGB(branding.SecondaryColor)
	if err != nil {
		return nil, err
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(fmt.Sprintf("%s %s", summary.RazonSocial, summary.Year), true)
	pdf.SetCreator(branding.CompanyName, true)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(110, 110, 110)
		pdf.CellFormat(0, 5, tr(branding.FooterText), "", 1, "C", false, 0, "")
		pdf.CellFormat(0, 5, tr(fmt.Sprintf("Página %d/{nb}", pdf.PageNo())), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	logo := r.loadLogo(ctx, pdf, branding.LogoURL)
	left, top, _, _ := pdf.GetMargins()
	if logo != "" {
		pdf.ImageOptions(logo, left, top, 0, 18, false, fpdf.ImageOptions{ReadDpi: true}, 0, "")
		pdf.SetY(top + 20)
	}

	pdf.SetFont("Helvetica", "B", 18)
	pdf.SetTextColor(primary[0], primary[1], primary[2])
	pdf.CellFormat(0, 10, tr(branding.CompanyName), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.SetTextColor(40, 40, 40)
	pdf.CellFormat(0, 6, tr("Resumen anual de declaraciones - "+summary.RazonSocial), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Año fiscal %s · Generado %s", summary.Year, r.now().Format("02-01-2006"))), "", 1, "L", false, 0, "")
	if len(summary.ExcludedMonths) > 0 {
		pdf.CellFormat(0, 6, tr("Meses excluidos: "+monthList(summary.ExcludedMonths)), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	drawTable(pdf, tr, form103Table(summary.Form103Summary), summary.MissingMonths.Form103, primary, secondary)
	pdf.Ln(6)
	drawTable(pdf, tr, form104Table(summary.Form104Summary), summary.MissingMonths.Form104, primary, secondary)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render PDF: %w", err)
	}

	r.logger.Info("PDF summary generated",
		zap.String("razon_social", summary.RazonSocial),
		zap.String("year", summary.Year),
		zap.Bool("logo", logo != ""),
		zap.Int("bytes", buf.Len()))
	return buf.Bytes(), nil
}

func drawTable(pdf *fpdf.Fpdf, tr func(string) string, t table, missing []int, primary, secondary [3]int) {
	pageWidth, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	usable := pageWidth - left - right
	monthW, periodW := 12.0, 36.0
	amountW := (usable - monthW - periodW) / float64(len(t.columns))

	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetTextColor(secondary[0], secondary[1], secondary[2])
	pdf.CellFormat(0, 8, tr(t.title), "", 1, "L", false, 0, "")

	header := func() {
		pdf.SetFont("Helvetica", "B", 7.5)
		pdf.SetFillColor(primary[0], primary[1], primary[2])
		pdf.SetTextColor(255, 255, 255)
		pdf.CellFormat(monthW, 8, "Mes", "1", 0, "C", true, 0, "")
		pdf.CellFormat(periodW, 8, tr("Período"), "1", 0, "C", true, 0, "")
		for _, c := range t.columns {
			pdf.CellFormat(amountW, 8, tr(c.title), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
	}
	header()

	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(30, 30, 30)
	for i, month := range t.months {
		fill := i%2 == 1
		pdf.SetFillColor(242, 245, 250)
		pdf.CellFormat(monthW, 6, strconv.Itoa(month), "1", 0, "C", fill, 0, "")
		pdf.CellFormat(periodW, 6, tr(t.periods[i]), "1", 0, "L", fill, 0, "")
		for _, c := range t.columns {
			pdf.CellFormat(amountW, 6, formatAmount(c.value(i)), "1", 0, "R", fill, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetFillColor(secondary[0], secondary[1], secondary[2])
	pdf.SetTextColor(255, 255, 255)
	pdf.CellFormat(monthW+periodW, 7, "TOTAL", "1", 0, "L", true, 0, "")
	for _, v := range t.totals {
		pdf.CellFormat(amountW, 7, formatAmount(v), "1", 0, "R", true, 0, "")
	}
	pdf.Ln(-1)

	if len(missing) > 0 {
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(180, 40, 40)
		pdf.CellFormat(0, 6, tr("Meses faltantes: "+monthList(missing)), "", 1, "L", false, 0, "")
	}
}

// loadLogo registers the logo image and returns its name, or "" when it cannot be used
func (r *FPDFRenderer) loadLogo(ctx context.Context, pdf *fpdf.Fpdf, logoURL string) string {
	if logoURL == "" {
		return ""
	}
	data, imageType, err := r.fetchLogo(ctx, logoURL)
	if err != nil {
		r.logger.Warn("Skipping logo", zap.String("logo_url", logoURL), zap.Error(err))
		return ""
	}
	pdf.RegisterImageOptionsReader("logo", fpdf.ImageOptions{ImageType: imageType, ReadDpi: true}, bytes.NewReader(data))
	if !pdf.Ok() {
		r.logger.Warn("Skipping unreadable logo", zap.String("logo_url", logoURL), zap.Error(pdf.Error()))
		pdf.ClearError()
		return ""
	}
	return "logo"
}

func (r *FPDFRenderer) fetchLogo(ctx context.Context, logoURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, logoURL, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	imageType := imageTypeOf(resp.Header.Get("Content-Type"), logoURL)
	if imageType == "" {
		return nil, "", fmt.Errorf("unsupported image type")
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxLogoBytes))
	if err != nil {
		return nil, "", err
	}
	return data, imageType, nil
}

func imageTypeOf(contentType, url string) string {
	switch {
	case strings.Contains(contentType, "png"):
		return "PNG"
	case strings.Contains(contentType, "jpeg"), strings.Contains(contentType, "jpg"):
		return "JPG"
	case strings.Contains(contentType, "gif"):
		return "GIF"
	}
	switch strings.ToLower(path.Ext(strings.SplitN(url, "?", 2)[0])) {
	case ".png":
		return "PNG"
	case ".jpg", ".jpeg":
		return "JPG"
	case ".gif":
		return "GIF"
	}
	return ""
}

// hexToRGB converts "#rrggbb" to its components
func hexToRGB(color string) ([3]int, error) {
	var rgb [3]int
	if len(color) != 7 || color[0] != '#' {
		return rgb, fmt.Errorf("%w: %q", models.ErrInvalidColor, color)
	}
	for i := 0; i < 3; i++ {
		v, err := strconv.ParseUint(color[1+2*i:3+2*i], 16, 8)
		if err != nil {
			return rgb, fmt.Errorf("%w: %q", models.ErrInvalidColor, color)
		}
		rgb[i] = int(v)
	}
	return rgb, nil
}
