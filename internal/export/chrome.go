package export

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/garyjia/sri-declaraciones/internal/models"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"
)

// ChromeRenderer prints an HTML report through a headless browser
type ChromeRenderer struct {
	binPath string // empty lets the launcher locate or download a browser
	timeout time.Duration
	tmpl    *template.Template
	logger  *zap.Logger
	now     func() time.Time
}

// NewChromeRenderer creates a headless browser renderer
func NewChromeRenderer(binPath string, timeout time.Duration, logger *zap.Logger) *ChromeRenderer {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ChromeRenderer{
		binPath: binPath,
		timeout: timeout,
		tmpl:    template.Must(template.New("report").Funcs(template.FuncMap{"amount": formatAmount}).Parse(reportTemplate)),
		logger:  logger,
		now:     time.Now,
	}
}

// NewPDFRenderer selects the PDF engine by name
func NewPDFRenderer(engine, chromePath string, chromeTimeout time.Duration, logger *zap.Logger) (PDFRenderer, error) {
	switch engine {
	case "", EngineFPDF:
		return NewFPDFRenderer(nil, logger), nil
	case EngineChrome:
		return NewChromeRenderer(chromePath, chromeTimeout, logger), nil
	}
	return nil, fmt.Errorf("unknown PDF engine %q", engine)
}

type reportTable struct {
	Title   string
	Headers []string
	Rows    []reportRow
	Totals  []float64
	Missing string
}

type reportRow struct {
	Month   int
	Period  string
	Amounts []float64
}

type reportData struct {
	Branding    models.PDFBranding
	Summary     *models.YearlySummary
	Excluded    string
	GeneratedAt string
	Tables      []reportTable
}

// RenderHTML fills the report template
func (r *ChromeRenderer) RenderHTML(summary *models.YearlySummary, branding models.PDFBranding) (string, error) {
	data := reportData{
		Branding:    branding,
		Summary:     summary,
		Excluded:    monthList(summary.ExcludedMonths),
		GeneratedAt: r.now().Format("02-01-2006"),
		Tables: []reportTable{
			toReportTable(form103Table(summary.Form103Summary), summary.MissingMonths.Form103),
			toReportTable(form104Table(summary.Form104Summary), summary.MissingMonths.Form104),
		},
	}
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render report template: %w", err)
	}
	return buf.String(), nil
}

// Render launches a browser, loads the report and prints it to PDF
func (r *ChromeRenderer) Render(ctx context.Context, summary *models.YearlySummary, branding models.PDFBranding) ([]byte, error) {
	if err := branding.Validate(); err != nil {
		return nil, err
	}
	html, err := r.RenderHTML(summary, branding)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	l := launcher.New().Context(ctx).Headless(true).Leakless(false)
	if r.binPath != "" {
		l = l.Bin(r.binPath)
	}
	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}
	defer l.Cleanup()

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}
	defer browser.Close()

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	if err := page.SetDocumentContent(html); err != nil {
		return nil, fmt.Errorf("failed to load report: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("failed to load report: %w", err)
	}

	stream, err := page.PDF(&proto.PagePrintToPDF{
		Landscape:           true,
		PrintBackground:     true,
		DisplayHeaderFooter: true,
		HeaderTemplate:      "<span></span>",
		FooterTemplate: `<div style="font-size:8px;width:100%;text-align:center;color:#666">` +
			template.HTMLEscapeString(branding.FooterText) +
			` - <span class="pageNumber"></span>/<span class="totalPages"></span></div>`,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to print PDF: %w", err)
	}
	out, err := io.ReadAll(stream)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF: %w", err)
	}

	r.logger.Info("PDF summary printed",
		zap.String("razon_social", summary.RazonSocial),
		zap.String("year", summary.Year),
		zap.Int("bytes", len(out)))
	return out, nil
}

func toReportTable(t table, missing []int) reportTable {
	rt := reportTable{Title: t.title, Totals: t.totals, Missing: monthList(missing)}
	for _, c := range t.columns {
		rt.Headers = append(rt.Headers, c.title)
	}
	for i, month := range t.months {
		row := reportRow{Month: month, Period: t.periods[i]}
		for _, c := range t.columns {
			row.Amounts = append(row.Amounts, c.value(i))
		}
		rt.Rows = append(rt.Rows, row)
	}
	return rt
}

const reportTemplate = `<!DOCTYPE html>
<html lang="es">
<head>
<meta charset="utf-8">
<style>
  body { font-family: Helvetica, Arial, sans-serif; color: #222; margin: 24px; }
  h1 { color: {{.Branding.PrimaryColor}}; margin: 0 0 4px; }
  h2 { color: {{.Branding.SecondaryColor}}; font-size: 15px; margin: 24px 0 8px; }
  .meta { font-size: 12px; margin: 2px 0; }
  table { width: 100%; border-collapse: collapse; font-size: 10px; }
  th { background: {{.Branding.PrimaryColor}}; color: #fff; padding: 4px; border: 1px solid #ccc; }
  td { padding: 3px 4px; border: 1px solid #ddd; }
  td.num { text-align: right; }
  tr.total td { background: {{.Branding.SecondaryColor}}; color: #fff; font-weight: bold; }
  .missing { color: #b42828; font-style: italic; font-size: 10px; }
  img.logo { max-height: 60px; margin-bottom: 8px; }
</style>
</head>
<body>
{{if .Branding.LogoURL}}<img class="logo" src="{{.Branding.LogoURL}}" alt="logo">{{end}}
<h1>{{.Branding.CompanyName}}</h1>
<p class="meta">Resumen anual de declaraciones - {{.Summary.RazonSocial}}</p>
<p class="meta">Año fiscal {{.Summary.Year}} · Generado {{.GeneratedAt}}</p>
{{if .Excluded}}<p class="meta">Meses excluidos: {{.Excluded}}</p>{{end}}
{{range .Tables}}
<h2>{{.Title}}</h2>
<table>
  <tr><th>Mes</th><th>Período</th>{{range .Headers}}<th>{{.}}</th>{{end}}</tr>
  {{range .Rows}}<tr><td>{{.Month}}</td><td>{{.Period}}</td>{{range .Amounts}}<td class="num">{{amount .}}</td>{{end}}</tr>
  {{end}}<tr class="total"><td colspan="2">TOTAL</td>{{range .Totals}}<td class="num">{{amount .}}</td>{{end}}</tr>
</table>
{{if .Missing}}<p class="missing">Meses faltantes: {{.Missing}}</p>{{end}}
{{end}}
</body>
</html>
`
