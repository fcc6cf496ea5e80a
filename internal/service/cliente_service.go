package service

import (
	"context"
	"sort"

	"github.com/garyjia/sri-declaraciones/internal/models"
	"github.com/garyjia/sri-declaraciones/internal/period"
	"github.com/garyjia/sri-declaraciones/internal/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ClienteService aggregates documents per taxpayer (razon social)
type ClienteService struct {
	docs   *repository.DocumentRepository
	forms  *repository.FormRepository
	logger *zap.Logger
}

// NewClienteService creates a new client aggregation service
func NewClienteService(docs *repository.DocumentRepository, forms *repository.FormRepository, logger *zap.Logger) *ClienteService {
	return &ClienteService{
		docs:   docs,
		forms:  forms,
		logger: logger,
	}
}

// ListClients returns every taxpayer with at least one document
func (s *ClienteService) ListClients(ctx context.Context) ([]models.ClientSummary, error) {
	return s.docs.ListClients(ctx)
}

// ClientDocuments groups a client's documents by year (desc) and month (asc).
// Documents without a year are left out; if that leaves nothing,
// ErrNoValidPeriods is returned.
func (s *ClienteService) ClientDocuments(ctx context.Context, razonSocial string) (*models.ClientDocuments, error) {
	docs, err := s.docs.ListByRazonSocial(ctx, razonSocial)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, ErrClientNotFound
	}

	type yearBucket struct {
		months map[int]*models.MonthData
	}
	years := map[string]*yearBucket{}
	for _, doc := range docs {
		if doc.PeriodoAnio == nil || *doc.PeriodoAnio == "" {
			continue
		}
		if doc.FormType != models.FormType103 && doc.FormType != models.FormType104 {
			continue
		}
		bucket, ok := years[*doc.PeriodoAnio]
		if !ok {
			bucket = &yearBucket{months: map[int]*models.MonthData{}}
			years[*doc.PeriodoAnio] = bucket
		}
		month := 0
		if doc.PeriodoMesNumero != nil {
			month = *doc.PeriodoMesNumero
		}
		slot, ok := bucket.months[month]
		if !ok {
			slot = &models.MonthData{Month: month, PeriodoFiscal: doc.PeriodoFiscalCompleto}
			bucket.months[month] = slot
		}

		info := &models.FormInfo{
			ID:                doc.ID,
			Filename:          doc.OriginalFilename,
			UploadedAt:        models.FormatTimestamp(doc.UploadedAt),
			IdentificacionRUC: doc.IdentificacionRUC,
		}
		if doc.FormType == models.FormType103 {
			slot.Forms.Form103 = info
		} else {
			slot.Forms.Form104 = info
		}
	}

	if len(years) == 0 {
		s.logger.Warn("Client has no documents with a fiscal period",
			zap.String("razon_social", razonSocial),
			zap.Int("documents", len(docs)))
		return nil, ErrNoValidPeriods
	}

	result := &models.ClientDocuments{RazonSocial: razonSocial, Years: make([]models.YearData, 0, len(years))}
	for year, bucket := range years {
		yd := models.YearData{Year: year, Months: make([]models.MonthData, 0, len(bucket.months))}
		for _, m := range bucket.months {
			yd.Months = append(yd.Months, *m)
		}
		sort.Slice(yd.Months, func(i, j int) bool { return yd.Months[i].Month < yd.Months[j].Month })
		result.Years = append(result.Years, yd)
	}
	sort.Slice(result.Years, func(i, j int) bool { return result.Years[i].Year > result.Years[j].Year })
	return result, nil
}

// YearlySummary totals a client's Form 103 and Form 104 amounts for one
// year, skipping the excluded months
func (s *ClienteService) YearlySummary(ctx context.Context, razonSocial, year string, excluded []int) (*models.YearlySummary, error) {
	if !period.IsValidYear(year) {
		return nil, ErrInvalidYear
	}
	if excluded == nil {
		excluded = []int{}
	}

	docs103, err := s.docs.ListForYear(ctx, razonSocial, models.FormType103, year, excluded)
	if err != nil {
		return nil, err
	}
	docs104, err := s.docs.ListForYear(ctx, razonSocial, models.FormType104, year, excluded)
	if err != nil {
		return nil, err
	}

	form103, err := s.summarize103(ctx, docs103)
	if err != nil {
		return nil, err
	}
	form104, err := s.summarize104(ctx, docs104)
	if err != nil {
		return nil, err
	}

	return &models.YearlySummary{
		RazonSocial:    razonSocial,
		Year:           year,
		Form103Summary: *form103,
		Form104Summary: *form104,
		MissingMonths: models.MissingMonths{
			Form103: missingMonths(docs103, excluded),
			Form104: missingMonths(docs104, excluded),
		},
		ExcludedMonths: excluded,
	}, nil
}

// Validation reports, for each of the 12 months, which forms were filed
func (s *ClienteService) Validation(ctx context.Context, razonSocial, year string) (*models.YearValidation, error) {
	if !period.IsValidYear(year) {
		return nil, ErrInvalidYear
	}
	docs103, err := s.docs.ListForYear(ctx, razonSocial, models.FormType103, year, nil)
	if err != nil {
		return nil, err
	}
	docs104, err := s.docs.ListForYear(ctx, razonSocial, models.FormType104, year, nil)
	if err != nil {
		return nil, err
	}
	present103 := documentsByMonth(docs103)
	present104 := documentsByMonth(docs104)

	report := &models.YearValidation{
		RazonSocial:       razonSocial,
		Year:              year,
		TotalMonths:       12,
		ValidationDetails: make([]models.MonthValidation, 0, 12),
	}
	for month := 1; month <= 12; month++ {
		row := models.MonthValidation{Month: month, MonthName: period.MonthName(month)}
		if id, ok := present103[month]; ok {
			row.HasForm103 = true
			row.Form103ID = &id
		}
		if id, ok := present104[month]; ok {
			row.HasForm104 = true
			row.Form104ID = &id
		}
		row.IsComplete = row.HasForm103 && row.HasForm104
		if row.IsComplete {
			report.CompleteMonths++
		}
		report.ValidationDetails = append(report.ValidationDetails, row)
	}
	report.IsFullyComplete = report.CompleteMonths == report.TotalMonths
	return report, nil
}

func (s *ClienteService) summarize103(ctx context.Context, docs []*models.Document) (*models.Form103Summary, error) {
	totals, err := s.forms.GetForm103TotalsByDocuments(ctx, documentIDs(docs))
	if err != nil {
		return nil, err
	}

	var subtotal, retencion, impuesto, pagado decimal.Decimal
	summary := &models.Form103Summary{MonthlyDetails: []models.Form103MonthDetail{}}
	for _, doc := range docs {
		t, ok := totals[doc.ID]
		if !ok {
			continue
		}
		subtotal = subtotal.Add(decimal.NewFromFloat(t.SubtotalOperacionesPais))
		retencion = retencion.Add(decimal.NewFromFloat(t.TotalRetencion))
		impuesto = impuesto.Add(decimal.NewFromFloat(t.TotalImpuestoPagar))
		pagado = pagado.Add(decimal.NewFromFloat(t.TotalPagado))
		summary.MonthlyDetails = append(summary.MonthlyDetails, models.Form103MonthDetail{
			Month:                   monthOf(doc),
			PeriodoFiscal:           doc.PeriodoFiscalCompleto,
			SubtotalOperacionesPais: t.SubtotalOperacionesPais,
			TotalRetencion:          t.TotalRetencion,
			TotalImpuestoPagar:      t.TotalImpuestoPagar,
			TotalPagado:             t.TotalPagado,
		})
	}
	summary.SubtotalOperacionesPais = subtotal.InexactFloat64()
	summary.TotalRetencion = retencion.InexactFloat64()
	summary.TotalImpuestoPagar = impuesto.InexactFloat64()
	summary.TotalPagado = pagado.InexactFloat64()
	return summary, nil
}

func (s *ClienteService) summarize104(ctx context.Context, docs []*models.Document) (*models.Form104Summary, error) {
	records, err := s.forms.GetForm104ByDocuments(ctx, documentIDs(docs))
	if err != nil {
		return nil, err
	}

	var ventas, generado, adquisiciones, credito, causado, efectuadas, retenido, pagado decimal.Decimal
	summary := &models.Form104Summary{MonthlyDetails: []models.Form104MonthDetail{}}
	for _, doc := range docs {
		r, ok := records[doc.ID]
		if !ok {
			continue
		}
		ventas = ventas.Add(decimal.NewFromFloat(r.TotalVentasNeto))
		generado = generado.Add(decimal.NewFromFloat(r.TotalImpuestoGenerado))
		adquisiciones = adquisiciones.Add(decimal.NewFromFloat(r.TotalAdquisiciones))
		credito = credito.Add(decimal.NewFromFloat(r.CreditoTributarioAplicable))
		causado = causado.Add(decimal.NewFromFloat(r.ImpuestoCausado))
		efectuadas = efectuadas.Add(decimal.NewFromFloat(r.RetencionesEfectuadas))
		retenido = retenido.Add(decimal.NewFromFloat(r.TotalImpuestoRetenido))
		pagado = pagado.Add(decimal.NewFromFloat(r.Form104Totals.TotalPagado))
		summary.MonthlyDetails = append(summary.MonthlyDetails, models.Form104MonthDetail{
			Month:                      monthOf(doc),
			PeriodoFiscal:              doc.PeriodoFiscalCompleto,
			TotalVentasNeto:            r.TotalVentasNeto,
			TotalImpuestoGenerado:      r.TotalImpuestoGenerado,
			TotalAdquisiciones:         r.TotalAdquisiciones,
			CreditoTributarioAplicable: r.CreditoTributarioAplicable,
			ImpuestoCausado:            r.ImpuestoCausado,
			RetencionesEfectuadas:      r.RetencionesEfectuadas,
			TotalImpuestoRetenido:      r.TotalImpuestoRetenido,
			TotalPagado:                r.Form104Totals.TotalPagado,
		})
	}
	summary.TotalVentasNeto = ventas.InexactFloat64()
	summary.TotalImpuestoGenerado = generado.InexactFloat64()
	summary.TotalAdquisiciones = adquisiciones.InexactFloat64()
	summary.CreditoTributarioAplicable = credito.InexactFloat64()
	summary.ImpuestoCausado = causado.InexactFloat64()
	summary.RetencionesEfectuadas = efectuadas.InexactFloat64()
	summary.TotalImpuestoRetenido = retenido.InexactFloat64()
	summary.TotalPagado = pagado.InexactFloat64()
	return summary, nil
}

func documentIDs(docs []*models.Document) []int64 {
	ids := make([]int64, 0, len(docs))
	for _, doc := range docs {
		ids = append(ids, doc.ID)
	}
	return ids
}

func monthOf(doc *models.Document) int {
	if doc.PeriodoMesNumero == nil {
		return 0
	}
	return *doc.PeriodoMesNumero
}

// documentsByMonth maps month number to the first document filed for it
func documentsByMonth(docs []*models.Document) map[int]int64 {
	out := map[int]int64{}
	for _, doc := range docs {
		month := monthOf(doc)
		if month == 0 {
			continue
		}
		if _, ok := out[month]; !ok {
			out[month] = doc.ID
		}
	}
	return out
}

func missingMonths(docs []*models.Document, excluded []int) []int {
	present := documentsByMonth(docs)
	skip := map[int]bool{}
	for _, m := range excluded {
		skip[m] = true
	}
	missing := []int{}
	for month := 1; month <= 12; month++ {
		if _, ok := present[month]; !ok && !skip[month] {
			missing = append(missing, month)
		}
	}
	return missing
}
