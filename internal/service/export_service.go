package service

import (
	"context"

	"github.com/garyjia/sri-declaraciones/internal/export"
	"github.com/garyjia/sri-declaraciones/internal/models"
	"go.uber.org/zap"
)

// ExportedFile is a rendered download
type ExportedFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders yearly summaries as downloadable files
type ExportService struct {
	clientes *ClienteService
	excel    *export.ExcelExporter
	pdf      export.PDFRenderer
	logger   *zap.Logger
}

// NewExportService creates a new export service
func NewExportService(clientes *ClienteService, excel *export.ExcelExporter, pdf export.PDFRenderer, logger *zap.Logger) *ExportService {
	return &ExportService{
		clientes: clientes,
		excel:    excel,
		pdf:      pdf,
		logger:   logger,
	}
}

// Excel renders the yearly summary workbook honouring the excluded months
func (s *ExportService) Excel(ctx context.Context, razonSocial, year string, excluded []int) (*ExportedFile, error) {
	summary, err := s.clientes.YearlySummary(ctx, razonSocial, year, excluded)
	if err != nil {
		return nil, err
	}
	data, err := s.excel.Render(summary)
	if err != nil {
		return nil, err
	}
	return &ExportedFile{
		Filename:    export.Filename(razonSocial, year, "xlsx"),
		ContentType: export.ContentTypeExcel,
		Data:        data,
	}, nil
}

// PDF renders the branded yearly report. Branding is validated before any query runs.
func (s *ExportService) PDF(ctx context.Context, razonSocial, year string, excluded []int, branding models.PDFBranding) (*ExportedFile, error) {
	if err := branding.Validate(); err != nil {
		return nil, err
	}
	summary, err := s.clientes.YearlySummary(ctx, razonSocial, year, excluded)
	if err != nil {
		return nil, err
	}
	data, err := s.pdf.Render(ctx, summary, branding)
	if err != nil {
		return nil, err
	}
	return &ExportedFile{
		Filename:    export.Filename(razonSocial, year, "pdf"),
		ContentType: export.ContentTypePDF,
		Data:        data,
	}, nil
}
