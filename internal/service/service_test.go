package service

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/garyjia/sri-declaraciones/internal/export"
	"github.com/garyjia/sri-declaraciones/internal/models"
	"github.com/garyjia/sri-declaraciones/internal/repository"
	"github.com/garyjia/sri-declaraciones/internal/sri"
	"github.com/garyjia/sri-declaraciones/internal/storage"
	"github.com/garyjia/sri-declaraciones/internal/testutil"
	"github.com/garyjia/sri-declaraciones/pkg/database"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockExtractor is a mock implementation of sri.TextExtractor
type MockExtractor struct {
	mock.Mock
}

func (m *MockExtractor) Extract(ctx context.Context, pdfPath string) (*sri.ExtractedText, error) {
	args := m.Called(ctx, pdfPath)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sri.ExtractedText), args.Error(1)
}

type testEnv struct {
	db        *database.DB
	docs      *repository.DocumentRepository
	forms     *repository.FormRepository
	storage   *storage.LocalFileStorage
	extractor *MockExtractor

	processing *ProcessingService
	uploads    *UploadService
	documents  *DocumentService
	formsSvc   *FormsService
	clientes   *ClienteService
	exports    *ExportService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zap.NewNop()
	db := testutil.NewDB(t)

	env := &testEnv{
		db:        db,
		docs:      repository.NewDocumentRepository(db.DB, logger),
		forms:     repository.NewFormRepository(db.DB, logger),
		storage:   storage.NewLocalFileStorage(t.TempDir(), logger),
		extractor: new(MockExtractor),
	}
	resolver := sri.NewPeriodResolver(nil, sri.PeriodResolverConfig{}, logger)
	env.processing = NewProcessingService(db, env.docs, env.forms, env.extractor, resolver, logger)
	env.uploads = NewUploadService(env.docs, env.storage, UploadLimits{MaxSize: 1024, MaxBulkFiles: 3}, logger)
	env.documents = NewDocumentService(env.docs, env.storage, logger)
	env.formsSvc = NewFormsService(env.docs, env.forms, logger)
	env.clientes = NewClienteService(env.docs, env.forms, logger)
	env.exports = NewExportService(env.clientes, export.NewExcelExporter(logger), export.NewFPDFRenderer(nil, logger), logger)
	return env
}

// seed103 stores a processed Form 103 with the given totals
func (e *testEnv) seed103(t *testing.T, razon, year string, month int, subtotal, pagado float64) *models.Document {
	t.Helper()
	doc := testutil.SeedDocument(t, e.db, testutil.DocumentFixture{RazonSocial: razon, FormType: models.FormType103, Year: year, Month: month})
	items := []models.Form103LineItem{{Concepto: "Honorarios", CodigoBase: "303", BaseImponible: subtotal, CodigoRetencion: "353", ValorRetenido: subtotal / 10}}
	totals := models.Form103Totals{SubtotalOperacionesPais: subtotal, TotalRetencion: subtotal / 10, TotalImpuestoPagar: subtotal / 10, TotalPagado: pagado}
	require.NoError(t, e.forms.ReplaceForm103(context.Background(), nil, doc.ID, items, totals))
	return doc
}

// seed104 stores a processed Form 104 with the given net sales and payment
func (e *testEnv) seed104(t *testing.T, razon, year string, month int, ventasNeto, pagado float64) *models.Document {
	t.Helper()
	doc := testutil.SeedDocument(t, e.db, testutil.DocumentFixture{RazonSocial: razon, FormType: models.FormType104, Year: year, Month: month})
	ventas := models.Form104Ventas{TotalVentasBruto: ventasNeto, TotalVentasNeto: ventasNeto, TotalImpuestoGenerado: ventasNeto * 0.15}
	totals := models.Form104Totals{ImpuestoCausado: ventasNeto / 10, TotalPagado: pagado}
	retenciones := []models.RetencionIVA{{Porcentaje: 30, Valor: 10}}
	require.NoError(t, e.forms.ReplaceForm104(context.Background(), nil, doc.ID, ventas, models.Form104Compras{}, retenciones, totals))
	return doc
}

func pdfUpload(name string, content []byte) UploadFile {
	return UploadFile{
		Filename: name,
		Size:     int64(len(content)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(content)), nil
		},
	}
}
