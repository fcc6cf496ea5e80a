package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/garyjia/sri-declaraciones/internal/models"
	"github.com/garyjia/sri-declaraciones/internal/repository"
	"github.com/garyjia/sri-declaraciones/internal/sri"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const sample103 = `=== Page 1 ===
CÓDIGO VERIFICADOR ABC123XYZ
NÚMERO SERIAL 871234567
FECHA RECAUDACIÓN 20-05-2025
Obligación Tributaria: 1031 - DECLARACIÓN DE RETENCIONES EN LA FUENTE
Identificación: 1790012345001
Razón Social: ACME S.A.
Período Fiscal: ABRIL 2025
Honorarios profesionales 303 1,500.00 353 150.00
Servicios donde predomina la mano de obra 307 0.00 357 0.00
Transferencia de bienes muebles 312 2,000.00 362 35.00
SUBTOTAL OPERACIONES EFECTUADAS EN EL PAÍS 349 3,500.00 399 185.00
TOTAL PAGADO 999 186.25
`

func TestProcessingService_ProcessForm103(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	upload, err := env.uploads.Upload(ctx, pdfUpload("declaracion.pdf", []byte("%PDF-1.4")))
	require.NoError(t, err)
	doc, err := env.docs.GetByID(ctx, upload.DocumentID)
	require.NoError(t, err)

	env.extractor.On("Extract", mock.Anything, doc.FilePath).
		Return(&sri.ExtractedText{FullText: sample103, TotalPages: 1, TotalCharacters: len([]rune(sample103))}, nil)

	require.NoError(t, env.processing.Process(ctx, doc))

	got, err := env.docs.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, got.ProcessingStatus)
	assert.Equal(t, models.FormType103, got.FormType, "detected from content")
	assert.Equal(t, "ACME S.A.", *got.RazonSocial)
	assert.Equal(t, "ABRIL", *got.PeriodoMes)
	assert.Equal(t, "2025", *got.PeriodoAnio)
	assert.Equal(t, 4, *got.PeriodoMesNumero)
	assert.Equal(t, "20-05-2025", got.FechaRecaudacionText())
	assert.NotNil(t, got.ProcessedAt)
	require.NotNil(t, got.ParsedData)
	assert.Contains(t, *got.ParsedData, `"line_items"`)

	items, err := env.forms.GetForm103LineItems(ctx, doc.ID)
	require.NoError(t, err)
	assert.Len(t, items, 2, "zero rows are dropped")

	totals, err := env.forms.GetForm103Totals(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, 3500.0, totals.SubtotalOperacionesPais)
	assert.Equal(t, 186.25, totals.TotalPagado)

	t.Run("reprocessing replaces previous rows", func(t *testing.T) {
		require.NoError(t, env.processing.Process(ctx, got))
		items, err := env.forms.GetForm103LineItems(ctx, doc.ID)
		require.NoError(t, err)
		assert.Len(t, items, 2)
	})
	env.extractor.AssertExpectations(t)
}

func TestProcessingService_ExtractionFailure(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	upload, err := env.uploads.Upload(ctx, pdfUpload("formulario 104.pdf", []byte("%PDF-1.4")))
	require.NoError(t, err)
	doc, err := env.docs.GetByID(ctx, upload.DocumentID)
	require.NoError(t, err)

	env.extractor.On("Extract", mock.Anything, doc.FilePath).Return(nil, errors.New("corrupt xref table"))

	err = env.processing.Process(ctx, doc)
	require.Error(t, err)

	got, err := env.docs.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, got.ProcessingStatus)
	require.NotNil(t, got.ProcessingError)
	assert.Contains(t, *got.ProcessingError, "corrupt xref table")
}

func TestProcessingService_UnknownForm(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	upload, err := env.uploads.Upload(ctx, pdfUpload("scan.pdf", []byte("%PDF-1.4")))
	require.NoError(t, err)
	doc, err := env.docs.GetByID(ctx, upload.DocumentID)
	require.NoError(t, err)

	env.extractor.On("Extract", mock.Anything, doc.FilePath).
		Return(&sri.ExtractedText{FullText: "=== Page 1 ===\nfactura comercial", TotalPages: 1}, nil)

	require.NoError(t, env.processing.Process(ctx, doc))

	got, err := env.docs.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, got.ProcessingStatus)
	assert.Equal(t, models.FormTypeUnknown, got.FormType)
	assert.Nil(t, got.RazonSocial)
}

func TestProcessingService_ReprocessUnknownDropsFormData(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	upload, err := env.uploads.Upload(ctx, pdfUpload("declaracion.pdf", []byte("%PDF-1.4")))
	require.NoError(t, err)
	doc, err := env.docs.GetByID(ctx, upload.DocumentID)
	require.NoError(t, err)

	env.extractor.On("Extract", mock.Anything, doc.FilePath).
		Return(&sri.ExtractedText{FullText: sample103, TotalPages: 1}, nil).Once()
	require.NoError(t, env.processing.Process(ctx, doc))

	first, err := env.docs.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	require.NotNil(t, first.PeriodoMesNumero)

	env.extractor.On("Extract", mock.Anything, doc.FilePath).
		Return(&sri.ExtractedText{FullText: "=== Page 1 ===\nfactura comercial", TotalPages: 1}, nil).Once()
	require.NoError(t, env.processing.Process(ctx, first))

	got, err := env.docs.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FormTypeUnknown, got.FormType)
	assert.Nil(t, got.PeriodoMes)
	assert.Nil(t, got.PeriodoAnio)
	assert.Nil(t, got.PeriodoFiscalCompleto)
	assert.Nil(t, got.PeriodoMesNumero)
	assert.Nil(t, got.ParsedData)

	_, err = env.forms.GetForm103Totals(ctx, doc.ID)
	assert.ErrorIs(t, err, repository.ErrFormDataNotFound)
	items, err := env.forms.GetForm103LineItems(ctx, doc.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
	env.extractor.AssertExpectations(t)
}

func TestProcessingService_ReprocessWithoutPeriodClearsPeriod(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	upload, err := env.uploads.Upload(ctx, pdfUpload("declaracion.pdf", []byte("%PDF-1.4")))
	require.NoError(t, err)
	doc, err := env.docs.GetByID(ctx, upload.DocumentID)
	require.NoError(t, err)

	env.extractor.On("Extract", mock.Anything, doc.FilePath).
		Return(&sri.ExtractedText{FullText: sample103, TotalPages: 1}, nil).Once()
	require.NoError(t, env.processing.Process(ctx, doc))

	noPeriod := strings.Replace(sample103, "Período Fiscal: ABRIL 2025\n", "", 1)
	noPeriod = strings.Replace(noPeriod, "FECHA RECAUDACIÓN 20-05-2025\n", "", 1)
	env.extractor.On("Extract", mock.Anything, doc.FilePath).
		Return(&sri.ExtractedText{FullText: noPeriod, TotalPages: 1}, nil).Once()

	first, err := env.docs.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	require.NoError(t, env.processing.Process(ctx, first))

	got, err := env.docs.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FormType103, got.FormType)
	assert.Nil(t, got.PeriodoMes)
	assert.Nil(t, got.PeriodoMesNumero)
	env.extractor.AssertExpectations(t)
}
