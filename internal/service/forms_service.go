package service

import (
	"context"
	"errors"

	"github.com/garyjia/sri-declaraciones/internal/models"
	"github.com/garyjia/sri-declaraciones/internal/repository"
	"go.uber.org/zap"
)

// FormsService serves the structured Form 103 / Form 104 payloads
type FormsService struct {
	docs   *repository.DocumentRepository
	forms  *repository.FormRepository
	logger *zap.Logger
}

// NewFormsService creates a new forms service
func NewFormsService(docs *repository.DocumentRepository, forms *repository.FormRepository, logger *zap.Logger) *FormsService {
	return &FormsService{
		docs:   docs,
		forms:  forms,
		logger: logger,
	}
}

// Form103 returns the line items and totals of a Form 103 document.
// A document without totals yields zero totals.
func (s *FormsService) Form103(ctx context.Context, id int64) (*models.Form103Data, error) {
	doc, err := s.docs.GetByIDAndType(ctx, id, models.FormType103)
	if err != nil {
		return nil, err
	}
	items, err := s.forms.GetForm103LineItems(ctx, id)
	if err != nil {
		return nil, err
	}

	data := &models.Form103Data{
		DocumentID:       doc.ID,
		Filename:         doc.OriginalFilename,
		RazonSocial:      doc.RazonSocialText(),
		Periodo:          doc.Periodo(),
		FechaRecaudacion: doc.FechaRecaudacionText(),
		LineItems:        items,
	}
	totals, err := s.forms.GetForm103Totals(ctx, id)
	switch {
	case err == nil:
		data.Totals = *totals
	case !errors.Is(err, repository.ErrFormDataNotFound):
		return nil, err
	}
	return data, nil
}

// Form104 returns the sections of a Form 104 document
func (s *FormsService) Form104(ctx context.Context, id int64) (*models.Form104Data, error) {
	doc, err := s.docs.GetByIDAndType(ctx, id, models.FormType104)
	if err != nil {
		return nil, err
	}
	record, err := s.forms.GetForm104(ctx, id)
	if err != nil {
		return nil, err
	}
	retenciones, err := repository.DecodeRetenciones(record.RetencionesIVA)
	if err != nil {
		return nil, err
	}
	return &models.Form104Data{
		DocumentID:       doc.ID,
		Filename:         doc.OriginalFilename,
		RazonSocial:      doc.RazonSocialText(),
		Periodo:          doc.Periodo(),
		FechaRecaudacion: doc.FechaRecaudacionText(),
		Ventas:           record.Form104Ventas,
		Compras:          record.Form104Compras,
		RetencionesIVA:   retenciones,
		Totals:           record.Form104Totals,
	}, nil
}

// ListByFormType lists the documents classified as the given form type
func (s *FormsService) ListByFormType(ctx context.Context, formType string) (*models.FormTypeListing, error) {
	ft, ok := models.ParseFormType(formType)
	if !ok {
		return nil, ErrInvalidFormType
	}
	docs, err := s.docs.ListByFormType(ctx, ft)
	if err != nil {
		return nil, err
	}
	items := make([]models.FormTypeListItem, 0, len(docs))
	for _, doc := range docs {
		items = append(items, models.FormTypeListItem{
			ID:               doc.ID,
			Filename:         doc.OriginalFilename,
			RazonSocial:      doc.RazonSocialText(),
			Periodo:          doc.Periodo(),
			FechaRecaudacion: doc.FechaRecaudacionText(),
			ProcessingStatus: doc.ProcessingStatus,
			UploadedAt:       models.FormatTimestamp(doc.UploadedAt),
		})
	}
	return &models.FormTypeListing{
		FormType:  ft,
		Total:     len(items),
		Documents: items,
	}, nil
}
