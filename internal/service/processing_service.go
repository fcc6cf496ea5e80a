package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/garyjia/sri-declaraciones/internal/models"
	"github.com/garyjia/sri-declaraciones/internal/period"
	"github.com/garyjia/sri-declaraciones/internal/repository"
	"github.com/garyjia/sri-declaraciones/internal/sri"
	"github.com/garyjia/sri-declaraciones/pkg/database"
	"github.com/garyjia/sri-declaraciones/pkg/utils"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// PeriodResolver finds the fiscal period of a parsed declaration
type PeriodResolver interface {
	Resolve(ctx context.Context, header sri.Header, text string) (period.Period, sri.PeriodSource, bool)
}

// ProcessingService turns an uploaded PDF into structured form data
type ProcessingService struct {
	db        *database.DB
	docs      *repository.DocumentRepository
	forms     *repository.FormRepository
	extractor sri.TextExtractor
	resolver  PeriodResolver
	logger    *zap.Logger
}

// NewProcessingService creates a new processing service
func NewProcessingService(
	db *database.DB,
	docs *repository.DocumentRepository,
	forms *repository.FormRepository,
	extractor sri.TextExtractor,
	resolver PeriodResolver,
	logger *zap.Logger,
) *ProcessingService {
	return &ProcessingService{
		db:        db,
		docs:      docs,
		forms:     forms,
		extractor: extractor,
		resolver:  resolver,
		logger:    logger,
	}
}

// Process extracts, classifies and parses one document, then stores the
// header, line items and totals in a single transaction. Failures are
// recorded on the document and returned.
func (s *ProcessingService) Process(ctx context.Context, doc *models.Document) error {
	s.logger.Info("Processing document",
		zap.Int64("document_id", doc.ID),
		zap.String("filename", doc.OriginalFilename))

	extracted, err := s.extractor.Extract(ctx, doc.FilePath)
	if err != nil {
		return s.fail(ctx, doc, fmt.Errorf("text extraction failed: %w", err))
	}

	doc.ExtractedText = &extracted.FullText
	doc.TotalPages = &extracted.TotalPages
	doc.TotalCharacters = &extracted.TotalCharacters
	doc.FormType = sri.DetectFormType(extracted.FullText, doc.OriginalFilename)
	clearDerived(doc)

	var parsed sri.ParsedForm
	if doc.FormType != models.FormTypeUnknown {
		parsed, err = sri.Parse(doc.FormType, extracted.FullText)
		if err != nil {
			return s.fail(ctx, doc, err)
		}
		if err := s.applyParsed(ctx, doc, parsed, extracted.FullText); err != nil {
			return s.fail(ctx, doc, err)
		}
	} else {
		s.logger.Warn("Could not detect form type",
			zap.Int64("document_id", doc.ID),
			zap.String("filename", doc.OriginalFilename))
	}

	now := time.Now().UTC()
	doc.ProcessingStatus = models.StatusCompleted
	doc.ProcessingError = nil
	doc.ProcessedAt = &now

	err = s.db.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		if err := s.docs.SaveExtraction(ctx, tx, doc); err != nil {
			return err
		}
		switch result := parsed.(type) {
		case *sri.Form103Result:
			return s.forms.ReplaceForm103(ctx, tx, doc.ID, result.LineItems, result.Totals)
		case *sri.Form104Result:
			return s.forms.ReplaceForm104(ctx, tx, doc.ID, result.Ventas, result.Compras, result.RetencionesIVA, result.Totals)
		}
		return s.forms.DeleteForms(ctx, tx, doc.ID)
	})
	if err != nil {
		return s.fail(ctx, doc, fmt.Errorf("failed to store extraction: %w", err))
	}

	s.logger.Info("Document processed",
		zap.Int64("document_id", doc.ID),
		zap.String("form_type", string(doc.FormType)),
		zap.String("periodo", doc.Periodo()))
	return nil
}

// ClaimPending marks up to limit pending documents as processing and returns them
func (s *ProcessingService) ClaimPending(ctx context.Context, limit int) ([]*models.Document, error) {
	var docs []*models.Document
	err := s.db.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		var err error
		docs, err = s.docs.ClaimPending(ctx, tx, limit)
		return err
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// RecoverInterrupted requeues documents whose processing was cut short by a restart
func (s *ProcessingService) RecoverInterrupted(ctx context.Context) error {
	n, err := s.docs.RequeueInterrupted(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		s.logger.Warn("Requeued interrupted documents", zap.Int64("count", n))
	}
	return nil
}

func (s *ProcessingService) applyParsed(ctx context.Context, doc *models.Document, parsed sri.ParsedForm, text string) error {
	h := parsed.FormHeader()
	setString(&doc.CodigoVerificador, h.CodigoVerificador)
	setString(&doc.NumeroSerial, h.NumeroSerial)
	setString(&doc.IdentificacionRUC, h.Identificacion)
	setString(&doc.RazonSocial, h.RazonSocial)

	if fecha, ok := h.FechaRecaudacionTime(); ok {
		doc.FechaRecaudacion = &fecha
	}
	if h.Identificacion != "" {
		if err := utils.ValidateRUC(h.Identificacion); err != nil {
			s.logger.Warn("Unexpected taxpayer identifier",
				zap.Int64("document_id", doc.ID),
				zap.Error(err))
		}
	}

	if p, source, ok := s.resolver.Resolve(ctx, h, text); ok {
		mes, anio, label, month := p.Mes, p.Anio, p.Label, p.Month
		doc.PeriodoMes = &mes
		doc.PeriodoAnio = &anio
		doc.PeriodoFiscalCompleto = &label
		doc.PeriodoMesNumero = &month
		if source != sri.PeriodFromHeader {
			s.logger.Info("Fiscal period resolved outside the header",
				zap.Int64("document_id", doc.ID),
				zap.String("source", string(source)),
				zap.String("periodo", label))
		}
	} else {
		s.logger.Warn("No fiscal period found", zap.Int64("document_id", doc.ID))
	}

	raw, err := json.Marshal(parsed)
	if err != nil {
		return fmt.Errorf("failed to encode parsed data: %w", err)
	}
	parsedData := string(raw)
	doc.ParsedData = &parsedData
	return nil
}

func (s *ProcessingService) fail(ctx context.Context, doc *models.Document, cause error) error {
	s.logger.Error("Document processing failed",
		zap.Int64("document_id", doc.ID),
		zap.Error(cause))
	doc.ProcessingStatus = models.StatusFailed
	if err := s.docs.UpdateStatus(ctx, nil, doc.ID, models.StatusFailed, cause.Error()); err != nil {
		s.logger.Error("Failed to record processing failure",
			zap.Int64("document_id", doc.ID),
			zap.Error(err))
	}
	return cause
}

// clearDerived drops what an earlier run derived from the text, so a
// reprocess never keeps a period or parse the new text does not support
func clearDerived(doc *models.Document) {
	doc.ParsedData = nil
	doc.PeriodoMes = nil
	doc.PeriodoAnio = nil
	doc.PeriodoFiscalCompleto = nil
	doc.PeriodoMesNumero = nil
}

func setString(dst **string, v string) {
	if v == "" {
		return
	}
	*dst = &v
}
