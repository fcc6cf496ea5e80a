package service

import (
	"context"

	"github.com/garyjia/sri-declaraciones/internal/models"
	"github.com/garyjia/sri-declaraciones/internal/repository"
	"github.com/garyjia/sri-declaraciones/internal/storage"
	"go.uber.org/zap"
)

// Pagination defaults of the document listing
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// DocumentService serves the document listing, detail and maintenance operations
type DocumentService struct {
	docs    *repository.DocumentRepository
	storage storage.FileStorage
	logger  *zap.Logger
}

// NewDocumentService creates a new document service
func NewDocumentService(docs *repository.DocumentRepository, fileStorage storage.FileStorage, logger *zap.Logger) *DocumentService {
	return &DocumentService{
		docs:    docs,
		storage: fileStorage,
		logger:  logger,
	}
}

// List returns one page of documents, newest first, optionally filtered by status
func (s *DocumentService) List(ctx context.Context, page, pageSize int, status string) (*models.DocumentListResponse, error) {
	if page < 1 || pageSize < 1 || pageSize > MaxPageSize {
		return nil, ErrInvalidPagination
	}
	var filter models.ProcessingStatus
	if status != "" {
		parsed, ok := models.ParseProcessingStatus(status)
		if !ok {
			return nil, ErrInvalidStatus
		}
		filter = parsed
	}

	docs, total, err := s.docs.List(ctx, filter, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}

	items := make([]models.DocumentListItem, 0, len(docs))
	for _, doc := range docs {
		items = append(items, models.DocumentListItem{
			ID:               doc.ID,
			Filename:         doc.OriginalFilename,
			FileSize:         doc.FileSize,
			FormType:         doc.FormType,
			TotalPages:       doc.TotalPages,
			TotalCharacters:  doc.TotalCharacters,
			ProcessingStatus: doc.ProcessingStatus,
			UploadedAt:       models.FormatTimestamp(doc.UploadedAt),
			ProcessedAt:      models.FormatOptionalTimestamp(doc.ProcessedAt),
		})
	}
	return &models.DocumentListResponse{
		Total:     total,
		Page:      page,
		PageSize:  pageSize,
		Documents: items,
	}, nil
}

// Get returns a document with its extracted text
func (s *DocumentService) Get(ctx context.Context, id int64) (*models.DocumentDetail, error) {
	doc, err := s.docs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.DocumentDetail{
		ID:               doc.ID,
		Filename:         doc.OriginalFilename,
		OriginalFilename: doc.OriginalFilename,
		FileSize:         doc.FileSize,
		FormType:         doc.FormType,
		TotalPages:       doc.TotalPages,
		TotalCharacters:  doc.TotalCharacters,
		ProcessingStatus: doc.ProcessingStatus,
		ProcessingError:  doc.ProcessingError,
		UploadedAt:       models.FormatTimestamp(doc.UploadedAt),
		ProcessedAt:      models.FormatOptionalTimestamp(doc.ProcessedAt),
		ExtractedText:    doc.ExtractedText,
	}, nil
}

// Delete removes the document row and its stored PDF. A missing file is not an error.
func (s *DocumentService) Delete(ctx context.Context, id int64) error {
	doc, err := s.docs.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.docs.Delete(ctx, nil, id); err != nil {
		return err
	}
	if err := s.storage.Delete(doc.FilePath); err != nil {
		s.logger.Warn("Failed to delete stored file",
			zap.Int64("document_id", id),
			zap.String("path", doc.FilePath),
			zap.Error(err))
	}
	s.logger.Info("Document deleted", zap.Int64("document_id", id))
	return nil
}

// Stats returns the dashboard overview counters
func (s *DocumentService) Stats(ctx context.Context) (*models.DocumentStats, error) {
	return s.docs.Stats(ctx)
}

// Reprocess queues a document for another extraction run
func (s *DocumentService) Reprocess(ctx context.Context, id int64) error {
	if err := s.docs.ResetForReprocess(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Document queued for reprocessing", zap.Int64("document_id", id))
	return nil
}
