package service

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/garyjia/sri-declaraciones/internal/models"
	"github.com/garyjia/sri-declaraciones/internal/repository"
	"github.com/garyjia/sri-declaraciones/internal/sri"
	"github.com/garyjia/sri-declaraciones/internal/storage"
	"go.uber.org/zap"
)

// UploadLimits bounds what a single request may upload
type UploadLimits struct {
	MaxSize      int64
	MaxBulkFiles int
}

// UploadFile is one file of a multipart request
type UploadFile struct {
	Filename string
	Size     int64 // declared size, 0 when unknown
	Open     func() (io.ReadCloser, error)
}

// UploadService stores uploaded declarations and queues them for processing
type UploadService struct {
	docs    *repository.DocumentRepository
	storage storage.FileStorage
	limits  UploadLimits
	logger  *zap.Logger
}

// NewUploadService creates a new upload service
func NewUploadService(docs *repository.DocumentRepository, fileStorage storage.FileStorage, limits UploadLimits, logger *zap.Logger) *UploadService {
	return &UploadService{
		docs:    docs,
		storage: fileStorage,
		limits:  limits,
		logger:  logger,
	}
}

// Upload stores one PDF and creates its pending document row
func (s *UploadService) Upload(ctx context.Context, file UploadFile) (*models.UploadResult, error) {
	if !strings.EqualFold(filepath.Ext(file.Filename), ".pdf") {
		return nil, ErrInvalidFileType
	}
	if s.limits.MaxSize > 0 && file.Size > s.limits.MaxSize {
		return nil, fmt.Errorf("%w (%d bytes)", ErrFileTooLarge, s.limits.MaxSize)
	}

	content, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer content.Close()

	var reader io.Reader = content
	if s.limits.MaxSize > 0 {
		reader = io.LimitReader(content, s.limits.MaxSize+1)
	}

	stored, err := s.storage.Save(file.Filename, reader)
	if err != nil {
		return nil, err
	}
	if s.limits.MaxSize > 0 && stored.Size > s.limits.MaxSize {
		s.removeFile(stored.Path)
		return nil, fmt.Errorf("%w (%d bytes)", ErrFileTooLarge, s.limits.MaxSize)
	}

	doc := &models.Document{
		Filename:         stored.Filename,
		OriginalFilename: file.Filename,
		FilePath:         stored.Path,
		FileSize:         stored.Size,
		FormType:         sri.DetectFormType("", file.Filename),
		ProcessingStatus: models.StatusPending,
	}
	if err := s.docs.Create(ctx, nil, doc); err != nil {
		s.removeFile(stored.Path)
		return nil, err
	}

	s.logger.Info("Document uploaded",
		zap.Int64("document_id", doc.ID),
		zap.String("filename", file.Filename),
		zap.Int64("size", stored.Size))

	return &models.UploadResult{
		Success:          true,
		Message:          "File uploaded, processing queued",
		DocumentID:       doc.ID,
		Filename:         file.Filename,
		FormType:         doc.FormType,
		ProcessingStatus: doc.ProcessingStatus,
	}, nil
}

// UploadBulk uploads several files, collecting per-file failures
func (s *UploadService) UploadBulk(ctx context.Context, files []UploadFile) (*models.BulkUploadResult, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}
	if s.limits.MaxBulkFiles > 0 && len(files) > s.limits.MaxBulkFiles {
		return nil, fmt.Errorf("%w (maximum %d)", ErrTooManyFiles, s.limits.MaxBulkFiles)
	}

	result := &models.BulkUploadResult{
		TotalFiles: len(files),
		Uploaded:   []models.UploadResult{},
		Failed:     []models.UploadFailure{},
	}
	for _, file := range files {
		uploaded, err := s.Upload(ctx, file)
		if err != nil {
			s.logger.Warn("Bulk upload item rejected",
				zap.String("filename", file.Filename),
				zap.Error(err))
			result.Failed = append(result.Failed, models.UploadFailure{
				Filename: file.Filename,
				Error:    err.Error(),
			})
			continue
		}
		result.Uploaded = append(result.Uploaded, *uploaded)
	}
	result.Success = len(result.Failed) == 0
	return result, nil
}

// Status reports the processing state of an uploaded document
func (s *UploadService) Status(ctx context.Context, id int64) (*models.UploadStatus, error) {
	doc, err := s.docs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.UploadStatus{
		DocumentID:       doc.ID,
		Filename:         doc.OriginalFilename,
		FormType:         doc.FormType,
		ProcessingStatus: doc.ProcessingStatus,
		ProcessingError:  doc.ProcessingError,
		ProcessedAt:      models.FormatOptionalTimestamp(doc.ProcessedAt),
	}, nil
}

func (s *UploadService) removeFile(path string) {
	if err := s.storage.Delete(path); err != nil {
		s.logger.Warn("Failed to remove stored file", zap.String("path", path), zap.Error(err))
	}
}
