package service

import (
	"context"
	"fmt"
	"time"

	"github.com/garyjia/sri-declaraciones/internal/repository"
	"github.com/garyjia/sri-declaraciones/internal/storage"
	"go.uber.org/zap"
)

// CleanupStats reports one retention cleanup run
type CleanupStats struct {
	CutoffDate     string   `json:"cutoff_date"`
	RetentionDays  int      `json:"retention_days"`
	DocumentsFound int      `json:"documents_found"`
	FilesDeleted   int      `json:"files_deleted"`
	RecordsDeleted int      `json:"records_deleted"`
	Errors         []string `json:"errors"`
	DryRun         bool     `json:"dry_run"`
}

// CleanupService removes documents older than the retention period
type CleanupService struct {
	docs          *repository.DocumentRepository
	storage       storage.FileStorage
	retentionDays int
	logger        *zap.Logger
	now           func() time.Time
}

// NewCleanupService creates a new cleanup service
func NewCleanupService(docs *repository.DocumentRepository, fileStorage storage.FileStorage, retentionDays int, logger *zap.Logger) *CleanupService {
	return &CleanupService{
		docs:          docs,
		storage:       fileStorage,
		retentionDays: retentionDays,
		logger:        logger,
		now:           time.Now,
	}
}

// RetentionDays returns the configured retention period
func (s *CleanupService) RetentionDays() int {
	return s.retentionDays
}

// Cleanup deletes the stored PDFs and rows of documents uploaded before the
// cutoff. With dryRun set it only counts what would be removed.
func (s *CleanupService) Cleanup(ctx context.Context, dryRun bool) (*CleanupStats, error) {
	cutoff := s.now().UTC().AddDate(0, 0, -s.retentionDays)
	old, err := s.docs.ListUploadedBefore(ctx, cutoff)
	if err != nil {
		return nil, err
	}

	stats := &CleanupStats{
		CutoffDate:     cutoff.Format(time.RFC3339),
		RetentionDays:  s.retentionDays,
		DocumentsFound: len(old),
		Errors:         []string{},
		DryRun:         dryRun,
	}

	for _, doc := range old {
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}
		if doc.FilePath != "" && s.storage.Exists(doc.FilePath) {
			if !dryRun {
				if err := s.storage.Delete(doc.FilePath); err != nil {
					stats.Errors = append(stats.Errors, fmt.Sprintf("document %d: %v", doc.ID, err))
					continue
				}
			}
			stats.FilesDeleted++
		}
		if dryRun {
			continue
		}
		if err := s.docs.Delete(ctx, nil, doc.ID); err != nil {
			stats.Errors = append(stats.Errors, fmt.Sprintf("document %d: %v", doc.ID, err))
			continue
		}
		stats.RecordsDeleted++
	}

	s.logger.Info("Cleanup complete",
		zap.String("cutoff_date", stats.CutoffDate),
		zap.Int("documents_found", stats.DocumentsFound),
		zap.Int("files_deleted", stats.FilesDeleted),
		zap.Int("records_deleted", stats.RecordsDeleted),
		zap.Int("errors", len(stats.Errors)),
		zap.Bool("dry_run", dryRun))
	return stats, nil
}
