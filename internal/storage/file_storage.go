package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrFileNotFound is returned when a stored PDF is missing on disk
var ErrFileNotFound = errors.New("stored file not found")

// StoredFile describes a file written by the storage
type StoredFile struct {
	Filename string // generated name on disk
	Path     string
	Size     int64
}

// FileStorage stores uploaded declaration PDFs
type FileStorage interface {
	// Save writes content under a generated name keeping the original extension
	Save(originalName string, content io.Reader) (*StoredFile, error)

	// Read returns the content of a stored file
	Read(fullPath string) ([]byte, error)

	// Exists reports whether a stored file is present
	Exists(fullPath string) bool

	// Delete removes a stored file; a missing file is not an error
	Delete(fullPath string) error

	// ValidatePath checks path security (no traversal, within base)
	ValidatePath(fullPath string) error
}

// LocalFileStorage implements FileStorage for local filesystem
type LocalFileStorage struct {
	baseDir string
	logger  *zap.Logger
}

// NewLocalFileStorage creates a new LocalFileStorage
func NewLocalFileStorage(baseDir string, logger *zap.Logger) *LocalFileStorage {
	return &LocalFileStorage{
		baseDir: baseDir,
		logger:  logger,
	}
}

// BaseDir returns the upload directory
func (s *LocalFileStorage) BaseDir() string {
	return s.baseDir
}

// Save writes content to {baseDir}/{uuid}{ext}
func (s *LocalFileStorage) Save(originalName string, content io.Reader) (*StoredFile, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	name := uuid.NewString() + ext
	fullPath := filepath.Join(s.baseDir, name)

	if err := s.ValidatePath(fullPath); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(s.baseDir, 0755); err != nil {
		s.logger.Error("Failed to create upload directory",
			zap.String("path", s.baseDir),
			zap.Error(err))
		return nil, fmt.Errorf("failed to create directories: %w", err)
	}

	f, err := os.OpenFile(fullPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	size, err := io.Copy(f, content)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(fullPath)
		s.logger.Error("Failed to write file",
			zap.String("path", fullPath),
			zap.Error(err))
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	s.logger.Debug("File saved successfully",
		zap.String("original_name", originalName),
		zap.String("path", fullPath),
		zap.Int64("size", size))

	return &StoredFile{Filename: name, Path: fullPath, Size: size}, nil
}

// Read returns the content of a stored file
func (s *LocalFileStorage) Read(fullPath string) ([]byte, error) {
	if err := s.ValidatePath(fullPath); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(fullPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, fullPath)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}

// Exists checks if a stored file exists
func (s *LocalFileStorage) Exists(fullPath string) bool {
	if s.ValidatePath(fullPath) != nil {
		return false
	}
	_, err := os.Stat(fullPath)
	return err == nil
}

// Delete removes a stored file
func (s *LocalFileStorage) Delete(fullPath string) error {
	if err := s.ValidatePath(fullPath); err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Warn("Failed to delete file",
			zap.String("path", fullPath),
			zap.Error(err))
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// ValidatePath checks that the path is safe and within baseDir
func (s *LocalFileStorage) ValidatePath(fullPath string) error {
	absPath, err := filepath.Abs(fullPath)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	absBase, err := filepath.Abs(s.baseDir)
	if err != nil {
		return fmt.Errorf("failed to resolve base path: %w", err)
	}

	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) {
		return fmt.Errorf("path escapes base directory: %s", fullPath)
	}

	return nil
}
