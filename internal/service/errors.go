package service

import (
	"errors"

	"github.com/garyjia/sri-declaraciones/internal/period"
	"github.com/garyjia/sri-declaraciones/internal/repository"
)

// Service errors mapped to HTTP status codes by the transport layer
var (
	ErrDocumentNotFound     = repository.ErrDocumentNotFound
	ErrFormDataNotFound     = repository.ErrFormDataNotFound
	ErrInvalidExcludeMonths = period.ErrInvalidExcludeMonths

	ErrClientNotFound    = errors.New("client not found")
	ErrNoValidPeriods    = errors.New("no documents have valid period information")
	ErrInvalidYear       = errors.New("invalid fiscal year")
	ErrInvalidFileType   = errors.New("only PDF files are allowed")
	ErrFileTooLarge      = errors.New("file exceeds the maximum upload size")
	ErrNoFiles           = errors.New("no files provided")
	ErrTooManyFiles      = errors.New("too many files in one upload")
	ErrInvalidStatus     = errors.New("invalid processing status")
	ErrInvalidFormType   = errors.New("invalid form type, use form_103 or form_104")
	ErrInvalidPagination = errors.New("invalid pagination parameters")
)
