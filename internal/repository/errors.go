package repository

import "errors"

// Repository errors
var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrFormDataNotFound = errors.New("form data not found")
)
