package models

// Error codes carried in the "code" field of failed API responses
const (
	ErrorCodeInvalidRequest       = "INVALID_REQUEST"
	ErrorCodeNotFound             = "NOT_FOUND"
	ErrorCodeClientNotFound       = "CLIENT_NOT_FOUND"
	ErrorCodeNoValidPeriods       = "NO_VALID_PERIODS"
	ErrorCodeInvalidYear          = "INVALID_YEAR"
	ErrorCodeInvalidExcludeMonths = "INVALID_EXCLUDE_MONTHS"
	ErrorCodeBrandingIncomplete   = "BRANDING_INCOMPLETE"
	ErrorCodeInvalidColor         = "INVALID_COLOR"
	ErrorCodeInvalidFileType      = "INVALID_FILE_TYPE"
	ErrorCodeFileTooLarge         = "FILE_TOO_LARGE"
	ErrorCodeTooManyFiles         = "TOO_MANY_FILES"
	ErrorCodeForbidden            = "FORBIDDEN"
	ErrorCodeInternal             = "INTERNAL_ERROR"
)

// HealthStatus is the payload of GET /health
type HealthStatus struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
	Database  string `json:"database,omitempty"`
	Processor any    `json:"processor,omitempty"`
}
