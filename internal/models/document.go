package models

import "time"

// FormType identifies the SRI form a document was classified as
type FormType string

// Form type constants
const (
	FormType103     FormType = "form_103"
	FormType104     FormType = "form_104"
	FormTypeUnknown FormType = "unknown"
)

// ParseFormType validates a form type received from a request
func ParseFormType(s string) (FormType, bool) {
	switch FormType(s) {
	case FormType103, FormType104:
		return FormType(s), true
	}
	return FormTypeUnknown, false
}

// ProcessingStatus tracks the extraction pipeline for a document
type ProcessingStatus string

// Processing status constants
const (
	StatusPending    ProcessingStatus = "pending"
	StatusProcessing ProcessingStatus = "processing"
	StatusCompleted  ProcessingStatus = "completed"
	StatusFailed     ProcessingStatus = "failed"
)

// ParseProcessingStatus validates a status filter
func ParseProcessingStatus(s string) (ProcessingStatus, bool) {
	switch ProcessingStatus(s) {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return ProcessingStatus(s), true
	}
	return "", false
}

// Document represents an uploaded SRI declaration PDF
type Document struct {
	ID               int64    `db:"id" json:"id"`
	Filename         string   `db:"filename" json:"filename"`                   // Stored (UUID) file name
	OriginalFilename string   `db:"original_filename" json:"original_filename"` // Name as uploaded
	FilePath         string   `db:"file_path" json:"file_path"`
	FileSize         int64    `db:"file_size" json:"file_size"`
	FormType         FormType `db:"form_type" json:"form_type"`
	ExtractedText    *string  `db:"extracted_text" json:"extracted_text,omitempty"`
	TotalPages       *int     `db:"total_pages" json:"total_pages,omitempty"`
	TotalCharacters  *int     `db:"total_characters" json:"total_characters,omitempty"`
	ParsedData       *string  `db:"parsed_data" json:"-"` // JSON of the parser output

	CodigoVerificador     *string    `db:"codigo_verificador" json:"codigo_verificador,omitempty"`
	NumeroSerial          *string    `db:"numero_serial" json:"numero_serial,omitempty"`
	FechaRecaudacion      *time.Time `db:"fecha_recaudacion" json:"fecha_recaudacion,omitempty"`
	IdentificacionRUC     *string    `db:"identificacion_ruc" json:"identificacion_ruc,omitempty"`
	RazonSocial           *string    `db:"razon_social" json:"razon_social,omitempty"`
	PeriodoMes            *string    `db:"periodo_mes" json:"periodo_mes,omitempty"`   // e.g. "ABRIL"
	PeriodoAnio           *string    `db:"periodo_anio" json:"periodo_anio,omitempty"` // e.g. "2025"
	PeriodoFiscalCompleto *string    `db:"periodo_fiscal_completo" json:"periodo_fiscal_completo,omitempty"`
	PeriodoMesNumero      *int       `db:"periodo_mes_numero" json:"periodo_mes_numero,omitempty"` // 1-12

	ProcessingStatus ProcessingStatus `db:"processing_status" json:"processing_status"`
	ProcessingError  *string          `db:"processing_error" json:"processing_error,omitempty"`
	UploadedAt       time.Time        `db:"uploaded_at" json:"uploaded_at"`
	ProcessedAt      *time.Time       `db:"processed_at" json:"processed_at,omitempty"`
}

// Periodo renders "MES AÑO" or "N/A"
func (d *Document) Periodo() string {
	if d.PeriodoMes == nil || *d.PeriodoMes == "" {
		return "N/A"
	}
	anio := ""
	if d.PeriodoAnio != nil {
		anio = *d.PeriodoAnio
	}
	return *d.PeriodoMes + " " + anio
}

// FechaRecaudacionText renders the collection date as dd-mm-yyyy or "N/A"
func (d *Document) FechaRecaudacionText() string {
	if d.FechaRecaudacion == nil {
		return "N/A"
	}
	return d.FechaRecaudacion.Format("02-01-2006")
}

// RazonSocialText returns the taxpayer name or "N/A"
func (d *Document) RazonSocialText() string {
	if d.RazonSocial == nil || *d.RazonSocial == "" {
		return "N/A"
	}
	return *d.RazonSocial
}

// DocumentListItem is a row of the paginated document listing
type DocumentListItem struct {
	ID               int64            `json:"id"`
	Filename         string           `json:"filename"`
	FileSize         int64            `json:"file_size"`
	FormType         FormType         `json:"form_type"`
	TotalPages       *int             `json:"total_pages,omitempty"`
	TotalCharacters  *int             `json:"total_characters,omitempty"`
	ProcessingStatus ProcessingStatus `json:"processing_status"`
	UploadedAt       string           `json:"uploaded_at"`
	ProcessedAt      *string          `json:"processed_at,omitempty"`
}

// DocumentListResponse is the paginated document listing
type DocumentListResponse struct {
	Total     int                `json:"total"`
	Page      int                `json:"page"`
	PageSize  int                `json:"page_size"`
	Documents []DocumentListItem `json:"documents"`
}

// DocumentDetail is the full view of one document, including extracted text
type DocumentDetail struct {
	ID               int64            `json:"id"`
	Filename         string           `json:"filename"`
	OriginalFilename string           `json:"original_filename"`
	FileSize         int64            `json:"file_size"`
	FormType         FormType         `json:"form_type"`
	TotalPages       *int             `json:"total_pages,omitempty"`
	TotalCharacters  *int             `json:"total_characters,omitempty"`
	ProcessingStatus ProcessingStatus `json:"processing_status"`
	ProcessingError  *string          `json:"processing_error,omitempty"`
	UploadedAt       string           `json:"uploaded_at"`
	ProcessedAt      *string          `json:"processed_at,omitempty"`
	ExtractedText    *string          `json:"extracted_text,omitempty"`
}

// StatusCounts groups documents by processing status
type StatusCounts struct {
	Completed  int `json:"completed"`
	Processing int `json:"processing"`
	Failed     int `json:"failed"`
	Pending    int `json:"pending"`
}

// DocumentStats is the overview served by /api/documents/stats/overview
type DocumentStats struct {
	TotalDocuments           int          `json:"total_documents"`
	ByStatus                 StatusCounts `json:"by_status"`
	TotalPagesExtracted      int          `json:"total_pages_extracted"`
	TotalCharactersExtracted int          `json:"total_characters_extracted"`
}

// FormTypeListItem is a row of /api/forms-data/list-by-form-type
type FormTypeListItem struct {
	ID               int64            `json:"id"`
	Filename         string           `json:"filename"`
	RazonSocial      string           `json:"razon_social"`
	Periodo          string           `json:"periodo"`
	FechaRecaudacion string           `json:"fecha_recaudacion"`
	ProcessingStatus ProcessingStatus `json:"processing_status"`
	UploadedAt       string           `json:"uploaded_at"`
}

// FormTypeListing is the response of /api/forms-data/list-by-form-type
type FormTypeListing struct {
	FormType  FormType           `json:"form_type"`
	Total     int                `json:"total"`
	Documents []FormTypeListItem `json:"documents"`
}

// UploadResult reports the outcome of one uploaded file
type UploadResult struct {
	Success          bool             `json:"success"`
	Message          string           `json:"message"`
	DocumentID       int64            `json:"document_id,omitempty"`
	Filename         string           `json:"filename"`
	FormType         FormType         `json:"form_type"`
	ProcessingStatus ProcessingStatus `json:"processing_status"`
}

// UploadFailure reports a rejected file in a bulk upload
type UploadFailure struct {
	Filename string `json:"filename"`
	Error    string `json:"error"`
}

// BulkUploadResult is the response of /api/upload/bulk
type BulkUploadResult struct {
	Success    bool            `json:"success"`
	TotalFiles int             `json:"total_files"`
	Uploaded   []UploadResult  `json:"uploaded"`
	Failed     []UploadFailure `json:"failed"`
}

// UploadStatus is the response of /api/upload/status/:id
type UploadStatus struct {
	DocumentID       int64            `json:"document_id"`
	Filename         string           `json:"filename"`
	FormType         FormType         `json:"form_type"`
	ProcessingStatus ProcessingStatus `json:"processing_status"`
	ProcessingError  *string          `json:"processing_error,omitempty"`
	ProcessedAt      *string          `json:"processed_at,omitempty"`
}

// FormatTimestamp renders a timestamp for API responses
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// FormatOptionalTimestamp renders a nullable timestamp
func FormatOptionalTimestamp(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := FormatTimestamp(*t)
	return &s
}
