package models

// ClientSummary is one row of the client listing
type ClientSummary struct {
	RazonSocial   string `db:"razon_social" json:"razon_social"`
	DocumentCount int    `db:"document_count" json:"document_count"`
	FirstYear     string `db:"first_year" json:"first_year"` // "N/A" when no period was extracted
	LastYear      string `db:"last_year" json:"last_year"`
}

// FormInfo references an uploaded form from a month slot
type FormInfo struct {
	ID                int64   `json:"id"`
	Filename          string  `json:"filename"`
	UploadedAt        string  `json:"uploaded_at"`
	IdentificacionRUC *string `json:"identificacion_ruc"`
}

// MonthForms is the Form 103 / Form 104 pair of a month
type MonthForms struct {
	Form103 *FormInfo `json:"form_103"`
	Form104 *FormInfo `json:"form_104"`
}

// MonthData groups the forms filed for one fiscal month
type MonthData struct {
	Month         int        `json:"month"`
	PeriodoFiscal *string    `json:"periodo_fiscal"`
	Forms         MonthForms `json:"forms"`
}

// IsComplete reports whether both forms are present
func (m MonthData) IsComplete() bool {
	return m.Forms.Form103 != nil && m.Forms.Form104 != nil
}

// YearData groups months of one fiscal year
type YearData struct {
	Year   string      `json:"year"`
	Months []MonthData `json:"months"`
}

// ClientDocuments is a client's documents grouped by year and month
type ClientDocuments struct {
	RazonSocial string     `json:"razon_social"`
	Years       []YearData `json:"years"`
}

// MonthValidation is one row of the yearly completeness report
type MonthValidation struct {
	Month      int    `json:"month"`
	MonthName  string `json:"month_name"`
	HasForm103 bool   `json:"has_form_103"`
	HasForm104 bool   `json:"has_form_104"`
	Form103ID  *int64 `json:"form_103_id"`
	Form104ID  *int64 `json:"form_104_id"`
	IsComplete bool   `json:"is_complete"`
}

// YearValidation reports which of the 12 months have both forms
type YearValidation struct {
	RazonSocial       string            `json:"razon_social"`
	Year              string            `json:"year"`
	CompleteMonths    int               `json:"complete_months"`
	TotalMonths       int               `json:"total_months"`
	IsFullyComplete   bool              `json:"is_fully_complete"`
	ValidationDetails []MonthValidation `json:"validation_details"`
}
