package models

// Form103LineItem is one withholding row of Form 103
type Form103LineItem struct {
	ID              int64   `db:"id" json:"id"`
	DocumentID      int64   `db:"document_id" json:"-"`
	Concepto        string  `db:"concepto" json:"concepto"`
	CodigoBase      string  `db:"codigo_base" json:"codigo_base"` // e.g. 303
	BaseImponible   float64 `db:"base_imponible" json:"base_imponible"`
	CodigoRetencion string  `db:"codigo_retencion" json:"codigo_retencion"` // e.g. 353
	ValorRetenido   float64 `db:"valor_retenido" json:"valor_retenido"`
	OrderIndex      int     `db:"order_index" json:"order_index"`
}

// IsZero reports whether both amounts of the row are zero
func (li Form103LineItem) IsZero() bool {
	return li.BaseImponible == 0 && li.ValorRetenido == 0
}

// Form103Totals holds the summary boxes of Form 103 (349, 399, 499, 999 ...)
type Form103Totals struct {
	DocumentID              int64   `db:"document_id" json:"-"`
	SubtotalOperacionesPais float64 `db:"subtotal_operaciones_pais" json:"subtotal_operaciones_pais"` // 349
	TotalRetencion          float64 `db:"total_retencion" json:"total_retencion"`                     // 399
	TotalImpuestoPagar      float64 `db:"total_impuesto_pagar" json:"total_impuesto_pagar"`           // 499
	Intereses               float64 `db:"intereses" json:"intereses"`                                 // 903
	Multa                   float64 `db:"multa" json:"multa"`                                         // 904
	TotalPagado             float64 `db:"total_pagado" json:"total_pagado"`                           // 999
}

// Form103Data is the structured payload of /api/forms-data/form-103/:id
type Form103Data struct {
	DocumentID       int64             `json:"document_id"`
	Filename         string            `json:"filename"`
	RazonSocial      string            `json:"razon_social"`
	Periodo          string            `json:"periodo"`
	FechaRecaudacion string            `json:"fecha_recaudacion"`
	LineItems        []Form103LineItem `json:"line_items"`
	Totals           Form103Totals     `json:"totals"`
}

// FormType implements FormData
func (Form103Data) FormType() FormType { return FormType103 }
