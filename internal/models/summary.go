package models

import (
	"fmt"

	"github.com/garyjia/sri-declaraciones/pkg/utils"
)

// SummaryFilename names a yearly summary download "{company}_{year}_summary.{ext}"
// with whitespace in the name replaced by underscores
func SummaryFilename(company, year, ext string) string {
	return fmt.Sprintf("%s_%s_summary.%s", utils.SafeFileComponent(company), year, ext)
}

// Form103MonthDetail is the per-month contribution to the Form 103 rollup
type Form103MonthDetail struct {
	Month                   int     `json:"month"`
	PeriodoFiscal           *string `json:"periodo_fiscal"`
	SubtotalOperacionesPais float64 `json:"subtotal_operaciones_pais"`
	TotalRetencion          float64 `json:"total_retencion"`
	TotalImpuestoPagar      float64 `json:"total_impuesto_pagar"`
	TotalPagado             float64 `json:"total_pagado"`
}

// Form103Summary is the yearly Form 103 rollup
type Form103Summary struct {
	SubtotalOperacionesPais float64              `json:"subtotal_operaciones_pais"`
	TotalRetencion          float64              `json:"total_retencion"`
	TotalImpuestoPagar      float64              `json:"total_impuesto_pagar"`
	TotalPagado             float64              `json:"total_pagado"`
	MonthlyDetails          []Form103MonthDetail `json:"monthly_details"`
}

// Form104MonthDetail is the per-month contribution to the Form 104 rollup
type Form104MonthDetail struct {
	Month                      int     `json:"month"`
	PeriodoFiscal              *string `json:"periodo_fiscal"`
	TotalVentasNeto            float64 `json:"total_ventas_neto"`
	TotalImpuestoGenerado      float64 `json:"total_impuesto_generado"`
	TotalAdquisiciones         float64 `json:"total_adquisiciones"`
	CreditoTributarioAplicable float64 `json:"credito_tributario_aplicable"`
	ImpuestoCausado            float64 `json:"impuesto_causado"`
	RetencionesEfectuadas      float64 `json:"retenciones_efectuadas"`
	TotalImpuestoRetenido      float64 `json:"total_impuesto_retenido"`
	TotalPagado                float64 `json:"total_pagado"`
}

// Form104Summary is the yearly Form 104 rollup
type Form104Summary struct {
	TotalVentasNeto            float64              `json:"total_ventas_neto"`
	TotalImpuestoGenerado      float64              `json:"total_impuesto_generado"`
	TotalAdquisiciones         float64              `json:"total_adquisiciones"`
	CreditoTributarioAplicable float64              `json:"credito_tributario_aplicable"`
	ImpuestoCausado            float64              `json:"impuesto_causado"`
	RetencionesEfectuadas      float64              `json:"retenciones_efectuadas"`
	TotalImpuestoRetenido      float64              `json:"total_impuesto_retenido"`
	TotalPagado                float64              `json:"total_pagado"`
	MonthlyDetails             []Form104MonthDetail `json:"monthly_details"`
}

// MissingMonths lists, per form, the months with no filed document
type MissingMonths struct {
	Form103 []int `json:"form_103"`
	Form104 []int `json:"form_104"`
}

// YearlySummary is the rollup of one client's fiscal year
type YearlySummary struct {
	RazonSocial    string         `json:"razon_social"`
	Year           string         `json:"year"`
	Form103Summary Form103Summary `json:"form_103_summary"`
	Form104Summary Form104Summary `json:"form_104_summary"`
	MissingMonths  MissingMonths  `json:"missing_months"`
	ExcludedMonths []int          `json:"excluded_months"`
}
