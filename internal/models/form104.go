package models

import "strings"

// Form104Ventas holds the sales section of Form 104
type Form104Ventas struct {
	VentasTarifaDiferenteCeroBruto float64 `db:"ventas_tarifa_diferente_cero_bruto" json:"ventas_tarifa_diferente_cero_bruto"`
	VentasTarifaDiferenteCeroNeto  float64 `db:"ventas_tarifa_diferente_cero_neto" json:"ventas_tarifa_diferente_cero_neto"`
	ImpuestoGenerado               float64 `db:"impuesto_generado" json:"impuesto_generado"`
	TotalVentasBruto               float64 `db:"total_ventas_bruto" json:"total_ventas_bruto"`
	TotalVentasNeto                float64 `db:"total_ventas_neto" json:"total_ventas_neto"`
	TotalImpuestoGenerado          float64 `db:"total_impuesto_generado" json:"total_impuesto_generado"`
}

// Fields returns the section as ordered key/value pairs
func (v Form104Ventas) Fields() []Field {
	return []Field{
		{"ventas_tarifa_diferente_cero_bruto", v.VentasTarifaDiferenteCeroBruto},
		{"ventas_tarifa_diferente_cero_neto", v.VentasTarifaDiferenteCeroNeto},
		{"impuesto_generado", v.ImpuestoGenerado},
		{"total_ventas_bruto", v.TotalVentasBruto},
		{"total_ventas_neto", v.TotalVentasNeto},
		{"total_impuesto_generado", v.TotalImpuestoGenerado},
	}
}

// Form104Compras holds the purchases section of Form 104
type Form104Compras struct {
	AdquisicionesTarifaDiferenteCeroBruto float64 `db:"adquisiciones_tarifa_diferente_cero_bruto" json:"adquisiciones_tarifa_diferente_cero_bruto"`
	AdquisicionesTarifaDiferenteCeroNeto  float64 `db:"adquisiciones_tarifa_diferente_cero_neto" json:"adquisiciones_tarifa_diferente_cero_neto"`
	ImpuestoCompras                       float64 `db:"impuesto_compras" json:"impuesto_compras"`
	AdquisicionesTarifaCero               float64 `db:"adquisiciones_tarifa_cero" json:"adquisiciones_tarifa_cero"`
	TotalAdquisiciones                    float64 `db:"total_adquisiciones" json:"total_adquisiciones"`
	CreditoTributarioAplicable            float64 `db:"credito_tributario_aplicable" json:"credito_tributario_aplicable"`
}

// Fields returns the section as ordered key/value pairs
func (c Form104Compras) Fields() []Field {
	return []Field{
		{"adquisiciones_tarifa_diferente_cero_bruto", c.AdquisicionesTarifaDiferenteCeroBruto},
		{"adquisiciones_tarifa_diferente_cero_neto", c.AdquisicionesTarifaDiferenteCeroNeto},
		{"impuesto_compras", c.ImpuestoCompras},
		{"adquisiciones_tarifa_cero", c.AdquisicionesTarifaCero},
		{"total_adquisiciones", c.TotalAdquisiciones},
		{"credito_tributario_aplicable", c.CreditoTributarioAplicable},
	}
}

// Form104Totals holds the closing boxes of Form 104
type Form104Totals struct {
	ImpuestoCausado             float64 `db:"impuesto_causado" json:"impuesto_causado"`
	RetencionesEfectuadas       float64 `db:"retenciones_efectuadas" json:"retenciones_efectuadas"`
	SubtotalAPagar              float64 `db:"subtotal_a_pagar" json:"subtotal_a_pagar"`
	TotalImpuestoRetenido       float64 `db:"total_impuesto_retenido" json:"total_impuesto_retenido"`
	TotalImpuestoPagarRetencion float64 `db:"total_impuesto_pagar_retencion" json:"total_impuesto_pagar_retencion"`
	TotalConsolidadoIVA         float64 `db:"total_consolidado_iva" json:"total_consolidado_iva"`
	TotalPagado                 float64 `db:"total_pagado" json:"total_pagado"`
}

// Fields returns the section as ordered key/value pairs
func (t Form104Totals) Fields() []Field {
	return []Field{
		{"impuesto_causado", t.ImpuestoCausado},
		{"retenciones_efectuadas", t.RetencionesEfectuadas},
		{"subtotal_a_pagar", t.SubtotalAPagar},
		{"total_impuesto_retenido", t.TotalImpuestoRetenido},
		{"total_impuesto_pagar_retencion", t.TotalImpuestoPagarRetencion},
		{"total_consolidado_iva", t.TotalConsolidadoIVA},
		{"total_pagado", t.TotalPagado},
	}
}

// RetencionIVA is one VAT withholding percentage bucket
type RetencionIVA struct {
	Porcentaje int     `json:"porcentaje"` // 10, 20, 30, 50, 70 or 100
	Valor      float64 `json:"valor"`
}

// Form104Record is the persisted row of form_104_data
type Form104Record struct {
	ID             int64  `db:"id"`
	DocumentID     int64  `db:"document_id"`
	RetencionesIVA string `db:"retenciones_iva"` // JSON array of RetencionIVA
	Form104Ventas
	Form104Compras
	Form104Totals
}

// Form104Data is the structured payload of /api/forms-data/form-104/:id
type Form104Data struct {
	DocumentID       int64          `json:"document_id"`
	Filename         string         `json:"filename"`
	RazonSocial      string         `json:"razon_social"`
	Periodo          string         `json:"periodo"`
	FechaRecaudacion string         `json:"fecha_recaudacion"`
	Ventas           Form104Ventas  `json:"ventas"`
	Compras          Form104Compras `json:"compras"`
	RetencionesIVA   []RetencionIVA `json:"retenciones_iva"`
	Totals           Form104Totals  `json:"totals"`
}

// FormType implements FormData
func (Form104Data) FormType() FormType { return FormType104 }

// Field is a named amount of a Form 104 section
type Field struct {
	Key   string
	Value float64
}

// IsGross reports whether the field is a gross (bruto) amount
func (f Field) IsGross() bool {
	return strings.Contains(strings.ToLower(f.Key), "bruto")
}

// Label renders the key as a human readable title
func (f Field) Label() string {
	words := strings.Split(f.Key, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// FormData is either a Form103Data or a Form104Data
type FormData interface {
	FormType() FormType
}
