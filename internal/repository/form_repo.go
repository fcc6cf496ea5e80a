package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/garyjia/sri-declaraciones/internal/models"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// FormRepository handles the structured Form 103 / Form 104 tables
type FormRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewFormRepository creates a new form repository
func NewFormRepository(db *sqlx.DB, logger *zap.Logger) *FormRepository {
	return &FormRepository{
		db:     db,
		logger: logger,
	}
}

func (r *FormRepository) ext(tx *sqlx.Tx) sqlx.ExtContext {
	if tx != nil {
		return tx
	}
	return r.db
}

// ReplaceForm103 stores line items and totals, dropping any previous extraction
func (r *FormRepository) ReplaceForm103(ctx context.Context, tx *sqlx.Tx, documentID int64, items []models.Form103LineItem, totals models.Form103Totals) error {
	e := r.ext(tx)
	if err := r.deleteFormData(ctx, e, documentID); err != nil {
		return err
	}

	for i := range items {
		items[i].DocumentID = documentID
		items[i].OrderIndex = i
		result, err := sqlx.NamedExecContext(ctx, e, `
			INSERT INTO form_103_line_items (
				document_id, concepto, codigo_base, base_imponible,
				codigo_retencion, valor_retenido, order_index
			) VALUES (
				:document_id, :concepto, :codigo_base, :base_imponible,
				:codigo_retencion, :valor_retenido, :order_index
			)`, items[i])
		if err != nil {
			r.logger.Error("Failed to insert Form 103 line item",
				zap.Int64("document_id", documentID),
				zap.Error(err))
			return fmt.Errorf("failed to insert line item: %w", err)
		}
		if id, err := result.LastInsertId(); err == nil {
			items[i].ID = id
		}
	}

	totals.DocumentID = documentID
	_, err := sqlx.NamedExecContext(ctx, e, `
		INSERT INTO form_103_totals (
			document_id, subtotal_operaciones_pais, total_retencion,
			total_impuesto_pagar, intereses, multa, total_pagado
		) VALUES (
			:document_id, :subtotal_operaciones_pais, :total_retencion,
			:total_impuesto_pagar, :intereses, :multa, :total_pagado
		)`, totals)
	if err != nil {
		return fmt.Errorf("failed to insert Form 103 totals: %w", err)
	}
	return nil
}

// ReplaceForm104 stores the Form 104 row, dropping any previous extraction
func (r *FormRepository) ReplaceForm104(ctx context.Context, tx *sqlx.Tx, documentID int64, ventas models.Form104Ventas, compras models.Form104Compras, retenciones []models.RetencionIVA, totals models.Form104Totals) error {
	e := r.ext(tx)
	if err := r.deleteFormData(ctx, e, documentID); err != nil {
		return err
	}

	if retenciones == nil {
		retenciones = []models.RetencionIVA{}
	}
	encoded, err := json.Marshal(retenciones)
	if err != nil {
		return fmt.Errorf("failed to encode retenciones: %w", err)
	}

	record := models.Form104Record{
		DocumentID:     documentID,
		RetencionesIVA: string(encoded),
		Form104Ventas:  ventas,
		Form104Compras: compras,
		Form104Totals:  totals,
	}
	_, err = sqlx.NamedExecContext(ctx, e, `
		INSERT INTO form_104_data (
			document_id,
			ventas_tarifa_diferente_cero_bruto, ventas_tarifa_diferente_cero_neto, impuesto_generado,
			total_ventas_bruto, total_ventas_neto, total_impuesto_generado,
			adquisiciones_tarifa_diferente_cero_bruto, adquisiciones_tarifa_diferente_cero_neto,
			impuesto_compras, adquisiciones_tarifa_cero, total_adquisiciones, credito_tributario_aplicable,
			retenciones_iva,
			impuesto_causado, retenciones_efectuadas, subtotal_a_pagar, total_impuesto_retenido,
			total_impuesto_pagar_retencion, total_consolidado_iva, total_pagado
		) VALUES (
			:document_id,
			:ventas_tarifa_diferente_cero_bruto, :ventas_tarifa_diferente_cero_neto, :impuesto_generado,
			:total_ventas_bruto, :total_ventas_neto, :total_impuesto_generado,
			:adquisiciones_tarifa_diferente_cero_bruto, :adquisiciones_tarifa_diferente_cero_neto,
			:impuesto_compras, :adquisiciones_tarifa_cero, :total_adquisiciones, :credito_tributario_aplicable,
			:retenciones_iva,
			:impuesto_causado, :retenciones_efectuadas, :subtotal_a_pagar, :total_impuesto_retenido,
			:total_impuesto_pagar_retencion, :total_consolidado_iva, :total_pagado
		)`, record)
	if err != nil {
		r.logger.Error("Failed to insert Form 104 data",
			zap.Int64("document_id", documentID),
			zap.Error(err))
		return fmt.Errorf("failed to insert Form 104 data: %w", err)
	}
	return nil
}

// DeleteForms drops the structured rows of a document that no longer parses
// as either form
func (r *FormRepository) DeleteForms(ctx context.Context, tx *sqlx.Tx, documentID int64) error {
	return r.deleteFormData(ctx, r.ext(tx), documentID)
}

func (r *FormRepository) deleteFormData(ctx context.Context, e sqlx.ExtContext, documentID int64) error {
	for _, table := range []string{"form_103_line_items", "form_103_totals", "form_104_data"} {
		if _, err := e.ExecContext(ctx, `DELETE FROM `+table+` WHERE document_id = ?`, documentID); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

// GetForm103LineItems returns a document's line items in extraction order
func (r *FormRepository) GetForm103LineItems(ctx context.Context, documentID int64) ([]models.Form103LineItem, error) {
	items := []models.Form103LineItem{}
	query := `
		SELECT id, document_id, concepto, codigo_base, base_imponible,
			codigo_retencion, valor_retenido, order_index
		FROM form_103_line_items
		WHERE document_id = ?
		ORDER BY order_index ASC
	`
	if err := r.db.SelectContext(ctx, &items, query, documentID); err != nil {
		return nil, fmt.Errorf("failed to get line items: %w", err)
	}
	return items, nil
}

const form103TotalsColumns = `document_id, subtotal_operaciones_pais, total_retencion,
	total_impuesto_pagar, intereses, multa, total_pagado`

// GetForm103Totals returns the totals of a Form 103 document
func (r *FormRepository) GetForm103Totals(ctx context.Context, documentID int64) (*models.Form103Totals, error) {
	var totals models.Form103Totals
	err := r.db.GetContext(ctx, &totals,
		`SELECT `+form103TotalsColumns+` FROM form_103_totals WHERE document_id = ?`, documentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrFormDataNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get Form 103 totals: %w", err)
	}
	return &totals, nil
}

// GetForm103TotalsByDocuments loads totals for several documents keyed by document ID
func (r *FormRepository) GetForm103TotalsByDocuments(ctx context.Context, documentIDs []int64) (map[int64]models.Form103Totals, error) {
	out := make(map[int64]models.Form103Totals, len(documentIDs))
	if len(documentIDs) == 0 {
		return out, nil
	}
	query, args, err := sqlx.In(`SELECT `+form103TotalsColumns+` FROM form_103_totals WHERE document_id IN (?)`, documentIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to build totals query: %w", err)
	}
	rows := []models.Form103Totals{}
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to get Form 103 totals: %w", err)
	}
	for _, t := range rows {
		out[t.DocumentID] = t
	}
	return out, nil
}

const form104Columns = `id, document_id,
	ventas_tarifa_diferente_cero_bruto, ventas_tarifa_diferente_cero_neto, impuesto_generado,
	total_ventas_bruto, total_ventas_neto, total_impuesto_generado,
	adquisiciones_tarifa_diferente_cero_bruto, adquisiciones_tarifa_diferente_cero_neto,
	impuesto_compras, adquisiciones_tarifa_cero, total_adquisiciones, credito_tributario_aplicable,
	retenciones_iva,
	impuesto_causado, retenciones_efectuadas, subtotal_a_pagar, total_impuesto_retenido,
	total_impuesto_pagar_retencion, total_consolidado_iva, total_pagado`

// GetForm104 returns the Form 104 row of a document
func (r *FormRepository) GetForm104(ctx context.Context, documentID int64) (*models.Form104Record, error) {
	var record models.Form104Record
	err := r.db.GetContext(ctx, &record, `SELECT `+form104Columns+` FROM form_104_data WHERE document_id = ?`, documentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrFormDataNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get Form 104 data: %w", err)
	}
	return &record, nil
}

// GetForm104ByDocuments loads Form 104 rows for several documents keyed by document ID
func (r *FormRepository) GetForm104ByDocuments(ctx context.Context, documentIDs []int64) (map[int64]models.Form104Record, error) {
	out := make(map[int64]models.Form104Record, len(documentIDs))
	if len(documentIDs) == 0 {
		return out, nil
	}
	query, args, err := sqlx.In(`SELECT `+form104Columns+` FROM form_104_data WHERE document_id IN (?)`, documentIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to build Form 104 query: %w", err)
	}
	rows := []models.Form104Record{}
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to get Form 104 data: %w", err)
	}
	for _, rec := range rows {
		out[rec.DocumentID] = rec
	}
	return out, nil
}

// DecodeRetenciones parses the stored VAT withholding buckets
func DecodeRetenciones(raw string) ([]models.RetencionIVA, error) {
	out := []models.RetencionIVA{}
	if raw == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("failed to decode retenciones: %w", err)
	}
	return out, nil
}
