package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/garyjia/sri-declaraciones/internal/models"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

const documentColumns = `
	id, filename, original_filename, file_path, file_size, form_type,
	extracted_text, total_pages, total_characters, parsed_data,
	codigo_verificador, numero_serial, fecha_recaudacion, identificacion_ruc,
	razon_social, periodo_mes, periodo_anio, periodo_fiscal_completo, periodo_mes_numero,
	processing_status, processing_error, uploaded_at, processed_at`

// listColumns leaves out the extracted text and parser output
const listColumns = `
	id, filename, original_filename, file_path, file_size, form_type,
	total_pages, total_characters,
	codigo_verificador, numero_serial, fecha_recaudacion, identificacion_ruc,
	razon_social, periodo_mes, periodo_anio, periodo_fiscal_completo, periodo_mes_numero,
	processing_status, processing_error, uploaded_at, processed_at`

// DocumentRepository handles document database operations
type DocumentRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(db *sqlx.DB, logger *zap.Logger) *DocumentRepository {
	return &DocumentRepository{
		db:     db,
		logger: logger,
	}
}

func (r *DocumentRepository) ext(tx *sqlx.Tx) sqlx.ExtContext {
	if tx != nil {
		return tx
	}
	return r.db
}

// Create inserts a new document row
func (r *DocumentRepository) Create(ctx context.Context, tx *sqlx.Tx, doc *models.Document) error {
	query := `
		INSERT INTO documents (
			filename, original_filename, file_path, file_size, form_type,
			processing_status, uploaded_at
		) VALUES (
			:filename, :original_filename, :file_path, :file_size, :form_type,
			:processing_status, :uploaded_at
		)
	`

	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = time.Now().UTC()
	}
	if doc.FormType == "" {
		doc.FormType = models.FormTypeUnknown
	}
	if doc.ProcessingStatus == "" {
		doc.ProcessingStatus = models.StatusPending
	}

	result, err := sqlx.NamedExecContext(ctx, r.ext(tx), query, doc)
	if err != nil {
		r.logger.Error("Failed to create document", zap.Error(err))
		return fmt.Errorf("failed to create document: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	doc.ID = id
	return nil
}

// GetByID retrieves a document by ID
func (r *DocumentRepository) GetByID(ctx context.Context, id int64) (*models.Document, error) {
	var doc models.Document
	err := r.db.GetContext(ctx, &doc, `SELECT `+documentColumns+` FROM documents WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		r.logger.Error("Failed to get document by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return &doc, nil
}

// GetByIDAndType retrieves a document only if it has the given form type
func (r *DocumentRepository) GetByIDAndType(ctx context.Context, id int64, formType models.FormType) (*models.Document, error) {
	var doc models.Document
	err := r.db.GetContext(ctx, &doc,
		`SELECT `+documentColumns+` FROM documents WHERE id = ? AND form_type = ?`, id, formType)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return &doc, nil
}

// List returns a page of documents, newest first, optionally filtered by status
func (r *DocumentRepository) List(ctx context.Context, status models.ProcessingStatus, limit, offset int) ([]*models.Document, int, error) {
	where := ""
	args := []interface{}{}
	if status != "" {
		where = " WHERE processing_status = ?"
		args = append(args, status)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM documents`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count documents: %w", err)
	}

	docs := []*models.Document{}
	query := `SELECT ` + listColumns + ` FROM documents` + where + ` ORDER BY uploaded_at DESC, id DESC LIMIT ? OFFSET ?`
	if err := r.db.SelectContext(ctx, &docs, query, append(args, limit, offset)...); err != nil {
		r.logger.Error("Failed to list documents", zap.Error(err))
		return nil, 0, fmt.Errorf("failed to list documents: %w", err)
	}
	return docs, total, nil
}

// ListByFormType returns all documents of a form type, newest first
func (r *DocumentRepository) ListByFormType(ctx context.Context, formType models.FormType) ([]*models.Document, error) {
	docs := []*models.Document{}
	query := `SELECT ` + listColumns + ` FROM documents WHERE form_type = ? ORDER BY uploaded_at DESC, id DESC`
	if err := r.db.SelectContext(ctx, &docs, query, formType); err != nil {
		return nil, fmt.Errorf("failed to list documents by form type: %w", err)
	}
	return docs, nil
}

// Stats aggregates document counts, pages and characters
func (r *DocumentRepository) Stats(ctx context.Context) (*models.DocumentStats, error) {
	var row struct {
		Total      int `db:"total"`
		Completed  int `db:"completed"`
		Processing int `db:"processing"`
		Failed     int `db:"failed"`
		Pending    int `db:"pending"`
		Pages      int `db:"pages"`
		Characters int `db:"characters"`
	}
	query := `
		SELECT
			COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN processing_status = 'completed' THEN 1 ELSE 0 END), 0) AS completed,
			COALESCE(SUM(CASE WHEN processing_status = 'processing' THEN 1 ELSE 0 END), 0) AS processing,
			COALESCE(SUM(CASE WHEN processing_status = 'failed' THEN 1 ELSE 0 END), 0) AS failed,
			COALESCE(SUM(CASE WHEN processing_status = 'pending' THEN 1 ELSE 0 END), 0) AS pending,
			COALESCE(SUM(total_pages), 0) AS pages,
			COALESCE(SUM(total_characters), 0) AS characters
		FROM documents
	`
	if err := r.db.GetContext(ctx, &row, query); err != nil {
		return nil, fmt.Errorf("failed to compute document stats: %w", err)
	}
	return &models.DocumentStats{
		TotalDocuments: row.Total,
		ByStatus: models.StatusCounts{
			Completed:  row.Completed,
			Processing: row.Processing,
			Failed:     row.Failed,
			Pending:    row.Pending,
		},
		TotalPagesExtracted:      row.Pages,
		TotalCharactersExtracted: row.Characters,
	}, nil
}

// ClaimPending marks up to limit pending documents as processing and returns them
func (r *DocumentRepository) ClaimPending(ctx context.Context, tx *sqlx.Tx, limit int) ([]*models.Document, error) {
	docs := []*models.Document{}
	query := `SELECT ` + listColumns + ` FROM documents WHERE processing_status = 'pending' ORDER BY uploaded_at ASC, id ASC LIMIT ?`
	if err := sqlx.SelectContext(ctx, r.ext(tx), &docs, query, limit); err != nil {
		return nil, fmt.Errorf("failed to get pending documents: %w", err)
	}
	if len(docs) == 0 {
		return docs, nil
	}

	ids := make([]int64, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
		d.ProcessingStatus = models.StatusProcessing
	}
	update, args, err := sqlx.In(`UPDATE documents SET processing_status = 'processing' WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to build claim query: %w", err)
	}
	if _, err := r.ext(tx).ExecContext(ctx, update, args...); err != nil {
		return nil, fmt.Errorf("failed to claim documents: %w", err)
	}
	return docs, nil
}

// UpdateStatus sets the processing status and error message
func (r *DocumentRepository) UpdateStatus(ctx context.Context, tx *sqlx.Tx, id int64, status models.ProcessingStatus, errorMessage string) error {
	var errMsg *string
	if errorMessage != "" {
		errMsg = &errorMessage
	}
	var processedAt *time.Time
	if status == models.StatusCompleted || status == models.StatusFailed {
		now := time.Now().UTC()
		processedAt = &now
	}

	result, err := r.ext(tx).ExecContext(ctx,
		`UPDATE documents SET processing_status = ?, processing_error = ?, processed_at = ? WHERE id = ?`,
		status, errMsg, processedAt, id)
	if err != nil {
		r.logger.Error("Failed to update document status",
			zap.Int64("id", id),
			zap.String("status", string(status)),
			zap.Error(err))
		return fmt.Errorf("failed to update document status: %w", err)
	}
	return requireAffected(result)
}

// SaveExtraction stores text, header fields and the completed status of a processed document
func (r *DocumentRepository) SaveExtraction(ctx context.Context, tx *sqlx.Tx, doc *models.Document) error {
	query := `
		UPDATE documents SET
			form_type = :form_type,
			extracted_text = :extracted_text,
			total_pages = :total_pages,
			total_characters = :total_characters,
			parsed_data = :parsed_data,
			codigo_verificador = :codigo_verificador,
			numero_serial = :numero_serial,
			fecha_recaudacion = :fecha_recaudacion,
			identificacion_ruc = :identificacion_ruc,
			razon_social = :razon_social,
			periodo_mes = :periodo_mes,
			periodo_anio = :periodo_anio,
			periodo_fiscal_completo = :periodo_fiscal_completo,
			periodo_mes_numero = :periodo_mes_numero,
			processing_status = :processing_status,
			processing_error = :processing_error,
			processed_at = :processed_at
		WHERE id = :id
	`
	result, err := sqlx.NamedExecContext(ctx, r.ext(tx), query, doc)
	if err != nil {
		r.logger.Error("Failed to save extraction", zap.Int64("id", doc.ID), zap.Error(err))
		return fmt.Errorf("failed to save extraction: %w", err)
	}
	return requireAffected(result)
}

// ResetForReprocess clears the previous outcome and queues the document again
func (r *DocumentRepository) ResetForReprocess(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE documents SET processing_status = 'pending', processing_error = NULL, processed_at = NULL WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to reset document: %w", err)
	}
	return requireAffected(result)
}

// RequeueInterrupted moves documents left in processing back to pending
func (r *DocumentRepository) RequeueInterrupted(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE documents SET processing_status = 'pending' WHERE processing_status = 'processing'`)
	if err != nil {
		return 0, fmt.Errorf("failed to requeue documents: %w", err)
	}
	return result.RowsAffected()
}

// Delete removes a document; line items and totals cascade
func (r *DocumentRepository) Delete(ctx context.Context, tx *sqlx.Tx, id int64) error {
	result, err := r.ext(tx).ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		r.logger.Error("Failed to delete document", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return requireAffected(result)
}

// ListUploadedBefore returns documents uploaded before cutoff
func (r *DocumentRepository) ListUploadedBefore(ctx context.Context, cutoff time.Time) ([]*models.Document, error) {
	docs := []*models.Document{}
	query := `SELECT ` + listColumns + ` FROM documents WHERE uploaded_at < ? ORDER BY uploaded_at ASC`
	if err := r.db.SelectContext(ctx, &docs, query, cutoff.UTC()); err != nil {
		return nil, fmt.Errorf("failed to list old documents: %w", err)
	}
	return docs, nil
}

// ListClients groups documents by razon social
func (r *DocumentRepository) ListClients(ctx context.Context) ([]models.ClientSummary, error) {
	clients := []models.ClientSummary{}
	query := `
		SELECT
			razon_social,
			COUNT(id) AS document_count,
			COALESCE(MIN(periodo_anio), 'N/A') AS first_year,
			COALESCE(MAX(periodo_anio), 'N/A') AS last_year
		FROM documents
		WHERE razon_social IS NOT NULL AND razon_social <> ''
		GROUP BY razon_social
		ORDER BY razon_social
	`
	if err := r.db.SelectContext(ctx, &clients, query); err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	return clients, nil
}

// ListByRazonSocial returns a client's documents ordered by year desc, month asc
func (r *DocumentRepository) ListByRazonSocial(ctx context.Context, razonSocial string) ([]*models.Document, error) {
	docs := []*models.Document{}
	query := `SELECT ` + listColumns + ` FROM documents
		WHERE razon_social = ?
		ORDER BY periodo_anio DESC, periodo_mes_numero ASC, uploaded_at ASC`
	if err := r.db.SelectContext(ctx, &docs, query, razonSocial); err != nil {
		return nil, fmt.Errorf("failed to list client documents: %w", err)
	}
	return docs, nil
}

// ListForYear returns a client's documents of one form type and year,
// skipping excluded months, ordered by month
func (r *DocumentRepository) ListForYear(ctx context.Context, razonSocial string, formType models.FormType, year string, excluded []int) ([]*models.Document, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + listColumns + ` FROM documents
		WHERE razon_social = ? AND form_type = ? AND periodo_anio = ?`)
	args := []interface{}{razonSocial, formType, year}

	if len(excluded) > 0 {
		sb.WriteString(` AND (periodo_mes_numero IS NULL OR periodo_mes_numero NOT IN (?))`)
		args = append(args, excluded)
	}
	sb.WriteString(` ORDER BY periodo_mes_numero ASC, uploaded_at ASC`)

	query, args, err := sqlx.In(sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to build year query: %w", err)
	}

	docs := []*models.Document{}
	if err := r.db.SelectContext(ctx, &docs, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list documents for year: %w", err)
	}
	return docs, nil
}

func requireAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if n == 0 {
		return ErrDocumentNotFound
	}
	return nil
}
