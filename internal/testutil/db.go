// Package testutil provides shared fixtures for package tests.
package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/garyjia/sri-declaraciones/internal/models"
	"github.com/garyjia/sri-declaraciones/pkg/database"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// NewDB opens a migrated SQLite database in a temp directory
func NewDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.New(database.Config{
		Path:         filepath.Join(t.TempDir(), "test.db"),
		MaxOpenConns: 1,
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.NewMigrator(db, zap.NewNop()).RunEmbedded(context.Background()))
	return db
}

// Str returns a pointer to s
func Str(s string) *string { return &s }

// Int returns a pointer to n
func Int(n int) *int { return &n }

// DocumentFixture describes a processed declaration to seed
type DocumentFixture struct {
	RazonSocial string
	FormType    models.FormType
	Year        string // empty leaves the period unset
	Month       int
	UploadedAt  time.Time
}

// SeedDocument inserts a completed document row with the fixture's period
func SeedDocument(t *testing.T, db *database.DB, f DocumentFixture) *models.Document {
	t.Helper()
	uploaded := f.UploadedAt
	if uploaded.IsZero() {
		uploaded = time.Now().UTC()
	}
	doc := &models.Document{
		Filename:         "stored.pdf",
		OriginalFilename: string(f.FormType) + ".pdf",
		FilePath:         "/tmp/stored.pdf",
		FileSize:         1024,
		FormType:         f.FormType,
		ProcessingStatus: models.StatusCompleted,
		UploadedAt:       uploaded,
	}
	if f.RazonSocial != "" {
		doc.RazonSocial = Str(f.RazonSocial)
	}
	if f.Year != "" {
		doc.PeriodoAnio = Str(f.Year)
	}
	if f.Month > 0 {
		names := []string{"", "ENERO", "FEBRERO", "MARZO", "ABRIL", "MAYO", "JUNIO",
			"JULIO", "AGOSTO", "SEPTIEMBRE", "OCTUBRE", "NOVIEMBRE", "DICIEMBRE"}
		doc.PeriodoMes = Str(names[f.Month])
		doc.PeriodoMesNumero = Int(f.Month)
		if f.Year != "" {
			doc.PeriodoFiscalCompleto = Str(names[f.Month] + " " + f.Year)
		}
	}

	_, err := db.NamedExec(`
		INSERT INTO documents (
			filename, original_filename, file_path, file_size, form_type,
			razon_social, periodo_mes, periodo_anio, periodo_fiscal_completo, periodo_mes_numero,
			processing_status, uploaded_at
		) VALUES (
			:filename, :original_filename, :file_path, :file_size, :form_type,
			:razon_social, :periodo_mes, :periodo_anio, :periodo_fiscal_completo, :periodo_mes_numero,
			:processing_status, :uploaded_at
		)`, doc)
	require.NoError(t, err)
	require.NoError(t, db.Get(&doc.ID, `SELECT MAX(id) FROM documents`))
	return doc
}
