package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, "uploads", cfg.Storage.UploadDir)
	assert.Equal(t, int64(10*1024*1024), cfg.Upload.MaxSize)
	assert.Equal(t, 20, cfg.Upload.MaxBulkFiles)
	assert.Equal(t, 30, cfg.Cleanup.RetentionDays)
	assert.Equal(t, "fpdf", cfg.Export.PDFEngine)
	assert.Equal(t, 5*time.Second, cfg.Processing.PollInterval)
	assert.False(t, cfg.OpenAI.Enabled())
}

func TestLoad_FileAndEnvironment(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
cleanup:
  retention_days: 7
  dry_run: true
export:
  pdf_engine: chrome
`)
	t.Setenv("SRI_DATABASE_PATH", "/tmp/sri-test.db")
	t.Setenv("NEXT_PUBLIC_API_URL", "https://api.example.com")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:9090", cfg.Server.Address())
	assert.Equal(t, 7, cfg.Cleanup.RetentionDays)
	assert.True(t, cfg.Cleanup.DryRun)
	assert.Equal(t, "chrome", cfg.Export.PDFEngine)
	assert.Equal(t, "/tmp/sri-test.db", cfg.Database.Path)
	assert.Equal(t, "https://api.example.com", cfg.Client.APIURL)
	assert.True(t, cfg.OpenAI.Enabled())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	path := writeConfig(t, `
export:
  pdf_engine: wkhtmltopdf
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "export.pdf_engine")

	path = writeConfig(t, `
cleanup:
  retention_days: -1
`)
	_, err = Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "retention_days")
}
