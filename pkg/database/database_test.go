package database

import (
	"context"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(Config{Path: filepath.Join(t.TempDir(), "test.db"), MaxOpenConns: 1}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrator_RunEmbedded(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	migrator := NewMigrator(db, zap.NewNop())

	require.NoError(t, migrator.RunEmbedded(ctx))
	// second run is a no-op
	require.NoError(t, migrator.RunEmbedded(ctx))

	var count int
	require.NoError(t, db.Get(&count, "SELECT COUNT(*) FROM schema_migrations"))
	assert.Equal(t, 1, count)

	var tables []string
	require.NoError(t, db.Select(&tables, "SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name"))
	assert.Contains(t, tables, "documents")
	assert.Contains(t, tables, "form_103_line_items")
	assert.Contains(t, tables, "form_103_totals")
	assert.Contains(t, tables, "form_104_data")
}

func TestLoadMigrations_SortsByVersion(t *testing.T) {
	fsys := fstest.MapFS{
		"010_later.sql":  {Data: []byte("SELECT 1;")},
		"002_second.sql": {Data: []byte("SELECT 2;")},
		"README.md":      {Data: []byte("ignored")},
	}

	migrations, err := loadMigrations(fsys)

	require.NoError(t, err)
	require.Len(t, migrations, 2)
	assert.Equal(t, 2, migrations[0].Version)
	assert.Equal(t, "second", migrations[0].Name)
	assert.Equal(t, 10, migrations[1].Version)
}

func TestLoadMigrations_RejectsBadName(t *testing.T) {
	_, err := loadMigrations(fstest.MapFS{"init.sql": {Data: []byte("SELECT 1;")}})
	assert.Error(t, err)
}

func TestWithTransaction_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	_, err := db.Exec("CREATE TABLE t (v INTEGER)")
	require.NoError(t, err)

	err = db.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.Exec("INSERT INTO t (v) VALUES (1)"); err != nil {
			return err
		}
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)

	var count int
	require.NoError(t, db.Get(&count, "SELECT COUNT(*) FROM t"))
	assert.Equal(t, 0, count)
}

func TestWithTransaction_RollsBackOnPanic(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	_, err := db.Exec("CREATE TABLE t (v INTEGER)")
	require.NoError(t, err)

	assert.Panics(t, func() {
		_ = db.WithTransaction(ctx, func(tx *sqlx.Tx) error {
			_, _ = tx.Exec("INSERT INTO t (v) VALUES (1)")
			panic("boom")
		})
	})

	var count int
	require.NoError(t, db.Get(&count, "SELECT COUNT(*) FROM t"))
	assert.Equal(t, 0, count)
}

func TestDataSourceName(t *testing.T) {
	dsn := dataSourceName("data/sri.db")
	assert.Equal(t, "file:data/sri.db?_busy_timeout=5000&_foreign_keys=on&_journal_mode=WAL", dsn)
}

func TestHealthy(t *testing.T) {
	db := openTestDB(t)
	assert.NoError(t, db.Healthy(context.Background()))
	require.NoError(t, db.Close())
	assert.Error(t, db.Healthy(context.Background()))
}

func TestLoadMigrations_RejectsDuplicateVersion(t *testing.T) {
	_, err := loadMigrations(fstest.MapFS{
		"001_init.sql":  {Data: []byte("SELECT 1;")},
		"001_again.sql": {Data: []byte("SELECT 2;")},
	})
	assert.ErrorContains(t, err, "version 1")
}

func TestMigrator_PendingAfterRun(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	migrator := NewMigrator(db, zap.NewNop())
	fsys := fstest.MapFS{
		"001_first.sql":  {Data: []byte("CREATE TABLE a (id INTEGER);")},
		"002_second.sql": {Data: []byte("CREATE TABLE b (id INTEGER);")},
	}

	pending, err := migrator.Pending(ctx, fsys)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	require.NoError(t, migrator.Run(ctx, fsys))
	pending, err = migrator.Pending(ctx, fsys)
	require.NoError(t, err)
	assert.Empty(t, pending)
}
