package database

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"regexp"
	"sort"
	"strconv"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// Embedded holds the schema migrations shipped with the binary
//
//go:embed migrations/*.sql
var Embedded embed.FS

const schemaMigrationsDDL = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version    INTEGER PRIMARY KEY,
	name       TEXT NOT NULL,
	applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
)`

// migrationFile matches NNN_name.sql
var migrationFile = regexp.MustCompile(`^(\d+)_([A-Za-z0-9_]+)\.sql$`)

// Migration is one versioned schema change
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// Migrator applies versioned SQL files and records them in schema_migrations
type Migrator struct {
	db     *DB
	logger *zap.Logger
}

// NewMigrator creates a migrator for db
func NewMigrator(db *DB, logger *zap.Logger) *Migrator {
	return &Migrator{db: db, logger: logger}
}

// RunEmbedded applies the migrations compiled into the binary
func (m *Migrator) RunEmbedded(ctx context.Context) error {
	sub, err := fs.Sub(Embedded, "migrations")
	if err != nil {
		return fmt.Errorf("failed to open embedded migrations: %w", err)
	}
	return m.Run(ctx, sub)
}

// RunMigrations applies the migrations of a directory on disk. An empty dir
// falls back to the embedded migrations.
func (m *Migrator) RunMigrations(ctx context.Context, migrationsDir string) error {
	if migrationsDir == "" {
		return m.RunEmbedded(ctx)
	}
	m.logger.Info("Using migrations from disk", zap.String("dir", migrationsDir))
	return m.Run(ctx, os.DirFS(migrationsDir))
}

// Run applies every migration of fsys not yet recorded, each in its own
// transaction, in version order
func (m *Migrator) Run(ctx context.Context, fsys fs.FS) error {
	pending, err := m.Pending(ctx, fsys)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		m.logger.Debug("Schema is up to date")
		return nil
	}

	for _, mig := range pending {
		if err := m.apply(ctx, mig); err != nil {
			return fmt.Errorf("migration %03d_%s: %w", mig.Version, mig.Name, err)
		}
		m.logger.Info("Applied migration", zap.Int("version", mig.Version), zap.String("name", mig.Name))
	}
	return nil
}

// Pending lists the migrations of fsys that have not been applied yet
func (m *Migrator) Pending(ctx context.Context, fsys fs.FS) ([]Migration, error) {
	if _, err := m.db.ExecContext(ctx, schemaMigrationsDDL); err != nil {
		return nil, fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	var versions []int
	if err := m.db.SelectContext(ctx, &versions, "SELECT version FROM schema_migrations"); err != nil {
		return nil, fmt.Errorf("failed to read applied migrations: %w", err)
	}
	applied := make(map[int]struct{}, len(versions))
	for _, v := range versions {
		applied[v] = struct{}{}
	}

	all, err := loadMigrations(fsys)
	if err != nil {
		return nil, err
	}
	pending := all[:0]
	for _, mig := range all {
		if _, done := applied[mig.Version]; !done {
			pending = append(pending, mig)
		}
	}
	return pending, nil
}

// loadMigrations reads the top-level .sql files of fsys sorted by version.
// Badly named files and duplicate versions are errors.
func loadMigrations(fsys fs.FS) ([]Migration, error) {
	files, err := fs.Glob(fsys, "*.sql")
	if err != nil {
		return nil, fmt.Errorf("failed to list migrations: %w", err)
	}

	byVersion := make(map[int]string, len(files))
	migrations := make([]Migration, 0, len(files))
	for _, file := range files {
		match := migrationFile.FindStringSubmatch(path.Base(file))
		if match == nil {
			return nil, fmt.Errorf("migration file %s must be named NNN_name.sql", file)
		}
		version, _ := strconv.Atoi(match[1])
		if other, dup := byVersion[version]; dup {
			return nil, fmt.Errorf("migration version %d used by both %s and %s", version, other, file)
		}
		byVersion[version] = file

		content, err := fs.ReadFile(fsys, file)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", file, err)
		}
		migrations = append(migrations, Migration{Version: version, Name: match[2], SQL: string(content)})
	}

	sort.Slice(migrations, func(i, j int) bool { return migrations[i].Version < migrations[j].Version })
	return migrations, nil
}

func (m *Migrator) apply(ctx context.Context, mig Migration) error {
	return m.db.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, mig.SQL); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version, name) VALUES (?, ?)", mig.Version, mig.Name)
		return err
	})
}
