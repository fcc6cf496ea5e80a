package database

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// busyTimeout is how long a writer waits on the SQLite lock, in milliseconds
const busyTimeout = 5000

// Config holds database configuration
type Config struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DB is the declarations database. Repositories run their statements through
// the embedded *sqlx.DB or inside WithTransaction.
type DB struct {
	*sqlx.DB
	path   string
	logger *zap.Logger
}

// dataSourceName builds the go-sqlite3 DSN: WAL journal, a busy timeout and
// enforced foreign keys so form rows cascade with their document
func dataSourceName(path string) string {
	params := url.Values{}
	params.Set("_journal_mode", "WAL")
	params.Set("_busy_timeout", fmt.Sprint(busyTimeout))
	params.Set("_foreign_keys", "on")
	return "file:" + path + "?" + params.Encode()
}

// New opens and pings the SQLite database at cfg.Path
func New(cfg Config, logger *zap.Logger) (*DB, error) {
	conn, err := sqlx.Open("sqlite3", dataSourceName(cfg.Path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", cfg.Path, err)
	}

	// zero keeps the driver default
	if cfg.MaxOpenConns > 0 {
		conn.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		conn.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	conn.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	db := &DB{DB: conn, path: cfg.Path, logger: logger}
	if err := db.Healthy(context.Background()); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("database %s is not reachable: %w", cfg.Path, err)
	}

	logger.Info("Opened SQLite database",
		zap.String("path", cfg.Path),
		zap.Int("max_open_conns", cfg.MaxOpenConns))
	return db, nil
}

// WithTransaction runs fn in a transaction. The transaction is committed when
// fn returns nil and rolled back when it fails or panics.
func (db *DB) WithTransaction(ctx context.Context, fn func(*sqlx.Tx) error) (err error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil {
			db.logger.Warn("Transaction rollback failed", zap.Error(rbErr))
		}
		if p := recover(); p != nil {
			panic(p)
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	committed = true
	return nil
}

// Healthy pings the database; the health endpoint reports its result
func (db *DB) Healthy(ctx context.Context) error {
	return db.PingContext(ctx)
}

// Close releases the connection pool
func (db *DB) Close() error {
	db.logger.Info("Closing SQLite database", zap.String("path", db.path))
	return db.DB.Close()
}
