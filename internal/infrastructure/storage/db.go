// Package storage owns the relational engine: connection pool, dialects,
// schema and driver error classification.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/akumakusss123/DBT-Antivirus/pkg/config"
)

// Dialect names a supported engine
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

func init() {
	// sqlx only knows the mattn driver name for sqlite
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// DB is the injected storage handle shared by every repository
type DB struct {
	*sqlx.DB
	dialect Dialect
	timeout time.Duration
	logger  *zap.Logger
}

// Open connects to the configured engine and verifies the connection
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*DB, error) {
	dialect := Dialect(cfg.Type)
	dsn, err := DSN(cfg)
	if err != nil {
		return nil, err
	}

	if dialect == DialectSQLite && cfg.Name != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Name), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sqlx.Open(string(dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.StatementTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, Classify("ping", err)
	}

	logger.Info("database connected",
		zap.String("dialect", string(dialect)),
		zap.Int("max_open_conns", cfg.MaxOpenConns))

	return &DB{DB: db, dialect: dialect, timeout: cfg.StatementTimeout, logger: logger}, nil
}

// DSN builds the driver connection string for the configured dialect
func DSN(cfg config.DatabaseConfig) (string, error) {
	switch Dialect(cfg.Type) {
	case DialectSQLite:
		busy := cfg.BusyTimeout
		if busy <= 0 {
			busy = 5 * time.Second
		}
		q := url.Values{}
		q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busy.Milliseconds()))
		q.Add("_pragma", "journal_mode(WAL)")
		q.Add("_pragma", "foreign_keys(1)")
		q.Add("_pragma", "synchronous(NORMAL)")
		q.Set("_txlock", "immediate")
		q.Set("_time_format", "sqlite")
		return cfg.Name + "?" + q.Encode(), nil
	case DialectPostgres:
		u := url.URL{
			Scheme: "postgres",
			Host:   fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Path:   "/" + cfg.Name,
		}
		if cfg.User != "" {
			u.User = url.UserPassword(cfg.User, cfg.Password)
		}
		q := url.Values{}
		q.Set("sslmode", cfg.SSLMode)
		q.Set("timezone", "UTC")
		if cfg.StatementTimeout > 0 {
			q.Set("statement_timeout", fmt.Sprintf("%d", cfg.StatementTimeout.Milliseconds()))
		}
		u.RawQuery = q.Encode()
		return u.String(), nil
	default:
		return "", fmt.Errorf("unsupported database type %q", cfg.Type)
	}
}

// Dialect reports the engine behind the handle
func (db *DB) Dialect() Dialect {
	return db.dialect
}

// Timeout is the per-operation statement timeout
func (db *DB) Timeout() time.Duration {
	return db.timeout
}

// ReadContext bounds a read by the statement timeout and honours the caller's cancellation
func (db *DB) ReadContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, db.timeout)
}

// WriteContext detaches a write from the caller's cancellation so an abandoned
// request still commits or rolls back fully, bounded by the statement timeout
func (db *DB) WriteContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), db.timeout)
}

// WithTx runs fn in a transaction, committing on success and rolling back on
// error or panic. Errors are classified before they are returned.
func (db *DB) WithTx(ctx context.Context, op string, opts *sql.TxOptions, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := db.BeginTxx(ctx, opts)
	if err != nil {
		return Classify(op+": begin", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
				db.logger.Warn("rollback failed", zap.String("op", op), zap.Error(rbErr))
			}
		}
	}()

	if err = fn(tx); err != nil {
		return Classify(op, err)
	}

	if err = tx.Commit(); err != nil {
		return Classify(op+": commit", err)
	}
	return nil
}

// LockKey serialises transactions that share key until tx ends. On postgres
// it takes a transaction-scoped advisory lock; sqlite transactions already
// hold the database write lock from BEGIN IMMEDIATE.
func (db *DB) LockKey(ctx context.Context, tx *sqlx.Tx, key string) error {
	if db.dialect != DialectPostgres {
		return nil
	}
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key); err != nil {
		return fmt.Errorf("lock %s: %w", key, err)
	}
	return nil
}

// Close closes the pool
func (db *DB) Close() error {
	return db.DB.Close()
}
