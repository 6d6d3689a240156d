// Package database opens the page store connection, a local SQLite file or
// a remote Turso database.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/AtRiskMedia/pagecraft-go/internal/infrastructure/observability/logging"
	_ "github.com/mattn/go-sqlite3"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
)

const (
	DriverSQLite = "sqlite3"
	DriverLibSQL = "libsql"
)

// Config selects the driver and pool settings. A Turso database and token
// take precedence over the SQLite path.
type Config struct {
	Driver        string
	SQLitePath    string
	TursoDatabase string
	TursoToken    string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DB represents a wrapper around the standard SQL database connection.
type DB struct {
	*sql.DB
	Driver string
}

// NewConnection opens the configured database and runs a test query.
func NewConnection(cfg Config, logger *logging.ChanneledLogger) (*DB, error) {
	start := time.Now()
	driver, dsn, err := dataSource(cfg)
	if err != nil {
		return nil, err
	}
	logger.Database().Debug("Creating new database connection", "driverName", driver)

	conn, err := sql.Open(driver, dsn)
	if err != nil {
		logger.Database().Error("Failed to open database connection", "error", err.Error(), "driverName", driver)
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}
	if err = verifyConnection(context.Background(), conn, driver, logger); err != nil {
		conn.Close()
		return nil, err
	}

	if driver == DriverSQLite {
		// SQLite allows a single writer.
		conn.SetMaxOpenConns(1)
	} else if cfg.MaxOpenConns > 0 {
		conn.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		conn.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		conn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		conn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}

	logger.Database().Info("Database connection established", "driverName", driver, "duration", time.Since(start))
	return &DB{DB: conn, Driver: driver}, nil
}

func dataSource(cfg Config) (string, string, error) {
	if cfg.Driver == DriverLibSQL || (cfg.TursoDatabase != "" && cfg.TursoToken != "") {
		if cfg.TursoDatabase == "" {
			return "", "", fmt.Errorf("libsql driver requires a database URL")
		}
		return DriverLibSQL, cfg.TursoDatabase + "?authToken=" + cfg.TursoToken, nil
	}
	if cfg.SQLitePath == "" {
		return "", "", fmt.Errorf("sqlite driver requires a database path")
	}
	if cfg.SQLitePath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0755); err != nil {
			return "", "", fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	return DriverSQLite, cfg.SQLitePath + "?_foreign_keys=on&_busy_timeout=5000", nil
}

// Info describes the connection for the health endpoint.
func (db *DB) Info() map[string]any {
	stats := db.Stats()
	return map[string]any{
		"driver":       db.Driver,
		"healthy":      db.Ping() == nil,
		"maxOpen":      stats.MaxOpenConnections,
		"open":         stats.OpenConnections,
		"inUse":        stats.InUse,
		"idle":         stats.Idle,
		"waitCount":    stats.WaitCount,
		"waitDuration": stats.WaitDuration.String(),
	}
}
