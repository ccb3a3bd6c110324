package passdb

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"railplanner.org/internal/appconf"
	"railplanner.org/internal/logging"
)

//go:embed schema.sql
var ddl string

func createDB(config Config) (*sql.DB, error) {
	if config.Env == appconf.Test && config.DBPath != ":memory:" {
		return nil, fmt.Errorf("test database must use in-memory storage, got path: %s", config.DBPath)
	}

	db, err := sql.Open("sqlite3", config.DBPath)
	if err != nil {
		return nil, err
	}

	configureConnectionPool(db, config)

	ctx := context.Background()
	if err := configureSQLite(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("error configuring SQLite: %w", err)
	}
	if err := performDatabaseMigration(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("error performing database migration: %w", err)
	}

	return db, nil
}

func performDatabaseMigration(ctx context.Context, db *sql.DB) error {
	for _, stmt := range strings.Split(ddl, "-- migrate") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("error executing DDL statement [%s]: %w", stmt, err)
		}
	}
	return nil
}

func configureSQLite(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA foreign_keys=ON",
		"PRAGMA temp_store=MEMORY",
	}

	logger := slog.Default().With(slog.String("component", "sqlite_settings"))
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			logging.LogError(logger, "Failed to apply pragma", err, slog.String("pragma", pragma))
			return fmt.Errorf("failed to execute %s: %w", pragma, err)
		}
	}
	return nil
}

func configureConnectionPool(db *sql.DB, config Config) {
	// each connection to :memory: would open its own empty database
	if config.DBPath == ":memory:" {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		return
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)
}
