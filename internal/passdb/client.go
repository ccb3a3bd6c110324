// Package passdb stores the fare pass catalog in SQLite. A JSON catalog file
// is imported once per content hash; the catalog is then loaded into memory.
package passdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/mattn/go-sqlite3" // CGo-based SQLite driver

	"railplanner.org/internal/appconf"
	"railplanner.org/internal/logging"
)

type Config struct {
	DBPath string
	Env    appconf.Environment
}

// Client wraps the catalog database.
type Client struct {
	config Config
	DB     *sql.DB
	logger *slog.Logger
}

// NewClient opens the database at config.DBPath and applies the schema.
func NewClient(config Config) (*Client, error) {
	db, err := createDB(config)
	if err != nil {
		return nil, fmt.Errorf("unable to create pass DB: %w", err)
	}
	return &Client{
		config: config,
		DB:     db,
		logger: slog.Default().With(slog.String("component", "passdb")),
	}, nil
}

func (c *Client) Close() error {
	return c.DB.Close()
}

func (c *Client) GetDBPath() string {
	return c.config.DBPath
}

func (c *Client) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

// TableCounts returns the row count of each catalog table.
func (c *Client) TableCounts(ctx context.Context) (map[string]int, error) {
	queries := map[string]string{
		"passes":          "SELECT COUNT(*) FROM passes",
		"pass_rules":      "SELECT COUNT(*) FROM pass_rules",
		"import_metadata": "SELECT COUNT(*) FROM import_metadata",
	}

	counts := make(map[string]int, len(queries))
	for table, query := range queries {
		var n int
		if err := c.DB.QueryRowContext(ctx, query).Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", table, err)
		}
		counts[table] = n
	}
	return counts, nil
}

func (c *Client) debugLogger() *slog.Logger {
	if c.logger == nil {
		return slog.Default()
	}
	return c.logger
}

func closeRows(rows *sql.Rows, logger *slog.Logger) {
	logging.SafeCloseWithLogging(rows, logger, "database_rows")
}
