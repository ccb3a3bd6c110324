package passdb

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/go-playground/validator/v10"

	"railplanner.org/internal/logging"
)

// catalogFile is the JSON import format.
type catalogFile struct {
	Passes []passRecord `json:"passes" validate:"dive"`
}

type passRecord struct {
	ID      string       `json:"id" validate:"required"`
	Name    string       `json:"name" validate:"required"`
	Include []ruleRecord `json:"include" validate:"min=1,dive"`
	Exclude []ruleRecord `json:"exclude" validate:"dive"`
}

type ruleRecord struct {
	Operator string `json:"operator" validate:"required_without_all=Line Service"`
	Line     string `json:"line"`
	Service  string `json:"service"`
}

type importMetadata struct {
	FileHash   string
	FileSource string
}

// ImportFromFile imports the JSON catalog at path. Importing content that is
// already stored under the same source is a no-op.
func (c *Client) ImportFromFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read pass catalog: %w", err)
	}
	return c.Import(ctx, data, path)
}

// Import stores the JSON catalog in data, replacing any previous catalog.
func (c *Client) Import(ctx context.Context, data []byte, source string) error {
	logger := c.debugLogger().With(slog.String("source", source))
	start := time.Now()

	hash := sha256.Sum256(data)
	hashStr := hex.EncodeToString(hash[:])

	existing, err := c.getImportMetadata(ctx)
	switch {
	case err == nil:
		if existing.FileHash == hashStr && existing.FileSource == source {
			logging.LogOperation(logger, "pass_catalog_unchanged_skipping_import",
				slog.String("hash", hashStr[:8]))
			return nil
		}
		logging.LogOperation(logger, "pass_catalog_changed_reimporting",
			slog.String("old_hash", shortHash(existing.FileHash)),
			slog.String("new_hash", hashStr[:8]))
	case errors.Is(err, sql.ErrNoRows):
	default:
		return fmt.Errorf("error checking import metadata: %w", err)
	}

	var catalog catalogFile
	if err := json.Unmarshal(data, &catalog); err != nil {
		return fmt.Errorf("failed to parse pass catalog: %w", err)
	}
	if err := validator.New().Struct(catalog); err != nil {
		return fmt.Errorf("invalid pass catalog: %w", err)
	}
	seen := make(map[string]bool, len(catalog.Passes))
	for _, p := range catalog.Passes {
		if seen[p.ID] {
			return fmt.Errorf("invalid pass catalog: duplicate pass id %q", p.ID)
		}
		seen[p.ID] = true
	}

	if err := c.replaceCatalog(ctx, catalog, hashStr, source); err != nil {
		return err
	}

	logging.LogOperation(logger, "pass_catalog_import_completed",
		slog.Int("passes", len(catalog.Passes)),
		slog.Duration("duration", time.Since(start)))
	return nil
}

func (c *Client) replaceCatalog(ctx context.Context, catalog catalogFile, hash, source string) error {
	tx, err := c.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer logging.SafeRollbackWithLogging(tx, c.debugLogger(), "replace_pass_catalog")

	for _, stmt := range []string{"DELETE FROM pass_rules", "DELETE FROM passes", "DELETE FROM import_metadata"} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("error clearing pass catalog: %w", err)
		}
	}

	insertPass, err := tx.PrepareContext(ctx, "INSERT INTO passes (id, name, position) VALUES (?, ?, ?)")
	if err != nil {
		return err
	}
	defer logging.SafeCloseWithLogging(insertPass, c.debugLogger(), "insert_pass_stmt")

	insertRule, err := tx.PrepareContext(ctx,
		"INSERT INTO pass_rules (pass_id, kind, position, operator, line, service) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer logging.SafeCloseWithLogging(insertRule, c.debugLogger(), "insert_rule_stmt")

	for i, p := range catalog.Passes {
		if _, err := insertPass.ExecContext(ctx, p.ID, p.Name, i); err != nil {
			return fmt.Errorf("unable to create pass %s: %w", p.ID, err)
		}
		for kind, rules := range map[string][]ruleRecord{"include": p.Include, "exclude": p.Exclude} {
			for j, r := range rules {
				if _, err := insertRule.ExecContext(ctx, p.ID, kind, j, r.Operator, r.Line, r.Service); err != nil {
					return fmt.Errorf("unable to create %s rule for pass %s: %w", kind, p.ID, err)
				}
			}
		}
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO import_metadata (id, file_hash, file_source, pass_count, imported_at) VALUES (1, ?, ?, ?, ?)",
		hash, source, len(catalog.Passes), time.Now().Unix()); err != nil {
		return fmt.Errorf("unable to record import metadata: %w", err)
	}

	return tx.Commit()
}

func (c *Client) getImportMetadata(ctx context.Context) (importMetadata, error) {
	var m importMetadata
	err := c.DB.QueryRowContext(ctx,
		"SELECT file_hash, file_source FROM import_metadata WHERE id = 1").Scan(&m.FileHash, &m.FileSource)
	return m, err
}

func shortHash(h string) string {
	if len(h) > 8 {
		return h[:8]
	}
	return h
}
