package passdb

import (
	"context"
	"fmt"

	"railplanner.org/internal/pass"
)

type storedRule struct {
	passID string
	kind   string
	rule   pass.Rule
}

// LoadCatalog reads every stored pass with its rules, in import order.
func (c *Client) LoadCatalog(ctx context.Context) (*pass.Catalog, error) {
	passes, err := c.queryPasses(ctx)
	if err != nil {
		return nil, err
	}
	rules, err := c.queryRules(ctx)
	if err != nil {
		return nil, err
	}

	index := make(map[string]int, len(passes))
	for i, p := range passes {
		index[p.ID] = i
	}
	for _, r := range rules {
		i, ok := index[r.passID]
		if !ok {
			continue
		}
		if r.kind == "exclude" {
			passes[i].Exclude = append(passes[i].Exclude, r.rule)
		} else {
			passes[i].Include = append(passes[i].Include, r.rule)
		}
	}

	return pass.NewCatalog(passes), nil
}

// Each query drains and closes its rows before returning; an in-memory
// database has a single connection.
func (c *Client) queryPasses(ctx context.Context) ([]pass.Pass, error) {
	rows, err := c.DB.QueryContext(ctx, "SELECT id, name FROM passes ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("failed to query passes: %w", err)
	}
	defer closeRows(rows, c.debugLogger())

	var passes []pass.Pass
	for rows.Next() {
		var p pass.Pass
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, fmt.Errorf("failed to scan pass: %w", err)
		}
		passes = append(passes, p)
	}
	return passes, rows.Err()
}

func (c *Client) queryRules(ctx context.Context) ([]storedRule, error) {
	rows, err := c.DB.QueryContext(ctx,
		"SELECT pass_id, kind, operator, line, service FROM pass_rules ORDER BY pass_id, kind, position")
	if err != nil {
		return nil, fmt.Errorf("failed to query pass rules: %w", err)
	}
	defer closeRows(rows, c.debugLogger())

	var rules []storedRule
	for rows.Next() {
		var r storedRule
		if err := rows.Scan(&r.passID, &r.kind, &r.rule.Operator, &r.rule.Line, &r.rule.Service); err != nil {
			return nil, fmt.Errorf("failed to scan pass rule: %w", err)
		}
		rules = append(rules, r)
	}
	return rules, rows.Err()
}
