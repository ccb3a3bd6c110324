// Package pass models fare passes and turns a selection of them into a single
// edge admissibility predicate for the pathfinder.
package pass

import (
	"errors"
	"fmt"
)

var ErrUnknownPass = errors.New("unknown pass id")

// Rule selects edges by operator and optionally by line and service class.
// An empty Operator matches any operator; "JR" matches every JR-family
// operator.
type Rule struct {
	Operator string `json:"operator"`
	Line     string `json:"line,omitempty"`
	Service  string `json:"service,omitempty"`
}

type Pass struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Include []Rule `json:"include"`
	Exclude []Rule `json:"exclude,omitempty"`
}

// Catalog is an ordered, read-only set of passes.
type Catalog struct {
	passes []Pass
	byID   map[string]int
}

// NewCatalog keeps the first pass for each id.
func NewCatalog(passes []Pass) *Catalog {
	c := &Catalog{byID: make(map[string]int, len(passes))}
	for _, p := range passes {
		if _, dup := c.byID[p.ID]; dup {
			continue
		}
		c.byID[p.ID] = len(c.passes)
		c.passes = append(c.passes, p)
	}
	return c
}

func (c *Catalog) Len() int { return len(c.passes) }

// All returns the passes in catalog order.
func (c *Catalog) All() []Pass {
	out := make([]Pass, len(c.passes))
	copy(out, c.passes)
	return out
}

func (c *Catalog) Get(id string) (Pass, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Pass{}, false
	}
	return c.passes[i], true
}

// Resolve looks up every id, failing with ErrUnknownPass on the first miss.
func (c *Catalog) Resolve(ids []string) ([]Pass, error) {
	out := make([]Pass, 0, len(ids))
	for _, id := range ids {
		p, ok := c.Get(id)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownPass, id)
		}
		out = append(out, p)
	}
	return out, nil
}

// Suggest returns, in catalog order, the passes whose include rules cover
// every operator in operators. No operators means no suggestion.
func (c *Catalog) Suggest(operators []string) []Pass {
	if len(operators) == 0 {
		return nil
	}
	var out []Pass
	for _, p := range c.passes {
		if p.covers(operators) {
			out = append(out, p)
		}
	}
	return out
}

func (p Pass) covers(operators []string) bool {
	for _, op := range operators {
		covered := false
		for _, r := range p.Include {
			if r.matchesOperator(op) {
				covered = true
				break
			}
		}
		if !covered {
			return false
		}
	}
	return true
}

func Names(passes []Pass) []string {
	names := make([]string, len(passes))
	for i, p := range passes {
		names[i] = p.Name
	}
	return names
}
