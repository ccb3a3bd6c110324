package pass

import (
	"strings"

	"railplanner.org/internal/graph"
)

// Predicate reports whether an edge may be traversed.
type Predicate func(e graph.Edge) bool

// AdmitAll admits every edge.
func AdmitAll(graph.Edge) bool { return true }

// Compile combines the per-pass predicates of passes with a logical OR.
// Transfer edges are always admitted. With no passes, every rail edge except
// bullet lines is admitted.
func Compile(passes []Pass) Predicate {
	if len(passes) == 0 {
		return func(e graph.Edge) bool {
			return e.IsTransfer() || !IsBulletLine(e.Line)
		}
	}
	return func(e graph.Edge) bool {
		if e.IsTransfer() {
			return true
		}
		for i := range passes {
			if passes[i].Admits(e.Operator, e.Line) {
				return true
			}
		}
		return false
	}
}

// Admits applies a single pass to a rail edge: exclusions first, then the
// bullet line restriction, then the include rules.
func (p Pass) Admits(operator, line string) bool {
	for _, r := range p.Exclude {
		if r.matches(operator, line) {
			return false
		}
	}
	if IsBulletLine(line) && !p.includesBulletService() {
		return false
	}
	for _, r := range p.Include {
		if r.matches(operator, line) {
			return true
		}
	}
	return false
}

func (p Pass) includesBulletService() bool {
	for _, r := range p.Include {
		if isBulletService(r.Service) {
			return true
		}
	}
	return false
}

func (r Rule) matches(operator, line string) bool {
	if !r.matchesOperator(operator) {
		return false
	}
	if r.Line != "" && !strings.EqualFold(strings.TrimSpace(r.Line), strings.TrimSpace(line)) {
		return false
	}
	if r.Service != "" {
		if isBulletService(r.Service) {
			return IsBulletLine(line)
		}
		return strings.Contains(strings.ToLower(line), strings.ToLower(r.Service))
	}
	return true
}

func (r Rule) matchesOperator(operator string) bool {
	if r.Operator == "" {
		return true
	}
	want := NormalizeOperator(r.Operator)
	got := NormalizeOperator(operator)
	if want == "jr" {
		return IsJRFamily(got)
	}
	return want == got
}
