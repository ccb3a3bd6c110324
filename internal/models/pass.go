package models

import "railplanner.org/internal/pass"

type PassRuleModel struct {
	Operator string `json:"operator"`
	Line     string `json:"line,omitempty"`
	Service  string `json:"service,omitempty"`
}

type PassModel struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Include []PassRuleModel `json:"include"`
	Exclude []PassRuleModel `json:"exclude"`
}

func NewPasses(passes []pass.Pass) []PassModel {
	out := make([]PassModel, len(passes))
	for i, p := range passes {
		out[i] = PassModel{
			ID:      p.ID,
			Name:    p.Name,
			Include: newRules(p.Include),
			Exclude: newRules(p.Exclude),
		}
	}
	return out
}

func newRules(rules []pass.Rule) []PassRuleModel {
	out := make([]PassRuleModel, len(rules))
	for i, r := range rules {
		out[i] = PassRuleModel{Operator: r.Operator, Line: r.Line, Service: r.Service}
	}
	return out
}
