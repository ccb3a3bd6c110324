// Package cost maps travelled distance to estimated fare and travel time and
// selects the quantity the pathfinder minimizes.
package cost

import (
	"errors"
	"fmt"
	"strings"
)

type Priority string

const (
	Optimal  Priority = "optimal" // shortest distance
	Cheapest Priority = "cost"
	Fastest  Priority = "time"
)

var ErrInvalidPriority = errors.New("invalid priority")

// ParsePriority accepts "optimal", "cost" and "time", case-insensitively. An
// empty string means Optimal.
func ParsePriority(s string) (Priority, error) {
	switch p := Priority(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return Optimal, nil
	case Optimal, Cheapest, Fastest:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPriority, s)
	}
}

// Func converts an edge length in meters into search cost.
type Func func(meters float64) float64

type Model struct {
	BaseFare        float64
	CostPerKm       float64
	AverageSpeedKmh float64
}

func DefaultModel() Model {
	return Model{BaseFare: 150, CostPerKm: 20, AverageSpeedKmh: 40}
}

// Fare is a flat base fare plus a per kilometre rate.
func (m Model) Fare(meters float64) float64 {
	return m.BaseFare + m.CostPerKm*meters/1000
}

// Time is the travel time in minutes at the average speed.
func (m Model) Time(meters float64) float64 {
	return (meters / 1000) / m.AverageSpeedKmh * 60
}

func distance(meters float64) float64 { return meters }

// For returns the per-edge cost function for p. Unknown priorities fall back
// to distance; validate with ParsePriority first.
func (m Model) For(p Priority) Func {
	switch p {
	case Cheapest:
		return m.Fare
	case Fastest:
		return m.Time
	default:
		return distance
	}
}
