// Package app holds the dependencies shared by the HTTP handlers, helpers
// and middleware.
package app

import (
	"log/slog"

	"railplanner.org/internal/appconf"
	"railplanner.org/internal/clock"
	"railplanner.org/internal/graph"
	"railplanner.org/internal/metrics"
	"railplanner.org/internal/passdb"
	"railplanner.org/internal/planner"
)

type Application struct {
	Config        appconf.Config
	DataConfig    appconf.DataConfig
	RoutingConfig appconf.RoutingConfig
	Logger        *slog.Logger
	Graphs        *graph.Provider
	Planner       *planner.Planner
	PassDB        *passdb.Client
	Clock         clock.Clock
	Metrics       *metrics.Metrics
}
