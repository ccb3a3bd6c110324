package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"railplanner.org/internal/appconf"
	"railplanner.org/internal/cost"
	"railplanner.org/internal/graph"
	"railplanner.org/internal/ingest"
	"railplanner.org/internal/metrics"
	"railplanner.org/internal/planner"
)

var ErrNoRailData = errors.New("no rail data configured: set tracks and stations, or gtfs")

// LoadDataset reads the rail network named by data. GeoJSON tracks take
// precedence over a GTFS feed.
func LoadDataset(data appconf.DataConfig) (*ingest.Dataset, string, error) {
	switch {
	case data.Tracks != "":
		ds, err := ingest.LoadGeoJSON(data.Tracks, data.Stations, data.Keys)
		return ds, data.Tracks, err
	case data.GTFS != "":
		ds, err := ingest.LoadGTFS(data.GTFS)
		return ds, data.GTFS, err
	default:
		return nil, "", ErrNoRailData
	}
}

func GraphOptions(routing appconf.RoutingConfig) graph.Options {
	return graph.Options{
		CellSize:       routing.GridCellSize,
		MaxRings:       routing.MaxRings,
		TransferRadius: routing.TransferRadius,
	}
}

func PlannerConfig(routing appconf.RoutingConfig) planner.Config {
	return planner.Config{
		Cost: cost.Model{
			BaseFare:        routing.Fare.Base,
			CostPerKm:       routing.Fare.PerKm,
			AverageSpeedKmh: routing.Speed.AverageKmh,
		},
		OperatorChangePenalty: routing.Penalties.OperatorChange,
		LineChangePenalty:     routing.Penalties.LineChange,
		TransferResolveRadius: routing.TransferResolveRadius,
		CacheSize:             routing.CacheSize,
	}
}

// NewGraphProvider returns a provider that ingests data and builds the graph
// on first use. Ingestion and build statistics go to logger and m.
func NewGraphProvider(data appconf.DataConfig, routing appconf.RoutingConfig, logger *slog.Logger, m *metrics.Metrics) *graph.Provider {
	opts := GraphOptions(routing)

	load := func(ctx context.Context) (*graph.Graph, error) {
		ds, source, err := LoadDataset(data)
		if err != nil {
			return nil, err
		}
		ds.LogStats(logger, source)
		if m != nil {
			m.AddIngestSkipped(ds.Stats.TracksSkipped, ds.Stats.StationsSkipped)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return graph.Build(ds, opts), nil
	}

	provider := graph.NewProvider(load, logger)
	if m != nil {
		provider.OnBuilt = func(g *graph.Graph, elapsed time.Duration) {
			s := g.Stats()
			m.ObserveGraph(s.Nodes, s.RailEdges, s.TransferEdges, elapsed)
		}
	}
	return provider
}
