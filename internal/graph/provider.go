package graph

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"railplanner.org/internal/logging"
)

// LoadFunc produces a freshly built graph.
type LoadFunc func(ctx context.Context) (*Graph, error)

// Provider builds the graph on first use and shares it for the lifetime of
// the process. Concurrent first callers block on the same build; a failed
// build is not cached, so the next caller retries.
type Provider struct {
	load   LoadFunc
	logger *slog.Logger

	// OnBuilt, when set, is called once after a successful build.
	OnBuilt func(g *Graph, elapsed time.Duration)

	mu      sync.Mutex
	current atomic.Pointer[Graph]
}

func NewProvider(load LoadFunc, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{
		load:   load,
		logger: logger.With(slog.String("component", "graph_provider")),
	}
}

// NewStaticProvider returns a provider that serves g without building.
func NewStaticProvider(g *Graph) *Provider {
	p := NewProvider(func(context.Context) (*Graph, error) { return g, nil }, nil)
	p.current.Store(g)
	return p
}

// Get returns the graph, building it if this is the first call.
func (p *Provider) Get(ctx context.Context) (*Graph, error) {
	if g := p.current.Load(); g != nil {
		return g, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if g := p.current.Load(); g != nil {
		return g, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	g, err := p.load(ctx)
	if err != nil {
		logging.LogError(p.logger, "Failed to build rail graph", err)
		return nil, fmt.Errorf("failed to build graph: %w", err)
	}
	elapsed := time.Since(start)

	stats := g.Stats()
	logging.LogOperation(p.logger, "graph_built",
		slog.Int("nodes", stats.Nodes),
		slog.Int("rail_edges", stats.RailEdges),
		slog.Int("transfer_edges", stats.TransferEdges),
		slog.Int("stations", stats.Stations),
		slog.Duration("elapsed", elapsed))

	p.current.Store(g)
	if p.OnBuilt != nil {
		p.OnBuilt(g, elapsed)
	}
	return g, nil
}

// Ready reports whether the graph has been built, without triggering a build.
func (p *Provider) Ready() bool {
	return p.current.Load() != nil
}
