// Package planner composes multi-leg rail routes: it resolves waypoints,
// runs the pathfinder leg by leg under the selected pass restrictions, and
// turns the paths into line segments, transfers and fare/time totals.
package planner

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bluele/gcache"

	"railplanner.org/internal/cost"
	"railplanner.org/internal/graph"
	"railplanner.org/internal/logging"
	"railplanner.org/internal/pass"
	"railplanner.org/internal/pathfind"
)

type Config struct {
	Cost                  cost.Model
	OperatorChangePenalty float64
	LineChangePenalty     float64
	// TransferResolveRadius bounds the station lookup for transfer nodes
	// that are not station nodes themselves.
	TransferResolveRadius float64
	// CacheSize is the number of results kept; zero disables caching.
	CacheSize     int
	CheckInterval int
}

func DefaultConfig() Config {
	return Config{
		Cost:                  cost.DefaultModel(),
		OperatorChangePenalty: 500,
		LineChangePenalty:     200,
		TransferResolveRadius: 180,
		CacheSize:             512,
	}
}

// Planner is safe for concurrent use.
type Planner struct {
	graphs  *graph.Provider
	catalog *pass.Catalog
	config  Config
	cache   gcache.Cache
	logger  *slog.Logger
}

func New(graphs *graph.Provider, catalog *pass.Catalog, config Config, logger *slog.Logger) *Planner {
	if logger == nil {
		logger = slog.Default()
	}
	if catalog == nil {
		catalog = pass.NewCatalog(nil)
	}
	p := &Planner{
		graphs:  graphs,
		catalog: catalog,
		config:  config,
		logger:  logger.With(slog.String("component", "planner")),
	}
	if config.CacheSize > 0 {
		p.cache = gcache.New(config.CacheSize).LRU().Build()
	}
	return p
}

func (p *Planner) Catalog() *pass.Catalog { return p.catalog }

// FindRoute plans req. Input problems are reported as errors wrapping
// ErrUnknownStation, pass.ErrUnknownPass or cost.ErrInvalidPriority before any
// search runs; an unreachable leg yields a *NoPathError.
func (p *Planner) FindRoute(ctx context.Context, req Request) (*Result, error) {
	priority, err := cost.ParsePriority(req.Priority)
	if err != nil {
		return nil, err
	}
	passes, err := p.catalog.Resolve(req.PassIDs)
	if err != nil {
		return nil, err
	}

	g, err := p.graphs.Get(ctx)
	if err != nil {
		return nil, err
	}

	waypoints := req.Waypoints()
	stations := make([]graph.Station, len(waypoints))
	for i, id := range waypoints {
		s, ok := g.Station(id)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownStation, id)
		}
		stations[i] = s
	}

	key := cacheKey(priority, waypoints, req.PassIDs)
	if p.cache != nil {
		if cached, err := p.cache.Get(key); err == nil {
			hit := *cached.(*Result)
			hit.Expansions = 0
			hit.Cached = true
			return &hit, nil
		}
	}

	c := &composer{
		graph:         g,
		model:         p.config.Cost,
		resolveRadius: p.config.TransferResolveRadius,
		seenTransfers: make(map[string]bool),
		seenStations:  make(map[string]bool),
		seenOperators: make(map[string]bool),
	}
	opts := pathfind.Options{
		Cost:                  p.config.Cost.For(priority),
		Admit:                 pass.Compile(passes),
		OperatorChangePenalty: p.config.OperatorChangePenalty,
		LineChangePenalty:     p.config.LineChangePenalty,
		CheckInterval:         p.config.CheckInterval,
	}

	for i := 0; i+1 < len(stations); i++ {
		from, to := stations[i], stations[i+1]
		c.addStation(from.ID)
		if from.Node == to.Node {
			continue
		}

		path, err := p.searchLeg(ctx, g, from, to, opts, len(passes) == 0)
		if err != nil {
			return nil, err
		}
		c.addLeg(i, from.ID, to.ID, path)
	}
	c.addStation(stations[len(stations)-1].ID)

	result := c.result()
	if len(passes) > 0 {
		result.Summary.Passes = pass.Names(passes)
	} else {
		result.Summary.Passes = pass.Names(p.catalog.Suggest(result.Summary.Operators))
	}

	if p.cache != nil {
		if err := p.cache.Set(key, result); err != nil {
			logging.LogError(p.logger, "Failed to cache route", err)
		}
	}
	return result, nil
}

func (p *Planner) searchLeg(ctx context.Context, g *graph.Graph, from, to graph.Station, opts pathfind.Options, noPasses bool) (pathfind.Path, error) {
	path, err := pathfind.Search(ctx, g, from.Node, to.Node, opts)
	if err != nil {
		return pathfind.Path{}, err
	}

	if !path.Found() && noPasses {
		expansions := path.Expansions
		opts.Admit = pass.AdmitAll
		path, err = pathfind.Search(ctx, g, from.Node, to.Node, opts)
		if err != nil {
			return pathfind.Path{}, err
		}
		path.Expansions += expansions
		if path.Found() {
			logging.LogOperation(p.logger, "route_leg_unrestricted_fallback",
				slog.String("from", from.ID),
				slog.String("to", to.ID))
		}
	}

	if !path.Found() {
		return pathfind.Path{}, &NoPathError{From: from.ID, To: to.ID}
	}
	return path, nil
}

func cacheKey(priority cost.Priority, waypoints, passIDs []string) string {
	var b strings.Builder
	b.WriteString(string(priority))
	b.WriteByte('|')
	b.WriteString(strings.Join(waypoints, "\x1f"))
	b.WriteByte('|')
	b.WriteString(strings.Join(passIDs, "\x1f"))
	return b.String()
}
