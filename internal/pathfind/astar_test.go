package pathfind

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"railplanner.org/internal/cost"
	"railplanner.org/internal/geo"
	"railplanner.org/internal/graph"
	"railplanner.org/internal/ingest"
)

const metersPerDegree = geo.EarthRadiusMeters * math.Pi / 180

var origin = geo.Point{Lon: 139.0, Lat: 35.0}

// at places a point x meters east and y meters north of origin.
func at(x, y float64) geo.Point {
	return geo.Point{
		Lon: origin.Lon + x/(metersPerDegree*math.Cos(origin.Lat*math.Pi/180)),
		Lat: origin.Lat + y/metersPerDegree,
	}
}

func track(operator, line string, pts ...geo.Point) ingest.Track {
	return ingest.Track{Operator: operator, Line: line, Coords: pts}
}

func node(t *testing.T, g *graph.Graph, p geo.Point) graph.NodeID {
	t.Helper()
	n, ok := g.NearestNode(p)
	require.True(t, ok)
	require.Equal(t, p, g.Position(n))
	return n
}

func build(tracks ...ingest.Track) *graph.Graph {
	return graph.Build(&ingest.Dataset{Tracks: tracks}, graph.DefaultOptions())
}

func TestSearch_StraightLine(t *testing.T) {
	g := build(track("A", "L1", at(0, 0), at(1000, 0), at(2000, 0)))
	start, goal := node(t, g, at(0, 0)), node(t, g, at(2000, 0))

	path, err := Search(context.Background(), g, start, goal, DefaultOptions())
	require.NoError(t, err)
	require.True(t, path.Found())

	assert.Equal(t, []graph.NodeID{start, node(t, g, at(1000, 0)), goal}, path.Nodes)
	require.Len(t, path.Edges, 2)
	assert.InDelta(t, 2000, path.Distance(), 1)
	assert.InDelta(t, 2000, path.Cost, 1)
	assert.Greater(t, path.Expansions, 0)
}

func TestSearch_StartIsGoal(t *testing.T) {
	g := build(track("A", "L1", at(0, 0), at(1000, 0)))
	n := node(t, g, at(0, 0))

	path, err := Search(context.Background(), g, n, n, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, []graph.NodeID{n}, path.Nodes)
	assert.Empty(t, path.Edges)
	assert.Zero(t, path.Distance())
}

func TestSearch_PicksShorterBranch(t *testing.T) {
	g := build(
		track("A", "L1", at(0, 0), at(1000, 800), at(2000, 0)),
		track("A", "L1", at(0, 0), at(1000, 100), at(2000, 0)),
	)
	start, goal := node(t, g, at(0, 0)), node(t, g, at(2000, 0))

	path, err := Search(context.Background(), g, start, goal, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, node(t, g, at(1000, 100)), path.Nodes[1])
}

func TestSearch_ChangePenalties(t *testing.T) {
	// The southern route is about 290 m shorter but changes operator and line.
	g := build(
		track("A", "L1", at(0, 0), at(1000, 600), at(2000, 0)),
		track("A", "L1", at(0, 0), at(1000, -200)),
		track("B", "L2", at(1000, -200), at(2000, 0)),
	)
	start, goal := node(t, g, at(0, 0)), node(t, g, at(2000, 0))
	north, south := node(t, g, at(1000, 600)), node(t, g, at(1000, -200))

	t.Run("penalties keep the search on one line", func(t *testing.T) {
		path, err := Search(context.Background(), g, start, goal, DefaultOptions())
		require.NoError(t, err)
		assert.Equal(t, []graph.NodeID{start, north, goal}, path.Nodes)
	})

	t.Run("without penalties the shorter route wins", func(t *testing.T) {
		opts := DefaultOptions()
		opts.OperatorChangePenalty = 0
		opts.LineChangePenalty = 0

		path, err := Search(context.Background(), g, start, goal, opts)
		require.NoError(t, err)
		assert.Equal(t, []graph.NodeID{start, south, goal}, path.Nodes)
		assert.Equal(t, "B", path.Edges[1].Operator)
	})

	t.Run("penalties are added to the path cost", func(t *testing.T) {
		opts := DefaultOptions()
		opts.Admit = func(e graph.Edge) bool { return e.To != north }

		path, err := Search(context.Background(), g, start, goal, opts)
		require.NoError(t, err)
		assert.InDelta(t, path.Distance()+700, path.Cost, 1e-6)
	})
}

func TestSearch_AdmitPredicate(t *testing.T) {
	g := build(
		track("A", "Local", at(0, 0), at(1000, 0)),
		track("A", "Express Shinkansen", at(1000, 0), at(2000, 0)),
	)
	start, goal := node(t, g, at(0, 0)), node(t, g, at(2000, 0))

	opts := DefaultOptions()
	opts.Admit = func(e graph.Edge) bool { return e.Line != "Express Shinkansen" }

	path, err := Search(context.Background(), g, start, goal, opts)
	require.NoError(t, err)
	assert.False(t, path.Found())
	assert.Empty(t, path.Edges)
}

func TestSearch_Disconnected(t *testing.T) {
	g := build(
		track("A", "L1", at(0, 0), at(1000, 0)),
		track("B", "L2", at(5000, 0), at(6000, 0)),
	)

	path, err := Search(context.Background(), g, node(t, g, at(0, 0)), node(t, g, at(6000, 0)), DefaultOptions())
	require.NoError(t, err)
	assert.False(t, path.Found())
}

func TestSearch_ContextCanceled(t *testing.T) {
	g := build(track("A", "L1", at(0, 0), at(1000, 0), at(2000, 0)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	opts := DefaultOptions()
	opts.CheckInterval = 1
	_, err := Search(ctx, g, node(t, g, at(0, 0)), node(t, g, at(2000, 0)), opts)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSearch_CostFunctionDrivesSearch(t *testing.T) {
	// A straight run of six short hops against a two-hop detour: the detour is
	// longer in meters but cheaper in fares because every edge carries the
	// base fare.
	g := build(
		track("A", "L1", at(0, 0), at(500, 0), at(1000, 0), at(1500, 0), at(2000, 0), at(2500, 0), at(3000, 0)),
		track("A", "L1", at(0, 0), at(2500, 1000), at(3000, 0)),
	)
	start, goal := node(t, g, at(0, 0)), node(t, g, at(3000, 0))
	model := cost.DefaultModel()

	optimal := DefaultOptions()
	optimal.Cost = model.For(cost.Optimal)
	shortest, err := Search(context.Background(), g, start, goal, optimal)
	require.NoError(t, err)
	assert.Len(t, shortest.Edges, 6)

	cheapest := DefaultOptions()
	cheapest.Cost = model.For(cost.Cheapest)
	cheap, err := Search(context.Background(), g, start, goal, cheapest)
	require.NoError(t, err)
	assert.Len(t, cheap.Edges, 2)

	assert.Less(t, shortest.Distance(), cheap.Distance())

	fare := func(p Path) float64 {
		var f float64
		for _, e := range p.Edges {
			f += model.Fare(e.Distance)
		}
		return f
	}
	assert.Less(t, fare(cheap), fare(shortest))
	assert.InDelta(t, fare(cheap), cheap.Cost, 1e-9)
}

// The heuristic is in meters while fare costs are in yen, so for the fare
// priority the search behaves close to greedy best-first and may settle for a
// dearer path. This pins that known approximation down.
func TestSearch_FarePriorityIsAnApproximation(t *testing.T) {
	g := build(
		track("A", "L1", at(0, 0), at(1500, -50), at(3000, 0)),
		track("A", "L1", at(0, 0), at(2500, 1000), at(3000, 0)),
	)
	start, goal := node(t, g, at(0, 0)), node(t, g, at(3000, 0))
	model := cost.DefaultModel()

	opts := DefaultOptions()
	opts.Cost = model.For(cost.Cheapest)
	path, err := Search(context.Background(), g, start, goal, opts)
	require.NoError(t, err)

	require.Len(t, path.Nodes, 3)
	assert.Equal(t, node(t, g, at(2500, 1000)), path.Nodes[1])

	cheaper := 2*model.BaseFare + model.CostPerKm*(geo.Haversine(at(0, 0), at(1500, -50))+geo.Haversine(at(1500, -50), at(3000, 0)))/1000
	assert.Greater(t, path.Cost, cheaper)
}
