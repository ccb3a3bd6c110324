package graph

import (
	"math"

	"railplanner.org/internal/geo"
	"railplanner.org/internal/ingest"
	"railplanner.org/internal/spatial"
)

type Options struct {
	CellSize       float64 // grid cell size in degrees
	MaxRings       int
	TransferRadius float64 // meters
}

func DefaultOptions() Options {
	return Options{
		CellSize:       0.01,
		MaxRings:       50,
		TransferRadius: 220,
	}
}

type builder struct {
	g     *Graph
	index map[geo.Point]NodeID
}

// Build constructs the graph from ingested tracks and stations.
//
// Nodes are identified by exact coordinate equality. Each consecutive pair of
// track coordinates yields a rail edge in both directions. Stations snap to
// their nearest node; afterwards every pair of distinct station nodes within
// TransferRadius of a station's raw position is joined by a transfer edge pair
// weighing max(1, distance). Stations whose id was already seen are ignored,
// and so are all stations when there are no tracks.
func Build(ds *ingest.Dataset, opts Options) *Graph {
	b := &builder{
		g: &Graph{
			stations:     make(map[string]*Station),
			nodeStations: make(map[NodeID][]string),
			nodeIndex:    spatial.NewGrid(opts.CellSize, opts.MaxRings),
			stationIndex: spatial.NewGrid(opts.CellSize, opts.MaxRings),
		},
		index: make(map[geo.Point]NodeID),
	}

	for _, t := range ds.Tracks {
		b.addTrack(t)
	}
	// The coordinate table is only needed while tracks are being added.
	b.index = nil

	for _, s := range ds.Stations {
		b.addStation(s)
	}
	b.synthesizeTransfers(opts.TransferRadius)

	b.g.stats.Nodes = len(b.g.positions)
	b.g.stats.Stations = len(b.g.stationOrder)
	b.g.stats.StationNodes = len(b.g.nodeStations)
	return b.g
}

func (b *builder) node(p geo.Point) NodeID {
	if id, ok := b.index[p]; ok {
		return id
	}
	id := NodeID(len(b.g.positions))
	b.g.positions = append(b.g.positions, p)
	b.g.adjacency = append(b.g.adjacency, nil)
	b.index[p] = id
	b.g.nodeIndex.Insert(int(id), p)
	return id
}

func (b *builder) addTrack(t ingest.Track) {
	for i := 0; i+1 < len(t.Coords); i++ {
		from := b.node(t.Coords[i])
		to := b.node(t.Coords[i+1])
		if from == to {
			continue
		}
		d := geo.Haversine(t.Coords[i], t.Coords[i+1])
		b.g.adjacency[from] = append(b.g.adjacency[from], Edge{To: to, Distance: d, Kind: Rail, Operator: t.Operator, Line: t.Line})
		b.g.adjacency[to] = append(b.g.adjacency[to], Edge{To: from, Distance: d, Kind: Rail, Operator: t.Operator, Line: t.Line})
		b.g.stats.RailEdges += 2
	}
}

func (b *builder) addStation(s ingest.Station) {
	if _, dup := b.g.stations[s.ID]; dup {
		return
	}
	n, ok := b.g.NearestNode(s.Position)
	if !ok {
		return
	}

	b.g.stations[s.ID] = &Station{ID: s.ID, Name: s.Name, Position: s.Position, Node: n}
	b.g.stationOrder = append(b.g.stationOrder, s.ID)
	b.g.stationTree.Insert(s.ID, s.Position)

	if len(b.g.nodeStations[n]) == 0 {
		b.g.stationIndex.Insert(int(n), b.g.positions[n])
	}
	b.g.nodeStations[n] = append(b.g.nodeStations[n], s.ID)
}

type nodePair struct{ a, b NodeID }

func (b *builder) synthesizeTransfers(radius float64) {
	linked := make(map[nodePair]bool)
	for _, id := range b.g.stationOrder {
		s := b.g.stations[id]
		for _, other := range b.g.StationNodesWithin(s.Position, radius) {
			if other == s.Node {
				continue
			}
			key := nodePair{min(s.Node, other), max(s.Node, other)}
			if linked[key] {
				continue
			}
			linked[key] = true

			d := math.Max(1, geo.Haversine(b.g.positions[s.Node], b.g.positions[other]))
			b.g.adjacency[s.Node] = append(b.g.adjacency[s.Node], Edge{To: other, Distance: d, Kind: Transfer})
			b.g.adjacency[other] = append(b.g.adjacency[other], Edge{To: s.Node, Distance: d, Kind: Transfer})
			b.g.stats.TransferEdges += 2
		}
	}
}
