// Package spatial provides the two position indexes of the routing core: a
// uniform lon/lat grid for nearest and radius queries over graph nodes, and an
// R-tree over stations for bounding box listing.
package spatial

import (
	"math"

	"railplanner.org/internal/geo"
)

type cellKey struct {
	x, y int
}

type entry struct {
	id  int
	pos geo.Point
}

// Grid buckets ids into square lon/lat cells of cellSize degrees. Every
// inserted id lives in exactly one cell, derived from its position.
// Grid is not safe for concurrent mutation; concurrent reads are fine once
// construction has finished.
type Grid struct {
	cellSize float64
	maxRings int
	cells    map[cellKey][]entry
	all      []entry
}

func NewGrid(cellSize float64, maxRings int) *Grid {
	return &Grid{
		cellSize: cellSize,
		maxRings: maxRings,
		cells:    make(map[cellKey][]entry),
	}
}

func (g *Grid) Len() int { return len(g.all) }

func (g *Grid) cellOf(p geo.Point) cellKey {
	return cellKey{
		x: int(math.Floor(p.Lon / g.cellSize)),
		y: int(math.Floor(p.Lat / g.cellSize)),
	}
}

// Insert adds id at position p. Inserting the same id twice indexes it twice;
// callers insert each id once.
func (g *Grid) Insert(id int, p geo.Point) {
	e := entry{id: id, pos: p}
	key := g.cellOf(p)
	g.cells[key] = append(g.cells[key], e)
	g.all = append(g.all, e)
}

// Nearest returns the id closest to p. Rings of cells around p's cell are
// searched outward; once a ring yields a candidate, one more ring is examined
// because a point in the next ring can still be closer than a point in a
// corner of the current one. Past maxRings the whole index is scanned.
// ok is false when the grid is empty or p is not a comparable position.
func (g *Grid) Nearest(p geo.Point) (id int, ok bool) {
	if len(g.all) == 0 {
		return 0, false
	}

	center := g.cellOf(p)
	best := -1
	bestDist := math.Inf(1)
	consider := func(e entry) {
		if d := geo.Haversine(p, e.pos); d < bestDist {
			best, bestDist = e.id, d
		}
	}

	found := -1
	for r := 0; ; r++ {
		if found < 0 && r > g.maxRings {
			break
		}
		g.visitRing(center, r, consider)
		if found >= 0 {
			break
		}
		if best >= 0 {
			found = r
		}
	}

	if best < 0 {
		for _, e := range g.all {
			consider(e)
		}
	}
	if best < 0 {
		return 0, false
	}
	return best, true
}

// visitRing calls fn for every entry in the cells at Chebyshev distance r
// from center, in a fixed column-major order.
func (g *Grid) visitRing(center cellKey, r int, fn func(entry)) {
	for dx := -r; dx <= r; dx++ {
		for dy := -r; dy <= r; dy++ {
			if r > 0 && dx != -r && dx != r && dy != -r && dy != r {
				continue
			}
			for _, e := range g.cells[cellKey{center.x + dx, center.y + dy}] {
				fn(e)
			}
		}
	}
}

// WithinRadius returns the ids whose haversine distance to p is at most
// meters, in cell-scan then insertion order. The latitude cell range uses
// 1 degree = 111,320 m; the longitude range is widened by 1/cos(lat) so the
// scanned box covers the circle away from the equator.
func (g *Grid) WithinRadius(p geo.Point, meters float64) []int {
	if meters < 0 || len(g.all) == 0 {
		return nil
	}

	latRange := int(math.Ceil(meters / geo.MetersPerDegree / g.cellSize))
	cosLat := math.Cos(p.Lat * math.Pi / 180)
	if cosLat < 0.01 {
		cosLat = 0.01
	}
	lonRange := int(math.Ceil(meters / (geo.MetersPerDegree * cosLat) / g.cellSize))

	center := g.cellOf(p)
	var ids []int
	for dx := -lonRange; dx <= lonRange; dx++ {
		for dy := -latRange; dy <= latRange; dy++ {
			for _, e := range g.cells[cellKey{center.x + dx, center.y + dy}] {
				if geo.Haversine(p, e.pos) <= meters {
					ids = append(ids, e.id)
				}
			}
		}
	}
	return ids
}
