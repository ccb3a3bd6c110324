package spatial

import (
	"sort"

	"github.com/tidwall/rtree"

	"railplanner.org/internal/geo"
)

// StationTree indexes station positions for bounding box listing.
type StationTree struct {
	tr rtree.RTreeG[string]
}

func (t *StationTree) Insert(stationID string, p geo.Point) {
	pt := [2]float64{p.Lon, p.Lat}
	t.tr.Insert(pt, pt, stationID)
}

func (t *StationTree) Len() int { return t.tr.Len() }

// InBounds returns the ids of stations inside b, sorted, at most limit of them
// when limit > 0.
func (t *StationTree) InBounds(b geo.Bounds, limit int) []string {
	var ids []string
	t.tr.Search(
		[2]float64{b.MinLon, b.MinLat},
		[2]float64{b.MaxLon, b.MaxLat},
		func(_, _ [2]float64, id string) bool {
			ids = append(ids, id)
			return true
		},
	)
	sort.Strings(ids)
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids
}
