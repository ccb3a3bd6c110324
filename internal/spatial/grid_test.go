package spatial

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"railplanner.org/internal/geo"
)

// metersPerDegreeLat is the haversine length of one degree of latitude.
const metersPerDegreeLat = geo.EarthRadiusMeters * math.Pi / 180

func north(p geo.Point, meters float64) geo.Point {
	return geo.Point{Lon: p.Lon, Lat: p.Lat + meters/metersPerDegreeLat}
}

func east(p geo.Point, meters float64) geo.Point {
	return geo.Point{Lon: p.Lon + meters/(metersPerDegreeLat*math.Cos(p.Lat*math.Pi/180)), Lat: p.Lat}
}

func TestGrid_Empty(t *testing.T) {
	g := NewGrid(0.01, 10)

	_, ok := g.Nearest(geo.Point{Lon: 139.7, Lat: 35.6})
	assert.False(t, ok)
	assert.Empty(t, g.WithinRadius(geo.Point{Lon: 139.7, Lat: 35.6}, 1000))
	assert.Equal(t, 0, g.Len())
}

func TestGrid_Nearest(t *testing.T) {
	t.Run("same cell", func(t *testing.T) {
		g := NewGrid(0.01, 10)
		g.Insert(1, geo.Point{Lon: 139.7001, Lat: 35.6001})
		g.Insert(2, geo.Point{Lon: 139.7008, Lat: 35.6008})

		id, ok := g.Nearest(geo.Point{Lon: 139.7007, Lat: 35.6007})
		require.True(t, ok)
		assert.Equal(t, 2, id)
	})

	t.Run("closer candidate in the next ring wins", func(t *testing.T) {
		g := NewGrid(0.01, 10)
		g.Insert(1, geo.Point{Lon: 139.0001, Lat: 35.0099}) // same cell as the query, far corner
		g.Insert(2, geo.Point{Lon: 139.0101, Lat: 35.0050}) // neighbouring cell, about 18 m away

		id, ok := g.Nearest(geo.Point{Lon: 139.0099, Lat: 35.0050})
		require.True(t, ok)
		assert.Equal(t, 2, id)
	})

	t.Run("expands several rings", func(t *testing.T) {
		g := NewGrid(0.01, 10)
		g.Insert(5, geo.Point{Lon: 139.045, Lat: 35.005})

		id, ok := g.Nearest(geo.Point{Lon: 139.005, Lat: 35.005})
		require.True(t, ok)
		assert.Equal(t, 5, id)
	})

	t.Run("falls back to exhaustive scan beyond max rings", func(t *testing.T) {
		g := NewGrid(0.01, 2)
		g.Insert(9, geo.Point{Lon: 141.0, Lat: 38.0})
		g.Insert(4, geo.Point{Lon: 135.5, Lat: 34.7})

		id, ok := g.Nearest(geo.Point{Lon: 139.7, Lat: 35.6})
		require.True(t, ok)
		assert.Equal(t, 9, id, "Sendai is closer to Tokyo than Osaka")
	})

	t.Run("ties resolve to the first inserted id", func(t *testing.T) {
		g := NewGrid(0.01, 10)
		p := geo.Point{Lon: 139.7003, Lat: 35.6003}
		g.Insert(7, p)
		g.Insert(3, p)

		for i := 0; i < 5; i++ {
			id, ok := g.Nearest(geo.Point{Lon: 139.7004, Lat: 35.6004})
			require.True(t, ok)
			assert.Equal(t, 7, id)
		}
	})
}

func TestGrid_NearestNaN(t *testing.T) {
	g := NewGrid(0.01, 2)
	g.Insert(1, geo.Point{Lon: 139.7001, Lat: 35.6001})

	_, ok := g.Nearest(geo.Point{Lon: math.NaN(), Lat: math.NaN()})
	assert.False(t, ok)
}

func TestGrid_WithinRadius(t *testing.T) {
	origin := geo.Point{Lon: 139.7005, Lat: 35.6005}

	t.Run("filters by exact distance", func(t *testing.T) {
		g := NewGrid(0.01, 10)
		g.Insert(0, origin)
		g.Insert(1, north(origin, 100))
		g.Insert(2, east(origin, 200))
		g.Insert(3, north(origin, 300))
		g.Insert(4, east(origin, -219))

		ids := g.WithinRadius(origin, 220)
		assert.ElementsMatch(t, []int{0, 1, 2, 4}, ids)
	})

	t.Run("deterministic order", func(t *testing.T) {
		g := NewGrid(0.001, 10)
		for i := 0; i < 20; i++ {
			g.Insert(i, east(origin, float64(i*10-100)))
		}
		first := g.WithinRadius(origin, 150)
		for i := 0; i < 5; i++ {
			assert.Equal(t, first, g.WithinRadius(origin, 150))
		}
		assert.Len(t, first, 20)
	})

	t.Run("longitude range widens at high latitude", func(t *testing.T) {
		g := NewGrid(0.01, 10)
		arctic := geo.Point{Lon: 20.005, Lat: 70.0}
		g.Insert(1, east(arctic, 900))

		assert.Equal(t, []int{1}, g.WithinRadius(arctic, 1000))
	})

	t.Run("negative radius", func(t *testing.T) {
		g := NewGrid(0.01, 10)
		g.Insert(1, origin)
		assert.Empty(t, g.WithinRadius(origin, -1))
	})
}

func TestStationTree_InBounds(t *testing.T) {
	var tree StationTree
	tree.Insert("tokyo", geo.Point{Lon: 139.7671, Lat: 35.6812})
	tree.Insert("shinjuku", geo.Point{Lon: 139.7006, Lat: 35.6896})
	tree.Insert("osaka", geo.Point{Lon: 135.4959, Lat: 34.7025})
	require.Equal(t, 3, tree.Len())

	tokyoArea := geo.Bounds{MinLat: 35.5, MaxLat: 35.8, MinLon: 139.5, MaxLon: 139.9}
	assert.Equal(t, []string{"shinjuku", "tokyo"}, tree.InBounds(tokyoArea, 0))
	assert.Equal(t, []string{"shinjuku"}, tree.InBounds(tokyoArea, 1))

	empty := geo.Bounds{MinLat: 0, MaxLat: 1, MinLon: 0, MaxLon: 1}
	assert.Empty(t, tree.InBounds(empty, 0))
}
