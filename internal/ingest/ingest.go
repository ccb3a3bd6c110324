// Package ingest turns raw rail geometry into track segments and station
// records. Ingestion is best effort: features that cannot be used are skipped
// and counted in Stats rather than failing the whole load.
package ingest

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"

	"railplanner.org/internal/geo"
	"railplanner.org/internal/logging"
)

// Track is one polyline of rail run by a single operator on a single line.
type Track struct {
	Operator string
	Line     string
	Coords   []geo.Point
}

type Station struct {
	ID       string
	Name     string
	Position geo.Point
}

type Stats struct {
	TracksRead      int
	TracksSkipped   int
	StationsRead    int
	StationsSkipped int
}

func (s Stats) Skipped() int { return s.TracksSkipped + s.StationsSkipped }

// Dataset is everything the graph builder needs.
type Dataset struct {
	Tracks   []Track
	Stations []Station
	Stats    Stats
}

// LogStats records the outcome of a load.
func (d *Dataset) LogStats(logger *slog.Logger, source string) {
	logging.LogOperation(logger, "rail_data_ingested",
		slog.String("source", source),
		slog.Int("tracks_read", d.Stats.TracksRead),
		slog.Int("tracks_skipped", d.Stats.TracksSkipped),
		slog.Int("stations_read", d.Stats.StationsRead),
		slog.Int("stations_skipped", d.Stats.StationsSkipped))
}

// readFile returns the contents of path, gunzipping files that end in .gz.
func readFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer logging.SafeCloseWithLogging(f, slog.Default(), path)

	var r io.Reader = f
	if strings.HasSuffix(strings.ToLower(path), ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("failed to open gzip stream %s: %w", path, err)
		}
		defer logging.SafeCloseWithLogging(gz, slog.Default(), path)
		r = gz
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}
