// Command api serves the rail journey planner over HTTP.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"railplanner.org/internal/appconf"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to a YAML configuration file")
		port       = flag.Int("port", 4000, "API server port")
		env        = flag.String("env", "development", "Environment (development|test|production)")
		apiKeys    = flag.String("api-keys", "test", "Comma separated list of valid API keys")
		rateLimit  = flag.Int("rate-limit", 100, "Requests per second per API key")
		verbose    = flag.Bool("verbose", false, "Enable debug logging")
		tracks     = flag.String("tracks", "", "GeoJSON file of rail track LineStrings")
		stations   = flag.String("stations", "", "GeoJSON file of station features")
		gtfsPath   = flag.String("gtfs", "", "GTFS zip used when no tracks are given")
		passes     = flag.String("passes", "", "JSON pass catalog to import")
		passDB     = flag.String("pass-db", "passes.db", "SQLite file holding the pass catalog")
	)
	flag.Parse()

	fileCfg := appconf.DefaultFileConfig()
	if *configPath != "" {
		loaded, err := appconf.LoadFromFile(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
			os.Exit(1)
		}
		fileCfg = *loaded
	}

	// Flags given explicitly override the file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			fileCfg.Port = *port
		case "env":
			fileCfg.Env = *env
		case "api-keys":
			fileCfg.ApiKeys = ParseAPIKeys(*apiKeys)
		case "rate-limit":
			fileCfg.RateLimit = *rateLimit
		case "verbose":
			fileCfg.Verbose = *verbose
		case "tracks":
			fileCfg.Data.Tracks = *tracks
		case "stations":
			fileCfg.Data.Stations = *stations
		case "gtfs":
			fileCfg.Data.GTFS = *gtfsPath
		case "passes":
			fileCfg.Data.Passes = *passes
		case "pass-db":
			fileCfg.Data.PassDB = *passDB
		}
	})

	if err := fileCfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		flag.Usage()
		os.Exit(1)
	}

	cfg := fileCfg.ToAppConfig()
	coreApp, err := BuildApplication(cfg, fileCfg.ToDataConfig(), fileCfg.Routing)
	if err != nil {
		slog.Error("failed to build application", "error", err)
		os.Exit(1)
	}

	srv, api := CreateServer(coreApp, cfg)
	if err := Run(srv, coreApp, api); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
