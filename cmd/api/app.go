package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"railplanner.org/internal/app"
	"railplanner.org/internal/appconf"
	"railplanner.org/internal/clock"
	"railplanner.org/internal/logging"
	"railplanner.org/internal/metrics"
	"railplanner.org/internal/passdb"
	"railplanner.org/internal/planner"
	"railplanner.org/internal/restapi"
	"railplanner.org/internal/webui"
)

const dbStatsInterval = 15 * time.Second

// ParseAPIKeys splits a comma separated key list, trimming each entry.
func ParseAPIKeys(apiKeysFlag string) []string {
	if apiKeysFlag == "" {
		return []string{}
	}
	keys := strings.Split(apiKeysFlag, ",")
	for i, key := range keys {
		keys[i] = strings.TrimSpace(key)
	}
	return keys
}

// BuildApplication opens the pass catalog and prepares the lazily built
// routing graph. The graph itself is built by Run or on the first request.
func BuildApplication(cfg appconf.Config, dataCfg appconf.DataConfig, routingCfg appconf.RoutingConfig) (*app.Application, error) {
	logger := logging.NewLogger(os.Stdout, cfg.Env == appconf.Production, cfg.Verbose)
	slog.SetDefault(logger)

	m := metrics.NewWithLogger(logger)

	dbPath := dataCfg.PassDB
	if cfg.Env == appconf.Test || dbPath == "" {
		dbPath = ":memory:"
	}
	db, err := passdb.NewClient(passdb.Config{DBPath: dbPath, Env: cfg.Env})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize pass DB: %w", err)
	}

	ctx := context.Background()
	if dataCfg.Passes != "" {
		if err := db.ImportFromFile(ctx, dataCfg.Passes); err != nil {
			logging.SafeCloseWithLogging(db, logger, "pass DB")
			return nil, fmt.Errorf("failed to import pass catalog: %w", err)
		}
	}
	catalog, err := db.LoadCatalog(ctx)
	if err != nil {
		logging.SafeCloseWithLogging(db, logger, "pass DB")
		return nil, fmt.Errorf("failed to load pass catalog: %w", err)
	}
	m.PassCatalogSize.Set(float64(catalog.Len()))
	m.StartDBStatsCollector(db.DB, dbStatsInterval)

	graphs := app.NewGraphProvider(dataCfg, routingCfg, logger, m)

	return &app.Application{
		Config:        cfg,
		DataConfig:    dataCfg,
		RoutingConfig: routingCfg,
		Logger:        logger,
		Graphs:        graphs,
		Planner:       planner.New(graphs, catalog, app.PlannerConfig(routingCfg), logger),
		PassDB:        db,
		Clock:         clock.RealClock{},
		Metrics:       m,
	}, nil
}

// CreateServer wires the routes and middleware. Callers must call
// api.Shutdown when done.
func CreateServer(coreApp *app.Application, cfg appconf.Config) (*http.Server, *restapi.RestAPI) {
	api := restapi.NewRestAPI(coreApp)
	webUI := &webui.WebUI{Application: coreApp}

	mux := http.NewServeMux()
	api.SetRoutes(mux)
	webUI.SetWebUIRoutes(mux)

	// MetricsHandler wraps the mux directly so r.Pattern is visible to it.
	handler := restapi.RequestIDMiddleware(
		restapi.NewRequestLoggingMiddleware(coreApp.Logger)(
			restapi.MetricsHandler(coreApp.Metrics)(mux)))

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler,
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		ErrorLog:     slog.NewLogLogger(coreApp.Logger.Handler(), slog.LevelError),
	}
	return srv, api
}

// warmGraph builds the routing graph in the background so /healthz turns
// ready without waiting for the first route request.
func warmGraph(ctx context.Context, coreApp *app.Application) {
	go func() {
		if _, err := coreApp.Graphs.Get(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logging.LogError(coreApp.Logger, "Initial graph build failed", err)
		}
	}()
}

// Run serves until SIGINT or SIGTERM, then shuts down gracefully.
func Run(srv *http.Server, coreApp *app.Application, api *restapi.RestAPI) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := coreApp.Logger
	if logger == nil {
		logger = slog.Default()
	}

	warmGraph(ctx, coreApp)

	serverErr := make(chan error, 1)
	go func() {
		logging.LogOperation(logger, "server_starting",
			slog.String("addr", srv.Addr),
			slog.String("env", coreApp.Config.Env.String()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	var runErr error
	select {
	case err := <-serverErr:
		runErr = err
	case <-ctx.Done():
		logging.LogOperation(logger, "server_shutting_down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.LogError(logger, "Server forced to shutdown", err)
		if runErr == nil {
			runErr = err
		}
	}

	api.Shutdown()
	if coreApp.Metrics != nil {
		coreApp.Metrics.Shutdown()
	}
	if coreApp.PassDB != nil {
		logging.SafeCloseWithLogging(coreApp.PassDB, logger, "pass DB")
	}

	logging.LogOperation(logger, "server_exited")
	return runErr
}
