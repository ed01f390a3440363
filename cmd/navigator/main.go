// Command navigator serves live map navigation for connected devices.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wandermap/navigator/pkg/api"
	"github.com/wandermap/navigator/pkg/bootstrap"
	"github.com/wandermap/navigator/pkg/config"
	infrasentry "github.com/wandermap/navigator/pkg/infrastructure/sentry"
	"github.com/wandermap/navigator/pkg/integrations/directions"
	"github.com/wandermap/navigator/pkg/journal"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "navigator: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "Path to navigator.yaml (default ./navigator.yaml if present)")
	flag.Parse()

	logger := bootstrap.NewLogger("navigator")

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, err := bootstrap.NewService(ctx, bootstrap.LoadConfig(), logger)
	if err != nil {
		return err
	}
	defer svc.Close()
	defer infrasentry.Flush(2 * time.Second)

	routes := directions.NewClient(cfg.DirectionsClient(), nil, logger)
	if cfg.Directions.Provider == string(directions.ProviderMapbox) && cfg.Directions.AccessToken == "" {
		logger.Warn("Mapbox access token not set - route requests will be rejected")
	}

	j := journal.New(journal.Options{
		DB:     svc.DB,
		Pub:    svc.Pub,
		Store:  svc.Store,
		Bucket: svc.Config.TripBucket,
		Logger: logger,
	})

	registry := api.NewRegistry(cfg, api.RegistryDeps{
		Routes:      routes,
		Locations:   svc.Locations,
		Journal:     j,
		DB:          svc.DB,
		Push:        svc.Push,
		ReportError: infrasentry.Reporter(logger),
	}, logger)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           api.NewServer(registry, svc.DB, j, logger).Routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		// a locate waits up to the geolocation timeout for a fix
		WriteTimeout: time.Duration(cfg.Geolocation.TimeoutMS)*time.Millisecond + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer cancel()

	// stop navigations first so journals are closed while the clients are up
	if err := registry.Close(shutdownCtx); err != nil {
		logger.Error("Registry shutdown error", "error", err)
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
		return err
	}
	logger.Info("Server shut down")
	return nil
}
