// Command nav-sim drives a running navigator along a real route: it fetches
// directions between two points and replays the geometry as device fixes.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/paulmach/orb"

	"github.com/wandermap/navigator/pkg/api"
	"github.com/wandermap/navigator/pkg/bootstrap"
	"github.com/wandermap/navigator/pkg/config"
	"github.com/wandermap/navigator/pkg/geolocation"
	"github.com/wandermap/navigator/pkg/integrations/directions"
)

// parseCoord reads "lon,lat".
func parseCoord(input string) (orb.Point, error) {
	parts := strings.Split(input, ",")
	if len(parts) != 2 {
		return orb.Point{}, fmt.Errorf("invalid coordinate: %s", input)
	}
	lon, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	lat, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err1 != nil || err2 != nil {
		return orb.Point{}, fmt.Errorf("invalid lon/lat: %s", input)
	}
	return orb.Point{lon, lat}, nil
}

func main() {
	server := flag.String("server", "http://localhost:8080", "Navigator base URL")
	user := flag.String("user", "sim-driver", "User ID to drive")
	from := flag.String("from", "-55.9414,-15.2924", "Start as lon,lat")
	to := flag.String("to", "-55.9200,-15.3050", "Destination as lon,lat")
	interval := flag.Duration("interval", time.Second, "Delay between fixes")
	configPath := flag.String("config", "", "Path to navigator.yaml for directions settings")
	flag.Parse()

	logger := bootstrap.NewLogger("nav-sim")
	if err := run(logger, *server, *user, *from, *to, *interval, *configPath); err != nil {
		logger.Error("Simulation failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger, server, user, fromArg, toArg string, interval time.Duration, configPath string) error {
	origin, err := parseCoord(fromArg)
	if err != nil {
		return err
	}
	dest, err := parseCoord(toArg)
	if err != nil {
		return err
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	route, err := directions.NewClient(cfg.DirectionsClient(), nil, logger).Route(ctx, origin, dest)
	if err != nil {
		return fmt.Errorf("fetch route: %w", err)
	}
	logger.Info("Route fetched", "points", len(route.Points), "distance_m", route.DistanceMeters)

	replay := geolocation.NewReplayLocator(route.Points, interval)
	client := api.NewClient(server, user, nil)

	if err := client.SetPermission(ctx, geolocation.PermissionGranted); err != nil {
		return err
	}
	first, err := replay.CurrentPosition(ctx, geolocation.HighAccuracy())
	if err != nil {
		return err
	}
	if err := client.PushPosition(ctx, first); err != nil {
		return err
	}
	if _, err := client.Locate(ctx); err != nil {
		return fmt.Errorf("locate: %w", err)
	}
	st, err := client.SelectDestination(ctx, dest)
	if err != nil {
		return fmt.Errorf("select destination: %w", err)
	}
	logger.Info("Destination set", "distance", st.Display.Distance, "duration", st.Display.Duration)

	if _, err := client.StartNavigation(ctx); err != nil {
		return fmt.Errorf("start navigation: %w", err)
	}

	id, err := replay.WatchPosition(ctx, geolocation.HighAccuracy(), func(s geolocation.Sample) {
		if err := client.PushPosition(ctx, s); err != nil {
			logger.Warn("Failed to push fix", "error", err)
		}
	})
	if err != nil {
		return err
	}

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	done := time.After(replay.Duration() + interval)

loop:
	for {
		select {
		case <-ctx.Done():
			logger.Info("Interrupted")
			break loop
		case <-done:
			break loop
		case <-ticker.C:
			if st, err := client.State(ctx); err == nil {
				logger.Info("Progress", "remaining", st.Display.Distance, "bearing", st.Bearing, "route_points", len(st.Route))
			}
		}
	}

	if err := replay.ClearWatch(context.Background(), id); err != nil {
		logger.Warn("Failed to clear replay", "error", err)
	}
	if _, err := client.StopNavigation(context.Background()); err != nil {
		return fmt.Errorf("stop navigation: %w", err)
	}
	logger.Info("Simulation finished")
	return nil
}
