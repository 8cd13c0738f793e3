package main

import (
	"context"
	"database/sql"
	"delivery-sim-service/internal/adapters/cache"
	"delivery-sim-service/internal/adapters/paths"
	"delivery-sim-service/internal/adapters/realtime"
	"delivery-sim-service/internal/adapters/repositories"
	"delivery-sim-service/internal/adapters/state"
	"delivery-sim-service/internal/api"
	"delivery-sim-service/internal/api/handlers"
	"delivery-sim-service/internal/config"
	"delivery-sim-service/internal/platform/db"
	"delivery-sim-service/internal/platform/logging"
	"delivery-sim-service/internal/ports"
	"delivery-sim-service/internal/services"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// main is the application composition root.
// It wires concrete adapters (SQL, ORS, Redis) behind ports, runs the fleet
// loop and serves the HTTP API until SIGINT or SIGTERM.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if _, err := logging.Setup(cfg.LogLevel, cfg.LogPretty); err != nil {
		log.Fatal().Err(err).Msg("setup logging")
	}

	if err := run(cfg); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, dialect, err := db.Open(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer conn.Close()

	// Initialize schema and seed demo data on startup for local runs.
	if err := initAndSeed(ctx, conn, dialect, cfg.SeedPath); err != nil {
		return err
	}

	repo := repositories.NewSQLPackageRepository(conn, dialect)

	pathSource, err := newPathSource(cfg, conn, dialect)
	if err != nil {
		return err
	}

	sink := realtime.MultiSink{
		realtime.NewLogSink(logging.Component("events")),
		realtime.NewRepositorySink(repo),
	}
	var tracker handlers.VehicleTracker
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("connect redis %s: %w", cfg.RedisAddr, err)
		}
		redisSink := realtime.NewRedisSink(client)
		sink = append(sink, redisSink)
		tracker = redisSink
		log.Info().Str("addr", cfg.RedisAddr).Msg("publishing simulation events to redis")
	}

	orch := services.NewOrchestrator(state.NewMemoryStore(), services.OrchestratorOptions{
		MaxOffsetMeters:   cfg.MaxOffsetMeters,
		DeliveryTolerance: cfg.DeliveryTolerance,
		FastForward:       cfg.FastForward,
		SpeedProfile:      services.DefaultSpeedProfile(),
		DefaultSpeedMph:   cfg.DefaultSpeedMph,
	}, logging.Component("orchestrator"))
	fleet := services.NewFleet(orch, sink, cfg.TickWorkers, logging.Component("fleet"))
	launcher := services.NewLauncher(repo, pathSource, orch, cfg.LaunchWorkers, logging.Component("launcher"))

	router := api.NewRouter(repo, &handlers.SessionHandler{
		Orchestrator: orch,
		Launcher:     launcher,
		Resetter:     repo,
		Tracker:      tracker,
	})

	// Timeouts are tuned for cold-cache session launches (external API latency).
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return fleet.Run(gctx, cfg.TickInterval)
	})
	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info().Msg("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// newPathSource prefers OpenRouteService with persistent caches and falls
// back to a fixed GeoJSON path for offline runs.
func newPathSource(cfg config.Config, conn *sql.DB, dialect db.Dialect) (ports.PathSource, error) {
	if cfg.ORSAPIKey != "" {
		return paths.NewORSPathSource(
			cfg.ORSAPIKey,
			cfg.HubAddress,
			cache.NewSQLGeocodeCache(conn, dialect),
			cache.NewSQLPathCache(conn, dialect),
		)
	}
	if cfg.StaticPathFile != "" {
		log.Warn().Str("file", cfg.StaticPathFile).Msg("ORS_API_KEY not set, every vehicle drives the static path")
		return paths.LoadStaticPathSource(cfg.StaticPathFile)
	}
	return nil, errors.New("ORS_API_KEY or STATIC_PATH_FILE is required")
}

func initAndSeed(ctx context.Context, conn *sql.DB, dialect db.Dialect, seedPath string) error {
	if err := repositories.InitSchema(ctx, conn); err != nil {
		return fmt.Errorf("init and seed: %w", err)
	}
	if err := repositories.SeedFromJSON(ctx, conn, dialect, seedPath); err != nil {
		return fmt.Errorf("init and seed: %w", err)
	}
	return nil
}
