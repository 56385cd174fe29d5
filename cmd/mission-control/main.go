package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/openclaw/mission-control/internal/activity"
	"github.com/openclaw/mission-control/internal/api"
	"github.com/openclaw/mission-control/internal/config"
	"github.com/openclaw/mission-control/internal/demo"
	"github.com/openclaw/mission-control/internal/dispatch"
	"github.com/openclaw/mission-control/internal/health"
	"github.com/openclaw/mission-control/internal/lifecycle"
	"github.com/openclaw/mission-control/internal/metrics"
	"github.com/openclaw/mission-control/internal/schedule"
	"github.com/openclaw/mission-control/internal/search"
	"github.com/openclaw/mission-control/internal/store"
)

func main() {
	// Setup structured logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logger := zerolog.New(os.Stdout).With().Timestamp().Caller().Logger()

	if os.Getenv("ENVIRONMENT") == "development" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	log.Logger = logger

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	logger.Info().
		Str("environment", cfg.Environment).
		Str("listen_addr", cfg.ListenAddr).
		Str("db_path", cfg.DBPath).
		Bool("demo_mode", cfg.DemoMode).
		Msg("starting mission control")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	db, err := store.New(cfg.DBPath, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open store")
	}
	defer db.Close()

	plans, err := dispatch.NewFilePlanStore(cfg.PlanDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create plan store")
	}

	m := metrics.New()
	sink := activity.NewSink(db, cfg.ActivityLimit, logger)

	dispatcher := dispatch.New(dispatch.Config{
		Workers:   cfg.Workers,
		QueueSize: cfg.QueueSize,
	}, db, plans, sink, m, logger)
	if err := dispatcher.Start(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to start dispatcher")
	}
	defer dispatcher.Stop()

	lc := lifecycle.NewService(db, dispatcher, sink, m, logger)
	sched := schedule.NewService(db, logger)

	var seeder *demo.Seeder
	if cfg.DemoMode {
		seeder = demo.NewSeeder(db, sched, sink, true, logger)
		logger.Warn().Msg("demo mode enabled, POST /api/v1/seed is active")
	}

	var indexer *search.Indexer
	if cfg.WorkspaceDir != "" {
		indexer = search.NewIndexer(db, cfg.WorkspaceDir, cfg.IndexExtList(), logger)
	}

	checker := health.NewChecker(logger)
	checker.Register("store", health.StoreCheck(db))
	checker.Register("plan_dir", health.DirCheck(cfg.PlanDir))

	handlers := api.NewHandlers(api.HandlersConfig{
		Store:        db,
		Lifecycle:    lc,
		Plans:        plans,
		Sink:         sink,
		Indexer:      indexer,
		Schedule:     sched,
		Seeder:       seeder,
		Checker:      checker,
		SnoozeWindow: cfg.SnoozeWindow,
	}, logger)

	srv := api.NewServer(api.ServerConfig{
		ListenAddr:  cfg.ListenAddr,
		APIKey:      cfg.APIKey,
		CORSOrigins: cfg.CORSOrigins,
		RateLimit: api.RateLimitConfig{
			RPS:   cfg.RateLimitRPS,
			Burst: cfg.RateLimitBurst,
		},
	}, handlers, m, logger)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return srv.Start()
	})

	if indexer != nil && cfg.IndexOnStart {
		g.Go(func() error {
			stats, err := indexer.Reindex(ctx)
			if err != nil {
				// The index can be rebuilt on demand, so a failed startup
				// walk does not take the service down.
				logger.Error().Err(err).Msg("startup reindex failed")
				return nil
			}
			logger.Info().Int("indexed", stats.Indexed).Msg("startup reindex complete")
			return nil
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		logger.Info().Msg("shutdown signal received")
		return srv.Shutdown()
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("shutdown with error")
		os.Exit(1)
	}
	logger.Info().Msg("mission control stopped")
}
