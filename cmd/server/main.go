package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/portfolio-risk-engine/internal/cache"
	"github.com/aristath/portfolio-risk-engine/internal/clients/yahoo"
	"github.com/aristath/portfolio-risk-engine/internal/config"
	"github.com/aristath/portfolio-risk-engine/internal/database"
	"github.com/aristath/portfolio-risk-engine/internal/events"
	"github.com/aristath/portfolio-risk-engine/internal/provider"
	"github.com/aristath/portfolio-risk-engine/internal/scheduler"
	"github.com/aristath/portfolio-risk-engine/internal/server"
	"github.com/aristath/portfolio-risk-engine/pkg/logger"
)

// defaultWatchlist seeds the warm-refresh job until a real portfolio
// feed is wired; it keeps the most commonly requested symbols' price
// cache warm across TTL expiries.
var defaultWatchlist = []string{"SPY", "QQQ", "AAPL", "MSFT"}

func main() {
	bootLog := logger.New(logger.Config{Level: "info", Pretty: true})

	cfg, err := config.Load()
	if err != nil {
		bootLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.DevMode})
	log.Info().Msg("Starting portfolio risk engine")

	db, err := database.New(cfg.CachePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize cache database")
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run cache migrations")
	}

	store := cache.NewSQLiteStore(db, log)
	kv := cache.New(store, log)

	yahooClient := yahoo.NewClient(cfg.UpstreamBaseURL, log)
	fxClient := provider.NewFxClient(cfg.FxBaseURL, log)
	dataProvider := provider.New(yahooClient, fxClient, kv, log)

	eventsManager := events.NewManager(log)

	sched := scheduler.New(log)
	sched.Start()
	defer sched.Stop()

	if err := registerJobs(sched, kv, dataProvider, eventsManager); err != nil {
		log.Fatal().Err(err).Msg("Failed to register background jobs")
	}

	srv := server.New(server.Config{
		Port:     cfg.Port,
		Log:      log,
		Config:   cfg,
		Cache:    kv,
		Provider: dataProvider,
		Events:   eventsManager,
		DevMode:  cfg.DevMode,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}

func registerJobs(sched *scheduler.Scheduler, kv *cache.Cache, dataProvider *provider.Provider, em *events.Manager) error {
	if err := sched.AddJob("0 */15 * * * *", scheduler.NewCacheSweepJob(kv, em)); err != nil {
		return err
	}
	if err := sched.AddJob("0 0 * * * *", scheduler.NewWarmRefreshJob(dataProvider, defaultWatchlist, provider.Range1Y)); err != nil {
		return err
	}
	return nil
}
