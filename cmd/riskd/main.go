package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"cardiorisk/internal/cfg"
	"cardiorisk/internal/common"
	"cardiorisk/internal/metrics"
	"cardiorisk/internal/ml"
	"cardiorisk/internal/predictor"
	"cardiorisk/internal/server"
	"cardiorisk/internal/storage"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg(".env file unreadable")
	}

	c, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	common.SetupLogging(c.LogLevel, c.LogPretty)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.New()
	mw := metrics.NewPredictorWrapper(m)

	registry := ml.NewRegistry(c.ModelDir())
	registry.OnLoad(func(t ml.ModelType) { mw.BundleLoaded(string(t)) })
	if c.WarmOnStart {
		if err := registry.Warm(ctx); err != nil {
			log.Fatal().Err(err).Str("dir", registry.Dir()).Msg("model artifacts unavailable")
		}
	}

	p := predictor.New(registry, predictor.WithMetrics(mw), predictor.WithTopDrivers(c.TopDrivers))

	opts := []server.Option{server.WithMetrics(m, prometheus.DefaultGatherer)}
	store := initializeStorage(c)
	if store != nil {
		defer store.Close()
		opts = append(opts, server.WithStore(store))
	}

	srv := server.New(server.Config{
		Port:           c.HTTPPort,
		RequestTimeout: c.RequestTimeout,
		HistoryLimit:   c.HistoryLimit,
	}, p, registry, opts...)

	go func() {
		if err := srv.Start(); err != nil {
			log.Error().Err(err).Msg("API server failed")
			cancel()
		}
	}()

	waitForShutdown(ctx, srv)
}

// initializeStorage opens the prediction store if DATA_PATH is configured
func initializeStorage(c cfg.Settings) *storage.Store {
	if !c.PersistenceEnabled() {
		return nil
	}
	store, err := storage.New(c.DataPath)
	if err != nil {
		log.Warn().Err(err).Msg("storage initialization failed, continuing without persistence")
		return nil
	}
	log.Info().Str("path", store.Path()).Msg("Prediction history enabled")
	return store
}

func waitForShutdown(ctx context.Context, srv *server.Server) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		log.Info().Msg("shutdown signal received")
	case <-ctx.Done():
		log.Info().Msg("context canceled")
	}

	log.Info().Msg("shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("shutdown timeout, forcing exit")
	}
}
