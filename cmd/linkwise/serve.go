package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"linkwise/internal/ai"
	"linkwise/internal/config"
	"linkwise/internal/handler"
	"linkwise/internal/schedule"
	"linkwise/internal/scraper"
	"linkwise/internal/service"
	"linkwise/internal/storage"
	"linkwise/internal/token"
)

func openRepository(ctx context.Context, cfg config.Config, log logrus.FieldLogger) (storage.Repository, error) {
	switch cfg.StorageDriver {
	case "postgres":
		return storage.NewPostgresRepository(ctx, cfg.PostgresDSN, log)
	default:
		return storage.NewBadgerRepository(cfg.BadgerDBPath, log)
	}
}

func runServer(ctx context.Context, cfg config.Config, log *logrus.Logger) error {
	if err := cfg.ValidateServer(); err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("Initializing components...")

	repo, err := openRepository(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() {
		log.Info("Closing storage...")
		if err := repo.Close(); err != nil {
			log.WithError(err).Error("Error closing storage")
		}
	}()

	extractor := scraper.WrapCache(scraper.NewRodExtractor(log), cfg.ArticleCacheSize, cfg.ArticleCacheTTL, log)
	summarizer := ai.NewGeminiSummarizer(ctx, ai.GeminiConfig{
		APIKey:   cfg.GeminiAPIKey,
		Project:  cfg.GoogleCloudProject,
		Location: cfg.GoogleCloudLocation,
		Model:    cfg.GeminiModel,
	}, log)
	tokens := token.NewManager([]byte(cfg.JWTSecret), cfg.JWTTTL())

	router := handler.NewRouter(handler.RouterDeps{
		Links:       service.NewLinkService(repo, extractor, summarizer, log),
		Auth:        service.NewAuthService(repo, tokens, log),
		CORSOrigins: cfg.CORSAllowlist(),
		Logger:      log,
	})

	if gc, ok := repo.(schedule.GarbageCollector); ok {
		scheduler := schedule.NewCronScheduler(log)
		if err := scheduler.AddJob(schedule.GCJob{Store: gc}, cfg.GCSchedule); err != nil {
			return fmt.Errorf("failed to schedule storage gc: %w", err)
		}
		scheduler.Start(ctx)
		defer scheduler.Stop()
	}

	srv := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.ServerAddr).Info("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		log.Info("Shutdown signal received, shutting down...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("HTTP server shutdown failed")
	}
	log.Info("Application shut down gracefully.")
	return nil
}
