package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/DeafMist/mundus/backend/internal/config"
	"github.com/DeafMist/mundus/backend/internal/dataset"
	"github.com/DeafMist/mundus/backend/internal/elasticsearch"
	"github.com/DeafMist/mundus/backend/internal/logger"
	"github.com/DeafMist/mundus/backend/internal/preview"
	"github.com/DeafMist/mundus/backend/internal/query"
	"github.com/DeafMist/mundus/backend/internal/sqlite"
	"github.com/DeafMist/mundus/backend/internal/summarize"
)

func main() {
	// A missing .env is fine; the process environment still applies.
	_ = godotenv.Load()

	log := logger.New("api")
	cfg, err := config.LoadAPI()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	registry, health, err := openRegistry(ctx, cfg, log)
	if err != nil {
		log.Error("init datasets", slog.Any("err", err))
		os.Exit(1)
	}

	fetcher := preview.New(
		preview.WithTimeouts(cfg.PreviewTimeout, cfg.ContentTimeout),
		preview.WithLogger(log),
	)
	gateway := summarize.NewGateway(summarize.OpenAIConfig{
		APIKey:      cfg.APIKey,
		BaseURL:     cfg.BaseURL,
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		Timeout:     cfg.OpenAI.Timeout,
	}, log)
	if cfg.APIKey == "" {
		log.Warn("OPENAI_API_KEY is not set, summarization is disabled")
	}

	srv := &server{
		log:      log,
		limits:   query.Limits{DefaultPerPage: cfg.DefaultPage, MaxPerPage: cfg.MaxPage},
		datasets: registry,
		previews: fetcher,
		summary:  summarize.NewService(gateway, fetcher, log),
		health:   health,
	}

	httpServer := &http.Server{
		Addr:              cfg.BindAddr,
		Handler:           newRouter(srv, cfg.AllowedOrigins),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		// Merged summaries fetch pages sequentially before calling the model.
		WriteTimeout: 3 * time.Minute,
	}

	go func() {
		log.Info("api server starting",
			slog.String("addr", cfg.BindAddr),
			slog.String("backend", cfg.Backend),
			slog.Any("countries", registry.Codes()),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", slog.Any("err", err))
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", slog.Any("err", err))
	}
}

const (
	clusterAttempts   = 10
	clusterRetryDelay = 2 * time.Second
)

// openRegistry selects the dataset backend. The returned health check may be nil.
func openRegistry(ctx context.Context, cfg *config.API, log *slog.Logger) (*dataset.Registry, func(context.Context) error, error) {
	switch cfg.Backend {
	case config.BackendElasticsearch:
		client, err := elasticsearch.New(cfg.ElasticsearchAddr, log)
		if err != nil {
			return nil, nil, err
		}
		if err := waitForCluster(ctx, log, client, clusterAttempts, clusterRetryDelay); err != nil {
			return nil, nil, err
		}
		return dataset.NewRegistry(dataset.IndexLocations(cfg.ElasticsearchIndex), client), client.Health, nil
	default:
		builder := query.NewBuilder(time.Now)
		return dataset.NewRegistry(dataset.FileLocations(cfg.Dir), sqlite.NewOpener(builder)), nil, nil
	}
}

type pinger interface {
	Ping(ctx context.Context) error
}

// waitForCluster pings until the cluster answers, attempts run out or ctx is done.
func waitForCluster(ctx context.Context, log *slog.Logger, es pinger, attempts int, delay time.Duration) error {
	var err error
	for i := 0; i < attempts; i++ {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = es.Ping(pingCtx)
		cancel()
		if err == nil {
			return nil
		}
		log.Warn("elasticsearch ping failed, retrying",
			slog.Any("err", err),
			slog.Int("attempt", i+1),
			slog.Int("max_retries", attempts),
			slog.Duration("retry_in", delay),
		)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("elasticsearch unavailable after %d attempts: %w", attempts, err)
}
