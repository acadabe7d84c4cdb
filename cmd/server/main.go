package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vanshika/creditbridge/backend/internal/auth"
	"github.com/vanshika/creditbridge/backend/internal/config"
	"github.com/vanshika/creditbridge/backend/internal/graph"
	"github.com/vanshika/creditbridge/backend/internal/logging"
	"github.com/vanshika/creditbridge/backend/internal/predictor"
	"github.com/vanshika/creditbridge/backend/internal/repository"
	"github.com/vanshika/creditbridge/backend/internal/scoring"
	"github.com/vanshika/creditbridge/backend/internal/server"
)

const (
	limiterSweepInterval = time.Minute
	limiterIdleTTL       = 10 * time.Minute
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := logging.New(cfg.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	verifier, err := auth.NewVerifier(cfg.Auth.JWTSecret)
	if err != nil {
		return err
	}

	graphClient, err := buildGraphClient(ctx, cfg)
	if err != nil {
		return fmt.Errorf("create graph client: %w", err)
	}
	defer func() {
		if err := graphClient.Close(context.Background()); err != nil {
			logger.Warn("closing graph client failed", "error", err)
		}
	}()
	logger.Info("connected to graph", "uri", cfg.Graph.URI, "database", cfg.Graph.Database)

	scorer, err := buildScorer(cfg, logger)
	if err != nil {
		return fmt.Errorf("create scorer client: %w", err)
	}

	repo := repository.New(graphClient)
	scoringService := scoring.New(scorer, cfg.Scorer.Timeout, logger)
	apiHandlers := server.NewAPIHandlers(logger, scoringService, repo)

	limiter := server.NewCallerRateLimiter(cfg.RateLimit.PerMinute, cfg.RateLimit.Burst, logger)
	go limiter.Run(ctx, limiterSweepInterval, limiterIdleTTL)

	router := server.NewRouter(logger, server.RouterDependencies{
		GraphHealth:      server.ProbeFunc(repo.Ping),
		ScorerHealth:     server.ProbeFunc(scorer.Health),
		API:              apiHandlers,
		Auth:             verifier,
		RateLimiter:      limiter,
		AllowedOrigins:   cfg.HTTP.AllowedOrigins(),
		AllowCredentials: true,
	})

	return server.New(logger, cfg.HTTP, router).Run(ctx)
}

func buildGraphClient(ctx context.Context, cfg config.Config) (graph.Client, error) {
	return graph.NewNeo4jClient(ctx, graph.Options{
		URI:            cfg.Graph.URI,
		Database:       cfg.Graph.Database,
		Username:       cfg.Graph.Username,
		Password:       cfg.Graph.Password,
		MaxConnections: cfg.Graph.MaxConnections,
	})
}

// buildScorer returns the HTTP scorer client, or a stub that always reports
// the scorer unavailable when no URL is configured.
func buildScorer(cfg config.Config, logger *slog.Logger) (predictor.Client, error) {
	if cfg.Scorer.URL == "" {
		logger.Warn("SCORER_URL not set, every score will use the fallback formula")
		return predictor.NewStubClient().WithHealthError(predictor.ErrMissingURL), nil
	}
	client, err := predictor.NewHTTPClient(predictor.HTTPOptions{
		BaseURL: cfg.Scorer.URL,
		Timeout: cfg.Scorer.Timeout,
	}, logger.With("component", "predictor"))
	if err != nil {
		return nil, err
	}
	logger.Info("remote scorer configured", "url", cfg.Scorer.URL, "timeout", cfg.Scorer.Timeout.String())
	return client, nil
}
