package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/vanshika/creditbridge/backend/internal/config"
	"github.com/vanshika/creditbridge/backend/internal/domain"
	"github.com/vanshika/creditbridge/backend/internal/generator"
	"github.com/vanshika/creditbridge/backend/internal/graph"
	"github.com/vanshika/creditbridge/backend/internal/logging"
	"github.com/vanshika/creditbridge/backend/internal/predictor"
	"github.com/vanshika/creditbridge/backend/internal/repository"
	"github.com/vanshika/creditbridge/backend/internal/scoring"
)

func main() {
	var (
		profilesPath = flag.String("profiles", "", "Path to a JSON array of {userId, profile} records")
		stored       = flag.Bool("stored", false, "Rescore every profile stored in the graph instead of a file")
		workers      = flag.Int("workers", 4, "Number of concurrent scoring workers")
		dryRun       = flag.Bool("dry-run", false, "Print results as JSON lines instead of persisting them")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging).With("component", "rescore")

	if (*profilesPath == "") == !*stored {
		logger.Error("exactly one of -profiles or -stored is required")
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var repo *repository.Repository
	closeGraph := func() {}
	if *stored || !*dryRun {
		client, err := buildGraphClient(ctx, cfg)
		if err != nil {
			logger.Error("failed to connect to graph", "error", err)
			os.Exit(1)
		}
		logger.Info("connected to graph", "uri", cfg.Graph.URI, "database", cfg.Graph.Database)

		var once sync.Once
		closeGraph = func() {
			once.Do(func() {
				if err := client.Close(context.Background()); err != nil {
					logger.Warn("closing graph client failed", "error", err)
				}
			})
		}
		repo = repository.New(client)
	}
	defer closeGraph()

	records, err := loadRecords(ctx, repo, *profilesPath)
	if err != nil {
		logger.Error("failed to load profiles", "error", err, "path", *profilesPath, "stored", *stored)
		closeGraph()
		os.Exit(1)
	}
	if len(records) == 0 {
		logger.Error("no profiles to rescore", "path", *profilesPath, "stored", *stored)
		closeGraph()
		os.Exit(1)
	}

	scorer, err := buildScorer(cfg, logger)
	if err != nil {
		logger.Error("failed to create scorer client", "error", err)
		closeGraph()
		os.Exit(1)
	}

	batch := scoring.NewBatchScorer(scoring.New(scorer, cfg.Scorer.Timeout, logger), *workers)

	start := time.Now()
	logger.Info("rescoring profiles", "count", len(records), "workers", *workers, "dry_run", *dryRun)
	err = batch.Score(ctx, records, buildSink(repo, *dryRun))

	var batchErr *scoring.BatchError
	switch {
	case errors.As(err, &batchErr):
		for _, recErr := range batchErr.Errors {
			logger.Warn("record failed", "index", recErr.Index, "user_id", recErr.UserID, "error", recErr.Err)
		}
		logger.Info("rescoring finished with failures", "duration", time.Since(start).String(),
			"total", len(records), "failed", len(batchErr.Errors))
		closeGraph()
		os.Exit(1)
	case err != nil:
		logger.Error("rescoring aborted", "error", err)
		closeGraph()
		os.Exit(1)
	}

	logger.Info("rescoring complete", "duration", time.Since(start).String(), "total", len(records))
}

// loadRecords reads the dataset at path, or every stored profile when path
// is empty.
func loadRecords(ctx context.Context, repo *repository.Repository, path string) ([]scoring.ProfileRecord, error) {
	if path != "" {
		return generator.ReadFile(path)
	}

	profiles, err := repo.ListProfiles(ctx)
	if err != nil {
		return nil, err
	}
	records := make([]scoring.ProfileRecord, 0, len(profiles))
	for _, stored := range profiles {
		records = append(records, scoring.RecordFromProfile(stored.UserID, stored.Profile))
	}
	return records, nil
}

type resultLine struct {
	UserID string             `json:"userId"`
	Result domain.ScoreResult `json:"result"`
}

// buildSink returns where scored results go: stdout in dry-run mode,
// otherwise the graph repository.
func buildSink(repo *repository.Repository, dryRun bool) scoring.ResultSink {
	if dryRun {
		var mu sync.Mutex
		encoder := json.NewEncoder(os.Stdout)
		return func(_ context.Context, rec scoring.ProfileRecord, result domain.ScoreResult) error {
			mu.Lock()
			defer mu.Unlock()
			return encoder.Encode(resultLine{UserID: rec.UserID, Result: result})
		}
	}
	return func(ctx context.Context, rec scoring.ProfileRecord, result domain.ScoreResult) error {
		return repo.SaveScore(ctx, rec.UserID, result)
	}
}

func buildGraphClient(ctx context.Context, cfg config.Config) (graph.Client, error) {
	if cfg.Graph.URI == "" {
		return nil, fmt.Errorf("GRAPH_URI is required unless -dry-run is set with -profiles")
	}
	return graph.NewNeo4jClient(ctx, graph.Options{
		URI:            cfg.Graph.URI,
		Database:       cfg.Graph.Database,
		Username:       cfg.Graph.Username,
		Password:       cfg.Graph.Password,
		MaxConnections: cfg.Graph.MaxConnections,
	})
}

func buildScorer(cfg config.Config, logger *slog.Logger) (predictor.Client, error) {
	if cfg.Scorer.URL == "" {
		logger.Warn("SCORER_URL not set, every score will use the fallback formula")
		return predictor.NewStubClient(), nil
	}
	return predictor.NewHTTPClient(predictor.HTTPOptions{
		BaseURL: cfg.Scorer.URL,
		Timeout: cfg.Scorer.Timeout,
	}, logger)
}
