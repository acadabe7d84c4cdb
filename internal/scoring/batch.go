package scoring

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/vanshika/creditbridge/backend/internal/domain"
)

const defaultBatchWorkers = 4

// RecordError ties a failure to the record that produced it.
type RecordError struct {
	Index  int
	UserID string
	Err    error
}

func (e RecordError) Error() string {
	return fmt.Sprintf("record %d (user %s): %v", e.Index, e.UserID, e.Err)
}

func (e RecordError) Unwrap() error {
	return e.Err
}

// BatchError accumulates per-record failures from a batch run.
type BatchError struct {
	Errors []RecordError
}

func (e *BatchError) Error() string {
	switch len(e.Errors) {
	case 0:
		return "no errors"
	case 1:
		return e.Errors[0].Error()
	}
	parts := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		parts = append(parts, err.Error())
	}
	return fmt.Sprintf("%d records failed: %s", len(e.Errors), strings.Join(parts, "; "))
}

func (e *BatchError) asError() error {
	if len(e.Errors) == 0 {
		return nil
	}
	sort.Slice(e.Errors, func(i, j int) bool { return e.Errors[i].Index < e.Errors[j].Index })
	return e
}

// ResultSink receives each successfully scored record. It may be called from
// several goroutines at once.
type ResultSink func(ctx context.Context, rec ProfileRecord, result domain.ScoreResult) error

// BatchScorer scores many profiles with bounded concurrency.
type BatchScorer struct {
	service *Service
	workers int
}

// NewBatchScorer creates a BatchScorer. Non-positive workers selects a small default.
func NewBatchScorer(service *Service, workers int) *BatchScorer {
	if workers <= 0 {
		workers = defaultBatchWorkers
	}
	return &BatchScorer{service: service, workers: workers}
}

// Score computes every record and hands results to sink. Record failures are
// collected into a *BatchError, including sink errors that wrap a context
// error of their own. Only cancellation of ctx aborts the run; its error is
// returned as-is.
func (b *BatchScorer) Score(ctx context.Context, records []ProfileRecord, sink ResultSink) error {
	if len(records) == 0 {
		return nil
	}

	var (
		mu       sync.Mutex
		batchErr BatchError
	)
	record := func(idx int, err error) {
		mu.Lock()
		defer mu.Unlock()
		batchErr.Errors = append(batchErr.Errors, RecordError{Index: idx, UserID: records[idx].UserID, Err: err})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)

	for i := range records {
		if gctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			rec := records[i]
			result, err := b.service.Compute(gctx, rec.UserID, rec.Profile)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				record(i, err)
				return nil
			}
			if sink == nil {
				return nil
			}
			if err := sink(gctx, rec, result); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				record(i, fmt.Errorf("store result: %w", err))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return batchErr.asError()
}
