package predictor

import (
	"context"
	"sync"
	"time"

	"github.com/vanshika/creditbridge/backend/internal/domain"
)

// StubClient is a scripted in-memory scorer used by tests and by the server
// when no scorer URL is configured. With nothing scripted it reports the
// scorer as unavailable, which drives callers onto the fallback path.
type StubClient struct {
	mu        sync.Mutex
	outcomes  []Outcome
	delay     time.Duration
	healthErr error
	calls     []domain.Profile
}

var _ Client = (*StubClient)(nil)

// NewStubClient instantiates an empty stub.
func NewStubClient() *StubClient {
	return &StubClient{}
}

// PushOutcome appends an outcome returned by the next Predict call.
func (s *StubClient) PushOutcome(o Outcome) *StubClient {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outcomes = append(s.outcomes, o)
	return s
}

// WithDelay makes every Predict call wait d or until ctx is done.
func (s *StubClient) WithDelay(d time.Duration) *StubClient {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay = d
	return s
}

// WithHealthError forces Health to return err.
func (s *StubClient) WithHealthError(err error) *StubClient {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.healthErr = err
	return s
}

// Predict records the profile and replays the next scripted outcome.
func (s *StubClient) Predict(ctx context.Context, profile domain.Profile) Outcome {
	s.mu.Lock()
	s.calls = append(s.calls, profile)
	delay := s.delay
	var next *Outcome
	if len(s.outcomes) > 0 {
		o := s.outcomes[0]
		s.outcomes = s.outcomes[1:]
		next = &o
	}
	s.mu.Unlock()

	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return Unavailable(ctx.Err())
		}
	}
	if err := ctx.Err(); err != nil {
		return Unavailable(err)
	}
	if next == nil {
		return Unavailable(errStubNotScripted)
	}
	return *next
}

// Health returns the configured health error.
func (s *StubClient) Health(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.healthErr
}

// Calls returns a snapshot of every profile passed to Predict.
func (s *StubClient) Calls() []domain.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Profile(nil), s.calls...)
}

type stubError string

func (e stubError) Error() string { return string(e) }

const errStubNotScripted = stubError("no scorer configured")
