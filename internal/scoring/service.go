// Package scoring turns raw profiles into credit scores. It prefers the remote
// predictive scorer and falls back to a deterministic formula when that scorer
// cannot be reached.
package scoring

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/vanshika/creditbridge/backend/internal/apperr"
	"github.com/vanshika/creditbridge/backend/internal/domain"
	"github.com/vanshika/creditbridge/backend/internal/logging"
	"github.com/vanshika/creditbridge/backend/internal/predictor"
)

// DefaultScorerTimeout bounds a single remote scoring attempt.
const DefaultScorerTimeout = 5 * time.Second

// Service orchestrates validation, normalization, scoring and banding. It
// holds no per-call state and is safe for concurrent use.
type Service struct {
	predictor     predictor.Client
	scorerTimeout time.Duration
	validator     *profileValidator
	logger        *slog.Logger
	nowFn         func() time.Time
}

// New constructs a scoring service. A non-positive timeout selects
// DefaultScorerTimeout.
func New(client predictor.Client, scorerTimeout time.Duration, logger *slog.Logger) *Service {
	if scorerTimeout <= 0 {
		scorerTimeout = DefaultScorerTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		predictor:     client,
		scorerTimeout: scorerTimeout,
		validator:     newProfileValidator(),
		logger:        logger,
		nowFn:         time.Now,
	}
}

// WithClock overrides the clock used to stamp results.
func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.nowFn = now
	}
	return s
}

// PrepareProfile validates and normalizes raw without scoring it.
func (s *Service) PrepareProfile(raw RawProfile) (domain.Profile, error) {
	if err := s.validator.Validate(raw); err != nil {
		return domain.Profile{}, err
	}
	return Normalize(raw), nil
}

// Compute scores raw for userID. It returns an apperr validation error when
// the profile is rejected and an upstream contract error when the remote
// scorer answers outside its contract. An unreachable scorer is not an error:
// the fallback formula is used instead.
func (s *Service) Compute(ctx context.Context, userID string, raw RawProfile) (domain.ScoreResult, error) {
	profile, err := s.PrepareProfile(raw)
	if err != nil {
		return domain.ScoreResult{}, err
	}

	log := logging.FromContext(ctx, s.logger).With("user_type", string(profile.UserType))
	if logging.UserID(ctx) == "" {
		log = log.With("user_id", userID)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.scorerTimeout)
	outcome := s.predictor.Predict(callCtx, profile)
	cancel()

	var result domain.ScoreResult
	switch outcome.Status {
	case predictor.StatusSuccess:
		result = fromRemote(outcome)

	case predictor.StatusUnavailable:
		if err := ctx.Err(); err != nil {
			return domain.ScoreResult{}, err
		}
		log.Warn("remote scorer unavailable, using fallback formula", "error", outcome.Err)
		result = fromFallback(profile)

	case predictor.StatusInvalidResponse:
		log.Error("remote scorer returned an invalid response", "reason", outcome.Reason, "error", outcome.Err)
		return domain.ScoreResult{}, apperr.Wrap(apperr.KindUpstreamContract, "invalid response from scoring service", outcome.Err).
			WithOp("scoring.Compute").
			WithDetails(map[string]string{"reason": outcome.Reason})

	default:
		return domain.ScoreResult{}, apperr.Internal("unexpected scorer outcome", errors.New(outcome.Status.String()))
	}

	result.CalculatedAt = s.nowFn().UTC()
	log.Debug("score computed", "score", result.Score, "risk_band", string(result.RiskBand), "source", string(result.Source))
	return result, nil
}

func fromRemote(o predictor.Outcome) domain.ScoreResult {
	result := domain.ScoreResult{
		Score:       o.Score,
		RiskBand:    o.RiskBand,
		TopFactors:  o.TopFactors,
		Explanation: o.Explanation,
		Source:      domain.SourceRemote,
	}
	if result.RiskBand == "" {
		result.RiskBand = Band(result.Score)
	}
	if result.TopFactors == nil {
		result.TopFactors = []domain.Factor{}
	}
	if result.Explanation == "" {
		result.Explanation = remoteExplanation
	}
	return result
}

func fromFallback(p domain.Profile) domain.ScoreResult {
	score := ComputeFallback(p)
	return domain.ScoreResult{
		Score:       score,
		RiskBand:    Band(score),
		TopFactors:  fallbackTopFactors(),
		Explanation: fallbackExplanation,
		Source:      domain.SourceFallback,
	}
}
