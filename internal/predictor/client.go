// Package predictor talks to the external predictive scoring service.
package predictor

import (
	"context"
	"errors"
	"fmt"

	"github.com/vanshika/creditbridge/backend/internal/domain"
)

// Status classifies the outcome of a single predict call.
type Status int

const (
	// StatusSuccess means the scorer returned a well-formed response.
	StatusSuccess Status = iota + 1
	// StatusUnavailable means the scorer could not be reached in time.
	StatusUnavailable
	// StatusInvalidResponse means the scorer answered outside its contract.
	StatusInvalidResponse
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusUnavailable:
		return "unavailable"
	case StatusInvalidResponse:
		return "invalid_response"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Outcome is the tagged result of Predict. Only the fields relevant to the
// status are set: Score and the optional fields for StatusSuccess, Reason
// for StatusInvalidResponse, Err for anything but success.
type Outcome struct {
	Status Status

	Score       int
	RiskBand    domain.RiskBand // empty when the scorer omitted it
	TopFactors  []domain.Factor // nil when the scorer omitted it
	Explanation string          // empty when the scorer omitted it

	Reason string
	Err    error
}

// Client is the contract the scoring service needs from a remote scorer.
// Implementations make exactly one outbound attempt per call and must honour
// ctx cancellation.
type Client interface {
	Predict(ctx context.Context, profile domain.Profile) Outcome
	Health(ctx context.Context) error
}

// ErrMissingURL indicates the scorer base URL is not configured.
var ErrMissingURL = errors.New("scorer URL is required")

// Success builds a StatusSuccess outcome.
func Success(score int, band domain.RiskBand, factors []domain.Factor, explanation string) Outcome {
	return Outcome{
		Status:      StatusSuccess,
		Score:       score,
		RiskBand:    band,
		TopFactors:  factors,
		Explanation: explanation,
	}
}

// Unavailable builds a StatusUnavailable outcome.
func Unavailable(err error) Outcome {
	return Outcome{Status: StatusUnavailable, Err: err}
}

// InvalidResponse builds a StatusInvalidResponse outcome.
func InvalidResponse(reason string, err error) Outcome {
	if err == nil {
		err = errors.New(reason)
	}
	return Outcome{Status: StatusInvalidResponse, Reason: reason, Err: err}
}
