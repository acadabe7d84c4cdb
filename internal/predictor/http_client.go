package predictor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vanshika/creditbridge/backend/internal/domain"
	"github.com/vanshika/creditbridge/backend/internal/logging"
)

const (
	predictPath = "/predict"
	healthPath  = "/health"

	requestIDHeader = "X-Request-ID"
)

// HTTPOptions configures an HTTPClient.
type HTTPOptions struct {
	BaseURL   string
	Timeout   time.Duration
	Transport http.RoundTripper
}

// HTTPClient is the JSON-over-HTTP scorer client.
type HTTPClient struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient validates opts and returns a ready client.
func NewHTTPClient(opts HTTPOptions, logger *slog.Logger) (*HTTPClient, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, ErrMissingURL
	}
	if opts.Timeout <= 0 {
		return nil, fmt.Errorf("scorer timeout must be positive, got %s", opts.Timeout)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &HTTPClient{
		baseURL: base,
		http: &http.Client{
			Timeout:   opts.Timeout,
			Transport: opts.Transport,
		},
		logger: logger,
	}, nil
}

// Predict performs a single POST /predict attempt. It never returns an error:
// every failure is folded into the outcome status.
func (c *HTTPClient) Predict(ctx context.Context, profile domain.Profile) Outcome {
	started := time.Now()
	log := logging.FromContext(ctx, c.logger)

	body, err := json.Marshal(profile)
	if err != nil {
		return Unavailable(fmt.Errorf("encode predict request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+predictPath, bytes.NewReader(body))
	if err != nil {
		return Unavailable(fmt.Errorf("build predict request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(requestIDHeader, requestID(ctx))

	resp, err := c.http.Do(req)
	if err != nil {
		log.Debug("scorer request failed", "error", err, "duration", time.Since(started))
		return Unavailable(fmt.Errorf("predict request: %w", err))
	}
	defer drainAndClose(resp.Body)

	outcome := classify(ctx, resp)
	log.Debug("scorer responded",
		"status_code", resp.StatusCode,
		"outcome", outcome.Status.String(),
		"duration", time.Since(started),
	)
	return outcome
}

// Health reports whether the scorer answers GET /health with a 2xx.
func (c *HTTPClient) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+healthPath, nil)
	if err != nil {
		return fmt.Errorf("build health request: %w", err)
	}
	req.Header.Set(requestIDHeader, requestID(ctx))

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("scorer health: %w", err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("scorer health: unexpected status %d", resp.StatusCode)
	}
	return nil
}

func classify(ctx context.Context, resp *http.Response) Outcome {
	switch {
	case isGatewayFailure(resp.StatusCode):
		return Unavailable(fmt.Errorf("scorer returned status %d", resp.StatusCode))
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return InvalidResponse(fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	outcome := decodeResponse(resp.Body)
	if outcome.Status == StatusInvalidResponse && interrupted(ctx, outcome.Err) {
		// The body was cut short by the deadline, not malformed by the scorer.
		return Unavailable(outcome.Err)
	}
	return outcome
}

func isGatewayFailure(code int) bool {
	switch code {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

func interrupted(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func requestID(ctx context.Context) string {
	if id := logging.RequestID(ctx); id != "" {
		return id
	}
	return uuid.NewString()
}

func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, maxResponseBytes))
	_ = body.Close()
}
