package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/vanshika/creditbridge/backend/internal/apperr"
	"github.com/vanshika/creditbridge/backend/internal/auth"
	"github.com/vanshika/creditbridge/backend/internal/domain"
	"github.com/vanshika/creditbridge/backend/internal/logging"
	"github.com/vanshika/creditbridge/backend/internal/repository"
	"github.com/vanshika/creditbridge/backend/internal/scoring"
)

const maxBodyBytes = 1 << 20

// Scorer is the scoring behaviour the handlers depend on.
type Scorer interface {
	Compute(ctx context.Context, userID string, raw scoring.RawProfile) (domain.ScoreResult, error)
	PrepareProfile(raw scoring.RawProfile) (domain.Profile, error)
}

// Store persists profiles and scores per user.
type Store interface {
	SaveProfile(ctx context.Context, userID string, profile domain.Profile) error
	GetProfile(ctx context.Context, userID string) (domain.Profile, error)
	SaveScore(ctx context.Context, userID string, result domain.ScoreResult) error
	GetScore(ctx context.Context, userID string) (domain.ScoreResult, error)
}

// APIHandlers exposes the profile and score endpoints.
type APIHandlers struct {
	logger *slog.Logger
	scorer Scorer
	store  Store
}

// NewAPIHandlers constructs an APIHandlers instance.
func NewAPIHandlers(logger *slog.Logger, scorer Scorer, store Store) *APIHandlers {
	return &APIHandlers{
		logger: logger,
		scorer: scorer,
		store:  store,
	}
}

type profileResponse struct {
	Message string         `json:"message"`
	Profile domain.Profile `json:"profile"`
}

func (h *APIHandlers) saveProfile(w http.ResponseWriter, r *http.Request) {
	var raw scoring.RawProfile
	if err := decodeJSON(w, r, &raw); err != nil {
		h.writeAppError(w, r, err)
		return
	}

	profile, err := h.scorer.PrepareProfile(raw)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	if err := h.store.SaveProfile(r.Context(), auth.UserID(r.Context()), profile); err != nil {
		h.writeAppError(w, r, apperr.Internal("failed to save profile", err))
		return
	}

	respondJSON(w, http.StatusOK, profileResponse{Message: "Profile saved successfully", Profile: profile})
}

func (h *APIHandlers) getProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.store.GetProfile(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		h.writeAppError(w, r, storeError(err, "Profile not found", "failed to load profile"))
		return
	}
	respondJSON(w, http.StatusOK, profile)
}

func (h *APIHandlers) calculateScore(w http.ResponseWriter, r *http.Request) {
	var raw scoring.RawProfile
	if err := decodeJSON(w, r, &raw); err != nil {
		h.writeAppError(w, r, err)
		return
	}

	userID := auth.UserID(r.Context())
	result, err := h.scorer.Compute(r.Context(), userID, raw)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	if err := h.store.SaveScore(r.Context(), userID, result); err != nil {
		h.writeAppError(w, r, apperr.Internal("failed to save credit score", err))
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (h *APIHandlers) getScore(w http.ResponseWriter, r *http.Request) {
	result, err := h.store.GetScore(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		h.writeAppError(w, r, storeError(err, "Credit score not found", "failed to load credit score"))
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func storeError(err error, notFound, failed string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound(notFound)
	}
	return apperr.Internal(failed, err)
}

type errorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// writeAppError maps err onto a status code and the JSON error shape.
// Internal details are logged, never returned.
func (h *APIHandlers) writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	writeAppError(logging.FromContext(r.Context(), h.logger), w, err)
}

func writeAppError(logger *slog.Logger, w http.ResponseWriter, err error) {
	if errors.Is(err, context.Canceled) {
		logger.Info("request abandoned by client")
		return
	}

	appErr, ok := apperr.As(err)
	if !ok {
		appErr = apperr.Internal("internal server error", err)
	}

	status := appErr.HTTPStatus()
	resp := errorResponse{Error: appErr.Message, Details: appErr.Details}
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "kind", appErr.Kind.String(), "error", err)
		if appErr.Kind != apperr.KindUpstreamContract {
			resp.Details = nil
		}
	}
	respondJSON(w, status, resp)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	if r.Body == nil {
		return apperr.Validation("request body is required")
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Validation("request body is required")
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperr.Wrap(apperr.KindValidation, "request body too large", err)
		}
		return apperr.Wrap(apperr.KindValidation, "invalid JSON body", err)
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(data)
}
