// Package auth verifies bearer tokens and exposes the caller identity.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/vanshika/creditbridge/backend/internal/apperr"
	"github.com/vanshika/creditbridge/backend/internal/logging"
)

// ErrMissingSecret indicates no signing secret was configured.
var ErrMissingSecret = errors.New("jwt secret is required")

// Claims is the token payload. UserID is the caller identity.
type Claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// Verifier checks HS256 tokens signed with a shared secret.
type Verifier struct {
	secret []byte
	parser *jwt.Parser
}

// NewVerifier builds a Verifier for secret.
func NewVerifier(secret string) (*Verifier, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, ErrMissingSecret
	}
	return &Verifier{
		secret: []byte(secret),
		parser: jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})),
	}, nil
}

// Parse validates raw and returns its claims.
func (v *Verifier) Parse(raw string) (*Claims, error) {
	claims := &Claims{}
	token, err := v.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("token is not valid")
	}
	if claims.UserID == "" {
		return nil, errors.New("token has no userId claim")
	}
	return claims, nil
}

// ErrorWriter renders an authentication failure.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

// Middleware rejects requests without a valid bearer token and stores the
// caller on the request context.
func (v *Verifier) Middleware(onError ErrorWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				onError(w, r, apperr.Unauthorized("missing bearer token"))
				return
			}
			claims, err := v.Parse(raw)
			if err != nil {
				onError(w, r, apperr.Wrap(apperr.KindUnauthorized, "invalid token", err))
				return
			}
			next.ServeHTTP(w, r.WithContext(logging.WithUserID(r.Context(), claims.UserID)))
		})
	}
}

// UserID returns the authenticated caller, or "" outside the middleware.
func UserID(ctx context.Context) string {
	return logging.UserID(ctx)
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
