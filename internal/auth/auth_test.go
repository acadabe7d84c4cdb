package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanshika/creditbridge/backend/internal/apperr"
)

const testSecret = "test-secret"

func sign(t *testing.T, method jwt.SigningMethod, key any, claims jwt.Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func validClaims(userID string) Claims {
	return Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func TestNewVerifierRequiresSecret(t *testing.T) {
	_, err := NewVerifier("  ")
	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestParse(t *testing.T) {
	v, err := NewVerifier(testSecret)
	require.NoError(t, err)

	expired := validClaims("u1")
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))

	tests := []struct {
		name    string
		token   string
		wantErr bool
	}{
		{name: "valid", token: sign(t, jwt.SigningMethodHS256, []byte(testSecret), validClaims("u1"))},
		{name: "wrong secret", token: sign(t, jwt.SigningMethodHS256, []byte("other"), validClaims("u1")), wantErr: true},
		{name: "expired", token: sign(t, jwt.SigningMethodHS256, []byte(testSecret), expired), wantErr: true},
		{name: "missing user", token: sign(t, jwt.SigningMethodHS256, []byte(testSecret), validClaims("")), wantErr: true},
		{name: "other algorithm", token: sign(t, jwt.SigningMethodHS512, []byte(testSecret), validClaims("u1")), wantErr: true},
		{name: "garbage", token: "not.a.token", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			claims, err := v.Parse(tc.token)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "u1", claims.UserID)
		})
	}
}

func TestMiddleware(t *testing.T) {
	v, err := NewVerifier(testSecret)
	require.NoError(t, err)

	var seenUser string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenUser = UserID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	var seenErr error
	onError := func(w http.ResponseWriter, _ *http.Request, err error) {
		seenErr = err
		w.WriteHeader(http.StatusUnauthorized)
	}
	handler := v.Middleware(onError)(next)

	token := sign(t, jwt.SigningMethodHS256, []byte(testSecret), validClaims("user-42"))
	req := httptest.NewRequest(http.MethodGet, "/score", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "user-42", seenUser)

	for _, header := range []string{"", "Basic abc", "Bearer ", "Bearer nope"} {
		seenErr = nil
		req := httptest.NewRequest(http.MethodGet, "/score", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code, "header %q", header)
		assert.True(t, apperr.Is(seenErr, apperr.KindUnauthorized), "header %q", header)
	}
}
