package predictor

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanshika/creditbridge/backend/internal/domain"
	"github.com/vanshika/creditbridge/backend/internal/logging"
)

func newTestClient(t *testing.T, url string, timeout time.Duration) *HTTPClient {
	t.Helper()
	client, err := NewHTTPClient(HTTPOptions{BaseURL: url, Timeout: timeout}, logging.Discard())
	require.NoError(t, err)
	return client
}

func workingProfile() domain.Profile {
	return domain.Profile{
		UserType:        domain.UserTypeWorking,
		Age:             30,
		EducationLevel:  domain.EducationBachelors,
		MonthlyIncome:   [domain.IncomeMonths]float64{3000, 3100, 3200, 3300, 3400, 3500},
		RentPayment:     domain.PaymentOnTime,
		Utility1Payment: domain.PaymentOnTime,
		Utility2Payment: domain.PaymentLate,
	}
}

func respondWith(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

func TestPredictSendsProfile(t *testing.T) {
	var (
		gotPath   string
		gotMethod string
		gotReqID  string
		gotBody   map[string]any
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		gotReqID = r.Header.Get(requestIDHeader)
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		respondWith(http.StatusOK, `{"score": 72}`)(w, r)
	}))
	defer srv.Close()

	outcome := newTestClient(t, srv.URL+"/", time.Second).Predict(context.Background(), workingProfile())

	require.Equal(t, StatusSuccess, outcome.Status)
	assert.Equal(t, 72, outcome.Score)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, predictPath, gotPath)
	assert.NotEmpty(t, gotReqID)
	assert.Equal(t, "working", gotBody["userType"])
	assert.Len(t, gotBody["monthlyIncome"], domain.IncomeMonths)
	assert.NotContains(t, gotBody, "gpa")
	assert.NotContains(t, gotBody, "gender")
}

func TestPredictClassification(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    Status
		score   int
		factors int
	}{
		{name: "full response", status: 200, body: `{"score":64.6,"riskBand":"Medium","topFactors":[{"name":"Income","description":"steady","impact":"positive","weight":30}],"explanation":"ok"}`, want: StatusSuccess, score: 65, factors: 1},
		{name: "score only", status: 200, body: `{"score":85}`, want: StatusSuccess, score: 85},
		{name: "neutral impact", status: 200, body: `{"score":50,"topFactors":[{"name":"Age","impact":"neutral","weight":5}]}`, want: StatusSuccess, score: 50, factors: 1},
		{name: "boundary zero", status: 200, body: `{"score":0}`, want: StatusSuccess},
		{name: "score above range", status: 200, body: `{"score":150}`, want: StatusInvalidResponse},
		{name: "negative score", status: 200, body: `{"score":-1}`, want: StatusInvalidResponse},
		{name: "missing score", status: 200, body: `{"riskBand":"Low"}`, want: StatusInvalidResponse},
		{name: "null score", status: 200, body: `{"score":null}`, want: StatusInvalidResponse},
		{name: "string score", status: 200, body: `{"score":"high"}`, want: StatusInvalidResponse},
		{name: "unknown band", status: 200, body: `{"score":50,"riskBand":"Severe"}`, want: StatusInvalidResponse},
		{name: "factor without name", status: 200, body: `{"score":50,"topFactors":[{"impact":"positive","weight":1}]}`, want: StatusInvalidResponse},
		{name: "factor weight out of range", status: 200, body: `{"score":50,"topFactors":[{"name":"x","impact":"positive","weight":101}]}`, want: StatusInvalidResponse},
		{name: "unknown impact", status: 200, body: `{"score":50,"topFactors":[{"name":"x","impact":"great","weight":1}]}`, want: StatusInvalidResponse},
		{name: "malformed json", status: 200, body: `{"score":`, want: StatusInvalidResponse},
		{name: "trailing value", status: 200, body: `{"score":85} {"score":"junk"}`, want: StatusInvalidResponse},
		{name: "trailing garbage", status: 200, body: `{"score":85}xyz`, want: StatusInvalidResponse},
		{name: "trailing newline", status: 200, body: "{\"score\":85}\n", want: StatusSuccess, score: 85},
		{name: "not an object", status: 200, body: `[1,2,3]`, want: StatusInvalidResponse},
		{name: "bad request", status: 400, body: `{"error":"bad"}`, want: StatusInvalidResponse},
		{name: "internal error", status: 500, body: `{"error":"boom"}`, want: StatusInvalidResponse},
		{name: "bad gateway", status: 502, body: ``, want: StatusUnavailable},
		{name: "service unavailable", status: 503, body: ``, want: StatusUnavailable},
		{name: "gateway timeout", status: 504, body: ``, want: StatusUnavailable},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(respondWith(tc.status, tc.body))
			defer srv.Close()

			outcome := newTestClient(t, srv.URL, time.Second).Predict(context.Background(), workingProfile())

			require.Equal(t, tc.want, outcome.Status, "reason=%q err=%v", outcome.Reason, outcome.Err)
			switch tc.want {
			case StatusSuccess:
				assert.Equal(t, tc.score, outcome.Score)
				assert.Len(t, outcome.TopFactors, tc.factors)
				assert.NoError(t, outcome.Err)
			case StatusInvalidResponse:
				assert.NotEmpty(t, outcome.Reason)
				assert.Error(t, outcome.Err)
			case StatusUnavailable:
				assert.Error(t, outcome.Err)
			}
		})
	}
}

func TestPredictConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(respondWith(http.StatusOK, `{"score":1}`))
	url := srv.URL
	srv.Close()

	outcome := newTestClient(t, url, time.Second).Predict(context.Background(), workingProfile())
	assert.Equal(t, StatusUnavailable, outcome.Status)
	assert.Error(t, outcome.Err)
}

func TestPredictTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	started := time.Now()
	outcome := newTestClient(t, srv.URL, 5*time.Second).Predict(ctx, workingProfile())

	assert.Equal(t, StatusUnavailable, outcome.Status)
	assert.Less(t, time.Since(started), 2*time.Second)
}

func TestPredictClientTimeoutBackstop(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	outcome := newTestClient(t, srv.URL, 50*time.Millisecond).Predict(context.Background(), workingProfile())
	assert.Equal(t, StatusUnavailable, outcome.Status)
}

func TestPredictStudentPayload(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&body)
		respondWith(http.StatusOK, `{"score":60}`)(w, r)
	}))
	defer srv.Close()

	gpa, college, cosigner, scholarship := 7.2, 65.0, 0.0, true
	p := workingProfile()
	p.UserType = domain.UserTypeStudent
	p.GPA = &gpa
	p.CollegeScore = &college
	p.CosignerIncome = &cosigner
	p.Scholarship = &scholarship

	outcome := newTestClient(t, srv.URL, time.Second).Predict(context.Background(), p)
	require.Equal(t, StatusSuccess, outcome.Status)
	assert.Equal(t, "student", body["userType"])
	assert.Equal(t, 7.2, body["gpa"])
	assert.Equal(t, true, body["scholarship"])
	assert.Contains(t, body, "cosignerIncome")
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == healthPath {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	assert.NoError(t, newTestClient(t, srv.URL, time.Second).Health(context.Background()))

	down := httptest.NewServer(respondWith(http.StatusServiceUnavailable, ""))
	defer down.Close()
	err := newTestClient(t, down.URL, time.Second).Health(context.Background())
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "503"))
}

func TestNewHTTPClientValidatesOptions(t *testing.T) {
	_, err := NewHTTPClient(HTTPOptions{Timeout: time.Second}, nil)
	assert.ErrorIs(t, err, ErrMissingURL)

	_, err = NewHTTPClient(HTTPOptions{BaseURL: "http://scorer"}, nil)
	assert.Error(t, err)
}

func TestStubClientReplaysOutcomes(t *testing.T) {
	stub := NewStubClient().
		PushOutcome(Success(70, domain.RiskLow, nil, "")).
		PushOutcome(InvalidResponse("bad", nil))

	assert.Equal(t, StatusSuccess, stub.Predict(context.Background(), workingProfile()).Status)
	assert.Equal(t, StatusInvalidResponse, stub.Predict(context.Background(), workingProfile()).Status)
	assert.Equal(t, StatusUnavailable, stub.Predict(context.Background(), workingProfile()).Status)
	assert.Len(t, stub.Calls(), 3)
}
