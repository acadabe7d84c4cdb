package predictor

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/go-playground/validator/v10"

	"github.com/vanshika/creditbridge/backend/internal/domain"
)

// maxResponseBytes caps how much of a scorer response is read.
const maxResponseBytes = 1 << 20

var responseValidator = validator.New()

// predictResponse is the wire contract of POST /predict. Score stays raw so a
// missing value can be told apart from a non-numeric one.
type predictResponse struct {
	Score       json.RawMessage `json:"score"`
	RiskBand    string          `json:"riskBand" validate:"omitempty,oneof=Low Medium High"`
	TopFactors  []factorPayload `json:"topFactors" validate:"omitempty,dive"`
	Explanation string          `json:"explanation"`
}

type factorPayload struct {
	Name        string  `json:"name" validate:"required"`
	Description string  `json:"description"`
	Impact      string  `json:"impact" validate:"required,oneof=positive negative neutral"`
	Weight      float64 `json:"weight" validate:"gte=0,lte=100"`
}

// decodeResponse turns a 2xx body into a success or invalid-response outcome.
func decodeResponse(body io.Reader) Outcome {
	var payload predictResponse
	decoder := json.NewDecoder(io.LimitReader(body, maxResponseBytes))
	if err := decoder.Decode(&payload); err != nil {
		return InvalidResponse("malformed response body", err)
	}
	if _, err := decoder.Token(); !errors.Is(err, io.EOF) {
		return InvalidResponse("trailing data after response", err)
	}

	score, reason := parseScore(payload.Score)
	if reason != "" {
		return InvalidResponse(reason, nil)
	}

	if err := responseValidator.Struct(payload); err != nil {
		return InvalidResponse("response failed schema validation", err)
	}

	var factors []domain.Factor
	if payload.TopFactors != nil {
		factors = make([]domain.Factor, 0, len(payload.TopFactors))
		for _, f := range payload.TopFactors {
			factors = append(factors, domain.Factor{
				Name:        f.Name,
				Description: f.Description,
				Impact:      domain.Impact(f.Impact),
				Weight:      f.Weight,
			})
		}
	}

	return Success(score, domain.RiskBand(payload.RiskBand), factors, payload.Explanation)
}

func parseScore(raw json.RawMessage) (int, string) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, "missing score"
	}
	var value float64
	if err := json.Unmarshal(raw, &value); err != nil {
		return 0, "score is not numeric"
	}
	if value < 0 || value > 100 {
		return 0, fmt.Sprintf("score %g outside [0,100]", value)
	}
	return int(math.Round(value)), ""
}
