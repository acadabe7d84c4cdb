// Package repository persists profiles and credit scores in the graph.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/vanshika/creditbridge/backend/internal/domain"
	"github.com/vanshika/creditbridge/backend/internal/graph"
)

// ErrNotFound is returned when the user has no stored record of the requested kind.
var ErrNotFound = errors.New("record not found")

// Repository encapsulates graph persistence operations.
type Repository struct {
	client graph.Client
	nowFn  func() time.Time
}

// New instantiates a Repository backed by the supplied graph client.
func New(client graph.Client) *Repository {
	return &Repository{client: client, nowFn: time.Now}
}

// WithClock overrides the clock used for updatedAt stamps.
func (r *Repository) WithClock(now func() time.Time) *Repository {
	if now != nil {
		r.nowFn = now
	}
	return r
}

// SaveProfile replaces the stored profile of userID.
func (r *Repository) SaveProfile(ctx context.Context, userID string, profile domain.Profile) error {
	if userID == "" {
		return errors.New("user id is required")
	}

	now := r.nowFn()
	params := map[string]any{
		"userId":    userID,
		"updatedAt": formatTime(now),
		"props":     profileProperties(profile, now),
	}
	if _, err := r.client.Run(ctx, graph.WriteStatement(saveProfileCypher, params)); err != nil {
		return fmt.Errorf("save profile %s: %w", userID, err)
	}
	return nil
}

// GetProfile loads the stored profile of userID.
func (r *Repository) GetProfile(ctx context.Context, userID string) (domain.Profile, error) {
	res, err := r.client.Run(ctx, graph.ReadStatement(getProfileCypher, map[string]any{"userId": userID}))
	if err != nil {
		return domain.Profile{}, fmt.Errorf("get profile %s: %w", userID, err)
	}
	record, ok := res.First()
	if !ok {
		return domain.Profile{}, ErrNotFound
	}
	props, ok := record["profile"].(map[string]any)
	if !ok {
		return domain.Profile{}, ErrNotFound
	}
	return profileFromProperties(props), nil
}

// StoredProfile is a persisted profile together with its owner.
type StoredProfile struct {
	UserID  string
	Profile domain.Profile
}

// ListProfiles returns every stored profile ordered by user id.
func (r *Repository) ListProfiles(ctx context.Context) ([]StoredProfile, error) {
	res, err := r.client.Run(ctx, graph.ReadStatement(listProfilesCypher, nil))
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}

	profiles := make([]StoredProfile, 0, len(res.Records))
	for _, record := range res.Records {
		userID := toString(record["userId"])
		props, ok := record["profile"].(map[string]any)
		if userID == "" || !ok {
			continue
		}
		profiles = append(profiles, StoredProfile{UserID: userID, Profile: profileFromProperties(props)})
	}
	return profiles, nil
}

// SaveScore stores result as the current credit score of userID, replacing
// any earlier one.
func (r *Repository) SaveScore(ctx context.Context, userID string, result domain.ScoreResult) error {
	if userID == "" {
		return errors.New("user id is required")
	}

	now := r.nowFn()
	props, err := scoreProperties(result, now)
	if err != nil {
		return fmt.Errorf("save score %s: %w", userID, err)
	}

	params := map[string]any{
		"userId":    userID,
		"updatedAt": formatTime(now),
		"props":     props,
	}
	if _, err := r.client.Run(ctx, graph.WriteStatement(saveScoreCypher, params)); err != nil {
		return fmt.Errorf("save score %s: %w", userID, err)
	}
	return nil
}

// GetScore loads the current credit score of userID.
func (r *Repository) GetScore(ctx context.Context, userID string) (domain.ScoreResult, error) {
	res, err := r.client.Run(ctx, graph.ReadStatement(getScoreCypher, map[string]any{"userId": userID}))
	if err != nil {
		return domain.ScoreResult{}, fmt.Errorf("get score %s: %w", userID, err)
	}
	record, ok := res.First()
	if !ok {
		return domain.ScoreResult{}, ErrNotFound
	}
	props, ok := record["score"].(map[string]any)
	if !ok {
		return domain.ScoreResult{}, ErrNotFound
	}
	result, err := scoreFromProperties(props)
	if err != nil {
		return domain.ScoreResult{}, fmt.Errorf("decode score %s: %w", userID, err)
	}
	return result, nil
}

// Ping checks the graph is reachable.
func (r *Repository) Ping(ctx context.Context) error {
	return r.client.VerifyConnectivity(ctx)
}

func profileProperties(p domain.Profile, updatedAt time.Time) map[string]any {
	income := make([]float64, 0, domain.IncomeMonths)
	income = append(income, p.MonthlyIncome[:]...)

	props := map[string]any{
		"userType":        string(p.UserType),
		"age":             int64(p.Age),
		"gender":          string(p.Gender),
		"educationLevel":  string(p.EducationLevel),
		"occupation":      p.Occupation,
		"fieldOfStudy":    p.FieldOfStudy,
		"monthlyIncome":   income,
		"rentPayment":     string(p.RentPayment),
		"utility1Payment": string(p.Utility1Payment),
		"utility2Payment": string(p.Utility2Payment),
		"updatedAt":       formatTime(updatedAt),
	}
	if p.GPA != nil {
		props["gpa"] = *p.GPA
	}
	if p.CollegeScore != nil {
		props["collegeScore"] = *p.CollegeScore
	}
	if p.CosignerIncome != nil {
		props["cosignerIncome"] = *p.CosignerIncome
	}
	if p.Scholarship != nil {
		props["scholarship"] = *p.Scholarship
	}
	return props
}

func profileFromProperties(props map[string]any) domain.Profile {
	p := domain.Profile{
		UserType:        domain.UserType(toString(props["userType"])),
		Age:             int(toFloat64(props["age"])),
		Gender:          domain.Gender(toString(props["gender"])),
		EducationLevel:  domain.EducationLevel(toString(props["educationLevel"])),
		Occupation:      toString(props["occupation"]),
		FieldOfStudy:    toString(props["fieldOfStudy"]),
		RentPayment:     domain.PaymentStatus(toString(props["rentPayment"])),
		Utility1Payment: domain.PaymentStatus(toString(props["utility1Payment"])),
		Utility2Payment: domain.PaymentStatus(toString(props["utility2Payment"])),
		GPA:             toFloat64Ptr(props["gpa"]),
		CollegeScore:    toFloat64Ptr(props["collegeScore"]),
		CosignerIncome:  toFloat64Ptr(props["cosignerIncome"]),
	}
	copy(p.MonthlyIncome[:], toFloat64Slice(props["monthlyIncome"]))
	if v, ok := props["scholarship"].(bool); ok {
		p.Scholarship = &v
	}
	return p
}

func scoreProperties(result domain.ScoreResult, updatedAt time.Time) (map[string]any, error) {
	factors, err := serializeFactors(result.TopFactors)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"score":        int64(result.Score),
		"riskBand":     string(result.RiskBand),
		"explanation":  result.Explanation,
		"factorsJson":  factors,
		"source":       string(result.Source),
		"calculatedAt": formatTime(result.CalculatedAt),
		"updatedAt":    formatTime(updatedAt),
	}, nil
}

func scoreFromProperties(props map[string]any) (domain.ScoreResult, error) {
	factors := []domain.Factor{}
	if raw := toString(props["factorsJson"]); raw != "" {
		if err := json.Unmarshal([]byte(raw), &factors); err != nil {
			return domain.ScoreResult{}, fmt.Errorf("factors: %w", err)
		}
	}

	result := domain.ScoreResult{
		Score:       int(toFloat64(props["score"])),
		RiskBand:    domain.RiskBand(toString(props["riskBand"])),
		TopFactors:  factors,
		Explanation: toString(props["explanation"]),
		Source:      domain.ScoreSource(toString(props["source"])),
	}
	if ts := toTimePtr(props["calculatedAt"]); ts != nil {
		result.CalculatedAt = ts.UTC()
	}
	return result, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func serializeFactors(factors []domain.Factor) (string, error) {
	if factors == nil {
		factors = []domain.Factor{}
	}
	bytes, err := json.Marshal(factors)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

func toString(val any) string {
	switch v := val.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case []byte:
		return string(v)
	default:
		return ""
	}
}

func toFloat64(val any) float64 {
	switch v := val.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int64:
		return float64(v)
	case int:
		return float64(v)
	default:
		return 0
	}
}

func toFloat64Ptr(val any) *float64 {
	if val == nil {
		return nil
	}
	v := toFloat64(val)
	return &v
}

func toFloat64Slice(val any) []float64 {
	switch v := val.(type) {
	case []float64:
		return v
	case []any:
		out := make([]float64, 0, len(v))
		for _, item := range v {
			out = append(out, toFloat64(item))
		}
		return out
	default:
		return nil
	}
}

func toTimePtr(val any) *time.Time {
	switch v := val.(type) {
	case time.Time:
		return &v
	case string:
		if v == "" {
			return nil
		}
		if parsed, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return &parsed
		}
		if parsed, err := time.Parse(time.RFC3339, v); err == nil {
			return &parsed
		}
	}
	return nil
}

const saveProfileCypher = `
MERGE (u:User {userId: $userId})
ON CREATE SET u.createdAt = $updatedAt
SET u.updatedAt = $updatedAt
MERGE (u)-[:HAS_PROFILE]->(p:Profile)
SET p = $props
RETURN u.userId AS userId
`

const getProfileCypher = `
MATCH (:User {userId: $userId})-[:HAS_PROFILE]->(p:Profile)
RETURN properties(p) AS profile
LIMIT 1
`

const listProfilesCypher = `
MATCH (u:User)-[:HAS_PROFILE]->(p:Profile)
RETURN u.userId AS userId, properties(p) AS profile
ORDER BY userId
`

const saveScoreCypher = `
MERGE (u:User {userId: $userId})
ON CREATE SET u.createdAt = $updatedAt
MERGE (u)-[:HAS_CREDIT_SCORE]->(s:CreditScore)
SET s = $props
RETURN u.userId AS userId
`

const getScoreCypher = `
MATCH (:User {userId: $userId})-[:HAS_CREDIT_SCORE]->(s:CreditScore)
RETURN properties(s) AS score
LIMIT 1
`
