package domain

import "time"

// RiskBand is the coarse classification derived from a score.
type RiskBand string

const (
	RiskLow    RiskBand = "Low"
	RiskMedium RiskBand = "Medium"
	RiskHigh   RiskBand = "High"
)

// Impact is the direction in which a factor moved the score.
type Impact string

const (
	ImpactPositive Impact = "positive"
	ImpactNegative Impact = "negative"
	ImpactNeutral  Impact = "neutral"
)

// ScoreSource records which path produced a score.
type ScoreSource string

const (
	SourceRemote   ScoreSource = "remote"
	SourceFallback ScoreSource = "fallback"
)

// Factor is a named contributor to a score.
type Factor struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Impact      Impact  `json:"impact"`
	Weight      float64 `json:"weight"`
}

// ScoreResult is the outcome of a single computation. It is never mutated
// after being returned.
type ScoreResult struct {
	Score        int         `json:"score"`
	RiskBand     RiskBand    `json:"riskBand"`
	TopFactors   []Factor    `json:"topFactors"`
	Explanation  string      `json:"explanation"`
	CalculatedAt time.Time   `json:"calculatedAt"`
	Source       ScoreSource `json:"source"`
}
