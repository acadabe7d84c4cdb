package scoring

import (
	"math"

	"github.com/vanshika/creditbridge/backend/internal/domain"
)

// Fallback weights. Changing any of them changes every fallback score, so
// keep them in step with fallbackFactors.
const (
	fallbackBaseScore = 50.0

	// Payment history, max 35.
	rentOnTimePoints     = 12.0
	utility1OnTimePoints = 11.0
	utility2OnTimePoints = 12.0
)

// incomeTiers is ordered from the highest threshold down; the first match wins.
var incomeTiers = []struct {
	above  float64
	points float64
}{
	{above: 5000, points: 30},
	{above: 3000, points: 20},
	{above: 1000, points: 10},
}

var educationPoints = map[domain.EducationLevel]float64{
	domain.EducationPhD:        15,
	domain.EducationMasters:    12,
	domain.EducationBachelors:  10,
	domain.EducationHighSchool: 5,
	domain.EducationOther:      3,
}

var fallbackFactors = []domain.Factor{
	{
		Name:        "Payment History",
		Description: "Your payment consistency for rent and utilities",
		Impact:      domain.ImpactPositive,
		Weight:      35,
	},
	{
		Name:        "Income Stability",
		Description: "Your income trend over the last 6 months",
		Impact:      domain.ImpactPositive,
		Weight:      30,
	},
	{
		Name:        "Education Level",
		Description: "Your educational background",
		Impact:      domain.ImpactPositive,
		Weight:      15,
	},
}

const (
	fallbackExplanation = "Score calculated based on payment history, income stability, and education level."
	remoteExplanation   = "Score calculated by the predictive scoring model."
)

// ComputeFallback scores a profile with fixed weighted rules. It deliberately
// ignores occupation, gender, age and every student-only field.
func ComputeFallback(p domain.Profile) int {
	score := fallbackBaseScore
	score += paymentPoints(p)
	score += incomePoints(p.AverageIncome())
	score += educationPoints[p.EducationLevel]
	return clampScore(score)
}

func paymentPoints(p domain.Profile) float64 {
	var points float64
	if p.RentPayment == domain.PaymentOnTime {
		points += rentOnTimePoints
	}
	if p.Utility1Payment == domain.PaymentOnTime {
		points += utility1OnTimePoints
	}
	if p.Utility2Payment == domain.PaymentOnTime {
		points += utility2OnTimePoints
	}
	return points
}

func incomePoints(average float64) float64 {
	for _, tier := range incomeTiers {
		if average > tier.above {
			return tier.points
		}
	}
	return 0
}

func fallbackTopFactors() []domain.Factor {
	return append([]domain.Factor(nil), fallbackFactors...)
}

func clampScore(value float64) int {
	rounded := math.Round(value)
	if math.IsNaN(rounded) || rounded < 0 {
		return 0
	}
	if rounded > 100 {
		return 100
	}
	return int(rounded)
}
