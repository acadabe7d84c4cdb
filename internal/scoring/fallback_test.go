package scoring

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vanshika/creditbridge/backend/internal/domain"
)

func profileWith(mutate func(*domain.Profile)) domain.Profile {
	p := domain.Profile{
		UserType:        domain.UserTypeWorking,
		Age:             30,
		RentPayment:     domain.PaymentLate,
		Utility1Payment: domain.PaymentLate,
		Utility2Payment: domain.PaymentLate,
	}
	if mutate != nil {
		mutate(&p)
	}
	return p
}

func flatIncome(v float64) [domain.IncomeMonths]float64 {
	var out [domain.IncomeMonths]float64
	for i := range out {
		out[i] = v
	}
	return out
}

func TestComputeFallbackClampsTopScore(t *testing.T) {
	p := profileWith(func(p *domain.Profile) {
		p.RentPayment = domain.PaymentOnTime
		p.Utility1Payment = domain.PaymentOnTime
		p.Utility2Payment = domain.PaymentOnTime
		p.MonthlyIncome = flatIncome(6000)
		p.EducationLevel = domain.EducationPhD
	})

	score := ComputeFallback(p)
	assert.Equal(t, 100, score)
	assert.Equal(t, domain.RiskLow, Band(score))
}

func TestComputeFallbackLatePayer(t *testing.T) {
	p := profileWith(func(p *domain.Profile) {
		p.EducationLevel = domain.EducationOther
	})

	score := ComputeFallback(p)
	assert.Equal(t, 53, score)
	assert.Equal(t, domain.RiskMedium, Band(score))
}

func TestComputeFallbackComponents(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.Profile)
		want   int
	}{
		{name: "base only", want: 50},
		{name: "rent on time", mutate: func(p *domain.Profile) { p.RentPayment = domain.PaymentOnTime }, want: 62},
		{name: "utility1 on time", mutate: func(p *domain.Profile) { p.Utility1Payment = domain.PaymentOnTime }, want: 61},
		{name: "utility2 on time", mutate: func(p *domain.Profile) { p.Utility2Payment = domain.PaymentOnTime }, want: 62},
		{name: "na earns nothing", mutate: func(p *domain.Profile) { p.RentPayment = domain.PaymentNotApplicable }, want: 50},
		{name: "income just above 5000", mutate: func(p *domain.Profile) { p.MonthlyIncome = flatIncome(5000.01) }, want: 80},
		{name: "income exactly 5000", mutate: func(p *domain.Profile) { p.MonthlyIncome = flatIncome(5000) }, want: 70},
		{name: "income exactly 3000", mutate: func(p *domain.Profile) { p.MonthlyIncome = flatIncome(3000) }, want: 60},
		{name: "income exactly 1000", mutate: func(p *domain.Profile) { p.MonthlyIncome = flatIncome(1000) }, want: 50},
		{name: "income averaged over six months", mutate: func(p *domain.Profile) {
			p.MonthlyIncome = [domain.IncomeMonths]float64{0, 0, 0, 0, 0, 30000}
		}, want: 70},
		{name: "masters", mutate: func(p *domain.Profile) { p.EducationLevel = domain.EducationMasters }, want: 62},
		{name: "bachelors", mutate: func(p *domain.Profile) { p.EducationLevel = domain.EducationBachelors }, want: 60},
		{name: "high school", mutate: func(p *domain.Profile) { p.EducationLevel = domain.EducationHighSchool }, want: 55},
		{name: "unset education", mutate: func(p *domain.Profile) { p.EducationLevel = "" }, want: 50},
		{name: "negative income earns nothing", mutate: func(p *domain.Profile) { p.MonthlyIncome = flatIncome(-9000) }, want: 50},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ComputeFallback(profileWith(tc.mutate)))
		})
	}
}

func TestComputeFallbackIgnoresNonScoringFields(t *testing.T) {
	base := profileWith(nil)
	gpa, cosigner := 9.9, 100000.0
	scholarship := true
	decorated := profileWith(func(p *domain.Profile) {
		p.UserType = domain.UserTypeStudent
		p.Age = 99
		p.Gender = domain.GenderFemale
		p.Occupation = "astronaut"
		p.GPA = &gpa
		p.CosignerIncome = &cosigner
		p.Scholarship = &scholarship
	})

	assert.Equal(t, ComputeFallback(base), ComputeFallback(decorated))
}

func TestComputeFallbackIsDeterministic(t *testing.T) {
	p := profileWith(func(p *domain.Profile) {
		p.MonthlyIncome = [domain.IncomeMonths]float64{1200, 3400, 900, 4100, 2800, 3300}
		p.EducationLevel = domain.EducationBachelors
		p.Utility1Payment = domain.PaymentOnTime
	})
	first := ComputeFallback(p)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, ComputeFallback(p))
	}
}

func TestClampScore(t *testing.T) {
	assert.Equal(t, 0, clampScore(-12))
	assert.Equal(t, 100, clampScore(130))
	assert.Equal(t, 53, clampScore(52.5))
	assert.Equal(t, 0, clampScore(math.NaN()))
	assert.Equal(t, 100, clampScore(math.Inf(1)))
}

func TestFallbackTopFactorsReturnsCopy(t *testing.T) {
	factors := fallbackTopFactors()
	factors[0].Name = "mutated"
	assert.Equal(t, "Payment History", fallbackTopFactors()[0].Name)
}
