package scoring

import (
	"math"
	"regexp"
	"strings"

	"github.com/vanshika/creditbridge/backend/internal/domain"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// Student defaults applied when a student leaves a field out.
const (
	defaultGPA            = 6.5
	defaultCollegeScore   = 60.0
	defaultCosignerIncome = 0.0
)

var educationAliases = map[string]domain.EducationLevel{
	"high-school": domain.EducationHighSchool,
	"highschool":  domain.EducationHighSchool,
	"bachelors":   domain.EducationBachelors,
	"bachelor":    domain.EducationBachelors,
	"masters":     domain.EducationMasters,
	"master":      domain.EducationMasters,
	"phd":         domain.EducationPhD,
	"doctorate":   domain.EducationPhD,
	"other":       domain.EducationOther,
}

// Normalize maps a raw profile onto the canonical scoring payload. It is pure
// and total: every malformed or missing field degrades to its default.
func Normalize(raw RawProfile) domain.Profile {
	p := domain.Profile{
		UserType:        normalizeUserType(raw.UserType),
		Age:             normalizeAge(raw.Age),
		Gender:          normalizeGender(raw.Gender),
		EducationLevel:  normalizeEducation(raw.EducationLevel),
		Occupation:      sanitizeString(raw.Occupation),
		FieldOfStudy:    sanitizeString(raw.FieldOfStudy),
		MonthlyIncome:   normalizeIncome(raw.MonthlyIncome),
		RentPayment:     normalizePayment(raw.RentPayment),
		Utility1Payment: normalizePayment(raw.Utility1Payment),
		Utility2Payment: normalizePayment(raw.Utility2Payment),
	}

	if p.UserType == domain.UserTypeStudent {
		p.GPA = floatOrDefault(raw.GPA, defaultGPA)
		p.CollegeScore = floatOrDefault(raw.CollegeScore, defaultCollegeScore)
		p.CosignerIncome = floatOrDefault(raw.CosignerIncome, defaultCosignerIncome)
		scholarship := raw.Scholarship.Valid && raw.Scholarship.Value
		p.Scholarship = &scholarship
	}

	return p
}

// RawFromProfile converts a canonical profile back into the inbound shape.
func RawFromProfile(p domain.Profile) RawProfile {
	raw := RawProfile{
		UserType:        string(p.UserType),
		Age:             Num(float64(p.Age)),
		Gender:          string(p.Gender),
		EducationLevel:  string(p.EducationLevel),
		Occupation:      p.Occupation,
		FieldOfStudy:    p.FieldOfStudy,
		MonthlyIncome:   make(IncomeSeries, 0, domain.IncomeMonths),
		RentPayment:     string(p.RentPayment),
		Utility1Payment: string(p.Utility1Payment),
		Utility2Payment: string(p.Utility2Payment),
	}
	for _, v := range p.MonthlyIncome {
		raw.MonthlyIncome = append(raw.MonthlyIncome, Num(v))
	}
	if p.GPA != nil {
		raw.GPA = Num(*p.GPA)
	}
	if p.CollegeScore != nil {
		raw.CollegeScore = Num(*p.CollegeScore)
	}
	if p.CosignerIncome != nil {
		raw.CosignerIncome = Num(*p.CosignerIncome)
	}
	if p.Scholarship != nil {
		raw.Scholarship = Flag{Value: *p.Scholarship, Valid: true}
	}
	return raw
}

// RecordFromProfile wraps a stored profile so it can be rescored in a batch.
func RecordFromProfile(userID string, p domain.Profile) ProfileRecord {
	return ProfileRecord{UserID: userID, Profile: RawFromProfile(p)}
}

func normalizeUserType(value string) domain.UserType {
	if canonicalKey(value) == string(domain.UserTypeStudent) {
		return domain.UserTypeStudent
	}
	return domain.UserTypeWorking
}

func normalizeAge(n Number) int {
	if !n.Valid {
		return 0
	}
	return int(math.Round(n.Value))
}

func normalizeGender(value string) domain.Gender {
	switch g := domain.Gender(canonicalKey(value)); g {
	case domain.GenderMale, domain.GenderFemale, domain.GenderOther:
		return g
	default:
		return ""
	}
}

func normalizeEducation(value string) domain.EducationLevel {
	return educationAliases[canonicalKey(value)]
}

// normalizePayment defaults an empty status to on-time. Unknown statuses
// become na so they never earn on-time credit.
func normalizePayment(value string) domain.PaymentStatus {
	switch canonicalKey(value) {
	case "", "on-time", "ontime":
		return domain.PaymentOnTime
	case "late":
		return domain.PaymentLate
	default:
		return domain.PaymentNotApplicable
	}
}

// normalizeIncome keeps the most recent six samples and pads the rest with zero.
func normalizeIncome(series IncomeSeries) [domain.IncomeMonths]float64 {
	var out [domain.IncomeMonths]float64
	if len(series) > domain.IncomeMonths {
		series = series[len(series)-domain.IncomeMonths:]
	}
	for i, sample := range series {
		if sample.Valid {
			out[i] = sample.Value
		}
	}
	return out
}

func floatOrDefault(n Number, fallback float64) *float64 {
	v := fallback
	if n.Valid {
		v = n.Value
	}
	return &v
}

// canonicalKey lowercases the value and joins words with hyphens.
func canonicalKey(value string) string {
	value = strings.ToLower(sanitizeString(value))
	value = strings.ReplaceAll(value, "_", "-")
	return strings.ReplaceAll(value, " ", "-")
}

// sanitizeString collapses whitespace and trims the result.
func sanitizeString(value string) string {
	value = whitespaceRegex.ReplaceAllString(value, " ")
	return strings.TrimSpace(value)
}
