package domain

// UserType selects which profile fields are meaningful.
type UserType string

const (
	UserTypeWorking UserType = "working"
	UserTypeStudent UserType = "student"
)

// Gender is optional demographic data forwarded to the predictive scorer.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// EducationLevel is the highest completed education.
type EducationLevel string

const (
	EducationHighSchool EducationLevel = "high-school"
	EducationBachelors  EducationLevel = "bachelors"
	EducationMasters    EducationLevel = "masters"
	EducationPhD        EducationLevel = "phd"
	EducationOther      EducationLevel = "other"
)

// PaymentStatus describes how a recurring bill is usually paid.
type PaymentStatus string

const (
	PaymentOnTime        PaymentStatus = "on-time"
	PaymentLate          PaymentStatus = "late"
	PaymentNotApplicable PaymentStatus = "na"
)

// IncomeMonths is the number of monthly income samples kept on a profile.
const IncomeMonths = 6

// Profile is the canonical scoring input. Its JSON form is the payload sent to
// the predictive scorer, so student-only fields are pointers and disappear
// entirely for working users.
type Profile struct {
	UserType        UserType              `json:"userType"`
	Age             int                   `json:"age"`
	Gender          Gender                `json:"gender,omitempty"`
	EducationLevel  EducationLevel        `json:"educationLevel,omitempty"`
	Occupation      string                `json:"occupation,omitempty"`
	FieldOfStudy    string                `json:"fieldOfStudy,omitempty"`
	MonthlyIncome   [IncomeMonths]float64 `json:"monthlyIncome"`
	RentPayment     PaymentStatus         `json:"rentPayment"`
	Utility1Payment PaymentStatus         `json:"utility1Payment"`
	Utility2Payment PaymentStatus         `json:"utility2Payment"`
	GPA             *float64              `json:"gpa,omitempty"`
	CollegeScore    *float64              `json:"collegeScore,omitempty"`
	CosignerIncome  *float64              `json:"cosignerIncome,omitempty"`
	Scholarship     *bool                 `json:"scholarship,omitempty"`
}

// AverageIncome returns the mean of the monthly income samples. Missing months
// are stored as zero and still count towards the divisor.
func (p Profile) AverageIncome() float64 {
	var total float64
	for _, v := range p.MonthlyIncome {
		total += v
	}
	return total / IncomeMonths
}
