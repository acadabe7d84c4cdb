package scoring

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// RawProfile is the inbound, partially-filled profile accepted from callers.
// Numeric fields are lenient: they decode from numbers, numeric strings or
// null and never fail, so a malformed sample degrades instead of rejecting
// the whole document.
type RawProfile struct {
	UserType        string       `json:"userType"`
	Age             Number       `json:"age"`
	Gender          string       `json:"gender"`
	EducationLevel  string       `json:"educationLevel"`
	Occupation      string       `json:"occupation"`
	FieldOfStudy    string       `json:"fieldOfStudy"`
	MonthlyIncome   IncomeSeries `json:"monthlyIncome"`
	RentPayment     string       `json:"rentPayment"`
	Utility1Payment string       `json:"utility1Payment"`
	Utility2Payment string       `json:"utility2Payment"`
	GPA             Number       `json:"gpa"`
	CollegeScore    Number       `json:"collegeScore"`
	CosignerIncome  Number       `json:"cosignerIncome"`
	Scholarship     Flag         `json:"scholarship"`
}

// ProfileRecord pairs a raw profile with the user it belongs to.
type ProfileRecord struct {
	UserID  string     `json:"userId"`
	Profile RawProfile `json:"profile"`
}

// Number is a lenient JSON number. Valid is false when the value was absent,
// null or could not be parsed. Present tells an unparseable value apart from
// an absent one.
type Number struct {
	Value   float64
	Valid   bool
	Present bool
}

// Num returns a valid Number holding v.
func Num(v float64) Number {
	return Number{Value: v, Valid: true, Present: true}
}

// UnmarshalJSON accepts numbers and numeric strings. It never returns an error.
func (n *Number) UnmarshalJSON(data []byte) error {
	*n = Number{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	n.Present = true

	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*n = Num(num)
		return nil
	}

	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		parsed, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
		if err == nil && !math.IsNaN(parsed) && !math.IsInf(parsed, 0) {
			*n = Num(parsed)
		}
	}
	return nil
}

// MarshalJSON writes null for invalid numbers.
func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// IncomeSeries holds monthly income samples, most recent last. A value that
// is not a JSON array decodes to an empty series.
type IncomeSeries []Number

// UnmarshalJSON never returns an error.
func (s *IncomeSeries) UnmarshalJSON(data []byte) error {
	var items []Number
	if err := json.Unmarshal(data, &items); err != nil {
		*s = nil
		return nil
	}
	*s = items
	return nil
}

// Flag is a lenient JSON boolean. It accepts true/false, numbers (non-zero is
// true) and the strings "yes", "true" and "1". Any other present value is false.
type Flag struct {
	Value bool
	Valid bool
}

// UnmarshalJSON never returns an error.
func (f *Flag) UnmarshalJSON(data []byte) error {
	*f = Flag{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	f.Valid = true

	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		f.Value = b
		return nil
	}
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		f.Value = num != 0
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		switch strings.ToLower(strings.TrimSpace(str)) {
		case "yes", "true", "1":
			f.Value = true
		}
	}
	return nil
}

// MarshalJSON writes null for absent flags.
func (f Flag) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}
