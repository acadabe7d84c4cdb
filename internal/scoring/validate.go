package scoring

import (
	"errors"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/vanshika/creditbridge/backend/internal/apperr"
)

const (
	minAge = 18
	maxAge = 100
)

// profileRules is the subset of a raw profile that can reject a request.
// Everything else is repaired by Normalize.
type profileRules struct {
	UserType string   `json:"userType" validate:"omitempty,oneof=working student"`
	Age      *float64 `json:"age" validate:"required,finite,integral,gte=18,lte=100"`
}

// FieldError describes one rejected field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type profileValidator struct {
	v *validator.Validate
}

func newProfileValidator() *profileValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// Registration only fails for an empty tag or nil func.
	_ = v.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
		f := fl.Field().Float()
		return !math.IsNaN(f) && !math.IsInf(f, 0)
	})
	_ = v.RegisterValidation("integral", func(fl validator.FieldLevel) bool {
		f := fl.Field().Float()
		return f == math.Trunc(f)
	})
	return &profileValidator{v: v}
}

// Validate returns an apperr validation error listing every rejected field.
func (pv *profileValidator) Validate(raw RawProfile) error {
	rules := profileRules{UserType: canonicalKey(raw.UserType)}
	switch {
	case raw.Age.Valid:
		age := raw.Age.Value
		rules.Age = &age
	case raw.Age.Present:
		unparsed := math.NaN()
		rules.Age = &unparsed
	}

	err := pv.v.Struct(rules)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Wrap(apperr.KindValidation, "invalid profile", err)
	}

	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
	}
	return apperr.Validation("invalid profile").WithDetails(fields)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "finite":
		return "must be a number"
	case "integral":
		return "must be a whole number"
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	default:
		return "is invalid"
	}
}
