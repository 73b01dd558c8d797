package validator

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

var testerIDPattern = regexp.MustCompile(`^BT\d{3,}$`)

// CustomValidator implements echo.Validator using go-playground/validator
type CustomValidator struct {
	v *validator.Validate
}

// New creates a new CustomValidator instance with the project rules registered
func New() *CustomValidator {
	v := validator.New()
	_ = v.RegisterValidation("tester_id", func(fl validator.FieldLevel) bool {
		return testerIDPattern.MatchString(fl.Field().String())
	})
	return &CustomValidator{v: v}
}

// Validate performs struct validation
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.v.Struct(i)
}

// Var validates a single value against a tag, e.g. Var(id, "tester_id")
func (cv *CustomValidator) Var(field interface{}, tag string) error {
	return cv.v.Var(field, tag)
}
