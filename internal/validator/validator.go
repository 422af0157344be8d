package validator

import (
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

// seatLabelRgx matches labels like "A1", "B12" or "AA100".
var seatLabelRgx = regexp.MustCompile(`^[A-Z]{1,2}(100|[1-9][0-9]?)$`)

func NewValidator() *validator.Validate {
	validator := validator.New(validator.WithRequiredStructEnabled())

	validator.RegisterValidation("seat_label", validateSeatLabel)

	return validator
}

func validateSeatLabel(fl validator.FieldLevel) bool {
	return seatLabelRgx.MatchString(fl.Field().String())
}

// ValidationMessage converts validator errors into readable messages
func ValidationMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must contain at least %s items", err.Param())
	case "max":
		return fmt.Sprintf("must contain at most %s items", err.Param())
	case "unique":
		return "must not contain duplicates"
	case "seat_label":
		return "must be a valid seat label, e.g. A1 or B12"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", err.Param())
	default:
		return "is invalid"
	}
}
