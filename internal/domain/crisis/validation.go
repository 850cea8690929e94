package crisis

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var payloadValidate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidatePayload checks the minimum length of every payload field.
// Lengths are counted in characters, not bytes.
func ValidatePayload(p Payload) error {
	err := payloadValidate.Struct(p)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	verr := &ValidationError{}
	for _, fe := range fieldErrs {
		min, _ := strconv.Atoi(fe.Param())
		verr.Violations = append(verr.Violations, Violation{Field: fe.Field(), Min: min})
	}
	return verr
}
