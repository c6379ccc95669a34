package api

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"routeplanner/internal/model"
)

var validate = newValidator()

// newValidator registers "float", which accepts whatever Numeric.Float
// parses (exponents, leading dot, surrounding whitespace).
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("float", func(fl validator.FieldLevel) bool {
		_, err := model.Numeric(fl.Field().String()).Float()
		return err == nil
	}); err != nil {
		panic(err)
	}
	return v
}

func validateRouteRequest(req *model.RouteRequest) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	name := jsonPath(fe.Namespace())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", name)
	case "float":
		return fmt.Sprintf("%s must be a number", name)
	case "min", "gte":
		return fmt.Sprintf("%s must be >= %s", name, fe.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be <= %s", name, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", name, fe.Tag())
	}
}

// jsonPath turns "RouteRequest.Origin.Lat" into "origin.lat".
func jsonPath(ns string) string {
	parts := strings.Split(ns, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i, p := range parts {
		parts[i] = snake(p)
	}
	return strings.Join(parts, ".")
}

func snake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
