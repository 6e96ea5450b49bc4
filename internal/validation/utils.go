// Package validation binds request payloads and checks them against their
// struct tags, turning failures into field-level API errors.
package validation

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/deppfellow/go-expenses/internal/errs"
)

// Validatable is implemented by every request payload.
type Validatable interface {
	Validate() error
}

// CustomValidationError covers rules that struct tags cannot express.
type CustomValidationError struct {
	Field   string
	Message string
}

type CustomValidationErrors []CustomValidationError

func (c CustomValidationErrors) Error() string {
	return "Validation failed"
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator returns the shared validator. Field names in errors are the
// json names. Besides the built-in rules it knows "notblank" and the exact
// decimal rules "decimal_gte", "decimal_lte" and "decimal_places".
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New()

		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})

		_ = v.RegisterValidation("notblank", validators.NotBlank)
		_ = v.RegisterValidation("decimal_gte", decimalGTE)
		_ = v.RegisterValidation("decimal_lte", decimalLTE)
		_ = v.RegisterValidation("decimal_places", decimalPlaces)

		validate = v
	})
	return validate
}

func decimalParam(fl validator.FieldLevel) (decimal.Decimal, decimal.Decimal, bool) {
	d, ok := fl.Field().Interface().(decimal.Decimal)
	if !ok {
		return decimal.Decimal{}, decimal.Decimal{}, false
	}
	bound, err := decimal.NewFromString(fl.Param())
	if err != nil {
		return decimal.Decimal{}, decimal.Decimal{}, false
	}
	return d, bound, true
}

func decimalGTE(fl validator.FieldLevel) bool {
	d, bound, ok := decimalParam(fl)
	return ok && d.GreaterThanOrEqual(bound)
}

func decimalLTE(fl validator.FieldLevel) bool {
	d, bound, ok := decimalParam(fl)
	return ok && d.LessThanOrEqual(bound)
}

// decimalPlaces rejects values that would be rounded to fit the given scale.
func decimalPlaces(fl validator.FieldLevel) bool {
	d, ok := fl.Field().Interface().(decimal.Decimal)
	if !ok {
		return false
	}
	places, err := strconv.ParseInt(fl.Param(), 10, 32)
	if err != nil {
		return false
	}
	return d.Equal(d.Round(int32(places)))
}

// Struct validates s with the shared validator.
func Struct(s any) error {
	return Validator().Struct(s)
}

// BindAndValidate binds path parameters and body into payload, then
// validates it. Binding problems are 400s; failed rules are a plain-text
// 422 listing every field.
func BindAndValidate(c echo.Context, payload Validatable) error {
	if err := c.Bind(payload); err != nil {
		return errs.NewBadRequestError(bindErrorMessage(err), false, nil, nil, nil)
	}

	if msg, fieldErrors := validateStruct(payload); fieldErrors != nil {
		return errs.NewUnprocessableEntityError(msg, fieldErrors).AsText()
	}

	return nil
}

func bindErrorMessage(err error) string {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if msg, ok := he.Message.(string); ok && msg != "" {
			return msg
		}
		return http.StatusText(he.Code)
	}
	return err.Error()
}

func validateStruct(v Validatable) (string, []errs.FieldError) {
	if err := v.Validate(); err != nil {
		return extractValidationError(err)
	}
	return "", nil
}

func extractValidationError(err error) (string, []errs.FieldError) {
	var fieldErrors []errs.FieldError

	var custom CustomValidationErrors
	if errors.As(err, &custom) {
		for _, ce := range custom {
			fieldErrors = append(fieldErrors, errs.FieldError{Field: ce.Field, Error: ce.Message})
		}
		return "Validation failed", fieldErrors
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return "Validation failed", []errs.FieldError{{Field: "body", Error: err.Error()}}
	}

	for _, fe := range validationErrors {
		fieldErrors = append(fieldErrors, errs.FieldError{
			Field: fe.Field(),
			Error: messageFor(fe),
		})
	}

	return "Validation failed", fieldErrors
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "notblank":
		return "must not be blank"
	case "gte", "decimal_gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "lte", "decimal_lte":
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	case "decimal_places":
		return fmt.Sprintf("must have at most %s decimal places", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must not exceed %s characters", fe.Param())
		}
		return fmt.Sprintf("must not exceed %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		if fe.Param() != "" {
			return fmt.Sprintf("failed %s:%s", fe.Tag(), fe.Param())
		}
		return fmt.Sprintf("failed %s", fe.Tag())
	}
}
