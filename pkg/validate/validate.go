// Package validate runs go-playground/validator over request structs and
// reports failures as a field → message map keyed by JSON name.
//
// Besides the stock validator tags it understands:
//
//	notblank   string must contain something other than whitespace
//
// decimal.Decimal fields are compared as numbers, so gt/gte/lt/lte work on
// money and percentages:
//
//	type Input struct {
//	    Name  string           `json:"name"  validate:"notblank,max=255"`
//	    Price decimal.Decimal  `json:"price" validate:"gt=0"`
//	    Rate  *decimal.Decimal `json:"rate"  validate:"required,gte=0,lte=100"`
//	}
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New(validator.WithRequiredStructEnabled())

	val.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})

	val.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.InexactFloat64()
		}
		return nil
	}, decimal.Decimal{})

	_ = val.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	return val
}

// Struct validates s and returns one message per failing field. An empty
// map means s is valid.
func Struct(s any) map[string]string {
	errs := make(map[string]string)

	err := v.Struct(s)
	if err == nil {
		return errs
	}

	var invalid *validator.InvalidValidationError
	if errors.As(err, &invalid) {
		errs["_"] = "The request could not be validated."
		return errs
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		for _, fe := range fieldErrs {
			key := fieldKey(fe)
			if _, seen := errs[key]; !seen {
				errs[key] = message(fe)
			}
		}
	}
	return errs
}

func HasErrors(errs map[string]string) bool { return len(errs) > 0 }

// fieldKey drops the top-level struct name from the namespace so nested
// fields read "shipping.city" rather than "Input.shipping.city".
func fieldKey(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	field := strings.ReplaceAll(fe.Field(), "_", " ")
	param := fe.Param()
	isString := fe.Kind() == reflect.String

	switch fe.Tag() {
	case "required", "notblank":
		return fmt.Sprintf("The %s field is required.", field)
	case "email":
		return fmt.Sprintf("The %s must be a valid email address.", field)
	case "url", "http_url":
		return fmt.Sprintf("The %s must be a valid URL.", field)
	case "uuid", "uuid4":
		return fmt.Sprintf("The %s must be a valid UUID.", field)
	case "oneof":
		return fmt.Sprintf("The selected %s is invalid. Allowed: %s.", field, strings.ReplaceAll(param, " ", ", "))
	case "min":
		if isString {
			return fmt.Sprintf("The %s must be at least %s characters.", field, param)
		}
		return fmt.Sprintf("The %s must be at least %s.", field, param)
	case "max":
		if isString {
			return fmt.Sprintf("The %s must not exceed %s characters.", field, param)
		}
		return fmt.Sprintf("The %s must not be greater than %s.", field, param)
	case "gt":
		return fmt.Sprintf("The %s must be greater than %s.", field, param)
	case "gte":
		return fmt.Sprintf("The %s must be greater than or equal to %s.", field, param)
	case "lt":
		return fmt.Sprintf("The %s must be less than %s.", field, param)
	case "lte":
		return fmt.Sprintf("The %s must be less than or equal to %s.", field, param)
	default:
		return fmt.Sprintf("The %s format is invalid.", field)
	}
}
