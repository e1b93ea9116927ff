package validator

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

type ErrorResponse struct {
	FailedField string `json:"field"`
	Tag         string `json:"tag"`
	Value       string `json:"param,omitempty"`
}

// Error is returned by Validate when one or more fields fail.
type Error struct {
	Fields []*ErrorResponse
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	first := e.Fields[0]
	return fmt.Sprintf("validation failed: field '%s' failed on tag '%s'", first.FailedField, first.Tag)
}

var (
	validate    = validator.New()
	digitsOnly  = regexp.MustCompile(`^[0-9]+$`)
	nonZeroDigs = regexp.MustCompile(`[1-9]`)
)

func init() {
	// decimals validate as their float value so gt/gte/lte work on prices
	validate.RegisterCustomTypeFunc(func(v reflect.Value) interface{} {
		if d, ok := v.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	// expiry accepts a month (2006-01) or a full date (2006-01-02)
	validate.RegisterValidation("expiry", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		for _, layout := range []string{"2006-01", "2006-01-02"} {
			if _, err := time.Parse(layout, s); err == nil {
				return true
			}
		}
		return false
	})

	// barcode must be digits and not all zeros
	validate.RegisterValidation("barcode", func(fl validator.FieldLevel) bool {
		s := strings.TrimSpace(fl.Field().String())
		return digitsOnly.MatchString(s) && nonZeroDigs.MatchString(s)
	})
}

func ValidateStruct(data interface{}) []*ErrorResponse {
	var errors []*ErrorResponse
	err := validate.Struct(data)
	if err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return []*ErrorResponse{{FailedField: "", Tag: "invalid"}}
		}
		for _, err := range verrs {
			var element ErrorResponse
			element.FailedField = err.StructNamespace()
			element.Tag = err.Tag()
			element.Value = err.Param()
			errors = append(errors, &element)
		}
	}
	return errors
}

// Validate wraps ValidateStruct into an error value.
func Validate(data interface{}) error {
	if errs := ValidateStruct(data); len(errs) > 0 {
		return &Error{Fields: errs}
	}
	return nil
}
