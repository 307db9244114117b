package middleware

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/tradeops/backend/internal/interfaces/http/dto"
)

var registerTagNames sync.Once

// SetupValidator makes field errors name the wire field (json tag, then form
// tag) instead of the Go field. Safe to call more than once.
func SetupValidator() {
	registerTagNames.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(wireName)
	})
}

func wireName(fld reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name, _, _ := strings.Cut(fld.Tag.Get(tag), ",")
		switch name {
		case "-":
			return ""
		case "":
			continue
		default:
			return name
		}
	}
	return ""
}

// ValidationDetails lists the failed fields of a validator error. It
// returns nil for any other error.
func ValidationDetails(err error) []dto.ValidationDetail {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return nil
	}
	details := make([]dto.ValidationDetail, len(fieldErrs))
	for i, fe := range fieldErrs {
		details[i] = dto.ValidationDetail{Field: fe.Field(), Message: describeFieldError(fe)}
	}
	return details
}

type messageFunc func(fe validator.FieldError) string

var fieldMessages = map[string]messageFunc{
	"required": func(validator.FieldError) string { return "This field is required" },
	"min":      func(fe validator.FieldError) string { return bound("at least", fe) },
	"max":      func(fe validator.FieldError) string { return bound("at most", fe) },
	"gt":       func(fe validator.FieldError) string { return "Must be greater than " + fe.Param() },
	"gte":      func(fe validator.FieldError) string { return "Must be greater than or equal to " + fe.Param() },
	"oneof":    func(fe validator.FieldError) string { return "Must be one of: " + fe.Param() },
	"uuid":     func(validator.FieldError) string { return "Invalid UUID format" },
}

func describeFieldError(fe validator.FieldError) string {
	if msg, ok := fieldMessages[fe.Tag()]; ok {
		return msg(fe)
	}
	return "Invalid value"
}

// bound phrases min/max as a length for strings and slices
func bound(qualifier string, fe validator.FieldError) string {
	switch fe.Kind() {
	case reflect.String:
		return fmt.Sprintf("Must be %s %s characters", qualifier, fe.Param())
	case reflect.Slice, reflect.Map, reflect.Array:
		return fmt.Sprintf("Must contain %s %s items", qualifier, fe.Param())
	default:
		return fmt.Sprintf("Must be %s %s", qualifier, fe.Param())
	}
}
