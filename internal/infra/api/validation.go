package api

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// FieldErrors maps a JSON field name to a human readable problem.
type FieldErrors map[string]string

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// decimals are compared as numbers so gt/gte/lt tags apply
	v.RegisterCustomTypeFunc(func(f reflect.Value) any {
		if d, ok := f.Interface().(decimal.Decimal); ok {
			return d.InexactFloat64()
		}
		return nil
	}, decimal.Decimal{})
	return v
}

// fromValidation flattens validator output; anything else becomes a "_" entry.
func fromValidation(err error) FieldErrors {
	out := FieldErrors{}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			key := fe.Field()
			if key == "" {
				key = strings.ToLower(fe.StructField())
			}
			out[key] = messageForTag(fe.Tag(), fe.Param())
		}
		return out
	}
	out["_"] = "invalid request"
	return out
}

func messageForTag(tag, param string) string {
	switch tag {
	case "required":
		return "is required"
	case "url":
		return "must be a valid URL"
	case "gt":
		return "must be greater than " + param
	default:
		return "is invalid"
	}
}
