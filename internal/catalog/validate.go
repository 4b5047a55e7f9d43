package catalog

import (
	"reflect"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// validatePayload checks a decoded remote payload against the model tags.
// Lists are validated element by element.
func validatePayload(v any) error {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return validate.Var(rv.Interface(), "dive")
	case reflect.Struct:
		return validate.Struct(rv.Interface())
	default:
		return nil
	}
}
