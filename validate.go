package envgen

import (
	"context"
	"fmt"
	"reflect"
	"sort"

	"github.com/sciamlab/envgen/internal/normalize"
)

// validateEnvironment checks tag-based constraints on a bound environment.
func validateEnvironment(env Environment) []FieldError {
	var fieldErrors []FieldError

	v := reflect.ValueOf(env)
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tagCfg := parseTag(field.Tag.Get("conf"))
		if tagCfg.skip || !tagCfg.required {
			continue
		}

		if isZeroValue(v.Field(i)) {
			fieldErrors = append(fieldErrors, FieldError{
				FieldPath: normalize.ApplyPrefix(env.Name, determineKeyPath(field.Name, tagCfg)),
				Code:      ErrCodeRequired,
				Message:   "field is required but not provided",
			})
		}
	}

	return fieldErrors
}

// unknownKeys reports keys of a raw definition that no Environment field binds to.
func unknownKeys(name string, raw any) []FieldError {
	fields, ok := raw.(map[string]any)
	if !ok {
		return nil
	}

	validKeys := collectValidKeys(reflect.TypeOf(Environment{}))

	var keys []string
	for key := range fields {
		if !validKeys[key] {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	fieldErrors := make([]FieldError, 0, len(keys))
	for _, key := range keys {
		fieldErrors = append(fieldErrors, FieldError{
			FieldPath: normalize.ApplyPrefix(name, key),
			Code:      ErrCodeUnknownKey,
			Message:   "unknown environment key (strict mode)",
		})
	}
	return fieldErrors
}

// collectValidKeys returns every key a struct type binds to.
func collectValidKeys(t reflect.Type) map[string]bool {
	validKeys := make(map[string]bool)
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		tagCfg := parseTag(field.Tag.Get("conf"))
		if tagCfg.skip {
			continue
		}
		validKeys[determineKeyPath(field.Name, tagCfg)] = true
	}
	return validKeys
}

// isZeroValue checks if a reflect.Value is the zero value for its type.
func isZeroValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Interface, reflect.Ptr:
		return v.IsNil()
	default:
		return v.IsZero()
	}
}

// UniqueOutputPaths rejects configurations where two environments write the same file.
func UniqueOutputPaths() Validator[Config] {
	return ValidatorFunc[Config](func(_ context.Context, cfg *Config) error {
		owners := make(map[string]string)
		var fieldErrors []FieldError
		for _, env := range cfg.Environments {
			if env.OutputPath == "" {
				continue
			}
			if owner, ok := owners[env.OutputPath]; ok {
				fieldErrors = append(fieldErrors, FieldError{
					FieldPath: normalize.ApplyPrefix(env.Name, "output_path"),
					Code:      ErrCodeDuplicate,
					Message:   fmt.Sprintf("output path %q is already used by environment %q", env.OutputPath, owner),
				})
				continue
			}
			owners[env.OutputPath] = env.Name
		}
		if len(fieldErrors) > 0 {
			return &ValidationError{FieldErrors: fieldErrors}
		}
		return nil
	})
}
