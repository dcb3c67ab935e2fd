package envgen

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/sciamlab/envgen/internal/normalize"
)

// tagConfig holds parsed directives from a struct field's `conf` tag.
type tagConfig struct {
	name       string // Key in the source mapping (name:output_path)
	defValue   string // Default value (default:value)
	required   bool   // Field is required (required or required:true)
	hasDefault bool   // Whether a default directive was present
	skip       bool   // Field is not bound (conf:"-")
}

// parseTag parses a `conf` struct tag into a structured tagConfig.
// Tag format: "directive1:value1,directive2:value2,..."
// Boolean directives can omit `:true` (e.g., "required" == "required:true")
func parseTag(tag string) tagConfig {
	cfg := tagConfig{}

	if tag == "" {
		return cfg
	}
	if tag == "-" {
		cfg.skip = true
		return cfg
	}

	for _, directive := range strings.Split(tag, ",") {
		directive = strings.TrimSpace(directive)
		if directive == "" {
			continue
		}

		parts := strings.SplitN(directive, ":", 2)
		name := strings.TrimSpace(parts[0])
		var value string
		if len(parts) > 1 {
			value = parts[1] // Don't trim value - empty strings may be intentional
		}

		switch name {
		case "name":
			cfg.name = value
		case "default":
			cfg.defValue = value
			cfg.hasDefault = true
		case "required":
			// Anything other than an explicit "false" means required
			cfg.required = value != "false"
		}
	}

	return cfg
}

// determineKeyPath returns the mapping key a field binds to.
func determineKeyPath(fieldName string, tags tagConfig) string {
	if tags.name != "" {
		return tags.name
	}
	return deriveKeyPath(fieldName)
}

// deriveKeyPath derives a key from a field name (lowercase first letter).
func deriveKeyPath(fieldName string) string {
	if fieldName == "" {
		return ""
	}
	return strings.ToLower(fieldName[:1]) + fieldName[1:]
}

// bindEnvironment binds one raw environment definition into an Environment.
// Absent and null keys fall back to the field's default, or stay zero.
func bindEnvironment(name string, raw any) (Environment, []FieldError) {
	env := Environment{Name: name}

	fields, ok := raw.(map[string]any)
	if !ok {
		return env, []FieldError{{
			FieldPath: name,
			Code:      ErrCodeInvalidType,
			Message:   fmt.Sprintf("expected a mapping, got %s", describeType(raw)),
		}}
	}

	var fieldErrors []FieldError
	v := reflect.ValueOf(&env).Elem()
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tagCfg := parseTag(field.Tag.Get("conf"))
		if tagCfg.skip {
			continue
		}

		key := determineKeyPath(field.Name, tagCfg)
		value, present := fields[key]
		if !present || value == nil {
			if !tagCfg.hasDefault {
				continue
			}
			value = tagCfg.defValue
		}

		if err := setField(v.Field(i), value); err != nil {
			fieldErrors = append(fieldErrors, FieldError{
				FieldPath: normalize.ApplyPrefix(name, key),
				Code:      ErrCodeInvalidType,
				Message:   err.Error(),
			})
		}
	}

	return env, fieldErrors
}

// setField assigns a decoded value to a bool, string, or []string field.
// String values are accepted for bool fields so tag defaults can be applied.
func setField(fv reflect.Value, value any) error {
	switch fv.Kind() {
	case reflect.Bool:
		switch b := value.(type) {
		case bool:
			fv.SetBool(b)
			return nil
		case string:
			parsed, err := strconv.ParseBool(b)
			if err != nil {
				return fmt.Errorf("expected boolean, got string %q", b)
			}
			fv.SetBool(parsed)
			return nil
		}
		return fmt.Errorf("expected boolean, got %s", describeType(value))

	case reflect.String:
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("expected string, got %s", describeType(value))
		}
		fv.SetString(s)
		return nil

	case reflect.Slice:
		if fv.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported field type %s", fv.Type())
		}
		var items []string
		switch list := value.(type) {
		case []string:
			items = append([]string{}, list...)
		case []any:
			items = make([]string, 0, len(list))
			for idx, item := range list {
				s, ok := item.(string)
				if !ok {
					return fmt.Errorf("expected list of strings, item %d is %s", idx, describeType(item))
				}
				items = append(items, s)
			}
		default:
			return fmt.Errorf("expected list of strings or null, got %s", describeType(value))
		}
		fv.Set(reflect.ValueOf(items))
		return nil
	}

	return fmt.Errorf("unsupported field type %s", fv.Type())
}

// describeType names a decoded value's type in source-format terms.
func describeType(value any) string {
	switch value.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case string:
		return "string"
	case int, int64, uint64, float64:
		return "number"
	case []any, []string:
		return "list"
	case map[string]any:
		return "mapping"
	default:
		return fmt.Sprintf("%T", value)
	}
}
