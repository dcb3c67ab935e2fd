package envgen

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/samber/lo"
)

// DefaultConfigPath is where the environment configuration is looked up by default.
const DefaultConfigPath = "./environments/requirements/environments.json"

// Loader loads and validates the environment configuration from a Source.
// Environments keep the order the source declared them in when the source is an OrderedSource.
type Loader struct {
	source     Source
	validators []Validator[Config]
	strict     bool // Fail on unknown keys (default: true)
}

// NewLoader creates a Loader for src with no validators and strict mode enabled.
func NewLoader(src Source) *Loader {
	return &Loader{
		source:     src,
		validators: make([]Validator[Config], 0),
		strict:     true,
	}
}

// WithValidator adds a custom validator (executed after tag-based validation).
func (l *Loader) WithValidator(v Validator[Config]) *Loader {
	l.validators = append(l.validators, v)
	return l
}

// Strict controls whether unknown keys cause errors. Default: true.
func (l *Loader) Strict(strict bool) *Loader {
	l.strict = strict
	return l
}

// Load reads, binds, and validates every environment definition.
// Returns the config or a ValidationError carrying all field errors.
func (l *Loader) Load(ctx context.Context) (*Config, error) {
	if l.source == nil {
		return nil, errors.New("envgen: loader has no source")
	}

	var data map[string]any
	var order []string
	var err error

	if ordered, ok := l.source.(OrderedSource); ok {
		data, order, err = ordered.LoadOrdered(ctx)
	} else {
		data, err = l.source.Load(ctx)
		order = lo.Keys(data)
		sort.Strings(order)
	}
	if err != nil {
		return nil, fmt.Errorf("load source %s: %w", l.source.Name(), err)
	}

	cfg := &Config{
		Environments: make([]Environment, 0, len(order)),
		Source:       l.source.Name(),
	}

	var allErrors []FieldError
	for _, name := range order {
		raw := data[name]

		if l.strict {
			allErrors = append(allErrors, unknownKeys(name, raw)...)
		}

		env, bindErrors := bindEnvironment(name, raw)
		allErrors = append(allErrors, bindErrors...)
		if len(bindErrors) == 0 {
			allErrors = append(allErrors, validateEnvironment(env)...)
		}

		cfg.Environments = append(cfg.Environments, env)
	}

	for i, validator := range l.validators {
		if err := validator.Validate(ctx, cfg); err != nil {
			var valErr *ValidationError
			if errors.As(err, &valErr) {
				allErrors = append(allErrors, valErr.FieldErrors...)
				continue
			}
			return nil, fmt.Errorf("validator %d failed: %w", i, err)
		}
	}

	if len(allErrors) > 0 {
		return nil, &ValidationError{FieldErrors: allErrors}
	}

	return cfg, nil
}

// LoadConfig loads the environment configuration from src in strict mode,
// running validators after the tag-based checks.
func LoadConfig(ctx context.Context, src Source, validators ...Validator[Config]) (*Config, error) {
	loader := NewLoader(src)
	for _, v := range validators {
		loader.WithValidator(v)
	}
	return loader.Load(ctx)
}
