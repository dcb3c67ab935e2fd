package envgen

import (
	"context"
	"strings"
)

// Source provides raw environment configuration from a backend (usually a file).
// The returned map is keyed by environment name; each value is that environment's
// definition as decoded from the source format.
type Source interface {
	// Load returns the decoded top-level mapping.
	Load(ctx context.Context) (map[string]any, error)

	// Name returns a human-readable identifier (e.g., "file:environments.json").
	Name() string
}

// OrderedSource is a Source that also reports the order environments were declared in.
type OrderedSource interface {
	Source

	// LoadOrdered returns the decoded mapping and its top-level keys in declaration order.
	LoadOrdered(ctx context.Context) (map[string]any, []string, error)
}

// Environment is a single environment definition.
type Environment struct {
	Name              string   `conf:"-"`
	NeedsPython       bool     `conf:"name:needs_python,default:false"`
	NeedsDependencies bool     `conf:"name:needs_dependencies,default:false"`
	NeedsOptionals    bool     `conf:"name:needs_optionals,default:false"`
	ForcePin          bool     `conf:"name:force_pin,default:false"`
	Extras            []string `conf:"name:extras"` // nil when absent or null
	OutputPath        string   `conf:"name:output_path,required"`
}

// IsConda reports whether the environment renders a conda environment file.
// Anything not ending in ".yml" is a pip requirements file.
func (e Environment) IsConda() bool {
	return strings.HasSuffix(e.OutputPath, ".yml")
}

// Format returns "conda" or "pip".
func (e Environment) Format() string {
	if e.IsConda() {
		return "conda"
	}
	return "pip"
}

// Config is the loaded environment configuration in declaration order.
type Config struct {
	Environments []Environment
	Source       string // Source name the config was loaded from
}

// Names returns the environment names in declaration order.
func (c *Config) Names() []string {
	names := make([]string, len(c.Environments))
	for i, env := range c.Environments {
		names[i] = env.Name
	}
	return names
}

// Lookup returns the environment with the given name or an *UnknownEnvironmentError.
func (c *Config) Lookup(name string) (Environment, error) {
	for _, env := range c.Environments {
		if env.Name == name {
			return env, nil
		}
	}
	return Environment{}, &UnknownEnvironmentError{Name: name, Known: c.Names()}
}

// Validator performs custom validation after tag-based validation.
// Use for cross-environment or semantic checks.
type Validator[T any] interface {
	// Validate checks configuration. Return *ValidationError for field-level errors.
	Validate(ctx context.Context, cfg *T) error
}

// ValidatorFunc is a function adapter for Validator interface.
type ValidatorFunc[T any] func(ctx context.Context, cfg *T) error

func (f ValidatorFunc[T]) Validate(ctx context.Context, cfg *T) error {
	return f(ctx, cfg)
}
