package envgen

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoader(t *testing.T) {
	loader := NewLoader(&mapSource{})

	assert.True(t, loader.strict, "strict mode should be enabled by default")
	assert.NotNil(t, loader.validators)
	assert.Empty(t, loader.validators)

	assert.Same(t, loader, loader.Strict(false), "Strict should return the same loader for chaining")
	assert.False(t, loader.strict)

	v := UniqueOutputPaths()
	assert.Same(t, loader, loader.WithValidator(v))
	assert.Len(t, loader.validators, 1)
}

func TestLoader_Load(t *testing.T) {
	src := &mapSource{name: "file:environments.json", data: map[string]any{
		"env-test": map[string]any{
			"needs_python":       true,
			"needs_dependencies": true,
			"needs_optionals":    true,
			"force_pin":          false,
			"extras":             []any{"extras/test.txt"},
			"output_path":        "requirements-test.txt",
		},
		"env-ci": map[string]any{
			"needs_python": true,
			"output_path":  "environment-ci.yml",
		},
	}}

	cfg, err := NewLoader(src).Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "file:environments.json", cfg.Source)
	// Unordered sources load in sorted name order.
	assert.Equal(t, []string{"env-ci", "env-test"}, cfg.Names())

	assert.Equal(t, Environment{
		Name:        "env-ci",
		NeedsPython: true,
		OutputPath:  "environment-ci.yml",
	}, cfg.Environments[0])
	assert.Equal(t, Environment{
		Name:              "env-test",
		NeedsPython:       true,
		NeedsDependencies: true,
		NeedsOptionals:    true,
		Extras:            []string{"extras/test.txt"},
		OutputPath:        "requirements-test.txt",
	}, cfg.Environments[1])
}

func TestLoader_OrderedSource(t *testing.T) {
	src := &orderedSource{
		mapSource: mapSource{data: map[string]any{
			"b": map[string]any{"output_path": "b.txt"},
			"a": map[string]any{"output_path": "a.txt"},
			"c": map[string]any{"output_path": "c.txt"},
		}},
		order: []string{"c", "a", "b"},
	}

	cfg, err := LoadConfig(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b"}, cfg.Names())
}

func TestLoader_NullAndEmptyExtras(t *testing.T) {
	cfg := mustConfig(t, map[string]any{
		"null":  map[string]any{"extras": nil, "output_path": "a.txt"},
		"empty": map[string]any{"extras": []any{}, "output_path": "b.txt"},
	})

	empty, err := cfg.Lookup("empty")
	require.NoError(t, err)
	assert.NotNil(t, empty.Extras)
	assert.Empty(t, empty.Extras)

	null, err := cfg.Lookup("null")
	require.NoError(t, err)
	assert.Nil(t, null.Extras)
}

func TestLoader_ValidationErrors(t *testing.T) {
	src := &mapSource{data: map[string]any{
		"bad-types": map[string]any{
			"needs_python": "yes",
			"extras":       []any{"ok.txt", 3.0},
			"output_path":  "x.txt",
		},
		"missing-path": map[string]any{"needs_python": true},
		"unknown": map[string]any{
			"output_path": "u.txt",
			"channels":    []any{"defaults"},
		},
		"scalar": "dev.txt",
	}}

	_, err := NewLoader(src).Load(context.Background())
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)

	got := make(map[string]string)
	for _, fe := range valErr.FieldErrors {
		got[fe.FieldPath] = fe.Code
	}
	assert.Equal(t, map[string]string{
		"bad-types.needs_python":   ErrCodeInvalidType,
		"bad-types.extras":         ErrCodeInvalidType,
		"missing-path.output_path": ErrCodeRequired,
		"unknown.channels":         ErrCodeUnknownKey,
		"scalar":                   ErrCodeInvalidType,
	}, got)
}

func TestLoader_NonStrictIgnoresUnknownKeys(t *testing.T) {
	src := &mapSource{data: map[string]any{
		"dev": map[string]any{"output_path": "dev.txt", "comment": "local only"},
	}}

	_, err := NewLoader(src).Load(context.Background())
	require.Error(t, err)

	cfg, err := NewLoader(src).Strict(false).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"dev"}, cfg.Names())
}

func TestLoader_EmptyOutputPathIsRequired(t *testing.T) {
	_, err := LoadConfig(context.Background(), &mapSource{data: map[string]any{
		"dev": map[string]any{"output_path": ""},
	}})

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	require.Len(t, valErr.FieldErrors, 1)
	assert.Equal(t, FieldError{
		FieldPath: "dev.output_path",
		Code:      ErrCodeRequired,
		Message:   "field is required but not provided",
	}, valErr.FieldErrors[0])
}

func TestLoader_Validators(t *testing.T) {
	src := &mapSource{data: map[string]any{
		"a": map[string]any{"output_path": "same.txt"},
		"b": map[string]any{"output_path": "same.txt"},
	}}

	t.Run("field errors are merged", func(t *testing.T) {
		_, err := LoadConfig(context.Background(), src, UniqueOutputPaths())

		var valErr *ValidationError
		require.ErrorAs(t, err, &valErr)
		require.Len(t, valErr.FieldErrors, 1)
		assert.Equal(t, "b.output_path", valErr.FieldErrors[0].FieldPath)
		assert.Equal(t, ErrCodeDuplicate, valErr.FieldErrors[0].Code)
	})

	t.Run("other errors are wrapped", func(t *testing.T) {
		boom := errors.New("boom")
		_, err := LoadConfig(context.Background(), src, ValidatorFunc[Config](func(context.Context, *Config) error {
			return boom
		}))
		require.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "validator 0 failed")
	})

	t.Run("validators see the bound config", func(t *testing.T) {
		var seen []string
		_, err := LoadConfig(context.Background(), &mapSource{data: map[string]any{
			"a": map[string]any{"output_path": "a.txt"},
		}}, ValidatorFunc[Config](func(_ context.Context, cfg *Config) error {
			seen = cfg.Names()
			return nil
		}))
		require.NoError(t, err)
		assert.Equal(t, []string{"a"}, seen)
	})
}

func TestLoader_SourceErrors(t *testing.T) {
	boom := errors.New("disk on fire")

	_, err := NewLoader(&mapSource{name: "broken", err: boom}).Load(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "load source broken")

	_, err = NewLoader(nil).Load(context.Background())
	require.Error(t, err)
}

func TestConfig_Lookup(t *testing.T) {
	cfg := &Config{Environments: []Environment{{Name: "a"}, {Name: "b"}}}

	env, err := cfg.Lookup("b")
	require.NoError(t, err)
	assert.Equal(t, "b", env.Name)

	_, err = cfg.Lookup("c")
	var unknown *UnknownEnvironmentError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, []string{"a", "b"}, unknown.Known)
}

func TestEnvironment_Format(t *testing.T) {
	tests := []struct {
		path    string
		isConda bool
		format  string
	}{
		{"environment.yml", true, "conda"},
		{"environments/env-ci.yml", true, "conda"},
		{"requirements.txt", false, "pip"},
		{"environment.yaml", false, "pip"},
		{"environment.YML", false, "pip"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			env := Environment{OutputPath: tt.path}
			assert.Equal(t, tt.isConda, env.IsConda())
			assert.Equal(t, tt.format, env.Format())
		})
	}
}
