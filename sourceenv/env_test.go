package sourceenv

import (
	"context"
	"testing"
)

func newTestSource(opts Options, environ ...string) *envSource {
	return &envSource{opts: opts, environ: func() []string { return environ }}
}

func TestEnvSource_Load(t *testing.T) {
	tests := []struct {
		name     string
		opts     Options
		environ  []string
		expected map[string]any
	}{
		{
			name:    "no prefix loads everything",
			opts:    Options{},
			environ: []string{"HOME=/root", "LOG_LEVEL=debug"},
			expected: map[string]any{
				"home":      "/root",
				"log_level": "debug",
			},
		},
		{
			name: "prefix filtering and stripping",
			opts: Options{Prefix: "ENVGEN_"},
			environ: []string{
				"ENVGEN_PYPROJECT=./pyproject.toml",
				"ENVGEN_CONFIG=./envs.json",
				"ENVGEN_LOG_LEVEL=debug",
				"PATH=/usr/bin",
			},
			expected: map[string]any{
				"pyproject": "./pyproject.toml",
				"config":    "./envs.json",
				"log_level": "debug",
			},
		},
		{
			name:    "prefix case insensitive matching",
			opts:    Options{Prefix: "envgen_"},
			environ: []string{"ENVGEN_CONFIG=a.json", "Envgen_PYPROJECT=b.toml"},
			expected: map[string]any{
				"config":    "a.json",
				"pyproject": "b.toml",
			},
		},
		{
			name:     "prefix case sensitive matching",
			opts:     Options{Prefix: "ENVGEN_", CaseSensitive: true},
			environ:  []string{"ENVGEN_CONFIG=a.json", "envgen_PYPROJECT=b.toml"},
			expected: map[string]any{"config": "a.json"},
		},
		{
			name:     "double underscore as level separator",
			opts:     Options{Prefix: "ENVGEN_"},
			environ:  []string{"ENVGEN_LOG__LEVEL=warn"},
			expected: map[string]any{"log.level": "warn"},
		},
		{
			name:     "values keep equals signs",
			opts:     Options{Prefix: "ENVGEN_"},
			environ:  []string{"ENVGEN_CONFIG=a=b.json"},
			expected: map[string]any{"config": "a=b.json"},
		},
		{
			name:     "bare prefix and malformed entries skipped",
			opts:     Options{Prefix: "ENVGEN_"},
			environ:  []string{"ENVGEN_=x", "MALFORMED"},
			expected: map[string]any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := newTestSource(tt.opts, tt.environ...)
			result, err := src.Load(context.Background())
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}

			if len(result) != len(tt.expected) {
				t.Fatalf("Load() returned %d keys, want %d: %v", len(result), len(tt.expected), result)
			}
			for key, want := range tt.expected {
				if got := result[key]; got != want {
					t.Errorf("Load()[%q] = %v, want %v", key, got, want)
				}
			}
		})
	}
}

func TestEnvSource_RealEnvironment(t *testing.T) {
	t.Setenv("ENVGEN_TEST_VALUE", "from-env")

	result, err := New(Options{Prefix: "ENVGEN_TEST_"}).Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := String(result, "value"); got != "from-env" {
		t.Errorf("String(result, %q) = %q, want %q", "value", got, "from-env")
	}
}

func TestEnvSource_Name(t *testing.T) {
	if got := New(Options{}).Name(); got != "env" {
		t.Errorf("Name() = %q, want %q", got, "env")
	}
	if got := New(Options{Prefix: "ENVGEN_"}).Name(); got != "env:ENVGEN_" {
		t.Errorf("Name() = %q, want %q", got, "env:ENVGEN_")
	}
}

func TestString(t *testing.T) {
	values := map[string]any{"config": "a.json", "count": 3}
	if got := String(values, "config"); got != "a.json" {
		t.Errorf("String() = %q, want %q", got, "a.json")
	}
	if got := String(values, "count"); got != "" {
		t.Errorf("String() for non-string = %q, want empty", got)
	}
	if got := String(values, "missing"); got != "" {
		t.Errorf("String() for missing = %q, want empty", got)
	}
}
