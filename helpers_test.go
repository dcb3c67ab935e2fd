package envgen

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sciamlab/envgen/manifest"
)

// mapSource is an in-memory Source. Environments are loaded in sorted name order.
type mapSource struct {
	name string
	data map[string]any
	err  error
}

func (m *mapSource) Load(ctx context.Context) (map[string]any, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.data, nil
}

func (m *mapSource) Name() string {
	if m.name == "" {
		return "map"
	}
	return m.name
}

// orderedSource is an in-memory OrderedSource with an explicit key order.
type orderedSource struct {
	mapSource
	order []string
}

func (o *orderedSource) LoadOrdered(ctx context.Context) (map[string]any, []string, error) {
	data, err := o.Load(ctx)
	return data, o.order, err
}

func mustManifest(t *testing.T, pyproject string) *manifest.Manifest {
	t.Helper()
	m, err := manifest.Parse([]byte(pyproject))
	require.NoError(t, err)
	return m
}

func mustConfig(t *testing.T, data map[string]any) *Config {
	t.Helper()
	cfg, err := LoadConfig(context.Background(), &mapSource{data: data})
	require.NoError(t, err)
	return cfg
}

func newTestGenerator(t *testing.T, pyproject string, envs map[string]any) (*Generator, *bytes.Buffer) {
	t.Helper()
	out := new(bytes.Buffer)
	return NewGenerator(mustManifest(t, pyproject), mustConfig(t, envs), WithOutput(out)), out
}
