package envgen

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheck(t *testing.T) {
	dir := t.TempDir()
	devPath := filepath.Join(dir, "dev.txt")
	condaPath := filepath.Join(dir, "env.yml")

	gen, out := newTestGenerator(t, scenarioPyproject, map[string]any{
		"dev":   map[string]any{"needs_dependencies": true, "needs_optionals": true, "output_path": devPath},
		"conda": map[string]any{"needs_dependencies": true, "force_pin": true, "output_path": condaPath},
	})
	ctx := context.Background()

	t.Run("missing files", func(t *testing.T) {
		_, err := gen.Check(ctx)
		var stale *StaleError
		require.ErrorAs(t, err, &stale)
		require.Len(t, stale.Files, 2)
		assert.Equal(t, StaleFile{Env: "conda", Path: condaPath, Missing: true}, stale.Files[0])
		assert.True(t, stale.Files[1].Missing)
		assert.NoFileExists(t, devPath)
		assert.NoFileExists(t, condaPath)
	})

	t.Run("up to date", func(t *testing.T) {
		_, err := gen.MakeAll(ctx)
		require.NoError(t, err)
		out.Reset()

		results, err := gen.Check(ctx)
		require.NoError(t, err)
		assert.Len(t, results, 2)
		assert.Empty(t, out.String())
	})

	t.Run("edited file", func(t *testing.T) {
		require.NoError(t, os.WriteFile(devPath, []byte(Header+"numpy>=1.20\nscipy\n"), 0o644))

		_, err := gen.Check(ctx, "dev")
		var stale *StaleError
		require.ErrorAs(t, err, &stale)
		require.Len(t, stale.Files, 1)

		file := stale.Files[0]
		assert.False(t, file.Missing)
		assert.Contains(t, file.Diff, "--- "+devPath+" (on disk)\n+++ "+devPath+" (generated)\n")
		assert.Contains(t, file.Diff, " numpy>=1.20\n")
		assert.Contains(t, file.Diff, "+pytest>=7.0\n")
		assert.Contains(t, file.Diff, "-scipy\n")
		assert.Equal(t, "1 generated file is out of date: "+devPath, err.Error())

		data, err := os.ReadFile(devPath)
		require.NoError(t, err)
		assert.Equal(t, Header+"numpy>=1.20\nscipy\n", string(data))
	})

	t.Run("unknown environment", func(t *testing.T) {
		_, err := gen.Check(ctx, "nope")
		assert.ErrorIs(t, err, ErrUnknownEnvironment)
	})
}

func TestLineDiff_MissingTrailingNewline(t *testing.T) {
	diff := lineDiff("f.txt", "a\nb", "a\nb\n")
	assert.Contains(t, diff, "-b\n")
	assert.Contains(t, diff, "+b\n")
}
