package envgen

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Check renders the named environments (all when names is empty) and compares
// each with the file on disk. Nothing is written. Out-of-date or missing files
// are reported through a *StaleError.
func (g *Generator) Check(ctx context.Context, names ...string) ([]*Result, error) {
	results, err := g.PlanAll(ctx, names...)
	if err != nil {
		return nil, err
	}

	var stale []StaleFile
	for _, result := range results {
		current, err := os.ReadFile(result.Path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				stale = append(stale, StaleFile{Env: result.Env, Path: result.Path, Missing: true})
				continue
			}
			return nil, fmt.Errorf("environment %s: read %s: %w", result.Env, result.Path, err)
		}

		if string(current) == result.Text {
			g.logger.Debug().Str("env", result.Env).Str("path", result.Path).Msg("up to date")
			continue
		}
		stale = append(stale, StaleFile{
			Env:  result.Env,
			Path: result.Path,
			Diff: lineDiff(result.Path, string(current), result.Text),
		})
	}

	if len(stale) > 0 {
		return results, &StaleError{Files: stale}
	}
	return results, nil
}

// lineDiff renders a line-oriented diff from the on-disk content to the generated content.
func lineDiff(path, current, generated string) string {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(current, generated)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var out strings.Builder
	fmt.Fprintf(&out, "--- %s (on disk)\n+++ %s (generated)\n", path, path)
	for _, d := range diffs {
		prefix := " "
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			out.WriteString(prefix + line)
			if !strings.HasSuffix(line, "\n") {
				out.WriteString("\n")
			}
		}
	}
	return out.String()
}
