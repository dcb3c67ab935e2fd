package envgen

import (
	"encoding/json"
	"fmt"
	"io"
)

// DumpOption configures dump behavior using the functional options pattern.
type DumpOption func(*dumpConfig)

// dumpConfig holds options for DumpPlan.
type dumpConfig struct {
	withSources bool   // Include source attribution for each line
	asJSON      bool   // Output as JSON instead of text format
	indent      string // Indentation for JSON output (default: "  ")
}

// WithSources includes source attribution for each line in the output.
func WithSources() DumpOption {
	return func(cfg *dumpConfig) {
		cfg.withSources = true
	}
}

// AsJSON outputs the plan as JSON instead of text format.
func AsJSON() DumpOption {
	return func(cfg *dumpConfig) {
		cfg.asJSON = true
	}
}

// WithIndent sets the indentation for JSON output.
// Default is two spaces ("  ").
func WithIndent(indent string) DumpOption {
	return func(cfg *dumpConfig) {
		cfg.indent = indent
	}
}

// DumpPlan writes a human-readable representation of rendered environments.
func DumpPlan(w io.Writer, results []*Result, opts ...DumpOption) error {
	config := dumpConfig{
		indent: "  ",
	}
	for _, opt := range opts {
		opt(&config)
	}

	if config.asJSON {
		return dumpAsJSON(w, results, config)
	}
	return dumpAsText(w, results, config)
}

// dumpAsText outputs one "env: line" row per requirement, after a header row per environment.
func dumpAsText(w io.Writer, results []*Result, config dumpConfig) error {
	for _, result := range results {
		if _, err := fmt.Fprintf(w, "# %s (%s, %d requirements) -> %s\n", result.Env, result.Format, result.Count(), result.Path); err != nil {
			return fmt.Errorf("write error: %w", err)
		}

		for _, p := range result.Provenance {
			line := fmt.Sprintf("%s: %s", result.Env, p.Line)
			if config.withSources && p.Source != "" {
				line += fmt.Sprintf(" (source: %s)", p.Source)
			}
			line += "\n"

			if _, err := io.WriteString(w, line); err != nil {
				return fmt.Errorf("write error: %w", err)
			}
		}
	}

	return nil
}

type jsonEnvironment struct {
	Name         string           `json:"name"`
	Format       string           `json:"format"`
	OutputPath   string           `json:"output_path"`
	Requirements []string         `json:"requirements"`
	Sources      []LineProvenance `json:"sources,omitempty"`
}

// dumpAsJSON outputs the plan as a JSON array.
func dumpAsJSON(w io.Writer, results []*Result, config dumpConfig) error {
	out := make([]jsonEnvironment, 0, len(results))
	for _, result := range results {
		env := jsonEnvironment{
			Name:         result.Env,
			Format:       result.Format,
			OutputPath:   result.Path,
			Requirements: result.Lines,
		}
		if env.Requirements == nil {
			env.Requirements = []string{}
		}
		if config.withSources {
			env.Sources = result.Provenance
		}
		out = append(out, env)
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", config.indent)
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("json encode error: %w", err)
	}

	return nil
}
