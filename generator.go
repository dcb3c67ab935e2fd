package envgen

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"unicode"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/sciamlab/envgen/manifest"
	"github.com/sciamlab/envgen/requirement"
)

// Result is a rendered environment file.
type Result struct {
	Env        string
	Path       string
	Format     string           // "conda" or "pip"
	Lines      []string         // sorted requirement lines
	Provenance []LineProvenance // parallel to Lines
	Text       string           // full file content
}

// Count returns the number of requirement lines.
func (r *Result) Count() int {
	return len(r.Lines)
}

// Option configures a Generator.
type Option func(*Generator)

// WithOutput sets where "Wrote N requirements" reports go. Default: os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(g *Generator) {
		g.out = w
	}
}

// WithLogger sets the generator's logger. Default: disabled.
func WithLogger(logger zerolog.Logger) Option {
	return func(g *Generator) {
		g.logger = logger
	}
}

// Generator renders and writes environment files from a manifest and a config.
// Both inputs are treated as read-only.
type Generator struct {
	manifest *manifest.Manifest
	config   *Config
	out      io.Writer
	logger   zerolog.Logger
}

// NewGenerator creates a Generator.
func NewGenerator(m *manifest.Manifest, cfg *Config, opts ...Option) *Generator {
	g := &Generator{
		manifest: m,
		config:   cfg,
		out:      os.Stdout,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

type candidate struct {
	req    requirement.Requirement
	source string
}

// ExtractOptionalDeps returns the union of every optional-dependency group,
// deduplicated by structural equality and sorted by string form.
func ExtractOptionalDeps(m *manifest.Manifest) []requirement.Requirement {
	return lo.Map(optionalCandidates(m), func(c candidate, _ int) requirement.Requirement {
		return c.req
	})
}

func optionalCandidates(m *manifest.Manifest) []candidate {
	groupsByKey := make(map[string][]string)
	reqByKey := make(map[string]requirement.Requirement)

	for _, group := range m.GroupNames() {
		for _, req := range m.OptionalDependencies[group] {
			key := req.Key()
			if _, ok := reqByKey[key]; !ok {
				reqByKey[key] = req
			}
			if !lo.Contains(groupsByKey[key], group) {
				groupsByKey[key] = append(groupsByKey[key], group)
			}
		}
	}

	candidates := make([]candidate, 0, len(reqByKey))
	for key, req := range reqByKey {
		candidates = append(candidates, candidate{req: req, source: optionalSource(groupsByKey[key])})
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].req.String() < candidates[j].req.String()
	})
	return candidates
}

// MakeRequirement renders a requirement line.
//
// With forcePin and exactly one specifier clause the line becomes "name==version",
// with ".*" appended for conda output unless it already ends that way. In every
// other case the requirement's natural string form is returned unchanged.
func MakeRequirement(req requirement.Requirement, forcePin, isConda bool) string {
	if forcePin && len(req.Specifiers) == 1 {
		pinned := req.Name + "==" + req.Specifiers[0].Version
		if isConda && !strings.HasSuffix(pinned, ".*") {
			pinned += ".*"
		}
		return pinned
	}
	return req.String()
}

// Plan renders the named environment without writing it.
func (g *Generator) Plan(ctx context.Context, name string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	env, err := g.config.Lookup(name)
	if err != nil {
		return nil, err
	}
	logger := g.logger.With().Str("env", env.Name).Logger()

	candidates, err := g.candidates(env)
	if err != nil {
		return nil, fmt.Errorf("environment %s: %w", env.Name, err)
	}
	logger.Debug().Int("candidates", len(candidates)).Msg("assembled manifest requirements")

	isConda := env.IsConda()
	lines := make([]LineProvenance, 0, len(candidates))
	for _, c := range candidates {
		lines = append(lines, LineProvenance{
			Line:   MakeRequirement(c.req, env.ForcePin, isConda),
			Source: c.source,
		})
	}

	if env.Extras != nil {
		for _, path := range env.Extras {
			extra, err := readExtras(path)
			if err != nil {
				return nil, fmt.Errorf("environment %s: %w", env.Name, err)
			}
			logger.Debug().Str("path", path).Int("lines", len(extra)).Msg("appended extras")
			for _, line := range extra {
				lines = append(lines, LineProvenance{Line: line, Source: extrasSource(path)})
			}
		}
	}

	// Pinned requirements and extras can repeat a line. The first source wins.
	lines = lo.UniqBy(lines, func(p LineProvenance) string { return p.Line })

	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].Line < lines[j].Line
	})

	sorted := lo.Map(lines, func(p LineProvenance, _ int) string { return p.Line })
	return &Result{
		Env:        env.Name,
		Path:       env.OutputPath,
		Format:     env.Format(),
		Lines:      sorted,
		Provenance: lines,
		Text:       Render(env, sorted),
	}, nil
}

// candidates assembles the manifest requirements an environment asks for,
// deduplicated by structural equality. The first occurrence wins.
func (g *Generator) candidates(env Environment) ([]candidate, error) {
	var out []candidate

	if env.NeedsPython {
		req, err := g.manifest.PythonRequirement()
		if err != nil {
			return nil, err
		}
		out = append(out, candidate{req: req, source: SourcePython})
	}
	if env.NeedsDependencies {
		for _, req := range g.manifest.Dependencies {
			out = append(out, candidate{req: req, source: SourceDependencies})
		}
	}
	if env.NeedsOptionals {
		out = append(out, optionalCandidates(g.manifest)...)
	}

	return lo.UniqBy(out, func(c candidate) string { return c.req.Key() }), nil
}

// MakeFile renders the named environment, writes it to its output path, and
// reports the number of requirements written.
func (g *Generator) MakeFile(ctx context.Context, name string) (*Result, error) {
	result, err := g.Plan(ctx, name)
	if err != nil {
		return nil, err
	}

	if err := writeFile(g.logger, result.Path, result.Text); err != nil {
		return nil, fmt.Errorf("environment %s: %w", result.Env, err)
	}
	g.logger.Debug().Str("env", result.Env).Str("format", result.Format).Str("path", result.Path).Msg("wrote environment file")

	fmt.Fprintf(g.out, "Wrote %d requirements to %s\n", result.Count(), quotePath(result.Path))
	return result, nil
}

// Make writes the named environments in order, or every configured environment
// when names is empty. It stops at the first failure; files already written stay.
func (g *Generator) Make(ctx context.Context, names ...string) ([]*Result, error) {
	if len(names) == 0 {
		names = g.config.Names()
	}

	results := make([]*Result, 0, len(names))
	for _, name := range names {
		result, err := g.MakeFile(ctx, name)
		if err != nil {
			return results, err
		}
		results = append(results, result)
	}
	return results, nil
}

// MakeAll writes every configured environment in declaration order.
func (g *Generator) MakeAll(ctx context.Context) ([]*Result, error) {
	return g.Make(ctx)
}

// PlanAll renders the named environments, or all of them when names is empty.
func (g *Generator) PlanAll(ctx context.Context, names ...string) ([]*Result, error) {
	if len(names) == 0 {
		names = g.config.Names()
	}

	results := make([]*Result, 0, len(names))
	for _, name := range names {
		result, err := g.Plan(ctx, name)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, nil
}

// quotePath quotes a path for the report line: single quotes, switching to
// double quotes when the path holds a single quote but no double quote.
// Backslashes, the chosen quote, and unprintable runes are escaped.
func quotePath(path string) string {
	quote := '\''
	if strings.ContainsRune(path, '\'') && !strings.ContainsRune(path, '"') {
		quote = '"'
	}

	var b strings.Builder
	b.WriteRune(quote)
	for _, r := range path {
		switch {
		case r == quote || r == '\\':
			b.WriteRune('\\')
			b.WriteRune(r)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r == '\t':
			b.WriteString(`\t`)
		case !unicode.IsPrint(r):
			switch {
			case r <= 0xff:
				fmt.Fprintf(&b, `\x%02x`, r)
			case r <= 0xffff:
				fmt.Fprintf(&b, `\u%04x`, r)
			default:
				fmt.Fprintf(&b, `\U%08x`, r)
			}
		default:
			b.WriteRune(r)
		}
	}
	b.WriteRune(quote)
	return b.String()
}

func readExtras(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read extras file %s: %w", path, err)
	}
	return splitLines(string(data)), nil
}

// splitLines splits on "\n", "\r\n" and "\r". A trailing line break does not
// produce an empty final line; interior empty lines are kept.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.TrimSuffix(text, "\n")
	return strings.Split(text, "\n")
}
