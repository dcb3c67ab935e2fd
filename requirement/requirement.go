package requirement

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/sciamlab/envgen/internal/normalize"
)

// ErrInvalidRequirement is matched by every *ParseError.
var ErrInvalidRequirement = errors.New("requirement: invalid requirement")

// ParseError reports a requirement string that could not be parsed.
type ParseError struct {
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid requirement %q: %s", e.Input, e.Reason)
}

func (e *ParseError) Unwrap() error {
	return ErrInvalidRequirement
}

var (
	namePattern      = regexp.MustCompile(`^[A-Za-z0-9](?:[A-Za-z0-9._-]*[A-Za-z0-9])?`)
	extraPattern     = regexp.MustCompile(`^[A-Za-z0-9](?:[A-Za-z0-9._-]*[A-Za-z0-9])?$`)
	specifierPattern = regexp.MustCompile(`^(~=|===|==|!=|<=|>=|<|>)\s*([A-Za-z0-9.*+!_-]+)$`)
)

// Specifier is a single version clause such as ">=1.20".
type Specifier struct {
	Operator string
	Version  string
}

func (s Specifier) String() string {
	return s.Operator + s.Version
}

// Requirement is a named dependency with zero or more version clauses.
// Extras are kept sorted and unique; Specifiers keep the order they were written in.
// Marker holds the environment marker in normalized form, e.g. python_version < "3.8".
type Requirement struct {
	Name       string
	Extras     []string
	Specifiers []Specifier
	URL        string
	Marker     string
}

// Parse parses a single requirement string.
func Parse(s string) (Requirement, error) {
	input := strings.TrimSpace(s)
	if input == "" {
		return Requirement{}, &ParseError{Input: s, Reason: "empty requirement"}
	}

	name := namePattern.FindString(input)
	if name == "" {
		return Requirement{}, &ParseError{Input: s, Reason: "expected package name"}
	}
	req := Requirement{Name: name}
	rest := trimLeftSpace(input[len(name):])

	if strings.HasPrefix(rest, "[") {
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return Requirement{}, &ParseError{Input: s, Reason: "unclosed extras bracket"}
		}
		extras, err := parseExtras(rest[1:end])
		if err != nil {
			return Requirement{}, &ParseError{Input: s, Reason: err.Error()}
		}
		req.Extras = extras
		rest = trimLeftSpace(rest[end+1:])
	}

	var markerPart string
	hasMarker := false

	if strings.HasPrefix(rest, "@") {
		rest = trimLeftSpace(rest[1:])
		end := strings.IndexAny(rest, " \t")
		if end < 0 {
			end = len(rest)
		}
		req.URL = rest[:end]
		if req.URL == "" {
			return Requirement{}, &ParseError{Input: s, Reason: "missing URL after @"}
		}
		tail := trimLeftSpace(rest[end:])
		switch {
		case tail == "":
		case strings.HasPrefix(tail, ";"):
			markerPart, hasMarker = tail[1:], true
		default:
			return Requirement{}, &ParseError{Input: s, Reason: fmt.Sprintf("unexpected text after URL: %q", tail)}
		}
	} else {
		specPart := rest
		if idx := strings.IndexByte(rest, ';'); idx >= 0 {
			specPart, markerPart, hasMarker = rest[:idx], rest[idx+1:], true
		}
		specs, err := parseSpecifiers(specPart)
		if err != nil {
			return Requirement{}, &ParseError{Input: s, Reason: err.Error()}
		}
		req.Specifiers = specs
	}

	if hasMarker {
		marker, err := normalizeMarker(markerPart)
		if err != nil {
			return Requirement{}, &ParseError{Input: s, Reason: err.Error()}
		}
		req.Marker = marker
	}

	return req, nil
}

// MustParse is like Parse but panics on error.
func MustParse(s string) Requirement {
	req, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return req
}

// ParseAll parses every string in order, stopping at the first failure.
func ParseAll(items []string) ([]Requirement, error) {
	reqs := make([]Requirement, 0, len(items))
	for _, item := range items {
		req, err := Parse(item)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}

func parseExtras(inner string) ([]string, error) {
	if strings.TrimSpace(inner) == "" {
		return nil, nil
	}
	var extras []string
	for _, part := range strings.Split(inner, ",") {
		extra := strings.TrimSpace(part)
		if !extraPattern.MatchString(extra) {
			return nil, fmt.Errorf("invalid extra %q", extra)
		}
		extras = append(extras, extra)
	}
	extras = lo.Uniq(extras)
	sort.Strings(extras)
	return extras, nil
}

func parseSpecifiers(part string) ([]Specifier, error) {
	part = strings.TrimSpace(part)
	if strings.HasPrefix(part, "(") {
		if !strings.HasSuffix(part, ")") {
			return nil, errors.New("unclosed parenthesis in version specifier")
		}
		part = strings.TrimSpace(part[1 : len(part)-1])
	}
	if part == "" {
		return nil, nil
	}

	var specs []Specifier
	for _, clause := range strings.Split(part, ",") {
		clause = strings.TrimSpace(clause)
		m := specifierPattern.FindStringSubmatch(clause)
		if m == nil {
			return nil, fmt.Errorf("invalid specifier %q", clause)
		}
		specs = append(specs, Specifier{Operator: m[1], Version: m[2]})
	}
	// A specifier set holds each clause once.
	return lo.Uniq(specs), nil
}

func trimLeftSpace(s string) string {
	return strings.TrimLeft(s, " \t")
}

// SpecifierString returns the clauses sorted by their string form and joined with commas.
func (r Requirement) SpecifierString() string {
	clauses := lo.Map(r.Specifiers, func(s Specifier, _ int) string { return s.String() })
	sort.Strings(clauses)
	return strings.Join(clauses, ",")
}

// String returns the natural string form of the requirement.
func (r Requirement) String() string {
	var b strings.Builder
	b.WriteString(r.Name)
	if len(r.Extras) > 0 {
		extras := append([]string(nil), r.Extras...)
		sort.Strings(extras)
		b.WriteString("[" + strings.Join(extras, ",") + "]")
	}
	b.WriteString(r.SpecifierString())
	if r.URL != "" {
		b.WriteString("@ " + r.URL)
		if r.Marker != "" {
			b.WriteString(" ")
		}
	}
	if r.Marker != "" {
		b.WriteString("; " + r.Marker)
	}
	return b.String()
}

// Key identifies a requirement for deduplication. Requirements whose names only
// differ in case or separator runs share a key.
func (r Requirement) Key() string {
	return normalize.CanonicalName(r.Name) + strings.TrimPrefix(r.String(), r.Name)
}

// Equal reports whether two requirements are structurally equal.
func (r Requirement) Equal(other Requirement) bool {
	return r.Key() == other.Key()
}
