package envgen

import "strings"

// Provenance sources for rendered lines.
const (
	SourcePython       = "python"
	SourceDependencies = "dependencies"

	sourceOptionalPrefix = "optional:"
	sourceExtrasPrefix   = "extras:"
)

// LineProvenance describes where a rendered requirement line came from.
type LineProvenance struct {
	Line   string `json:"line"`
	Source string `json:"source"` // e.g. "dependencies", "optional:test", "extras:dev.txt"
}

func optionalSource(groups []string) string {
	return sourceOptionalPrefix + strings.Join(groups, ",")
}

func extrasSource(path string) string {
	return sourceExtrasPrefix + path
}

// IsExtras reports whether the line was read verbatim from an extras file.
func (p LineProvenance) IsExtras() bool {
	return strings.HasPrefix(p.Source, sourceExtrasPrefix)
}
