package normalize

import (
	"regexp"
	"strings"
)

var separatorRun = regexp.MustCompile(`[-_.]+`)

// ToLowerDotPath normalizes an environment variable name to a lowercase dot-separated path.
// Double underscores (__) are treated as level separators and converted to dots.
// Single underscores within a level are preserved.
// Examples:
//   - "FOO__BAR" → "foo.bar"
//   - "LOG_LEVEL" → "log_level"
func ToLowerDotPath(key string) string {
	normalized := strings.ReplaceAll(key, "__", ".")
	return strings.ToLower(normalized)
}

// CanonicalName returns the PEP 503 normalized form of a package name.
// Runs of "-", "_" and "." collapse to a single "-" and the result is lowercased.
// Examples:
//   - "Foo_Bar" → "foo-bar"
//   - "zope.interface" → "zope-interface"
//   - "a--b__c" → "a-b-c"
func CanonicalName(name string) string {
	return strings.ToLower(separatorRun.ReplaceAllString(name, "-"))
}

// ApplyPrefix combines a prefix with a key to create a nested path.
// If prefix is empty, returns the key unchanged.
// Examples:
//   - ApplyPrefix("dev", "output_path") → "dev.output_path"
//   - ApplyPrefix("", "output_path") → "output_path"
func ApplyPrefix(prefix, key string) string {
	if prefix == "" {
		return key
	}
	if key == "" {
		return prefix
	}
	return prefix + "." + key
}
