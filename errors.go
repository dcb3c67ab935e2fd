package envgen

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes for validation failures.
const (
	ErrCodeRequired    = "required"
	ErrCodeInvalidType = "invalid_type"
	ErrCodeUnknownKey  = "unknown_key"
	ErrCodeDuplicate   = "duplicate"
)

// ErrUnknownEnvironment is matched by every *UnknownEnvironmentError.
var ErrUnknownEnvironment = errors.New("envgen: unknown environment")

// ValidationError aggregates field-level validation failures.
type ValidationError struct {
	FieldErrors []FieldError
}

// Error formats validation errors as a multi-line message.
func (e *ValidationError) Error() string {
	if len(e.FieldErrors) == 0 {
		return "environment config validation failed: no errors"
	}

	var b strings.Builder
	if len(e.FieldErrors) == 1 {
		b.WriteString("environment config validation failed: 1 error\n")
	} else {
		fmt.Fprintf(&b, "environment config validation failed: %d errors\n", len(e.FieldErrors))
	}

	for _, fe := range e.FieldErrors {
		fmt.Fprintf(&b, "  - %s: %s (%s)\n", fe.FieldPath, fe.Code, fe.Message)
	}

	return strings.TrimRight(b.String(), "\n")
}

// FieldError represents a single field validation failure.
type FieldError struct {
	FieldPath string // Dot notation (e.g., "dev.output_path")
	Code      string // Error code (e.g., "required", "invalid_type")
	Message   string // Human-readable description
}

// UnknownEnvironmentError is returned when a requested environment is not configured.
type UnknownEnvironmentError struct {
	Name  string
	Known []string
}

func (e *UnknownEnvironmentError) Error() string {
	if len(e.Known) == 0 {
		return fmt.Sprintf("unknown environment %q (no environments configured)", e.Name)
	}
	return fmt.Sprintf("unknown environment %q (known: %s)", e.Name, strings.Join(e.Known, ", "))
}

func (e *UnknownEnvironmentError) Unwrap() error {
	return ErrUnknownEnvironment
}

// StaleFile describes one generated file whose content on disk differs from a fresh render.
type StaleFile struct {
	Env     string
	Path    string
	Missing bool
	Diff    string
}

// StaleError is returned by Check when one or more files are out of date.
type StaleError struct {
	Files []StaleFile
}

func (e *StaleError) Error() string {
	paths := make([]string, len(e.Files))
	for i, f := range e.Files {
		paths[i] = f.Path
	}
	if len(paths) == 1 {
		return fmt.Sprintf("1 generated file is out of date: %s", paths[0])
	}
	return fmt.Sprintf("%d generated files are out of date: %s", len(paths), strings.Join(paths, ", "))
}
