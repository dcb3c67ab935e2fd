// Package sourceenv loads tool settings from environment variables.
//
// Variables are filtered by prefix and normalized: ENVGEN_LOG_LEVEL → log_level.
//
// Example:
//
//	source := sourceenv.New(sourceenv.Options{Prefix: "ENVGEN_"})
//	settings, err := source.Load(ctx)
package sourceenv
