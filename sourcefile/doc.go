// Package sourcefile loads environment configuration from JSON, YAML, or TOML files.
//
// Format is auto-detected from extension (.json, .yaml/.yml, .toml). JSON and YAML
// sources report environments in declaration order; TOML sources report them sorted
// by name.
//
// Example:
//
//	source := sourcefile.New("environments/requirements/environments.json", sourcefile.Options{Required: true})
//	cfg, err := envgen.NewLoader(source).Load(ctx)
package sourcefile
