// Package envgen renders conda environment files and pip requirement lists from
// a project's pyproject.toml and an environment configuration file.
//
// Quick Start:
//
//	m, err := manifest.Load(ctx, "pyproject.toml")
//	cfg, err := envgen.NewLoader(sourcefile.New("environments.json", sourcefile.Options{Required: true})).
//	    WithValidator(envgen.UniqueOutputPaths()).
//	    Load(ctx)
//	results, err := envgen.NewGenerator(m, cfg).MakeAll(ctx)
//
// Each environment picks which requirement sets it needs (python, dependencies,
// optional dependencies), whether to pin them, and which extra requirement files to
// append. Output ending in ".yml" is a conda environment file; anything else is a
// pip requirements file. Lines are sorted before writing.
//
// See example_test.go for detailed usage.
package envgen
