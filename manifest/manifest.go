// Package manifest loads dependency declarations from a pyproject.toml file.
package manifest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/pelletier/go-toml/v2"
	"github.com/samber/lo"

	"github.com/sciamlab/envgen/requirement"
)

// DefaultPath is where the manifest is looked up when no path is given.
const DefaultPath = "./pyproject.toml"

// LanguageRequirementName names the synthetic requirement built from requires-python.
const LanguageRequirementName = "python"

// ErrNoProjectTable is returned when the manifest has no [project] table.
var ErrNoProjectTable = errors.New("manifest: missing [project] table")

// Manifest holds the parsed [project] dependency data.
type Manifest struct {
	Path                 string
	Dependencies         []requirement.Requirement
	OptionalDependencies map[string][]requirement.Requirement
	RequiresPython       string
}

type pyproject struct {
	Project *projectTable `toml:"project"`
}

type projectTable struct {
	Dependencies         []string            `toml:"dependencies"`
	OptionalDependencies map[string][]string `toml:"optional-dependencies"`
	RequiresPython       string              `toml:"requires-python"`
}

// Load reads and parses the manifest at path.
func Load(ctx context.Context, path string) (*Manifest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}

	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("load manifest %s: %w", path, err)
	}
	m.Path = path
	return m, nil
}

// Parse decodes manifest content. Every dependency string must be a valid requirement.
func Parse(data []byte) (*Manifest, error) {
	var doc pyproject
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse TOML: %w", err)
	}
	if doc.Project == nil {
		return nil, ErrNoProjectTable
	}

	deps, err := requirement.ParseAll(doc.Project.Dependencies)
	if err != nil {
		return nil, fmt.Errorf("project.dependencies: %w", err)
	}

	optionals := make(map[string][]requirement.Requirement, len(doc.Project.OptionalDependencies))
	for group, items := range doc.Project.OptionalDependencies {
		reqs, err := requirement.ParseAll(items)
		if err != nil {
			return nil, fmt.Errorf("project.optional-dependencies.%s: %w", group, err)
		}
		optionals[group] = reqs
	}

	return &Manifest{
		Dependencies:         deps,
		OptionalDependencies: optionals,
		RequiresPython:       doc.Project.RequiresPython,
	}, nil
}

// PythonRequirement builds the synthetic language requirement, e.g. "python>=3.9".
func (m *Manifest) PythonRequirement() (requirement.Requirement, error) {
	req, err := requirement.Parse(LanguageRequirementName + m.RequiresPython)
	if err != nil {
		return requirement.Requirement{}, fmt.Errorf("project.requires-python: %w", err)
	}
	return req, nil
}

// GroupNames returns the optional-dependency group names in sorted order.
func (m *Manifest) GroupNames() []string {
	names := lo.Keys(m.OptionalDependencies)
	sort.Strings(names)
	return names
}
