package sourcefile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/sciamlab/envgen"
)

// Options configures file source behavior.
type Options struct {
	// Format: "yaml", "json", or "toml". Auto-detected from extension if empty.
	Format string

	// Required: if true, missing files cause an error. Default: false (returns empty map).
	Required bool
}

type fileSource struct {
	path string
	opts Options
}

// New creates a file-based configuration source.
func New(path string, opts Options) envgen.OrderedSource {
	return &fileSource{
		path: path,
		opts: opts,
	}
}

// Load reads and parses the file.
func (f *fileSource) Load(ctx context.Context) (map[string]any, error) {
	result, _, err := f.LoadOrdered(ctx)
	return result, err
}

// LoadOrdered reads and parses the file, returning the mapping and its top-level key order.
func (f *fileSource) LoadOrdered(ctx context.Context) (map[string]any, []string, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			if f.opts.Required {
				return nil, nil, fmt.Errorf("required config file not found: %s: %w", f.path, err)
			}
			return make(map[string]any), nil, nil
		}
		return nil, nil, fmt.Errorf("read config file %s: %w", f.path, err)
	}

	format := f.opts.Format
	if format == "" {
		format = inferFormat(f.path)
	}

	var raw map[string]any
	var order []string

	switch format {
	case "yaml", "yml":
		raw, order, err = decodeYAML(data)
		if err != nil {
			return nil, nil, fmt.Errorf("parse YAML file %s: %w", f.path, err)
		}
	case "json":
		raw, order, err = decodeJSON(data)
		if err != nil {
			return nil, nil, fmt.Errorf("parse JSON file %s: %w", f.path, err)
		}
	case "toml":
		if err := toml.Unmarshal(data, &raw); err != nil {
			return nil, nil, fmt.Errorf("parse TOML file %s: %w", f.path, err)
		}
		order = lo.Keys(raw)
		sort.Strings(order)
	default:
		return nil, nil, fmt.Errorf("unsupported file format: %s (supported: yaml, json, toml)", format)
	}

	if raw == nil {
		raw = make(map[string]any)
	}
	for key, value := range raw {
		raw[key] = normalizeValue(value)
	}

	return raw, order, nil
}

func decodeJSON(data []byte) (map[string]any, []string, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		// top-level null
		return raw, nil, nil
	}

	var order []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("unexpected token %v", tok)
		}
		order = append(order, key)

		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, nil, err
		}
	}

	// Duplicate keys keep their first position and last value.
	return raw, lo.Uniq(order), nil
}

func decodeYAML(data []byte) (map[string]any, []string, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, nil, err
	}
	if len(doc.Content) == 0 {
		return nil, nil, nil
	}

	root := doc.Content[0]
	if root.Kind == yaml.ScalarNode && root.Tag == "!!null" {
		return nil, nil, nil
	}
	if root.Kind != yaml.MappingNode {
		return nil, nil, errors.New("top-level value must be a mapping")
	}

	var order []string
	for i := 0; i+1 < len(root.Content); i += 2 {
		order = append(order, root.Content[i].Value)
	}

	var raw map[string]any
	if err := root.Decode(&raw); err != nil {
		return nil, nil, err
	}
	return raw, lo.Uniq(order), nil
}

// normalizeValue converts map[any]any produced by some decoders into map[string]any.
func normalizeValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		for key, val := range v {
			v[key] = normalizeValue(val)
		}
		return v
	case map[any]any:
		out := make(map[string]any, len(v))
		for key, val := range v {
			keyStr, ok := key.(string)
			if !ok {
				continue
			}
			out[keyStr] = normalizeValue(val)
		}
		return out
	case []any:
		for i, item := range v {
			v[i] = normalizeValue(item)
		}
		return v
	default:
		return value
	}
}

// Name returns a human-readable identifier for this source.
func (f *fileSource) Name() string {
	return "file:" + filepath.Base(f.path)
}

func inferFormat(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		return "yaml"
	case ".json":
		return "json"
	case ".toml":
		return "toml"
	default:
		return ""
	}
}
