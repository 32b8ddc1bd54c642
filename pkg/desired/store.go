package desired

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/cuemby/modelkeeper/pkg/config"
	"github.com/cuemby/modelkeeper/pkg/types"
	"gopkg.in/yaml.v3"
)

// ModelsKey is the top-level key holding the workload list
const ModelsKey = "models"

// Store is the immutable, ordered set of workloads that should be running
type Store struct {
	source string
	specs  []types.WorkloadSpec
}

// New builds a store from already-parsed specs
func New(source string, specs []types.WorkloadSpec) (*Store, error) {
	seen := make(map[string]int, len(specs))
	for i, spec := range specs {
		field := fmt.Sprintf("%s[%d]", ModelsKey, i)
		if spec.Name == "" {
			return nil, config.Errorf(source, field, "name is required")
		}
		if spec.Type == "" {
			return nil, config.Errorf(source, field, "type is required")
		}
		if !spec.HasUID() {
			continue
		}
		if prev, dup := seen[spec.UID]; dup {
			return nil, config.Errorf(source, field, "uid %q already used by %s[%d]", spec.UID, ModelsKey, prev)
		}
		seen[spec.UID] = i
	}

	out := make([]types.WorkloadSpec, len(specs))
	copy(out, specs)
	return &Store{source: source, specs: out}, nil
}

// Load reads the desired state from a YAML (default) or TOML file
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &config.Error{Source: path, Err: fmt.Errorf("file is missing: %w", err)}
		}
		return nil, &config.Error{Source: path, Err: fmt.Errorf("read config: %w", err)}
	}

	var doc map[string]any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, &doc); err != nil {
			return nil, &config.Error{Source: path, Err: fmt.Errorf("parse config: %w", err)}
		}
	default:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, &config.Error{Source: path, Err: fmt.Errorf("parse config: %w", err)}
		}
	}

	specs, err := decodeModels(path, doc)
	if err != nil {
		return nil, err
	}
	return New(path, specs)
}

// Specs returns a copy of the workloads in declared order
func (s *Store) Specs() []types.WorkloadSpec {
	out := make([]types.WorkloadSpec, len(s.specs))
	copy(out, s.specs)
	return out
}

// Len returns the number of declared workloads
func (s *Store) Len() int {
	return len(s.specs)
}

// Source returns where the store was loaded from
func (s *Store) Source() string {
	return s.source
}

func decodeModels(source string, doc map[string]any) ([]types.WorkloadSpec, error) {
	raw, ok := doc[ModelsKey]
	if !ok {
		return nil, config.Errorf(source, ModelsKey, "missing top-level key")
	}

	var entries []any
	switch list := raw.(type) {
	case []any:
		entries = list
	case []map[string]any:
		for _, m := range list {
			entries = append(entries, m)
		}
	case nil:
		// "models:" with no entries
	default:
		return nil, config.Errorf(source, ModelsKey, "expected a list, got %T", raw)
	}

	specs := make([]types.WorkloadSpec, 0, len(entries))
	for i, entry := range entries {
		field := fmt.Sprintf("%s[%d]", ModelsKey, i)
		m, ok := entry.(map[string]any)
		if !ok {
			return nil, config.Errorf(source, field, "expected a mapping, got %T", entry)
		}

		var spec types.WorkloadSpec
		var err error
		if spec.Name, err = stringField(m, "name"); err != nil {
			return nil, &config.Error{Source: source, Field: field, Err: err}
		}
		if spec.Type, err = stringField(m, "type"); err != nil {
			return nil, &config.Error{Source: source, Field: field, Err: err}
		}
		if spec.Engine, err = stringField(m, "engine"); err != nil {
			return nil, &config.Error{Source: source, Field: field, Err: err}
		}
		if spec.UID, err = stringField(m, "uid"); err != nil {
			return nil, &config.Error{Source: source, Field: field, Err: err}
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func stringField(m map[string]any, key string) (string, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s must be a string, got %T", key, v)
	}
	return strings.TrimSpace(s), nil
}
