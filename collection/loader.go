package collection

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load parses a document from JSON bytes, normalizes its limits and
// validates it. The returned collection is ready for registration.
func Load(data []byte) (*Collection, error) {
	var c Collection
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse collection: %w", err)
	}
	return finishLoad(&c)
}

// LoadYAML parses a document from YAML bytes.
func LoadYAML(data []byte) (*Collection, error) {
	var c Collection
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse collection: %w", err)
	}
	return finishLoad(&c)
}

// LoadFile loads a document from disk, choosing the codec by extension:
// .json, .yaml or .yml.
func LoadFile(path string) (*Collection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return Load(data)
	case ".yaml", ".yml":
		return LoadYAML(data)
	default:
		return nil, fmt.Errorf("unsupported collection file extension: %s", path)
	}
}

func finishLoad(c *Collection) (*Collection, error) {
	c.Metadata.normalize()
	if errs := c.Validate(); len(errs) > 0 {
		return nil, errs
	}
	return c, nil
}
