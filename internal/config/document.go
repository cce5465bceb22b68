package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Document is a parsed YAML settings tree addressed by dotted key paths,
// e.g. "classifier.modes.strict.threshold". Lookups never fail: an absent
// key or a value of the wrong shape yields the caller's default.
type Document struct {
	root map[string]interface{}
}

// EmptyDocument returns a document in which every lookup falls back to its default.
func EmptyDocument() *Document {
	return &Document{root: map[string]interface{}{}}
}

// LoadDocument reads the YAML file at path. An empty path yields an empty document.
func LoadDocument(path string) (*Document, error) {
	if strings.TrimSpace(path) == "" {
		return EmptyDocument(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
	}
	return ParseDocument(data)
}

// ParseDocument parses YAML bytes into a Document.
func ParseDocument(data []byte) (*Document, error) {
	root := map[string]interface{}{}
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse config document: %w", err)
	}
	if root == nil {
		root = map[string]interface{}{}
	}
	return &Document{root: root}, nil
}

// Get returns the raw value at keyPath.
func (d *Document) Get(keyPath string) (interface{}, bool) {
	if d == nil || d.root == nil {
		return nil, false
	}

	var value interface{} = d.root
	for _, key := range strings.Split(keyPath, ".") {
		node, ok := value.(map[string]interface{})
		if !ok {
			return nil, false
		}
		value, ok = node[key]
		if !ok {
			return nil, false
		}
	}
	return value, true
}

func (d *Document) GetFloat(keyPath string, defaultValue float64) float64 {
	value, ok := d.Get(keyPath)
	if !ok {
		return defaultValue
	}
	switch v := value.(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func (d *Document) GetInt(keyPath string, defaultValue int) int {
	value, ok := d.Get(keyPath)
	if !ok {
		return defaultValue
	}
	switch v := value.(type) {
	case int:
		return v
	case float64:
		return int(v)
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return i
		}
	}
	return defaultValue
}

func (d *Document) GetString(keyPath string, defaultValue string) string {
	value, ok := d.Get(keyPath)
	if !ok {
		return defaultValue
	}
	if s, ok := value.(string); ok {
		return s
	}
	return defaultValue
}

// GetFloatMap returns the numeric children of the mapping at keyPath.
// Entries that are not numbers are skipped; a missing mapping yields an empty map.
func (d *Document) GetFloatMap(keyPath string) map[string]float64 {
	result := map[string]float64{}
	value, ok := d.Get(keyPath)
	if !ok {
		return result
	}
	node, ok := value.(map[string]interface{})
	if !ok {
		return result
	}
	for key := range node {
		if f, ok := numeric(node[key]); ok {
			result[key] = f
		}
	}
	return result
}

func numeric(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}

// GetStringSlice returns the list at keyPath. Non-string entries are skipped.
func (d *Document) GetStringSlice(keyPath string, defaultValue []string) []string {
	value, ok := d.Get(keyPath)
	if !ok {
		return defaultValue
	}
	items, ok := value.([]interface{})
	if !ok {
		return defaultValue
	}

	result := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			result = append(result, s)
		}
	}
	return result
}
