package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/parley/pkg/domain"
	"gopkg.in/yaml.v3"
)

// File is the root of a routing file.
type File struct {
	Entry   string                 `yaml:"entry" json:"entry"`
	Filters []FilterConfig         `yaml:"filters" json:"filters"`
	States  map[string]StateConfig `yaml:"states" json:"states"`
}

// FilterConfig declares one filter instance.
type FilterConfig struct {
	ID     string         `yaml:"id" json:"id"`
	Type   string         `yaml:"type" json:"type"`
	Params map[string]any `yaml:"params" json:"params"`
}

// StateConfig declares a state, its state-level filters and its intents.
type StateConfig struct {
	Filters []string                `yaml:"filters" json:"filters"`
	Intents map[string]IntentConfig `yaml:"intents" json:"intents"`
}

// IntentConfig declares what a file-defined intent does.
// Steps run in field order: session edits, reply, transition.
type IntentConfig struct {
	Filters    []string          `yaml:"filters" json:"filters"`
	Set        map[string]string `yaml:"set" json:"set"`
	Unset      []string          `yaml:"unset" json:"unset"`
	Reply      string            `yaml:"reply" json:"reply"`
	End        bool              `yaml:"end" json:"end"`
	Transition string            `yaml:"transition" json:"transition"`
}

// Load reads a routing file. The format follows the extension: .json is JSON, anything else YAML.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read routing file: %w", err)
	}

	format := "yaml"
	if strings.EqualFold(filepath.Ext(path), ".json") {
		format = "json"
	}
	f, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse decodes a routing file in the given format ("yaml" or "json").
func Parse(data []byte, format string) (*File, error) {
	var f File
	switch format {
	case "json":
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("failed to parse json: %w", err)
		}
	case "yaml", "yml", "":
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("failed to parse yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
	return &f, nil
}

// EntryState returns the configured entry state or the default one.
func (f *File) EntryState() string {
	if f.Entry != "" {
		return f.Entry
	}
	return domain.DefaultEntryState
}

// Filter returns the declaration with the given id.
func (f *File) Filter(id string) (FilterConfig, bool) {
	for _, fc := range f.Filters {
		if fc.ID == id {
			return fc, true
		}
	}
	return FilterConfig{}, false
}
