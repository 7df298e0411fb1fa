// Package preset loads visualizer parameter presets.
package preset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Preset is a named set of engine parameters.
type Preset struct {
	Name   string         `json:"name" yaml:"name"`
	Params map[string]any `json:"params" yaml:"params"`
}

// Load reads a preset from path. Files ending in .json are parsed as JSON,
// anything else as YAML. A preset without params yields an empty map.
func Load(path string) (*Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var p Preset
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &p)
	default:
		err = yaml.Unmarshal(data, &p)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing preset %s: %w", filepath.Base(path), err)
	}

	if p.Params == nil {
		p.Params = map[string]any{}
	}
	if p.Name == "" {
		p.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return &p, nil
}
