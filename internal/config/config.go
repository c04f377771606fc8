package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config drives the batch (db) mode: which tables to touch and which
// transformer to apply to each column. An empty config rotates nothing.
type Config struct {
	IncludeTables []string                `yaml:"include_tables"`
	ExcludeTables []string                `yaml:"exclude_tables"`
	Tables        map[string]*TableConfig `yaml:"tables"`
}

type TableConfig struct {
	Columns map[string]*TransformConfig `yaml:"columns"`
}

type TransformConfig struct {
	Type   string         `yaml:"type"`
	Params map[string]any `yaml:"params"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		return &Config{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
