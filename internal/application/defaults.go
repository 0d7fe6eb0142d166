package application

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadDefaults reads an optional YAML defaults file and returns the
// Config it describes, to be layered under CLI flags by ParseFlags.
// It strict-decodes the same way `graph_loader.go` decodes GraphConfig
// (`KnownFields(true)`), so a typo'd key in the file is a fatal
// configuration error rather than a silently ignored field.
func LoadDefaults(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("application: reading defaults file %s: %w", path, err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("application: parsing defaults file %s: %w", path, err)
	}
	return cfg, nil
}
