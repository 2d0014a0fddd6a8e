package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultFile is read when no path is given and PLACEHARVEST_CONFIG is unset.
const DefaultFile = "placeharvest.yaml"

// LoadFile returns the environment configuration overlaid with a YAML file.
//
// An explicit path (argument or PLACEHARVEST_CONFIG) must exist. The default
// file is optional. Keys missing from the file keep their environment value.
func LoadFile(path string) (*Config, error) {
	cfg := Load()

	explicit := true
	if path == "" {
		path = os.Getenv("PLACEHARVEST_CONFIG")
	}
	if path == "" {
		path = DefaultFile
		explicit = false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := overlay(cfg, data); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

func overlay(cfg *Config, data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
