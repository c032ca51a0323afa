package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// LoadConfig loads a configuration file.
//
// The file format is determined by extension:
//   - .json -> JSON
//   - anything else -> YAML
//
// Placeholders of the form {{NAME}} are replaced with the value of the
// environment variable NAME before parsing. Fields absent from the file keep
// their DefaultConfig values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}
	return ParseConfig(data, path)
}

// ParseConfig parses and validates configuration data. path is only used to
// pick the format.
func ParseConfig(data []byte, path string) (*Config, error) {
	data = []byte(ProcessEnvironment(string(data), environ()))
	isJSON := strings.EqualFold(filepath.Ext(path), ".json")

	if err := validateSchema(data, isJSON); err != nil {
		return nil, err
	}

	config := DefaultConfig()
	if isJSON {
		if err := json.Unmarshal(data, config); err != nil {
			return nil, errors.Wrap(err, "failed to parse JSON config")
		}
	} else {
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, errors.Wrap(err, "failed to parse YAML config")
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// ProcessEnvironment replaces {{KEY}} placeholders in input with values
// from env.
func ProcessEnvironment(input string, env map[string]string) string {
	if !strings.Contains(input, "{{") {
		return input
	}
	result := input
	for key, value := range env {
		result = strings.ReplaceAll(result, "{{"+key+"}}", value)
	}
	return result
}

func environ() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return env
}
