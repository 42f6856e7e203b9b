package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrUnsupportedFormat is returned for files that are neither YAML nor JSON.
var ErrUnsupportedFormat = errors.New("unsupported config format")

// Format is a configuration encoding.
type Format string

// Supported encodings.
const (
	YAML Format = "yaml"
	JSON Format = "json"
)

// FormatOf picks the encoding of an engine file from its extension.
func FormatOf(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return YAML, nil
	case ".json":
		return JSON, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// FromFile loads an engine file. ${VAR} and $VAR references are expanded
// from the environment before decoding, e.g. a history dsn.
func FromFile(path string) (Config, error) {
	format, err := FormatOf(path)
	if err != nil {
		return Config{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read engine config: %w", err)
	}
	return Parse([]byte(os.ExpandEnv(string(data))), format)
}

// Parse decodes data in the given format. An empty document yields an
// empty Config.
func Parse(data []byte, format Format) (Config, error) {
	var m map[string]any
	switch format {
	case YAML:
		if err := yaml.Unmarshal(data, &m); err != nil {
			return Config{}, fmt.Errorf("decode engine config (yaml): %w", err)
		}
	case JSON:
		if len(strings.TrimSpace(string(data))) == 0 {
			return New(nil), nil
		}
		if err := json.Unmarshal(data, &m); err != nil {
			return Config{}, fmt.Errorf("decode engine config (json): %w", err)
		}
	default:
		return Config{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	return New(m), nil
}

// FromYAML is Parse for YAML data.
func FromYAML(data []byte) (Config, error) { return Parse(data, YAML) }

// FromJSON is Parse for JSON data.
func FromJSON(data []byte) (Config, error) { return Parse(data, JSON) }
