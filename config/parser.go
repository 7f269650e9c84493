package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
)

// Parser parses raw configuration bytes into a Config.
type Parser interface {
	// Parse unmarshals configuration bytes into a Config struct.
	Parse(data []byte) (*Config, error)
}

// YAMLParser implements Parser for YAML.
type YAMLParser struct{}

// NewYAMLParser creates a new YAMLParser.
func NewYAMLParser() Parser {
	return &YAMLParser{}
}

// Parse validates the YAML document against the schema and unmarshals it.
func (p *YAMLParser) Parse(data []byte) (*Config, error) {
	doc, err := yaml.YAMLToJSON(data)
	if err != nil {
		return nil, fmt.Errorf("decoding config YAML: %w", err)
	}
	if err := ValidateDocument(doc); err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("decoding config YAML: %w", err)
	}
	return &cfg, nil
}

// JSONParser implements Parser for JSON.
type JSONParser struct{}

// NewJSONParser creates a new JSONParser.
func NewJSONParser() Parser {
	return &JSONParser{}
}

// Parse validates the JSON document against the schema and unmarshals it.
func (p *JSONParser) Parse(data []byte) (*Config, error) {
	if err := ValidateDocument(data); err != nil {
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("decoding config JSON: %w", err)
	}
	return &cfg, nil
}

// ParserFor picks a parser from the file extension. Anything but .json is YAML.
func ParserFor(path string) Parser {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return NewJSONParser()
	}
	return NewYAMLParser()
}

// Load reads, parses, defaults, and validates the configuration at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %q: %w", path, err)
	}
	return Parse(ParserFor(path), data)
}

// Parse runs p over data, then applies defaults and validates the result.
func Parse(p Parser, data []byte) (*Config, error) {
	cfg, err := p.Parse(data)
	if err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
