// Package config provides configuration loading for ctxlift.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"

	"github.com/mpyw/ctxlift/internal"
)

//go:embed schema.json
var schemaJSON []byte

// Parsed at init time - failure here means a corrupted embedded file.
var configSchema *jsonschema.Schema

func init() {
	schemaDoc := internal.Must(jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON)))
	compiler := jsonschema.NewCompiler()
	internal.Must(struct{}{}, compiler.AddResource("schema.json", schemaDoc))
	configSchema = internal.Must(compiler.Compile("schema.json"))
}

// Hooks defines shell commands to run before and after the transformation.
type Hooks struct {
	// Pre are shell commands to run before processing
	Pre []string `yaml:"pre" json:"pre,omitempty"`
	// Post are shell commands to run after processing
	Post []string `yaml:"post" json:"post,omitempty"`
}

// Config represents the user configuration file.
type Config struct {
	// StructName is the name of the generated context aggregate and of the
	// pointer parameter threaded through every function.
	StructName string `yaml:"struct_name" json:"struct_name,omitempty"`
	// InitFunc is the name of the generated initializer function.
	InitFunc string `yaml:"init_func" json:"init_func,omitempty"`
	// HeaderName labels the synthesized header in the output stream.
	HeaderName string `yaml:"header_name" json:"header_name,omitempty"`
	// SourceName labels the synthesized initializer source in the output stream.
	SourceName string `yaml:"source_name" json:"source_name,omitempty"`
	// Exclude lists global variable names to leave untouched: they are not
	// collected into the context, their declarations stay, and references to
	// them are not rewritten.
	Exclude []string `yaml:"exclude" json:"exclude,omitempty"`
	// Hooks are shell commands to run before and after processing
	Hooks Hooks `yaml:"hooks" json:"hooks,omitempty"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		StructName: "__context__",
		InitFunc:   "__init__context__",
		HeaderName: "__context__.h",
		SourceName: "__context__.c",
	}
}

// LoadConfig loads a configuration file. A missing file yields the defaults;
// any other failure is an error.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML to generic interface for schema validation
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	// An empty document (no keys at all) keeps the defaults.
	if raw == nil {
		return Default(), nil
	}
	if err := configSchema.Validate(raw); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// Excluded reports whether name is configured to stay a plain global.
func (c *Config) Excluded(name string) bool {
	for _, n := range c.Exclude {
		if n == name {
			return true
		}
	}
	return false
}
