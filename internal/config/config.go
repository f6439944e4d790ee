// Package config loads and validates the optional reboot-cmds YAML file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"

	"github.com/deixis/rebootcmds/internal/logging"
	"github.com/deixis/rebootcmds/internal/runner"
	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"gopkg.in/yaml.v3"
)

// Defaults for the reference deployment.
const (
	DefaultPath   = "/etc/ubuntu-advantage/reboot-cmds.yaml"
	DefaultMarker = "/etc/ubuntu-advantage/reboot-cmds-needed"
)

// DefaultCommands is the deferred command list replayed on boot: refresh
// the contract state, then apply any pending LTS contract upgrade.
var DefaultCommands = []runner.Command{
	{"ua", "refresh"},
	{"/usr/bin/python3", "/usr/lib/ubuntu-advantage/upgrade_lts_contract.py"},
}

// FormatVersion is the only configuration format version understood.
const FormatVersion = 1

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Accept exactly the names logging.ParseLevel knows.
	_ = v.RegisterValidation("loglevel", func(fl validator.FieldLevel) bool {
		return slices.Contains(logging.LevelNames(), fl.Field().String())
	})
	return v
}

// Config holds the parsed configuration file.
// All fields are optional; zero values select defaults.
type Config struct {
	Version     int        `yaml:"version,omitempty" validate:"omitempty,eq=1" jsonschema:"description=Configuration format version"`
	RawMarker   string     `yaml:"marker,omitempty" jsonschema:"description=Path whose existence signals pending deferred commands"`
	RawCommands [][]string `yaml:"commands,omitempty" validate:"omitempty,dive,min=1,dive,required" jsonschema:"description=Ordered argument vectors replayed on boot"`
	Log         LogConfig  `yaml:"log,omitempty"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level   string `yaml:"level,omitempty" validate:"omitempty,loglevel" jsonschema:"description=Console log level"`
	File    string `yaml:"file,omitempty" jsonschema:"description=JSON debug log file"`
	NoColor bool   `yaml:"no_color,omitempty"`
}

// JSONSchemaExtend pins the format version.
func (Config) JSONSchemaExtend(s *jsonschema.Schema) {
	if prop, ok := s.Properties.Get("version"); ok {
		prop.Const = FormatVersion
	}
}

// JSONSchemaExtend lists the accepted level names.
func (LogConfig) JSONSchemaExtend(s *jsonschema.Schema) {
	prop, ok := s.Properties.Get("level")
	if !ok {
		return
	}
	prop.Enum = nil
	for _, name := range logging.LevelNames() {
		prop.Enum = append(prop.Enum, name)
	}
}

// Marker returns the configured sentinel marker path or the default.
func (c *Config) Marker() string {
	if c.RawMarker != "" {
		return c.RawMarker
	}
	return DefaultMarker
}

// Commands returns the configured deferred command list, falling back to
// DefaultCommands. The result never aliases the config.
func (c *Config) Commands() []runner.Command {
	src := DefaultCommands
	if len(c.RawCommands) > 0 {
		src = make([]runner.Command, len(c.RawCommands))
		for i, argv := range c.RawCommands {
			src[i] = argv
		}
	}
	out := make([]runner.Command, len(src))
	for i, cmd := range src {
		out[i] = slices.Clone(cmd)
	}
	return out
}

// LogOptions returns logging options derived from the file.
// Environment overrides are not applied.
func (c *Config) LogOptions() logging.Options {
	opts := logging.DefaultOptions()
	if lvl, ok := logging.ParseLevel(c.Log.Level); ok {
		opts.Level = lvl
	}
	opts.File = c.Log.File
	opts.NoColor = c.Log.NoColor
	return opts
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// Load reads the configuration file at path. A missing file yields a
// default Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Schema returns the JSON schema of the configuration file.
func Schema() ([]byte, error) {
	reflector := jsonschema.Reflector{
		FieldNameTag:   "yaml",
		ExpandedStruct: true,
	}
	schema := reflector.Reflect(&Config{})
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling schema: %w", err)
	}
	return data, nil
}

