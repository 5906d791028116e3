// Package config loads the simulator configuration from JSON or YAML files
// with optional environment overrides.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	coremetrics "github.com/kilianp07/sitesim/core/metrics"
	"github.com/kilianp07/sitesim/infra/mqtt"
)

// Config is the top-level configuration document.
type Config struct {
	Scenario ScenarioSection    `json:"scenario"`
	Demand   DemandSection      `json:"demand"`
	Logging  LoggingConfig      `json:"logging"`
	Metrics  coremetrics.Config `json:"metrics"`
	MQTT     mqtt.Config        `json:"mqtt"`
}

// Load reads the configuration file at path. The format is chosen by file
// extension; SITESIM_-prefixed environment variables override file values
// (double underscores map to nesting).
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	if err := k.Load(env.Provider("SITESIM_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "sitesim_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Logging.SetDefaults()
	if err := cfg.Logging.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoggingConfig selects the minimum log severity.
type LoggingConfig struct {
	Level string `json:"level"`
}

// SetDefaults applies sane defaults.
func (c *LoggingConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
}

// Validate checks the level name.
func (c LoggingConfig) Validate() error {
	switch c.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("unknown log level %q", c.Level)
	}
}
