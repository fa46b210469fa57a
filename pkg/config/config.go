// Package config handles dnnbrain configuration loading.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	dnnerrors "github.com/Lesliefans0-0/dnnbrain/pkg/errors"
	"github.com/Lesliefans0-0/dnnbrain/pkg/export"
)

// DataEnvVar names the environment variable that overrides DataDir.
const DataEnvVar = "DNNBRAIN_DATA"

// Config is the root configuration structure.
type Config struct {
	// DataDir is the root of the dnnbrain data tree (fixtures live under test/).
	DataDir string `yaml:"data_dir"`

	// TmpDir holds scratch files written by commands.
	TmpDir string `yaml:"tmp_dir"`

	Log    LogConfig        `yaml:"log"`
	Export export.CSVConfig `yaml:"export"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`
	// Encoding is "json" or "console".
	Encoding string `yaml:"encoding"`
}

// Default returns the default configuration.
func Default() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		DataDir: "",
		TmpDir:  filepath.Join(home, ".dnnbrain_tmp"),
		Log: LogConfig{
			Level:    "info",
			Encoding: "console",
		},
		Export: *export.DefaultCSVConfig(),
	}
}

// Load loads configuration from a file and applies environment overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, dnnerrors.Config(dnnerrors.ErrConfigNotFound, "configuration file not found").
				WithContext("path", path).
				WithCause(err)
		}
		return nil, dnnerrors.FromOS(err, path, false)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, dnnerrors.ConfigWrap(err, dnnerrors.ErrConfigParseFailed, "failed to parse config").
			WithContext("path", path)
	}
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads config from path, or returns defaults if the file does not exist.
func LoadOrDefault(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	cfg := Default()
	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if dir := os.Getenv(DataEnvVar); dir != "" {
		c.DataDir = dir
	}
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return dnnerrors.Config(dnnerrors.ErrConfigInvalid, fmt.Sprintf("invalid log level %q", c.Log.Level)).
			WithContext("field", "log.level")
	}
	switch c.Log.Encoding {
	case "json", "console":
	default:
		return dnnerrors.Config(dnnerrors.ErrConfigInvalid, fmt.Sprintf("invalid log encoding %q", c.Log.Encoding)).
			WithContext("field", "log.encoding")
	}
	switch c.Export.Dialect {
	case export.DialectStandard, export.DialectTSV:
	default:
		return dnnerrors.Config(dnnerrors.ErrConfigInvalid, fmt.Sprintf("invalid export dialect %q", c.Export.Dialect)).
			WithContext("field", "export.dialect")
	}
	return nil
}

// TestDir returns the fixture directory under DataDir, or "" if DataDir is unset.
func (c *Config) TestDir() string {
	if c.DataDir == "" {
		return ""
	}
	return filepath.Join(c.DataDir, "test")
}

// Save saves configuration to a file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return dnnerrors.ConfigWrap(err, dnnerrors.ErrConfigWriteFailed, "failed to create config directory")
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return dnnerrors.ConfigWrap(err, dnnerrors.ErrConfigWriteFailed, "failed to marshal config")
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return dnnerrors.ConfigWrap(err, dnnerrors.ErrConfigWriteFailed, "failed to write config file").
			WithContext("path", path)
	}
	return nil
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	if _, err := os.Stat("dnnbrain.yaml"); err == nil {
		return "dnnbrain.yaml"
	}
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "dnnbrain", "config.yaml")
	}
	return "dnnbrain.yaml"
}

// InitConfig creates a default config file if it doesn't exist.
func InitConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil // Already exists
	}
	return Default().Save(path)
}
