package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	cfderror "github.com/msto63/cfdkit/foundation/core/error"
)

// EnvConfigPath names the environment variable that points at the config file
const EnvConfigPath = "CFDKIT_CONFIG"

// Config holds the complete application configuration
type Config struct {
	General GeneralConfig `toml:"general" yaml:"general"`
	CCL     CCLConfig     `toml:"ccl" yaml:"ccl"`
	CFX     CFXConfig     `toml:"cfx" yaml:"cfx"`

	// Path of the file the configuration was loaded from, empty for defaults
	Path string `toml:"-" yaml:"-"`
}

// GeneralConfig holds general application settings
type GeneralConfig struct {
	LogLevel  string `toml:"log_level" yaml:"log_level"`
	LogFormat string `toml:"log_format" yaml:"log_format"`
	LogFile   string `toml:"log_file" yaml:"log_file"`
}

// CCLConfig holds parser and store settings
type CCLConfig struct {
	IndentStep  int    `toml:"indent_step" yaml:"indent_step"`
	StoreSuffix string `toml:"store_suffix" yaml:"store_suffix"`
	Strict      bool   `toml:"strict" yaml:"strict"`
	// Conflict is "fail" or "skip" for materialization without overwrite
	Conflict string `toml:"conflict" yaml:"conflict"`
}

// CFXConfig holds the external solver installation
type CFXConfig struct {
	InstallDir   string   `toml:"install_dir" yaml:"install_dir"`
	Version      string   `toml:"version" yaml:"version"`
	Pre          string   `toml:"pre" yaml:"pre"`
	Cmds         string   `toml:"cmds" yaml:"cmds"`
	Solve        string   `toml:"solve" yaml:"solve"`
	SessionDir   string   `toml:"session_dir" yaml:"session_dir"`
	Partitions   int      `toml:"partitions" yaml:"partitions"`
	PollInterval Duration `toml:"poll_interval" yaml:"poll_interval"`
	WaitTimeout  Duration `toml:"wait_timeout" yaml:"wait_timeout"`
}

// Duration wraps time.Duration for TOML and YAML parsing
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText formats the duration as a string
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// UnmarshalYAML parses a duration scalar
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	return d.UnmarshalText([]byte(value.Value))
}

// MarshalYAML formats the duration as a string
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// Default returns the configuration used when no file is found
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load loads configuration from a TOML or YAML file, chosen by extension
func Load(path string) (*Config, error) {
	path = os.ExpandEnv(path)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, cfderror.Newf(cfderror.CodeNotFound, "config file not found: %s", path)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, cfderror.Wrap(err, "failed to parse config").WithCode(cfderror.CodeConfigError).WithDetail("path", path)
		}
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, cfderror.Wrap(err, "failed to parse config").WithCode(cfderror.CodeConfigError).WithDetail("path", path)
		}
	default:
		return nil, cfderror.Newf(cfderror.CodeConfigError, "unsupported config format: %s", path)
	}

	cfg.applyDefaults()
	cfg.expandEnvVars()
	cfg.Path = path

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadFromEnv loads configuration from the CFDKIT_CONFIG environment variable
// or the first default location that exists
func LoadFromEnv() (*Config, error) {
	path := os.Getenv(EnvConfigPath)
	if path == "" {
		for _, p := range DefaultPaths() {
			if _, err := os.Stat(p); err == nil {
				path = p
				break
			}
		}
	}

	if path == "" {
		return nil, cfderror.Newf(cfderror.CodeNotFound, "no config file found, set %s or create cfdkit.toml", EnvConfigPath)
	}

	return Load(path)
}

// DefaultPaths lists the locations searched by LoadFromEnv, in order
func DefaultPaths() []string {
	paths := []string{
		"./cfdkit.toml",
		"./cfdkit.yaml",
		"./configs/cfdkit.toml",
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "cfdkit", "config.toml"))
	}
	return paths
}

// applyDefaults sets default values for missing configuration
func (c *Config) applyDefaults() {
	// General
	if c.General.LogLevel == "" {
		c.General.LogLevel = "info"
	}
	if c.General.LogFormat == "" {
		c.General.LogFormat = "text"
	}

	// CCL
	if c.CCL.IndentStep == 0 {
		c.CCL.IndentStep = 2
	}
	if c.CCL.StoreSuffix == "" {
		c.CCL.StoreSuffix = ".ccldb"
	}
	if c.CCL.Conflict == "" {
		c.CCL.Conflict = "fail"
	}

	// CFX
	if c.CFX.Partitions == 0 {
		c.CFX.Partitions = 1
	}
	if c.CFX.PollInterval.Duration == 0 {
		c.CFX.PollInterval.Duration = time.Second
	}
	if c.CFX.WaitTimeout.Duration == 0 {
		c.CFX.WaitTimeout.Duration = 10 * time.Minute
	}
}

// expandEnvVars expands environment variables in path values
func (c *Config) expandEnvVars() {
	c.General.LogFile = os.ExpandEnv(c.General.LogFile)
	c.CFX.InstallDir = os.ExpandEnv(c.CFX.InstallDir)
	c.CFX.Pre = os.ExpandEnv(c.CFX.Pre)
	c.CFX.Cmds = os.ExpandEnv(c.CFX.Cmds)
	c.CFX.Solve = os.ExpandEnv(c.CFX.Solve)
	c.CFX.SessionDir = os.ExpandEnv(c.CFX.SessionDir)
}

// Validate checks value ranges that defaults cannot repair
func (c *Config) Validate() error {
	if c.CCL.IndentStep < 1 {
		return cfderror.Newf(cfderror.CodeConfigError, "ccl.indent_step must be positive, got %d", c.CCL.IndentStep)
	}
	if !strings.HasPrefix(c.CCL.StoreSuffix, ".") {
		return cfderror.Newf(cfderror.CodeConfigError, "ccl.store_suffix must start with a dot, got %q", c.CCL.StoreSuffix)
	}
	switch c.CCL.Conflict {
	case "fail", "skip":
	default:
		return cfderror.Newf(cfderror.CodeConfigError, "ccl.conflict must be fail or skip, got %q", c.CCL.Conflict)
	}
	if c.CFX.Partitions < 1 {
		return cfderror.Newf(cfderror.CodeConfigError, "cfx.partitions must be positive, got %d", c.CFX.Partitions)
	}
	return nil
}

// LoadOrDefault loads path when given, otherwise searches like LoadFromEnv
// and falls back to Default when no file exists
func LoadOrDefault(path string) (*Config, error) {
	if path != "" {
		return Load(path)
	}
	cfg, err := LoadFromEnv()
	if cfderror.HasCode(err, cfderror.CodeNotFound) {
		return Default(), nil
	}
	return cfg, err
}
