// Package config provides configuration management for the thread-analysis tool.
package config

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/thread-analysis/pkg/utils"
)

// Config holds all configuration for the application.
type Config struct {
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Output   OutputConfig   `mapstructure:"output"`
	Log      LogConfig      `mapstructure:"log"`
}

// AnalysisConfig holds analysis-related configuration.
type AnalysisConfig struct {
	PoolName        string   `mapstructure:"pool_name"`
	MaxWorkers      int      `mapstructure:"max_workers"`
	MaxStacks       int      `mapstructure:"max_stacks"`
	IgnoredPrefixes []string `mapstructure:"ignored_prefixes"`
	IgnoreFile      string   `mapstructure:"ignore_file"`
}

// OutputConfig holds output-related configuration.
type OutputConfig struct {
	JSONPath string `mapstructure:"json_path"`
	NoColor  bool   `mapstructure:"no_color"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads configuration from the specified file path.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/thread-analysis")
	}

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is not fatal; defaults apply.
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// fall through
		} else if os.IsNotExist(err) {
			// fall through
		} else {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadFromReader loads configuration from raw content (useful for testing).
func LoadFromReader(configType string, content []byte) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType(configType)
	if err := v.ReadConfig(bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("analysis.max_workers", 4)
	v.SetDefault("analysis.max_stacks", 0)
	v.SetDefault("analysis.ignore_file", "")

	v.SetDefault("output.no_color", false)

	v.SetDefault("log.level", "info")
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Analysis.MaxWorkers < 1 {
		return fmt.Errorf("max workers must be at least 1")
	}
	if c.Analysis.MaxStacks < 0 {
		return fmt.Errorf("max stacks must not be negative")
	}
	return nil
}

// IgnoreList is the set of frame prefixes excluded from grouping,
// together with where it came from.
type IgnoreList struct {
	Prefixes []string
	Loaded   bool
	Source   string
}

// LoadIgnoreList reads frame prefixes from a line-separated file. Blank
// lines and lines starting with '#' are skipped. A missing or unreadable
// file is not fatal: the returned list is empty and Loaded is false, so
// callers can report that all frames were kept.
func LoadIgnoreList(path string, logger utils.Logger) IgnoreList {
	if logger == nil {
		logger = utils.NewNullLogger()
	}
	if path == "" {
		return IgnoreList{}
	}

	f, err := os.Open(path)
	if err != nil {
		logger.Warn("ignore file %s not readable, keeping all frames: %v", path, err)
		return IgnoreList{Source: path}
	}
	defer f.Close()

	var prefixes []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		prefixes = append(prefixes, line)
	}
	if err := scanner.Err(); err != nil {
		logger.Warn("error reading ignore file %s, keeping all frames: %v", path, err)
		return IgnoreList{Source: path}
	}

	return IgnoreList{Prefixes: prefixes, Loaded: true, Source: path}
}
