// Package config provides configuration management for training runs.
//
// Values resolve in the order defaults < config file < APPRAISE_*
// environment variables; command-line flags are applied on top by the CLI.
package config

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/klauspost/cpuid/v2"
	"github.com/paveg/appraise/internal/errors"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "APPRAISE"

// Config represents the configuration of one training run
type Config struct {
	// Dataset
	Profile   string   `mapstructure:"profile" json:"profile" yaml:"profile"`       // Built-in profile name
	Dataset   string   `mapstructure:"dataset" json:"dataset" yaml:"dataset"`       // Dataset file path
	Encodings []string `mapstructure:"encodings" json:"encodings" yaml:"encodings"` // Encoding order (empty = profile default)
	Delimiter string   `mapstructure:"delimiter" json:"delimiter" yaml:"delimiter"` // Single-character field delimiter

	// Model selection
	Seed             int64                           `mapstructure:"seed" json:"seed" yaml:"seed"`
	TestFraction     float64                         `mapstructure:"test_fraction" json:"test_fraction" yaml:"test_fraction"`
	Folds            int                             `mapstructure:"folds" json:"folds" yaml:"folds"`
	SearchIterations int                             `mapstructure:"search_iterations" json:"search_iterations" yaml:"search_iterations"` // 0 = profile default
	Grids            map[string]map[string][]float64 `mapstructure:"grids" json:"grids,omitempty" yaml:"grids,omitempty"`                 // Per-family grid overrides

	// Runtime
	WorkerPoolSize    int  `mapstructure:"worker_pool_size" json:"worker_pool_size" yaml:"worker_pool_size"` // 0 = auto-detect
	MetricsCollection bool `mapstructure:"metrics_collection" json:"metrics_collection" yaml:"metrics_collection"`
	VerboseLogging    bool `mapstructure:"verbose_logging" json:"verbose_logging" yaml:"verbose_logging"`
}

// Default configuration values
const (
	DefaultProfile      = "ac"
	DefaultDelimiter    = ","
	DefaultSeed         = 42
	DefaultTestFraction = 0.2
	DefaultFolds        = 5
)

// NewConfig creates a new configuration with default values
func NewConfig() Config {
	return Config{
		Profile:           DefaultProfile,
		Delimiter:         DefaultDelimiter,
		Seed:              DefaultSeed,
		TestFraction:      DefaultTestFraction,
		Folds:             DefaultFolds,
		WorkerPoolSize:    0, // Auto-detect
		MetricsCollection: true,
		VerboseLogging:    false,
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	if c.Profile == "" {
		return errors.NewConfigError("Config", "profile must be set")
	}
	if len([]rune(c.Delimiter)) != 1 {
		return errors.NewConfigError("Config", fmt.Sprintf("delimiter must be a single character, got %q", c.Delimiter))
	}
	if c.TestFraction <= 0 || c.TestFraction >= 1 {
		return errors.NewConfigError("Config", fmt.Sprintf("test_fraction must be in (0, 1), got %g", c.TestFraction))
	}
	if c.Folds < 2 {
		return errors.NewConfigError("Config", fmt.Sprintf("folds must be at least 2, got %d", c.Folds))
	}
	if c.SearchIterations < 0 {
		return errors.NewConfigError("Config", fmt.Sprintf("search_iterations must be non-negative, got %d", c.SearchIterations))
	}
	if c.WorkerPoolSize < 0 {
		return errors.NewConfigError("Config", fmt.Sprintf("worker_pool_size must be non-negative, got %d", c.WorkerPoolSize))
	}
	for family, grid := range c.Grids {
		if len(grid) == 0 {
			return errors.NewConfigError("Config", fmt.Sprintf("grid for %s is empty", family))
		}
		for name, values := range grid {
			if len(values) == 0 {
				return errors.NewConfigError("Config", fmt.Sprintf("grid %s.%s has no candidate values", family, name))
			}
		}
	}
	return nil
}

// DelimiterRune returns the delimiter as a rune.
func (c Config) DelimiterRune() rune {
	r := []rune(c.Delimiter)
	if len(r) == 0 {
		return ','
	}
	return r[0]
}

// WithDefaults returns a new configuration with default values filled in for zero values
func (c Config) WithDefaults() Config {
	defaults := NewConfig()

	if c.Profile == "" {
		c.Profile = defaults.Profile
	}
	if c.Delimiter == "" {
		c.Delimiter = defaults.Delimiter
	}
	if c.TestFraction == 0 {
		c.TestFraction = defaults.TestFraction
	}
	if c.Folds == 0 {
		c.Folds = defaults.Folds
	}

	// Seed and booleans are left alone: zero and false are explicit choices.
	return c
}

// Load resolves configuration from defaults, an optional file and the
// environment. With an empty cfgFile, ./appraise.yaml and
// ~/.appraise/config.yaml are tried and a missing file is not an error.
func Load(cfgFile string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	defaults := NewConfig()
	v.SetDefault("profile", defaults.Profile)
	v.SetDefault("dataset", defaults.Dataset)
	v.SetDefault("encodings", []string{})
	v.SetDefault("delimiter", defaults.Delimiter)
	v.SetDefault("seed", defaults.Seed)
	v.SetDefault("test_fraction", defaults.TestFraction)
	v.SetDefault("folds", defaults.Folds)
	v.SetDefault("search_iterations", defaults.SearchIterations)
	v.SetDefault("worker_pool_size", defaults.WorkerPoolSize)
	v.SetDefault("metrics_collection", defaults.MetricsCollection)
	v.SetDefault("verbose_logging", defaults.VerboseLogging)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file %s: %w", cfgFile, err)
		}
	} else {
		v.SetConfigName("appraise")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".appraise"))
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !stderrors.As(err, &notFound) {
				return Config{}, fmt.Errorf("reading config: %w", err)
			}
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	c = c.WithDefaults()
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Save writes c as YAML to path, creating parent directories.
func Save(c Config, path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// SystemInfo describes the machine a run executes on.
type SystemInfo struct {
	CPUCount      int      `json:"cpu_count" yaml:"cpu_count"`
	PhysicalCores int      `json:"physical_cores" yaml:"physical_cores"`
	CPUBrand      string   `json:"cpu_brand" yaml:"cpu_brand"`
	Features      []string `json:"features,omitempty" yaml:"features,omitempty"`
	Architecture  string   `json:"architecture" yaml:"architecture"`
	OSType        string   `json:"os_type" yaml:"os_type"`
}

// GetSystemInfo returns system information for configuration validation
func GetSystemInfo() SystemInfo {
	return SystemInfo{
		CPUCount:      runtime.NumCPU(),
		PhysicalCores: cpuid.CPU.PhysicalCores,
		CPUBrand:      cpuid.CPU.BrandName,
		Features:      cpuid.CPU.FeatureSet(),
		Architecture:  runtime.GOARCH,
		OSType:        runtime.GOOS,
	}
}

// ConfigValidator validates and provides recommendations for configuration
type ConfigValidator struct {
	systemInfo SystemInfo
}

// NewConfigValidator creates a new configuration validator
func NewConfigValidator() *ConfigValidator {
	return NewConfigValidatorFor(GetSystemInfo())
}

// NewConfigValidatorFor creates a validator for the given machine.
func NewConfigValidatorFor(info SystemInfo) *ConfigValidator {
	return &ConfigValidator{systemInfo: info}
}

// Validate validates a configuration and resolves the worker pool size.
// Tree fitting is compute bound, so an unset pool size follows the physical
// core count when cpuid reports one.
func (cv *ConfigValidator) Validate(config Config) (Config, []string, error) {
	var warnings []string
	validated := config

	if err := config.Validate(); err != nil {
		return Config{}, warnings, err
	}

	if config.WorkerPoolSize > cv.systemInfo.CPUCount*2 {
		warnings = append(warnings,
			fmt.Sprintf("Worker pool size (%d) exceeds 2x CPU count (%d), may cause contention",
				config.WorkerPoolSize, cv.systemInfo.CPUCount))
	}

	if config.WorkerPoolSize == 0 {
		validated.WorkerPoolSize = cv.systemInfo.PhysicalCores
		if validated.WorkerPoolSize <= 0 {
			validated.WorkerPoolSize = cv.systemInfo.CPUCount
		}
		warnings = append(warnings,
			fmt.Sprintf("Auto-setting worker pool size to %d", validated.WorkerPoolSize))
	}

	return validated, warnings, nil
}
