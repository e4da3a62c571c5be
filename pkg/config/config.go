// Package config provides configuration management for the perftree service.
package config

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Executor ExecutorConfig `mapstructure:"executor"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Store    StoreConfig    `mapstructure:"store"`
	Log      LogConfig      `mapstructure:"log"`
}

// AnalysisConfig holds Tree Builder defaults for the CLI surface.
type AnalysisConfig struct {
	Mode            string  `mapstructure:"mode"`               // ContextFree or ContextAware
	CountMode       string  `mapstructure:"count_mode"`          // Exclusive, Inclusive, or Both
	Concurrency     string  `mapstructure:"concurrency"`         // Serial, FineGrainedLock, ThreadLocalMerge, LockFree
	NumThreads      int     `mapstructure:"num_threads"`         // 0 = auto-detect
	TimePerSampleUs float64 `mapstructure:"time_per_sample_us"`
}

// ExecutorConfig holds dataflow executor tuning.
type ExecutorConfig struct {
	MaxWorkers   int `mapstructure:"max_workers"`
	MaxCacheSize int `mapstructure:"max_cache_size"`
}

// StorageConfig holds exported-artifact storage configuration. Backend
// selects "local" (default) or "cos"; the COS fields are only read for the
// cos backend.
type StorageConfig struct {
	Backend   string `mapstructure:"backend"`
	LocalPath string `mapstructure:"local_path"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	SecretID  string `mapstructure:"secret_id"`
	SecretKey string `mapstructure:"secret_key"`
	Domain    string `mapstructure:"domain"`
	Scheme    string `mapstructure:"scheme"`
}

// StoreConfig holds internal/store (analysis run history) configuration.
type StoreConfig struct {
	DSN string `mapstructure:"dsn"` // empty disables persistence
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
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
		v.AddConfigPath("/etc/perftree")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			fmt.Println("Config file not found, using defaults")
		} else if os.IsNotExist(err) {
			fmt.Printf("Config file %s not found, using defaults\n", configPath)
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

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("analysis.mode", "ContextFree")
	v.SetDefault("analysis.count_mode", "Both")
	v.SetDefault("analysis.concurrency", "Serial")
	v.SetDefault("analysis.num_threads", 0)
	v.SetDefault("analysis.time_per_sample_us", 1000.0)

	v.SetDefault("executor.max_workers", 0)
	v.SetDefault("executor.max_cache_size", 128)

	v.SetDefault("storage.backend", "local")
	v.SetDefault("storage.local_path", "./storage")

	v.SetDefault("store.dsn", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.output_path", "")
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	switch c.Analysis.Mode {
	case "ContextFree", "ContextAware", "":
	default:
		return fmt.Errorf("unsupported analysis mode: %s", c.Analysis.Mode)
	}
	switch c.Analysis.CountMode {
	case "Exclusive", "Inclusive", "Both", "":
	default:
		return fmt.Errorf("unsupported count mode: %s", c.Analysis.CountMode)
	}
	if c.Executor.MaxCacheSize < 0 {
		return fmt.Errorf("executor max_cache_size must be non-negative")
	}
	return nil
}
