package config

import (
	"fmt"
	"os"
	"runtime"

	"github.com/jchantrell/zipdecoder/internal/archive"
	"github.com/spf13/viper"
)

type Config struct {
	OutputDir      string `mapstructure:"output_dir"`
	Database       string `mapstructure:"database"`
	Workers        int    `mapstructure:"workers"`
	MaxArchiveSize int64  `mapstructure:"max_archive_size"`
	LogLevel       string `mapstructure:"log_level"`
	LogFormat      string `mapstructure:"log_format"`
}

// Load initializes and loads configuration from file
func Load(cfgFile string) (*Config, error) {
	return load(viper.New(), cfgFile, os.UserHomeDir)
}

func load(v *viper.Viper, cfgFile string, home func() (string, error)) (*Config, error) {
	v.SetDefault("output_dir", ".")
	v.SetDefault("database", "zipdecoder.db")
	v.SetDefault("workers", runtime.NumCPU())
	v.SetDefault("max_archive_size", archive.DefaultMaxArchiveSize)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")

	v.SetEnvPrefix("ZIPDECODER")
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := home()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}

		v.AddConfigPath(dir)
		v.AddConfigPath(".")
		v.SetConfigName("zipdecoder")
		v.SetConfigType("yaml")
	}

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}
