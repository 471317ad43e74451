// Package config provides configuration types and defaults for peruse.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides, e.g. PERUSE_LOG_LEVEL.
const EnvPrefix = "PERUSE"

// Config holds all configuration options for peruse.
type Config struct {
	Log     LogConfig     `mapstructure:"log"`
	Library LibraryConfig `mapstructure:"library"`
	Serve   ServeConfig   `mapstructure:"serve"`
}

// LogConfig selects the level and handler of the global logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // text or json
}

// LibraryConfig holds options for building the book library.
type LibraryConfig struct {
	PDFThumbnails bool     `mapstructure:"pdf_thumbnails"`
	SortBy        string   `mapstructure:"sort_by"` // "title" (default) or "created"
	Extensions    []string `mapstructure:"extensions"`
}

// ServeConfig holds options for the frontend connection.
type ServeConfig struct {
	// BatchSize limits the rows sent with a model reset or insert; the
	// frontend requests the remainder. Zero sends everything at once.
	BatchSize int `mapstructure:"batch_size"`
}

// Defaults returns the configuration used when nothing is overridden.
func Defaults() Config {
	return Config{
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
		Library: LibraryConfig{
			PDFThumbnails: true,
			SortBy:        "title",
			Extensions:    []string{"cbz", "cbr", "cb7", "cbt", "cba", "pdf", "acbf"},
		},
		Serve: ServeConfig{
			BatchSize: 100,
		},
	}
}

// Validate checks values that viper cannot check while decoding.
func (c Config) Validate() error {
	switch c.Library.SortBy {
	case "title", "created":
	default:
		return fmt.Errorf("library.sort_by: must be \"title\" or \"created\", got %q", c.Library.SortBy)
	}
	if c.Serve.BatchSize < 0 {
		return fmt.Errorf("serve.batch_size: must not be negative, got %d", c.Serve.BatchSize)
	}
	return nil
}

// SetDefaults registers every default on v, which also makes each key known
// to viper's environment lookup.
func SetDefaults(v *viper.Viper) {
	defaults := Defaults()
	v.SetDefault("log.level", defaults.Log.Level)
	v.SetDefault("log.format", defaults.Log.Format)
	v.SetDefault("library.pdf_thumbnails", defaults.Library.PDFThumbnails)
	v.SetDefault("library.sort_by", defaults.Library.SortBy)
	v.SetDefault("library.extensions", defaults.Library.Extensions)
	v.SetDefault("serve.batch_size", defaults.Serve.BatchSize)
}

// Load reads the configuration file at path, or the user's config file when
// path is empty, and applies environment overrides.
func Load(path string) (*Config, error) {
	return LoadViper(viper.New(), path)
}

// LoadViper is Load for a caller-provided viper instance, typically one with
// command line flags already bound to it.
//
// Config lookup order when path is empty:
//  1. .peruse/config.yaml (current directory)
//  2. ~/.config/peruse/config.yaml (user config)
//
// A missing file is not an error; a file that cannot be parsed is.
func LoadViper(v *viper.Viper, path string) (*Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else if _, err := os.Stat(filepath.Join(".peruse", "config.yaml")); err == nil {
		v.SetConfigFile(filepath.Join(".peruse", "config.yaml"))
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "peruse"))
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
