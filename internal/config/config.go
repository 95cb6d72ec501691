// Package config provides configuration management for mimic using Viper
// for loading from files, environment variables, and command-line flags.
//
// Settings come from .mimic.yml (or the file named by --config or
// MIMIC_CONFIG_FILE), overridden by MIMIC_<SECTION>_<OPTION> environment
// variables and bound flags. Load applies defaults and validates the result.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/conneroisu/mimic/internal/errors"
	"github.com/conneroisu/mimic/internal/logging"
)

const (
	DefaultHost     = "localhost"
	DefaultPort     = 8080
	DefaultDebounce = 300 * time.Millisecond
)

type Config struct {
	Server ServerConfig `mapstructure:"server" yaml:"server"`
	Render RenderConfig `mapstructure:"render" yaml:"render"`
	Watch  WatchConfig  `mapstructure:"watch" yaml:"watch"`
	Log    LogConfig    `mapstructure:"log" yaml:"log"`
}

type ServerConfig struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" yaml:"port"`
}

type RenderConfig struct {
	// Output is the default file written by render and watch.
	Output string `mapstructure:"output" yaml:"output"`
	// Echo controls whether top-level renders are copied to stdout.
	Echo bool `mapstructure:"echo" yaml:"echo"`
}

type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce" yaml:"debounce"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Load builds the configuration from the global viper instance.
func Load() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, errors.NewConfigError(errors.CodeConfigLoad, "failed to decode configuration", err)
	}

	if config.Server.Host == "" {
		config.Server.Host = DefaultHost
	}
	if !viper.IsSet("server.port") {
		config.Server.Port = DefaultPort
	}
	if !viper.IsSet("render.echo") {
		config.Render.Echo = true
	}
	if !viper.IsSet("watch.debounce") {
		config.Watch.Debounce = DefaultDebounce
	}
	if config.Log.Level == "" {
		config.Log.Level = "info"
	}
	if config.Log.Format == "" {
		config.Log.Format = "text"
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// LoggerConfig translates the log section into a logging configuration.
// Load has already validated the level.
func (c *Config) LoggerConfig() *logging.LoggerConfig {
	level, _ := logging.ParseLevel(c.Log.Level)
	return &logging.LoggerConfig{
		Level:  level,
		Format: c.Log.Format,
		Output: os.Stderr,
	}
}

// Address returns host:port for the preview server.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func validateConfig(config *Config) error {
	if err := validateServerConfig(&config.Server); err != nil {
		return err
	}

	if config.Render.Output != "" {
		if err := validateOutputPath(config.Render.Output); err != nil {
			return err
		}
	}

	if config.Watch.Debounce < 0 {
		return invalid("watch.debounce", fmt.Sprintf("debounce %s must not be negative", config.Watch.Debounce))
	}

	if _, err := logging.ParseLevel(config.Log.Level); err != nil {
		return invalid("log.level", err.Error())
	}
	if config.Log.Format != "text" && config.Log.Format != "json" {
		return invalid("log.format", fmt.Sprintf("log format %q must be text or json", config.Log.Format))
	}

	return nil
}

func validateServerConfig(config *ServerConfig) error {
	// Port 0 asks the system for a free port.
	if config.Port < 0 || config.Port > 65535 {
		return invalid("server.port", fmt.Sprintf("port %d is not in valid range 0-65535", config.Port))
	}

	dangerousChars := []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'", "\\", " "}
	for _, char := range dangerousChars {
		if strings.Contains(config.Host, char) {
			return invalid("server.host", fmt.Sprintf("host contains dangerous character: %q", char))
		}
	}

	return nil
}

func validateOutputPath(path string) error {
	if strings.ContainsRune(path, 0) {
		return invalid("render.output", "output path contains a NUL byte")
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return invalid("render.output", fmt.Sprintf("output path %s is a directory", path))
	}
	if strings.HasSuffix(path, string(filepath.Separator)) {
		return invalid("render.output", fmt.Sprintf("output path %s names a directory", path))
	}
	return nil
}

func invalid(key, message string) error {
	return errors.NewConfigError(errors.CodeConfigInvalid, message, nil).WithContext("key", key)
}
