package config

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/mimic/internal/errors"
	"github.com/conneroisu/mimic/internal/logging"
)

func TestLoadDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	config, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultHost, config.Server.Host)
	assert.Equal(t, DefaultPort, config.Server.Port)
	assert.True(t, config.Render.Echo)
	assert.Empty(t, config.Render.Output)
	assert.Equal(t, DefaultDebounce, config.Watch.Debounce)
	assert.Equal(t, "info", config.Log.Level)
	assert.Equal(t, "text", config.Log.Format)
	assert.Equal(t, "localhost:8080", config.Address())
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		setup       func()
		expectError bool
		check       func(t *testing.T, c *Config)
	}{
		{
			name: "explicit values",
			setup: func() {
				viper.Set("server.host", "0.0.0.0")
				viper.Set("server.port", 3000)
				viper.Set("render.output", "out.html")
				viper.Set("render.echo", false)
				viper.Set("watch.debounce", "50ms")
				viper.Set("log.level", "debug")
				viper.Set("log.format", "json")
			},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, "0.0.0.0:3000", c.Address())
				assert.Equal(t, "out.html", c.Render.Output)
				assert.False(t, c.Render.Echo)
				assert.Equal(t, 50*time.Millisecond, c.Watch.Debounce)
				assert.Equal(t, "debug", c.Log.Level)
				assert.Equal(t, "json", c.Log.Format)
			},
		},
		{
			name: "port zero is allowed",
			setup: func() {
				viper.Set("server.port", 0)
			},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, 0, c.Server.Port)
			},
		},
		{
			name: "undecodable port",
			setup: func() {
				viper.Set("server.port", "invalid_port")
			},
			expectError: true,
		},
		{
			name: "port out of range",
			setup: func() {
				viper.Set("server.port", 70000)
			},
			expectError: true,
		},
		{
			name: "dangerous host",
			setup: func() {
				viper.Set("server.host", "localhost;rm -rf /")
			},
			expectError: true,
		},
		{
			name: "unknown log level",
			setup: func() {
				viper.Set("log.level", "chatty")
			},
			expectError: true,
		},
		{
			name: "unknown log format",
			setup: func() {
				viper.Set("log.format", "xml")
			},
			expectError: true,
		},
		{
			name: "explicit zero debounce is kept",
			setup: func() {
				viper.Set("watch.debounce", "0s")
			},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, time.Duration(0), c.Watch.Debounce)
			},
		},
		{
			name: "negative debounce",
			setup: func() {
				viper.Set("watch.debounce", "-1s")
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			viper.Reset()
			t.Cleanup(viper.Reset)
			tt.setup()

			config, err := Load()
			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, config)
				assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
				return
			}
			require.NoError(t, err)
			tt.check(t, config)
		})
	}
}

func TestLoadDecodeErrorKeepsCause(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	viper.Set("server.port", "invalid_port")

	_, err := Load()
	require.Error(t, err)

	var me *errors.MimicError
	require.True(t, stderrors.As(err, &me))
	assert.Equal(t, errors.CodeConfigLoad, me.Code)
	assert.NotNil(t, stderrors.Unwrap(err), "decode error is reachable")
}

func TestLoadFromFile(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	path := filepath.Join(t.TempDir(), ".mimic.yml")
	content := `server:
  host: 127.0.0.1
  port: 9090
watch:
  debounce: 1s
log:
  level: warn
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	viper.SetConfigFile(path)
	require.NoError(t, viper.ReadInConfig())

	config, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9090", config.Address())
	assert.Equal(t, time.Second, config.Watch.Debounce)
	assert.Equal(t, logging.LevelWarn, config.LoggerConfig().Level)
}

func TestLoadRejectsDirectoryOutput(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("render.output", t.TempDir())

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is a directory")
}

func TestLoggerConfig(t *testing.T) {
	c := &Config{Log: LogConfig{Level: "error", Format: "json"}}
	lc := c.LoggerConfig()

	assert.Equal(t, logging.LevelError, lc.Level)
	assert.Equal(t, "json", lc.Format)
	assert.Equal(t, os.Stderr, lc.Output)
}
