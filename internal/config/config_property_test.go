//go:build property
// +build property

package config

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestConfigurationProperties tests configuration validation properties
func TestConfigurationProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(1234)
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("ports inside the range validate", prop.ForAll(
		func(port int) bool {
			cfg := &Config{
				Server: ServerConfig{Host: DefaultHost, Port: port},
				Log:    LogConfig{Level: "info", Format: "text"},
			}
			return validateConfig(cfg) == nil
		},
		gen.IntRange(0, 65535),
	))

	properties.Property("ports outside the range fail", prop.ForAll(
		func(port int) bool {
			cfg := &Config{
				Server: ServerConfig{Host: DefaultHost, Port: port},
				Log:    LogConfig{Level: "info", Format: "text"},
			}
			return validateConfig(cfg) != nil
		},
		gen.OneGenOf(gen.IntRange(-100000, -1), gen.IntRange(65536, 200000)),
	))

	properties.Property("hosts with shell characters fail", prop.ForAll(
		func(host, char string) bool {
			cfg := &Config{
				Server: ServerConfig{Host: host + char, Port: DefaultPort},
				Log:    LogConfig{Level: "info", Format: "text"},
			}
			return validateConfig(cfg) != nil
		},
		gen.Identifier(),
		gen.OneConstOf(";", "&", "|", "$", "`", "<", ">", " "),
	))

	properties.Property("identifier hosts validate", prop.ForAll(
		func(host string) bool {
			cfg := &Config{
				Server: ServerConfig{Host: strings.ToLower(host), Port: DefaultPort},
				Log:    LogConfig{Level: "debug", Format: "json"},
			}
			return validateConfig(cfg) == nil
		},
		gen.Identifier(),
	))

	properties.TestingRun(t)
}
