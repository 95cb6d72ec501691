// Package cmd provides the command-line interface for mimic.
//
// Configuration System:
//
//	Settings are resolved with the following precedence:
//	1. Command-line flags (--port, --out, --log-level, ...) - highest priority
//	2. Individual environment variables (MIMIC_SERVER_PORT, ...)
//	3. The configuration file: --config, else MIMIC_CONFIG_FILE, else .mimic.yml
//	4. Built-in defaults - lowest priority
//
// Environment Variables:
//
//	MIMIC_CONFIG_FILE: Path to custom configuration file
//	MIMIC_SERVER_PORT: Override preview server port
//	MIMIC_LOG_LEVEL:   Override log level
//	And others following the MIMIC_<SECTION>_<OPTION> pattern
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/mimic/internal/config"
	"github.com/conneroisu/mimic/internal/logging"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mimic",
	Short: "Build, query, render and preview HTML element trees",
	Long: `Mimic loads an element tree from a YAML or HTML document and renders it
as indented HTML with a doctype line.

Quick Start:
  mimic render page.yaml              Print the rendered document
  mimic render page.yaml -o out.html  Write the document to a file
  mimic find page.yaml --id main      Query elements by id, tag or attribute
  mimic tags                          List the allowed tag names
  mimic watch page.yaml -o out.html   Re-render whenever the document changes
  mimic serve page.yaml               Preview in the browser with live reload`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd.Root().PersistentFlags(), map[string]string{
			"log.level":  "log-level",
			"log.format": "log-format",
		})
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .mimic.yml, can also use MIMIC_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")
}

// initConfig selects the configuration file and enables MIMIC_ environment
// overrides. A missing file is not an error.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("MIMIC_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".mimic")
	}

	viper.SetEnvPrefix("MIMIC")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadRuntime loads the configuration and builds the command's logger,
// which writes to the command's error stream.
func loadRuntime(cmd *cobra.Command) (*config.Config, logging.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	loggerConfig := cfg.LoggerConfig()
	loggerConfig.Output = cmd.ErrOrStderr()
	loggerConfig.Component = cmd.Name()

	return cfg, logging.NewLogger(loggerConfig), nil
}
