// Package cmd wires the cobra command tree, adapted from the teacher's
// cmd/root.go: same banner/persistent-flag/config-init shape, new
// subcommands (analysis, server, rules) for the detection pipeline instead
// of forensic collection.
package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sentrywatch/sentrywatch/config"
	"github.com/sentrywatch/sentrywatch/internal/logging"
	"github.com/sentrywatch/sentrywatch/internal/version"
)

var (
	cfgFile   string
	verbose   bool
	logFormat string

	// loadedConfig is populated by initConfig via config.Load. It is nil
	// only if Load itself failed (a missing sentrywatch.yml is not an
	// error - Load falls back to its built-in defaults).
	loadedConfig *config.Config
)

// RootCmd is the top-level cobra command.
var RootCmd = &cobra.Command{
	Use:     "sentrywatch",
	Short:   "sentrywatch - log analysis and threat detection engine",
	Long:    `sentrywatch parses log lines, runs a stateful threat detector over them, and reports alerts through a CLI or an HTTP API.`,
	Version: version.GetShortVersion(),
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if !cmd.Flags().Changed("help") {
			displayBanner()
		}
		cmd.Help()
	},
}

func displayBanner() {
	cyan := color.New(color.FgCyan, color.Bold)
	grey := color.New(color.FgHiBlack)

	grey.Println("┌─────────────────────────────────────────────┐")
	cyan.Println(" sentrywatch — log analysis & threat detection ")
	grey.Println("└─────────────────────────────────────────────┘")
	fmt.Println()
}

// NewRootCmd finalizes flag registration and subcommand wiring, mirroring
// the teacher's NewRootCmd() entry point.
func NewRootCmd() *cobra.Command {
	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./sentrywatch.yml or $HOME/sentrywatch.yml)")
	RootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable debug-level logging")
	RootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log output format: text or json")

	RootCmd.AddCommand(analysisCmd)
	RootCmd.AddCommand(serverCmd)
	RootCmd.AddCommand(rulesCmd)

	return RootCmd
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	if cfgFile != "" {
		if _, err := os.Stat(cfgFile); os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: config file not found: %s\n", cfgFile)
		} else {
			viper.SetConfigFile(cfgFile)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load configuration: %v\n", err)
		return
	}
	loadedConfig = cfg

	// Flags win when the user actually passed them; otherwise sentrywatch.yml
	// (or its SENTRYWATCH_* env overrides) supplies the value in place of the
	// flag's hardcoded zero-value default.
	if !RootCmd.PersistentFlags().Changed("verbose") && cfg.LogLevel == "debug" {
		verbose = true
	}
	if !RootCmd.PersistentFlags().Changed("log-format") && cfg.LogFormat != "" {
		logFormat = cfg.LogFormat
	}
}

// newLogger builds the process-wide logger from the persistent flags
// (config-overridden by initConfig above), writing to cfg.LogFile when one
// is configured instead of stdout.
func newLogger() *logging.Logger {
	level := logging.LevelInfo
	if verbose {
		level = logging.LevelDebug
	}
	format := logging.FormatText
	if logFormat == "json" {
		format = logging.FormatJSON
	}

	if loadedConfig != nil && loadedConfig.LogFile != "" {
		f, err := os.OpenFile(loadedConfig.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not open log file %s: %v\n", loadedConfig.LogFile, err)
		} else {
			return logging.NewWithWriter(level, format, f)
		}
	}
	return logging.New(level, format)
}

// stringFlagOrConfig returns current unless the flag was left at its
// default and cfgValue has something to offer instead.
func stringFlagOrConfig(cmd *cobra.Command, flagName, current, cfgValue string) string {
	if cmd.Flags().Changed(flagName) || cfgValue == "" {
		return current
	}
	return cfgValue
}

// intFlagOrConfig is stringFlagOrConfig's int counterpart.
func intFlagOrConfig(cmd *cobra.Command, flagName string, current, cfgValue int) int {
	if cmd.Flags().Changed(flagName) || cfgValue == 0 {
		return current
	}
	return cfgValue
}
