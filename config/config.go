// Package config loads the engine's configuration from a YAML file and
// environment variables via viper, adapted from the teacher's
// config/config.go: same defaults/search-path/env-override shape, new field
// set for the detection pipeline instead of forensic-collection settings.
package config

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Config holds every setting the CLI and HTTP surface read at startup.
type Config struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
	LogFile   string `mapstructure:"log_file"`

	RulesFile        string `mapstructure:"rules_file"`
	ParsingRulesFile string `mapstructure:"parsing_rules_file"`

	Mode    string `mapstructure:"mode"`
	Workers int    `mapstructure:"workers"`

	ServerAddr          string `mapstructure:"server_addr"`
	DistributedAddr     string `mapstructure:"distributed_addr"`
	DistributedWorkers  int    `mapstructure:"distributed_workers"`

	AIExplainScriptPath string `mapstructure:"ai_explain_script_path"`
	AIGenerateScriptPath string `mapstructure:"ai_generate_script_path"`
	PythonInterpreterPath string `mapstructure:"python_interpreter_path"`
}

// Load reads sentrywatch.yml from the working directory or the user's home
// directory (whichever viper finds first), overlaying environment variables
// of the form SENTRYWATCH_LOG_LEVEL, and falling back to defaults when no
// config file exists.
func Load() (*Config, error) {
	viper.SetConfigName("sentrywatch")
	viper.SetConfigType("yml")

	setDefaults()
	addConfigPaths()

	viper.SetEnvPrefix("sentrywatch")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_format", "text")
	viper.SetDefault("rules_file", "rules.json")
	viper.SetDefault("parsing_rules_file", "parsing_rules.json")
	viper.SetDefault("mode", "sequential")
	viper.SetDefault("workers", 4)
	viper.SetDefault("server_addr", "127.0.0.1:8080")
	viper.SetDefault("distributed_addr", "127.0.0.1:8081")
	viper.SetDefault("distributed_workers", 2)
	viper.SetDefault("ai_explain_script_path", "scripts/explain_alert.py")
	viper.SetDefault("ai_generate_script_path", "scripts/generate_rule.py")
	viper.SetDefault("python_interpreter_path", "python3")
}

func addConfigPaths() {
	viper.AddConfigPath(".")
	if home, err := homedir.Dir(); err == nil {
		viper.AddConfigPath(home)
	}
	if runtime.GOOS == "linux" {
		viper.AddConfigPath("/etc/sentrywatch")
	}
}
