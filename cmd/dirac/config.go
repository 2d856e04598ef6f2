package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/samcharles93/dirac/internal/config"
	"github.com/samcharles93/dirac/internal/linop"
	"github.com/samcharles93/dirac/internal/logger"
)

// UserConfig is the per-user defaults file,
// $XDG_CONFIG_HOME/dirac/config.yaml. Pointer fields distinguish "not set"
// from zero values; flags given on the command line always win.
type UserConfig struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// RunFile is used when --config is not given.
	RunFile string `yaml:"run_file"`

	BenchRuns   *int64 `yaml:"bench_runs"`
	BenchWarmup *int64 `yaml:"bench_warmup"`

	ServerAddress   string `yaml:"server_address"`
	ServerMaxVolume *int   `yaml:"server_max_volume"`
}

func userConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "dirac", "config.yaml")
}

// LoadUserConfig reads the defaults file. A missing or unreadable file gives
// a zero UserConfig.
func LoadUserConfig() UserConfig {
	path := userConfigPath()
	if path == "" {
		return UserConfig{}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return UserConfig{}
	}
	var cfg UserConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return UserConfig{}
	}
	return cfg
}

func applyLoggingConfig(c *cli.Command, cfg UserConfig) {
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		logFormat = cfg.LogFormat
	}
}

func applyBenchConfig(c *cli.Command, cfg UserConfig, runs, warmup *int64) {
	if cfg.BenchRuns != nil && !c.IsSet("runs") {
		*runs = *cfg.BenchRuns
	}
	if cfg.BenchWarmup != nil && !c.IsSet("warmup") {
		*warmup = *cfg.BenchWarmup
	}
}

func applyServeConfig(c *cli.Command, cfg UserConfig, addr *string, maxVolume *int64) {
	if cfg.ServerAddress != "" && !c.IsSet("addr") {
		*addr = cfg.ServerAddress
	}
	if cfg.ServerMaxVolume != nil && !c.IsSet("max-volume") {
		*maxVolume = int64(*cfg.ServerMaxVolume)
	}
}

// setupLogging builds the process logger once the global flags are parsed.
func setupLogging(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	applyLoggingConfig(cmd, LoadUserConfig())
	level := logger.ParseLevel(logLevel)
	if debug {
		level = logger.ParseLevel("debug")
	}
	format, err := logger.ParseFormat(logFormat)
	if err != nil {
		return ctx, cli.Exit(err.Error(), exitUsage)
	}
	log := logger.For(format, cmd.Root().ErrWriter, level, stderrIsTerminal())
	return logger.WithContext(ctx, log), nil
}

// loadRun resolves the run file from the flag or the user defaults and
// loads it.
func loadRun(path string) (config.Run, error) {
	if path == "" {
		path = LoadUserConfig().RunFile
	}
	if path == "" {
		return config.Run{}, errors.WithHint(
			errors.Mark(errors.New("no run description given"), linop.ErrConfiguration),
			"pass --config or set run_file in "+userConfigPath())
	}
	return config.Load(path)
}
