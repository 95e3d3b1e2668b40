package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/gnana997/twtheme/pkg/util"
	"github.com/gnana997/twtheme/presets"
)

// projectConfigPath is where init writes, and every command reads, project
// defaults. Relative to the working directory.
var projectConfigPath = filepath.Join(".twtheme", "config.yaml")

// ProjectConfig holds the contents of .twtheme/config.yaml.
type ProjectConfig struct {
	ConfigPath string `yaml:"config_path"`
	LogLevel   string `yaml:"log_level,omitempty"`
	LogFormat  string `yaml:"log_format,omitempty"`
	MCPLog     string `yaml:"mcp_log,omitempty"`
}

// loadProjectConfig reads the project config under root.
// Returns nil (no error) if the file does not exist.
func loadProjectConfig(root string) (*ProjectConfig, error) {
	path := filepath.Join(root, projectConfigPath)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", path, err)
	}
	return &cfg, nil
}

// globalOptions are the flags every config-reading command accepts.
type globalOptions struct {
	configPath string
	logLevel   string
	logFormat  string
	mcpLog     string
}

func (o *globalOptions) addFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVarP(&o.configPath, "config", "c", "", "theme declaration (default: config_path from "+projectConfigPath+", then "+presets.TailwindConfigName+")")
	flagSet.StringVar(&o.logLevel, "log-level", "", "log level: debug, info, warn, error (default info)")
	flagSet.StringVar(&o.logFormat, "log-format", "", "log format: text or json (default text)")
}

func (o *globalOptions) addMCPLogFlag(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&o.mcpLog, "mcp-log", "", "append one JSONL record per tool call to this file")
}

// settings are the effective values after applying the fallback chain:
// flags, then the project config, then defaults.
type settings struct {
	ConfigPath string
	Logger     util.LoggerConfig
	MCPLog     string
}

func resolveSettings(opts globalOptions, project *ProjectConfig) (settings, error) {
	if project == nil {
		project = &ProjectConfig{}
	}

	s := settings{
		ConfigPath: firstNonEmpty(opts.configPath, project.ConfigPath, presets.TailwindConfigName),
		MCPLog:     firstNonEmpty(opts.mcpLog, project.MCPLog),
		Logger:     util.DefaultLoggerConfig(),
	}

	level, err := util.ParseLogLevel(firstNonEmpty(opts.logLevel, project.LogLevel))
	if err != nil {
		return settings{}, err
	}
	format, err := util.ParseLogFormat(firstNonEmpty(opts.logFormat, project.LogFormat))
	if err != nil {
		return settings{}, err
	}
	s.Logger.Level = level
	s.Logger.Format = format

	return s, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
