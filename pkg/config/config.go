package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

const (
	envConfigPath = "ACTIONKIT_CONFIG"
	envPort       = "ACTIONKIT_PORT"
	envActions    = "ACTIONKIT_ACTIONS"
	envPluginDir  = "ACTIONKIT_PLUGIN_DIR"

	envLogFormat    = "ACTIONKIT_LOG_FORMAT"
	envLogLevel     = "ACTIONKIT_LOG_LEVEL"
	envLogAddSource = "ACTIONKIT_LOG_ADD_SOURCE"

	DefaultHost = "0.0.0.0"
	DefaultPort = 5055
)

// ErrConfigNotFound is returned when no config file exists at any of the
// searched locations. Callers usually fall back to Default.
var ErrConfigNotFound = errors.New("config file not found")

// configNames are the file names searched in each candidate directory, in
// order. The extension selects the parser.
var configNames = []string{"config.json", "config.yaml", "config.yml", "config.toml"}

// Config is the root runtime configuration loaded from the config file.
type Config struct {
	Server  ServerConfig  `json:"server" yaml:"server" toml:"server"`
	Actions ActionsConfig `json:"actions" yaml:"actions" toml:"actions"`
	Logging LoggingConfig `json:"logging,omitempty" yaml:"logging,omitempty" toml:"logging,omitempty"`
}

// LoggingConfig controls structured log output format and verbosity.
type LoggingConfig struct {
	Format    string `json:"format,omitempty" yaml:"format,omitempty" toml:"format,omitempty"`
	Level     string `json:"level,omitempty" yaml:"level,omitempty" toml:"level,omitempty"`
	AddSource bool   `json:"add_source,omitempty" yaml:"add_source,omitempty" toml:"add_source,omitempty"`
}

// Log output formats accepted by LoggingConfig.Format.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// OutputFormat returns the normalized log format, text when unset.
func (c LoggingConfig) OutputFormat() (string, error) {
	switch format := strings.ToLower(strings.TrimSpace(c.Format)); format {
	case "", LogFormatText:
		return LogFormatText, nil
	case LogFormatJSON:
		return LogFormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported log format %q", format)
	}
}

// SlogLevel returns the minimum level to log, info when unset.
func (c LoggingConfig) SlogLevel() (slog.Level, error) {
	switch level := strings.ToLower(strings.TrimSpace(c.Level)); level {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unsupported log level %q", level)
	}
}

func (c *LoggingConfig) applyEnv() {
	if format := strings.TrimSpace(os.Getenv(envLogFormat)); format != "" {
		c.Format = format
	}
	if level := strings.TrimSpace(os.Getenv(envLogLevel)); level != "" {
		c.Level = level
	}
	if raw := strings.TrimSpace(os.Getenv(envLogAddSource)); raw != "" {
		c.AddSource = envBool(raw)
	}
}

// envBool accepts the usual shell spellings of true; anything else is false.
func envBool(input string) bool {
	switch strings.ToLower(input) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// ServerConfig configures the HTTP action server bind settings.
type ServerConfig struct {
	Host string `json:"host" yaml:"host" toml:"host"`
	Port int    `json:"port" yaml:"port" toml:"port"`
}

// ActionsConfig selects which actions get registered at startup.
type ActionsConfig struct {
	// Packages are package roots scanned by discovery. Empty means every
	// action known to the process.
	Packages []string `json:"packages,omitempty" yaml:"packages,omitempty" toml:"packages,omitempty"`
	// PluginDir is searched recursively for Go plugins exporting actions.
	PluginDir string `json:"plugin_dir,omitempty" yaml:"plugin_dir,omitempty" toml:"plugin_dir,omitempty"`
	// ReservedNamespaces are package roots whose action types are never
	// registered from discovery or by type.
	ReservedNamespaces []string `json:"reserved_namespaces,omitempty" yaml:"reserved_namespaces,omitempty" toml:"reserved_namespaces,omitempty"`
}

// Default returns the configuration used when no config file is present.
func Default() *Config {
	cfg := &Config{
		Server: ServerConfig{Host: DefaultHost, Port: DefaultPort},
	}
	applyEnvOverrides(cfg)

	return cfg
}

// LoadConfig resolves the config file, unmarshals it, and applies environment overrides.
func LoadConfig() (*Config, error) {
	configPath, err := findConfigPath()
	if err != nil {
		return nil, err
	}

	return LoadFile(configPath)
}

// LoadFile reads one config file and applies environment overrides.
// .yaml, .yml and .toml files are parsed by extension; anything else is JSON.
func LoadFile(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := unmarshal(path, content, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// Address returns host:port with defaults filled in.
func (c ServerConfig) Address() string {
	host := strings.TrimSpace(c.Host)
	if host == "" {
		host = DefaultHost
	}

	port := c.Port
	if port <= 0 {
		port = DefaultPort
	}

	return host + ":" + strconv.Itoa(port)
}

func unmarshal(path string, content []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(content, cfg)
	case ".toml":
		return toml.Unmarshal(content, cfg)
	default:
		return json.Unmarshal(content, cfg)
	}
}

// applyEnvOverrides injects selected env-driven settings on top of file config.
func applyEnvOverrides(cfg *Config) {
	if cfg == nil {
		return
	}

	if rawPort := strings.TrimSpace(os.Getenv(envPort)); rawPort != "" {
		if port, err := strconv.Atoi(rawPort); err == nil && port > 0 {
			cfg.Server.Port = port
		}
	}

	if rawActions := strings.TrimSpace(os.Getenv(envActions)); rawActions != "" {
		cfg.Actions.Packages = parseCSV(rawActions)
	}

	if dir := strings.TrimSpace(os.Getenv(envPluginDir)); dir != "" {
		cfg.Actions.PluginDir = dir
	}

	cfg.Logging.applyEnv()
}

// parseCSV splits comma-separated values and returns a trimmed compact slice.
func parseCSV(input string) []string {
	parts := strings.Split(input, ",")
	clean := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		clean = append(clean, trimmed)
	}

	return slices.Clip(clean)
}

// findConfigPath resolves the active config file location.
//
// Precedence is ACTIONKIT_CONFIG first, then cwd-local fallback paths.
func findConfigPath() (string, error) {
	if value := strings.TrimSpace(os.Getenv(envConfigPath)); value != "" {
		if info, err := os.Stat(value); err == nil && !info.IsDir() {
			return value, nil
		}
		return "", fmt.Errorf("%s does not point to a file: %s", envConfigPath, value)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get current working directory: %w", err)
	}

	dirs := []string{cwd, filepath.Join(cwd, "config")}
	for _, dir := range dirs {
		for _, name := range configNames {
			candidate := filepath.Join(dir, name)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate, nil
			}
		}
	}

	return "", fmt.Errorf("%w (checked %s in %s and %s)", ErrConfigNotFound, strings.Join(configNames, ", "), dirs[0], dirs[1])
}
