package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

// Config captures everything Addressable needs to reach the API and keep
// local state.
type Config struct {
	Environment    string
	Scheme         string
	Host           string
	StateDir       string
	LogFile        string
	LogLevel       string
	PollInterval   time.Duration
	RequestTimeout time.Duration
	MetricsAddr    string
}

const (
	defaultConfigPath     = "~/.config/addressable/config.toml"
	defaultStateDir       = "~/.local/share/addressable"
	defaultLogName        = "addressable.log"
	defaultEnvironment    = EnvironmentLive
	defaultScheme         = "https"
	defaultLogLevel       = "info"
	defaultPollInterval   = 15 * time.Second
	defaultRequestTimeout = 10 * time.Second
)

// Known environments.
const (
	EnvironmentLive    = "live"
	EnvironmentSandbox = "sandbox"
)

var environmentHosts = map[string]string{
	EnvironmentLive:    "live.addressable.app",
	EnvironmentSandbox: "sandbox.addressable.app",
}

// Environment variables that override file values.
const (
	EnvEnvironment = "ADDRESSABLE_ENV"
	EnvHost        = "ADDRESSABLE_HOST"
	EnvScheme      = "ADDRESSABLE_SCHEME"
	EnvStateDir    = "ADDRESSABLE_STATE_DIR"
)

// Load reads the config file at path (or the default location), then applies
// environment overrides. A missing file yields defaults.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	var raw rawConfig
	file, err := os.Open(resolved)
	switch {
	case err == nil:
		defer file.Close()
		bytes, err := io.ReadAll(file)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := toml.Unmarshal(bytes, &raw); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return Config{}, fmt.Errorf("open config: %w", err)
	}

	raw.applyEnv(os.LookupEnv)
	return raw.resolve()
}

// LoadDotEnv loads KEY=value pairs from a dotenv file into the process
// environment. Variables already set win. A missing file is not an error.
func LoadDotEnv(path string) error {
	resolved, err := expandPath(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(resolved); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(resolved); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

type rawConfig struct {
	Environment    string `toml:"environment"`
	Scheme         string `toml:"scheme"`
	Host           string `toml:"host"`
	StateDir       string `toml:"state_dir"`
	LogFile        string `toml:"log_file"`
	LogLevel       string `toml:"log_level"`
	PollInterval   string `toml:"poll_interval"`
	RequestTimeout string `toml:"request_timeout"`
	MetricsAddr    string `toml:"metrics_addr"`
}

func (r *rawConfig) applyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvEnvironment); ok && strings.TrimSpace(v) != "" {
		r.Environment = v
	}
	if v, ok := lookup(EnvHost); ok && strings.TrimSpace(v) != "" {
		r.Host = v
	}
	if v, ok := lookup(EnvScheme); ok && strings.TrimSpace(v) != "" {
		r.Scheme = v
	}
	if v, ok := lookup(EnvStateDir); ok && strings.TrimSpace(v) != "" {
		r.StateDir = v
	}
}

func (r rawConfig) resolve() (Config, error) {
	cfg := Config{
		Environment: strings.ToLower(strings.TrimSpace(r.Environment)),
		Scheme:      strings.ToLower(strings.TrimSpace(r.Scheme)),
		Host:        strings.TrimSpace(r.Host),
		LogLevel:    strings.TrimSpace(r.LogLevel),
		MetricsAddr: strings.TrimSpace(r.MetricsAddr),
	}

	if cfg.Environment == "" {
		cfg.Environment = defaultEnvironment
	}
	if cfg.Host == "" {
		host, ok := environmentHosts[cfg.Environment]
		if !ok {
			return Config{}, fmt.Errorf("unknown environment %q", r.Environment)
		}
		cfg.Host = host
	}
	if cfg.Scheme == "" {
		cfg.Scheme = defaultScheme
	}
	if cfg.Scheme != "https" && cfg.Scheme != "http" {
		return Config{}, fmt.Errorf("unsupported scheme %q", r.Scheme)
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = defaultLogLevel
	}

	stateDir := strings.TrimSpace(r.StateDir)
	if stateDir == "" {
		stateDir = defaultStateDir
	}
	cfg.StateDir = mustExpand(stateDir)

	if logFile := strings.TrimSpace(r.LogFile); logFile != "" {
		cfg.LogFile = mustExpand(logFile)
	} else {
		cfg.LogFile = filepath.Join(cfg.StateDir, defaultLogName)
	}

	var err error
	if cfg.PollInterval, err = parseDuration(r.PollInterval, defaultPollInterval); err != nil {
		return Config{}, fmt.Errorf("parse poll_interval: %w", err)
	}
	if cfg.RequestTimeout, err = parseDuration(r.RequestTimeout, defaultRequestTimeout); err != nil {
		return Config{}, fmt.Errorf("parse request_timeout: %w", err)
	}
	return cfg, nil
}

// Origin returns scheme://host for the configured environment.
func (c Config) Origin() string {
	return c.Scheme + "://" + c.Host
}

// TokenOrdersURL is the web page where an account buys more tokens.
func (c Config) TokenOrdersURL(accountID int) string {
	return fmt.Sprintf("%s/accounts/%d/token_orders", c.Origin(), accountID)
}

// KeychainPath is the bolt file holding encrypted credentials.
func (c Config) KeychainPath() string {
	return filepath.Join(c.StateDir, "keychain.db")
}

// AnalyticsPath is the bolt file holding recorded analytics events.
func (c Config) AnalyticsPath() string {
	return filepath.Join(c.StateDir, "analytics.db")
}

func parseDuration(value string, fallback time.Duration) (time.Duration, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(trimmed)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive, got %s", d)
	}
	return d, nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
