// Package config resolves the client configuration for one runtime environment.
//
// Values are layered in this order, later layers winning:
// per-environment defaults, an optional YAML file, an optional .env file
// and finally PSICHAT_* environment variables.
package config

import (
	stderrors "errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/psichat/internal/errors"
)

// Runtime environments.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

const (
	// DefaultTimeout is the fixed request timeout of the API client.
	DefaultTimeout = 10 * time.Second

	// DefaultNotificationDuration is how long a toast stays visible.
	DefaultNotificationDuration = 5 * time.Second

	// DefaultErrorNotificationDuration applies to error toasts.
	DefaultErrorNotificationDuration = 8 * time.Second

	appName    = "PsiChat"
	appVersion = "1.0.0"
)

// Config holds the resolved client configuration.
type Config struct {
	Environment string `yaml:"environment" env:"PSICHAT_ENV"`
	AppName     string `yaml:"app_name" env:"PSICHAT_APP_NAME"`
	Version     string `yaml:"version" env:"PSICHAT_VERSION"`

	APIBaseURL string        `yaml:"api_base_url" env:"PSICHAT_API_BASE_URL"`
	Timeout    time.Duration `yaml:"timeout" env:"PSICHAT_TIMEOUT"`

	LogLevel  string `yaml:"log_level" env:"PSICHAT_LOG_LEVEL"`
	LogFormat string `yaml:"log_format" env:"PSICHAT_LOG_FORMAT"`

	// TokenPath is the credential file; empty keeps the token in memory.
	TokenPath string `yaml:"token_path" env:"PSICHAT_TOKEN_PATH"`

	NotificationDuration      time.Duration `yaml:"notification_duration" env:"PSICHAT_NOTIFICATION_DURATION"`
	ErrorNotificationDuration time.Duration `yaml:"error_notification_duration" env:"PSICHAT_ERROR_NOTIFICATION_DURATION"`
}

// LoadOptions selects the layers Load reads.
type LoadOptions struct {
	// Environment overrides PSICHAT_ENV when set.
	Environment string
	// File is a YAML config file; a missing file is an error only when set explicitly.
	File string
	// EnvFile is a dotenv file; missing files are ignored.
	EnvFile string
	// LogLevel overrides every other source when set.
	LogLevel string
}

// Defaults returns the configuration for an environment before any overrides.
func Defaults(env string) Config {
	cfg := Config{
		Environment:               env,
		AppName:                   appName,
		Version:                   appVersion,
		Timeout:                   DefaultTimeout,
		LogFormat:                 "text",
		TokenPath:                 DefaultTokenPath(),
		NotificationDuration:      DefaultNotificationDuration,
		ErrorNotificationDuration: DefaultErrorNotificationDuration,
	}

	switch env {
	case EnvProduction:
		cfg.APIBaseURL = "https://api.psichat.edu"
		cfg.LogLevel = "error"
		cfg.LogFormat = "json"
	case EnvTest:
		cfg.APIBaseURL = "http://localhost:8000"
		cfg.LogLevel = "warn"
		cfg.TokenPath = ""
	default:
		cfg.APIBaseURL = "http://127.0.0.1:8000"
		cfg.LogLevel = "debug"
	}

	return cfg
}

// DefaultTokenPath returns ~/.psichat/session.json, or a relative path
// when the home directory cannot be resolved.
func DefaultTokenPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".psichat", "session.json")
	}
	return filepath.Join(home, ".psichat", "session.json")
}

// DefaultConfigPath returns ~/.psichat/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".psichat", "config.yaml")
	}
	return filepath.Join(home, ".psichat", "config.yaml")
}

// Load resolves the configuration and validates it.
func Load(opts LoadOptions) (*Config, error) {
	if opts.EnvFile != "" {
		// godotenv.Load never overrides variables that are already set.
		if err := godotenv.Load(opts.EnvFile); err != nil && !stderrors.Is(err, os.ErrNotExist) {
			return nil, errors.NewConfigParseError(opts.EnvFile, err)
		}
	}

	env := opts.Environment
	if env == "" {
		env = os.Getenv("PSICHAT_ENV")
	}
	if env == "" {
		env = EnvDevelopment
	}

	cfg := Defaults(env)

	path := opts.File
	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath()
	}
	if err := cfg.mergeFile(path, explicit); err != nil {
		return nil, err
	}

	if err := envdecode.Decode(&cfg); err != nil && !stderrors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, errors.NewConfigInvalidError("environment", err.Error())
	}

	// The flag wins over PSICHAT_ENV read by envdecode.
	if opts.Environment != "" {
		cfg.Environment = opts.Environment
	}
	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}

	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) mergeFile(path string, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !required {
			return nil
		}
		if os.IsNotExist(err) {
			return errors.Wrap(errors.ErrCodeConfigNotFound, fmt.Sprintf("config file not found: %s", path), err).
				WithSuggestion("Check the --config path")
		}
		return errors.NewConfigParseError(path, err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return errors.NewConfigParseError(path, err)
	}
	return nil
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	switch c.Environment {
	case EnvDevelopment, EnvProduction, EnvTest:
	default:
		return errors.NewConfigInvalidError("environment",
			fmt.Sprintf("unknown environment %q (want development, production or test)", c.Environment))
	}

	u, err := url.Parse(c.APIBaseURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return errors.NewConfigInvalidError("api_base_url", fmt.Sprintf("%q is not an http(s) URL", c.APIBaseURL))
	}

	if c.Timeout <= 0 {
		return errors.NewConfigInvalidError("timeout", "must be positive")
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return errors.NewConfigInvalidError("log_level", fmt.Sprintf("unknown level %q", c.LogLevel))
	}

	if c.NotificationDuration < 0 || c.ErrorNotificationDuration < 0 {
		return errors.NewConfigInvalidError("notification_duration", "must not be negative")
	}

	return nil
}

// IsProduction reports whether the production environment is active.
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// IsDevelopment reports whether the development environment is active.
func (c *Config) IsDevelopment() bool {
	return c.Environment == EnvDevelopment
}
