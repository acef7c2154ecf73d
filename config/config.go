package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/s0up4200/dhparkeren/parkeren"
)

// EnvPrefix prefixes every environment override, e.g. DHPARKEREN_USERNAME
const EnvPrefix = "DHPARKEREN"

// Load loads the configuration from file, .env and the environment. Without
// an explicit path a missing config file is not an error.
func Load(configPath string) (*Config, error) {
	// Existing environment variables win over .env entries.
	_ = godotenv.Load()

	v := viper.New()

	// Set default values
	setDefaults(v)
	bindEnv(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Look for config in standard locations
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		// Check current directory first
		v.AddConfigPath(".")

		// Check home directory
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".dhparkeren"))
		}

		// Check /etc
		v.AddConfigPath("/etc/dhparkeren/")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Validate configuration
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Client defaults
	v.SetDefault("client.base_url", parkeren.DefaultBaseURL)
	v.SetDefault("client.timeout", parkeren.DefaultTimeout)
	v.SetDefault("client.retry_count", parkeren.DefaultRetryCount)
	v.SetDefault("client.backoff_base", parkeren.DefaultBackoffBase)
	v.SetDefault("client.backoff_max", parkeren.DefaultBackoffMax)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.color", true)

	v.SetDefault("metrics.enabled", false)
}

// bindEnv maps the short environment names onto config keys
func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("account.username", EnvPrefix+"_USERNAME")
	_ = v.BindEnv("account.password", EnvPrefix+"_PASSWORD")
	_ = v.BindEnv("client.base_url", EnvPrefix+"_BASE_URL")
	_ = v.BindEnv("logging.level", EnvPrefix+"_LOG_LEVEL")
}

// validate checks if the configuration is valid
func validate(cfg *Config) error {
	if cfg.Account.Username == "" || cfg.Account.Password == "" {
		return fmt.Errorf("account.username and account.password are required (or set %s_USERNAME and %s_PASSWORD)", EnvPrefix, EnvPrefix)
	}

	u, err := url.Parse(cfg.Client.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid client.base_url: %q", cfg.Client.BaseURL)
	}
	if cfg.Client.Timeout <= 0 {
		return fmt.Errorf("client.timeout must be positive")
	}
	if cfg.Client.RetryCount < 0 {
		return fmt.Errorf("client.retry_count must not be negative")
	}
	if cfg.Client.BackoffBase <= 0 || cfg.Client.BackoffMax < cfg.Client.BackoffBase {
		return fmt.Errorf("client.backoff_base must be positive and not exceed client.backoff_max")
	}

	// Validate logging level
	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("invalid logging level: %s", cfg.Logging.Level)
	}

	// Validate logging format
	validFormats := map[string]bool{
		"console": true,
		"json":    true,
	}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("invalid logging format: %s", cfg.Logging.Format)
	}

	for name, expression := range cfg.Filter {
		if strings.TrimSpace(expression) == "" {
			return fmt.Errorf("filter %q has an empty expression", name)
		}
	}

	return nil
}

// ParkerenConfig converts the client section into library settings
func (c *Config) ParkerenConfig() parkeren.Config {
	level, err := zerolog.ParseLevel(c.Logging.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	return parkeren.Config{
		BaseURL:     c.Client.BaseURL,
		LogLevel:    level,
		Timeout:     c.Client.Timeout,
		RetryCount:  c.Client.RetryCount,
		BackoffBase: c.Client.BackoffBase,
		BackoffMax:  c.Client.BackoffMax,
	}
}

// Secrets returns the account credentials
func (c *Config) Secrets() parkeren.Secrets {
	return parkeren.Secrets{
		Username: c.Account.Username,
		Password: c.Account.Password,
	}
}
