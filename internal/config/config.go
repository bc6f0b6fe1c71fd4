// Package config provides application configuration management using Viper.
// It supports loading from environment variables, config files, and defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration. It is loaded once at startup
// and passed down explicitly; stored settings (the settings table) override
// individual values per request where documented.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Anthropic AnthropicConfig
	Admin     AdminConfig
	Chat      ChatConfig
	Analytics AnalyticsConfig
	Log       LogConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host        string
	Port        int
	Environment string
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host                  string
	Port                  int
	User                  string
	Password              string
	Name                  string
	SSLMode               string
	MaxConnections        int
	MaxIdleConnections    int
	ConnectionMaxLifetime time.Duration
}

// ConnectionString returns a PostgreSQL connection string.
func (d *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// AnthropicConfig holds the language-model client settings. The API key here
// is the process-level fallback; a model_api_key row in the settings table
// takes precedence per request.
type AnthropicConfig struct {
	APIKey string
	Model  string
}

// AdminConfig holds admin API access settings.
type AdminConfig struct {
	// APIToken is the bearer token required on /admin routes. Identity
	// management itself is an upstream concern; this server only gates.
	APIToken string
}

// ChatConfig holds chat widget behavior settings.
type ChatConfig struct {
	// BusinessName appears in the agent's system prompt.
	BusinessName string
	// WelcomeMessage is the default widget greeting.
	WelcomeMessage string
	// MaxReplyWords is the hard response-length constraint in the prompt.
	MaxReplyWords int
	// ContactAskThreshold is the number of visitor turns after which the
	// agent is instructed to ask for contact details when none were given.
	ContactAskThreshold int
	// HistoryWindow is how many prior turns are sent to the model.
	HistoryWindow int
	// MaxMessageLength bounds a single inbound message.
	MaxMessageLength int
}

// AnalyticsConfig holds dashboard aggregation settings.
type AnalyticsConfig struct {
	// RefreshInterval is the poll interval of the dashboard refresher.
	RefreshInterval time.Duration
	// Debounce collapses bursts of change notifications into one recompute.
	Debounce time.Duration
	// Window is how far back aggregation reaches.
	Window time.Duration
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string
	Format string
}

// RateLimitConfig holds per-IP rate limiting for the public endpoints.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// Load reads configuration from environment variables and config files.
// Environment variables take precedence over config file values.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/vision-sync")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var configNotFoundErr viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFoundErr) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:        v.GetString("server.host"),
			Port:        v.GetInt("server.port"),
			Environment: v.GetString("server.env"),
		},
		Database: DatabaseConfig{
			Host:                  v.GetString("database.host"),
			Port:                  v.GetInt("database.port"),
			User:                  v.GetString("database.user"),
			Password:              v.GetString("database.password"),
			Name:                  v.GetString("database.name"),
			SSLMode:               v.GetString("database.sslmode"),
			MaxConnections:        v.GetInt("database.max_connections"),
			MaxIdleConnections:    v.GetInt("database.max_idle_connections"),
			ConnectionMaxLifetime: v.GetDuration("database.connection_max_lifetime"),
		},
		Anthropic: AnthropicConfig{
			APIKey: v.GetString("anthropic.api_key"),
			Model:  v.GetString("anthropic.model"),
		},
		Admin: AdminConfig{
			APIToken: v.GetString("admin.api_token"),
		},
		Chat: ChatConfig{
			BusinessName:        v.GetString("chat.business_name"),
			WelcomeMessage:      v.GetString("chat.welcome_message"),
			MaxReplyWords:       v.GetInt("chat.max_reply_words"),
			ContactAskThreshold: v.GetInt("chat.contact_ask_threshold"),
			HistoryWindow:       v.GetInt("chat.history_window"),
			MaxMessageLength:    v.GetInt("chat.max_message_length"),
		},
		Analytics: AnalyticsConfig{
			RefreshInterval: v.GetDuration("analytics.refresh_interval"),
			Debounce:        v.GetDuration("analytics.debounce"),
			Window:          v.GetDuration("analytics.window"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		RateLimit: RateLimitConfig{
			Requests: v.GetInt("rate_limit.requests"),
			Window:   v.GetDuration("rate_limit.window"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setDefaults configures default values for all settings.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.env", "development")

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "visionsync")
	v.SetDefault("database.name", "visionsync")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_connections", 25)
	v.SetDefault("database.max_idle_connections", 5)
	v.SetDefault("database.connection_max_lifetime", "5m")

	// Anthropic defaults
	v.SetDefault("anthropic.model", "claude-sonnet-4-20250514")

	// Chat defaults
	v.SetDefault("chat.business_name", "Vision-Sync")
	v.SetDefault("chat.welcome_message", "Hi! How can I help you today?")
	v.SetDefault("chat.max_reply_words", 120)
	v.SetDefault("chat.contact_ask_threshold", 2)
	v.SetDefault("chat.history_window", 10)
	v.SetDefault("chat.max_message_length", 4000)

	// Analytics defaults
	v.SetDefault("analytics.refresh_interval", "30s")
	v.SetDefault("analytics.debounce", "2s")
	v.SetDefault("analytics.window", "720h") // 30 days

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Rate limit defaults
	v.SetDefault("rate_limit.requests", 60)
	v.SetDefault("rate_limit.window", "1m")
}

// Validate checks that all required configuration values are present.
func (c *Config) Validate() error {
	var missing []string

	if c.Database.Password == "" {
		missing = append(missing, "DATABASE_PASSWORD")
	}
	if c.Anthropic.APIKey == "" {
		missing = append(missing, "ANTHROPIC_API_KEY")
	}
	if c.Admin.APIToken == "" {
		missing = append(missing, "ADMIN_API_TOKEN")
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}
