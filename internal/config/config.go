package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	v *viper.Viper
}

// New creates a new configuration instance
func New() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/snowball-engine/")
	v.AddConfigPath("$HOME/.snowball-engine")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	// Set defaults
	setDefaults(v)

	// Environment variables
	v.AutomaticEnv()
	v.SetEnvPrefix("SNOWBALL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, using defaults
	}

	return &Config{v: v}, nil
}

// NewFromViper creates a new configuration instance from an existing Viper instance
func NewFromViper(v *viper.Viper) *Config {
	return &Config{v: v}
}

// NewEmptyViper creates a new Viper instance with defaults
func NewEmptyViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// Engine defaults
	v.SetDefault("snowball.min_quality_score", 0.7)
	v.SetDefault("snowball.max_batch_size", 100)
	v.SetDefault("snowball.multiplier", 1.5)
	v.SetDefault("snowball.verification_expiry", "168h")
	v.SetDefault("snowball.bonus_threshold", 10)
	v.SetDefault("snowball.bonus_window", "24h")
	v.SetDefault("snowball.public_base_url", "https://news.pressroom.example")

	// Dispatch defaults
	v.SetDefault("dispatch.max_concurrent", 20)
	v.SetDefault("dispatch.send_timeout", "10s")

	// Domain verifier defaults
	v.SetDefault("verifier.provider", "static")
	v.SetDefault("verifier.dns_timeout", "5s")

	// Bedrock defaults
	v.SetDefault("bedrock.region", "us-east-1")
	v.SetDefault("bedrock.model_id", "anthropic.claude-v2")
	v.SetDefault("bedrock.max_tokens", 500)
	v.SetDefault("bedrock.temperature", 0.1)
	v.SetDefault("bedrock.top_p", 0.9)

	// Gemini defaults
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model_name", "gemini-pro")
	v.SetDefault("gemini.max_tokens", 500)
	v.SetDefault("gemini.temperature", 0.1)
	v.SetDefault("gemini.top_p", 0.9)

	// OpenAI defaults
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.model_name", "gpt-4")
	v.SetDefault("openai.max_tokens", 500)
	v.SetDefault("openai.temperature", 0.1)
	v.SetDefault("openai.top_p", 0.9)

	// Store defaults
	v.SetDefault("store.type", "memory")
	v.SetDefault("store.sqlite_path", "/data/snowball.db")
	v.SetDefault("store.mysql_dsn", "user:password@tcp(localhost:3306)/snowball")

	// Sender defaults
	v.SetDefault("sender.type", "dry_run")
	v.SetDefault("sender.smtp_addr", "localhost:587")
	v.SetDefault("sender.from", "invites@news.pressroom.example")
	v.SetDefault("sender.username", "")
	v.SetDefault("sender.password", "")
	v.SetDefault("sender.start_tls", true)

	// Blocklist defaults
	v.SetDefault("blocklist.addresses", []string{})
	v.SetDefault("blocklist.domains", []string{})
	v.SetDefault("blocklist.personal_domains", []string{})
	v.SetDefault("blocklist.disposable_domains", []string{})

	// Ingest defaults
	v.SetDefault("ingest.spool_dir", "/var/spool/snowball")

	// Karma defaults
	v.SetDefault("karma.endpoint", "")
	v.SetDefault("karma.timeout", "5s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// GetString gets a string value from the configuration
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt gets an integer value from the configuration
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetFloat64 gets a float64 value from the configuration
func (c *Config) GetFloat64(key string) float64 {
	return c.v.GetFloat64(key)
}

// GetBool gets a boolean value from the configuration
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// GetStringSlice gets a string slice value from the configuration
func (c *Config) GetStringSlice(key string) []string {
	return c.v.GetStringSlice(key)
}

// GetDuration gets a duration value from the configuration
func (c *Config) GetDuration(key string) (time.Duration, error) {
	return time.ParseDuration(c.GetString(key))
}

// GetViper returns the underlying Viper instance
func (c *Config) GetViper() *viper.Viper {
	return c.v
}
