package config

import (
	"fmt"
	"time"
)

// EngineConfig represents the snowball engine tuning parameters
type EngineConfig struct {
	MinQualityScore    float64
	MaxBatchSize       int
	Multiplier         float64
	VerificationExpiry time.Duration
	BonusThreshold     int
	BonusWindow        time.Duration
	PublicBaseURL      string
}

// DispatchConfig represents the invitation dispatch parameters
type DispatchConfig struct {
	MaxConcurrent int
	SendTimeout   time.Duration
}

// VerifierConfig represents the domain verifier selection
type VerifierConfig struct {
	Provider   string
	DNSTimeout time.Duration
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region      string
	ModelID     string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// OpenAIConfig represents the configuration for OpenAI
type OpenAIConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// StoreConfig represents the entry store selection
type StoreConfig struct {
	Type       string
	SQLitePath string
	MySQLDSN   string
}

// SenderConfig represents the email sender selection
type SenderConfig struct {
	Type     string
	SMTPAddr string
	From     string
	Username string
	Password string
	StartTLS bool
}

// BlocklistConfig represents the blocklist contents
type BlocklistConfig struct {
	Addresses         []string
	Domains           []string
	PersonalDomains   []string
	DisposableDomains []string
}

// IngestConfig represents the candidate ingestion settings
type IngestConfig struct {
	SpoolDir string
}

// KarmaConfig represents the karma service client settings
type KarmaConfig struct {
	Endpoint string
	Timeout  time.Duration
}

// GetEngine returns the engine configuration
func (c *Config) GetEngine() (EngineConfig, error) {
	expiry, err := c.GetDuration("snowball.verification_expiry")
	if err != nil {
		return EngineConfig{}, fmt.Errorf("invalid snowball.verification_expiry: %w", err)
	}
	window, err := c.GetDuration("snowball.bonus_window")
	if err != nil {
		return EngineConfig{}, fmt.Errorf("invalid snowball.bonus_window: %w", err)
	}
	return EngineConfig{
		MinQualityScore:    c.GetFloat64("snowball.min_quality_score"),
		MaxBatchSize:       c.GetInt("snowball.max_batch_size"),
		Multiplier:         c.GetFloat64("snowball.multiplier"),
		VerificationExpiry: expiry,
		BonusThreshold:     c.GetInt("snowball.bonus_threshold"),
		BonusWindow:        window,
		PublicBaseURL:      c.GetString("snowball.public_base_url"),
	}, nil
}

// GetDispatch returns the dispatch configuration
func (c *Config) GetDispatch() (DispatchConfig, error) {
	timeout, err := c.GetDuration("dispatch.send_timeout")
	if err != nil {
		return DispatchConfig{}, fmt.Errorf("invalid dispatch.send_timeout: %w", err)
	}
	return DispatchConfig{
		MaxConcurrent: c.GetInt("dispatch.max_concurrent"),
		SendTimeout:   timeout,
	}, nil
}

// GetVerifier returns the verifier configuration
func (c *Config) GetVerifier() (VerifierConfig, error) {
	timeout, err := c.GetDuration("verifier.dns_timeout")
	if err != nil {
		return VerifierConfig{}, fmt.Errorf("invalid verifier.dns_timeout: %w", err)
	}
	return VerifierConfig{
		Provider:   c.GetString("verifier.provider"),
		DNSTimeout: timeout,
	}, nil
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:      c.GetString("bedrock.region"),
		ModelID:     c.GetString("bedrock.model_id"),
		MaxTokens:   c.GetInt("bedrock.max_tokens"),
		Temperature: float32(c.GetFloat64("bedrock.temperature")),
		TopP:        float32(c.GetFloat64("bedrock.top_p")),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:      c.GetString("gemini.api_key"),
		ModelName:   c.GetString("gemini.model_name"),
		MaxTokens:   c.GetInt("gemini.max_tokens"),
		Temperature: float32(c.GetFloat64("gemini.temperature")),
		TopP:        float32(c.GetFloat64("gemini.top_p")),
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:      c.GetString("openai.api_key"),
		ModelName:   c.GetString("openai.model_name"),
		MaxTokens:   c.GetInt("openai.max_tokens"),
		Temperature: float32(c.GetFloat64("openai.temperature")),
		TopP:        float32(c.GetFloat64("openai.top_p")),
	}
}

// GetStore returns the store configuration
func (c *Config) GetStore() StoreConfig {
	return StoreConfig{
		Type:       c.GetString("store.type"),
		SQLitePath: c.GetString("store.sqlite_path"),
		MySQLDSN:   c.GetString("store.mysql_dsn"),
	}
}

// GetSender returns the sender configuration
func (c *Config) GetSender() SenderConfig {
	return SenderConfig{
		Type:     c.GetString("sender.type"),
		SMTPAddr: c.GetString("sender.smtp_addr"),
		From:     c.GetString("sender.from"),
		Username: c.GetString("sender.username"),
		Password: c.GetString("sender.password"),
		StartTLS: c.GetBool("sender.start_tls"),
	}
}

// GetBlocklist returns the blocklist configuration
func (c *Config) GetBlocklist() BlocklistConfig {
	return BlocklistConfig{
		Addresses:         c.GetStringSlice("blocklist.addresses"),
		Domains:           c.GetStringSlice("blocklist.domains"),
		PersonalDomains:   c.GetStringSlice("blocklist.personal_domains"),
		DisposableDomains: c.GetStringSlice("blocklist.disposable_domains"),
	}
}

// GetIngest returns the ingestion configuration
func (c *Config) GetIngest() IngestConfig {
	return IngestConfig{
		SpoolDir: c.GetString("ingest.spool_dir"),
	}
}

// GetKarma returns the karma client configuration
func (c *Config) GetKarma() (KarmaConfig, error) {
	timeout, err := c.GetDuration("karma.timeout")
	if err != nil {
		return KarmaConfig{}, fmt.Errorf("invalid karma.timeout: %w", err)
	}
	return KarmaConfig{
		Endpoint: c.GetString("karma.endpoint"),
		Timeout:  timeout,
	}, nil
}
