package di

import (
	"flag"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/pressroom/snowball/internal/blocklist"
	"github.com/pressroom/snowball/internal/config"
	"github.com/pressroom/snowball/internal/core"
	"github.com/pressroom/snowball/internal/factory"
	"github.com/pressroom/snowball/internal/logging"
	"github.com/pressroom/snowball/internal/utils"
)

// CLIFlags contains all command line flags for the admin CLI
type CLIFlags struct {
	// Operation flags
	Mode   string
	RepoID string
	UserID string
	Email  string
	Token  string
	File   string
	Days   int
	Top    int

	// Engine flags
	MinQualityScore float64
	MaxBatchSize    int

	// Verifier flags
	Provider    string
	MaxTokens   int
	Temperature float64
	TopP        float64

	// Bedrock flags
	BedrockRegion  string
	BedrockModelID string

	// Gemini flags
	GeminiAPIKey    string
	GeminiModelName string

	// OpenAI flags
	OpenAIAPIKey    string
	OpenAIModelName string

	// Store flags
	StoreType  string
	SQLitePath string
	MySQLDSN   string

	// Input flags
	Verbose    bool
	JSONLog    bool
	ConfigFile string
}

// ParseFlags parses command line flags and returns a CLIFlags struct
func ParseFlags() *CLIFlags {
	flags := &CLIFlags{}

	// Operation flags
	flag.StringVar(&flags.Mode, "mode", "distribute", "Operation (distribute, confirm, optout, analytics)")
	flag.StringVar(&flags.RepoID, "repo", "", "Repository ID")
	flag.StringVar(&flags.UserID, "user", "", "Initiating user ID")
	flag.StringVar(&flags.Email, "email", "", "Candidate email (confirm, optout)")
	flag.StringVar(&flags.Token, "token", "", "Verification token (confirm, optout)")
	flag.StringVar(&flags.File, "file", "", "Candidate file, one email per line (use stdin if not specified)")
	flag.IntVar(&flags.Days, "days", 30, "Days of growth timeline (analytics)")
	flag.IntVar(&flags.Top, "top", 5, "Number of top contributors (analytics)")

	// Engine flags
	flag.Float64Var(&flags.MinQualityScore, "min-score", 0.7, "Minimum candidate quality score")
	flag.IntVar(&flags.MaxBatchSize, "max-batch", 100, "Maximum candidates per batch")

	// Verifier flags
	flag.StringVar(&flags.Provider, "provider", "static", "Domain verifier (static, dns, bedrock, gemini, openai)")
	flag.IntVar(&flags.MaxTokens, "max-tokens", 500, "Maximum tokens for LLM response")
	flag.Float64Var(&flags.Temperature, "temperature", 0.1, "Temperature for LLM generation")
	flag.Float64Var(&flags.TopP, "top-p", 0.9, "Top-p for LLM generation")

	// Bedrock flags
	flag.StringVar(&flags.BedrockRegion, "bedrock-region", "us-east-1", "AWS region for Bedrock")
	flag.StringVar(&flags.BedrockModelID, "bedrock-model", "anthropic.claude-v2", "Bedrock model ID")

	// Gemini flags
	flag.StringVar(&flags.GeminiAPIKey, "gemini-api-key", "", "API key for Google Gemini")
	flag.StringVar(&flags.GeminiModelName, "gemini-model", "gemini-pro", "Gemini model name")

	// OpenAI flags
	flag.StringVar(&flags.OpenAIAPIKey, "openai-api-key", "", "API key for OpenAI")
	flag.StringVar(&flags.OpenAIModelName, "openai-model", "gpt-4", "OpenAI model name")

	// Store flags
	flag.StringVar(&flags.StoreType, "store", "memory", "Entry store (memory, sqlite, mysql)")
	flag.StringVar(&flags.SQLitePath, "sqlite-path", "/data/snowball.db", "SQLite database path")
	flag.StringVar(&flags.MySQLDSN, "mysql-dsn", "", "MySQL DSN")

	// Input flags
	flag.BoolVar(&flags.Verbose, "verbose", false, "Enable verbose logging")
	flag.BoolVar(&flags.JSONLog, "json-log", false, "Output logs in JSON format")
	flag.StringVar(&flags.ConfigFile, "config", "", "Path to config file (overrides command line flags)")

	flag.Parse()
	return flags
}

// BuildCLIContainer creates and configures a dependency injection container for the admin CLI
func BuildCLIContainer(flags *CLIFlags) (*dig.Container, error) {
	container := dig.New()

	// Register flags
	if err := container.Provide(func() *CLIFlags { return flags }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(flags *CLIFlags) (*zap.Logger, error) {
		return logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
	}); err != nil {
		return nil, err
	}

	// Register configuration
	if err := container.Provide(func(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
		if flags.ConfigFile != "" {
			cfg, err := config.New()
			if err != nil {
				return nil, err
			}
			logger.Info("Loaded configuration from file", zap.String("file", cfg.GetViper().ConfigFileUsed()))
			return cfg, nil
		}

		// Create config from command line flags
		return createConfigFromFlags(flags), nil
	}); err != nil {
		return nil, err
	}

	// Register text processor
	if err := container.Provide(utils.NewTextProcessor); err != nil {
		return nil, err
	}

	// Register blocklist
	if err := container.Provide(factory.NewBlocklist); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewStoreFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewVerifierFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewSenderFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewKarmaFactory); err != nil {
		return nil, err
	}

	// Register engine configuration
	if err := container.Provide(func(cfg *config.Config) (core.EngineConfig, error) {
		engineCfg, err := cfg.GetEngine()
		if err != nil {
			return core.EngineConfig{}, err
		}
		dispatchCfg, err := cfg.GetDispatch()
		if err != nil {
			return core.EngineConfig{}, err
		}
		return core.EngineConfig{
			MinQualityScore:    engineCfg.MinQualityScore,
			MaxBatchSize:       engineCfg.MaxBatchSize,
			SnowballMultiplier: engineCfg.Multiplier,
			VerificationExpiry: engineCfg.VerificationExpiry,
			BonusThreshold:     engineCfg.BonusThreshold,
			BonusWindow:        engineCfg.BonusWindow,
			MaxConcurrentSends: dispatchCfg.MaxConcurrent,
			SendTimeout:        dispatchCfg.SendTimeout,
			PublicBaseURL:      engineCfg.PublicBaseURL,
		}, nil
	}); err != nil {
		return nil, err
	}

	// Register store, verifier, sender and karma
	if err := container.Provide(func(f *factory.StoreFactory) (*factory.Store, error) {
		return f.CreateStore()
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(s *factory.Store) core.EntryStore {
		return s.Entries
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(s *factory.Store) core.EventLog {
		return s.Events
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.VerifierFactory) (core.DomainVerifier, error) {
		return f.CreateVerifier()
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.SenderFactory) (core.EmailSender, error) {
		return f.CreateSender()
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.KarmaFactory) (core.KarmaService, error) {
		return f.CreateKarmaService()
	}); err != nil {
		return nil, err
	}

	// Register candidate validator and batch builder
	if err := container.Provide(func(bl *blocklist.Checker, verifier core.DomainVerifier, engineCfg core.EngineConfig, logger *zap.Logger) *core.CandidateValidator {
		return core.NewCandidateValidator(bl, verifier, engineCfg, logger)
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(engineCfg core.EngineConfig, logger *zap.Logger) *core.BatchBuilder {
		return core.NewBatchBuilder(engineCfg, logger)
	}); err != nil {
		return nil, err
	}

	// Register snowball service
	if err := container.Provide(core.NewSnowballService); err != nil {
		return nil, err
	}

	return container, nil
}

// createConfigFromFlags creates a configuration from command line flags
func createConfigFromFlags(flags *CLIFlags) *config.Config {
	v := config.NewEmptyViper()

	// Engine settings
	v.Set("snowball.min_quality_score", flags.MinQualityScore)
	v.Set("snowball.max_batch_size", flags.MaxBatchSize)

	// The admin CLI never delivers mail
	v.Set("sender.type", "dry_run")

	// Store settings
	v.Set("store.type", flags.StoreType)
	v.Set("store.sqlite_path", flags.SQLitePath)
	if flags.MySQLDSN != "" {
		v.Set("store.mysql_dsn", flags.MySQLDSN)
	}

	// Verifier settings
	v.Set("verifier.provider", flags.Provider)
	switch flags.Provider {
	case "bedrock":
		v.Set("bedrock.region", flags.BedrockRegion)
		v.Set("bedrock.model_id", flags.BedrockModelID)
		v.Set("bedrock.max_tokens", flags.MaxTokens)
		v.Set("bedrock.temperature", flags.Temperature)
		v.Set("bedrock.top_p", flags.TopP)
	case "gemini":
		v.Set("gemini.api_key", flags.GeminiAPIKey)
		v.Set("gemini.model_name", flags.GeminiModelName)
		v.Set("gemini.max_tokens", flags.MaxTokens)
		v.Set("gemini.temperature", flags.Temperature)
		v.Set("gemini.top_p", flags.TopP)
	case "openai":
		v.Set("openai.api_key", flags.OpenAIAPIKey)
		v.Set("openai.model_name", flags.OpenAIModelName)
		v.Set("openai.max_tokens", flags.MaxTokens)
		v.Set("openai.temperature", flags.Temperature)
		v.Set("openai.top_p", flags.TopP)
	}

	return config.NewFromViper(v)
}
