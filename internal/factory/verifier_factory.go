package factory

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"go.uber.org/zap"

	"github.com/pressroom/snowball/internal/adapters/bedrock"
	"github.com/pressroom/snowball/internal/adapters/domaincheck"
	"github.com/pressroom/snowball/internal/adapters/gemini"
	"github.com/pressroom/snowball/internal/adapters/openai"
	"github.com/pressroom/snowball/internal/blocklist"
	"github.com/pressroom/snowball/internal/config"
	"github.com/pressroom/snowball/internal/core"
	"github.com/pressroom/snowball/internal/utils"
)

// VerifierFactory creates domain verifiers based on configuration
type VerifierFactory struct {
	cfg           *config.Config
	blocklist     *blocklist.Checker
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewVerifierFactory creates a new verifier factory
func NewVerifierFactory(cfg *config.Config, bl *blocklist.Checker, logger *zap.Logger, textProcessor *utils.TextProcessor) *VerifierFactory {
	return &VerifierFactory{
		cfg:           cfg,
		blocklist:     bl,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateVerifier creates a domain verifier based on the configuration
func (f *VerifierFactory) CreateVerifier() (core.DomainVerifier, error) {
	verifierCfg, err := f.cfg.GetVerifier()
	if err != nil {
		return nil, err
	}

	switch verifierCfg.Provider {
	case "static":
		return domaincheck.NewStaticVerifier(f.blocklist, f.logger), nil
	case "dns":
		return domaincheck.NewDNSVerifier(verifierCfg.DNSTimeout, f.logger), nil
	case "bedrock":
		bedrockCfg := f.cfg.GetBedrock()
		awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
			awsconfig.WithRegion(bedrockCfg.Region),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
		}
		client := bedrockruntime.NewFromConfig(awsCfg)
		return bedrock.NewVerifier(
			client,
			bedrockCfg.ModelID,
			bedrockCfg.MaxTokens,
			bedrockCfg.Temperature,
			bedrockCfg.TopP,
			f.logger,
			f.textProcessor,
		), nil
	case "gemini":
		geminiCfg := f.cfg.GetGemini()
		return gemini.NewVerifier(
			geminiCfg.APIKey,
			geminiCfg.ModelName,
			geminiCfg.MaxTokens,
			geminiCfg.Temperature,
			geminiCfg.TopP,
			f.logger,
		)
	case "openai":
		openaiCfg := f.cfg.GetOpenAI()
		return openai.NewVerifier(
			openaiCfg.APIKey,
			openaiCfg.ModelName,
			openaiCfg.MaxTokens,
			openaiCfg.Temperature,
			openaiCfg.TopP,
			f.logger,
		), nil
	default:
		return nil, fmt.Errorf("unsupported verifier provider: %s", verifierCfg.Provider)
	}
}
