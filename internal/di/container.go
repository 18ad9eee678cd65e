package di

import (
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/pressroom/snowball/internal/adapters/ingest"
	"github.com/pressroom/snowball/internal/blocklist"
	"github.com/pressroom/snowball/internal/config"
	"github.com/pressroom/snowball/internal/core"
	"github.com/pressroom/snowball/internal/factory"
	"github.com/pressroom/snowball/internal/logging"
	"github.com/pressroom/snowball/internal/ports"
	"github.com/pressroom/snowball/internal/utils"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
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

	// Register store
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

	// Register domain verifier
	if err := container.Provide(func(f *factory.VerifierFactory) (core.DomainVerifier, error) {
		return f.CreateVerifier()
	}); err != nil {
		return nil, err
	}

	// Register email sender
	if err := container.Provide(func(f *factory.SenderFactory) (core.EmailSender, error) {
		return f.CreateSender()
	}); err != nil {
		return nil, err
	}

	// Register karma service
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

	// Register candidate source
	if err := container.Provide(func(cfg *config.Config, engine *core.SnowballService, logger *zap.Logger) (ports.CandidateSource, error) {
		return ingest.NewSpoolSource(cfg.GetIngest().SpoolDir, engine, logger)
	}); err != nil {
		return nil, err
	}

	return container, nil
}
