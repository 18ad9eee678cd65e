package factory

import (
	"go.uber.org/zap"

	"github.com/pressroom/snowball/internal/adapters/karma"
	"github.com/pressroom/snowball/internal/config"
	"github.com/pressroom/snowball/internal/core"
)

// KarmaFactory creates karma service clients based on configuration
type KarmaFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewKarmaFactory creates a new karma factory
func NewKarmaFactory(cfg *config.Config, logger *zap.Logger) *KarmaFactory {
	return &KarmaFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateKarmaService creates a karma client. Without a configured endpoint
// awards are logged locally.
func (f *KarmaFactory) CreateKarmaService() (core.KarmaService, error) {
	karmaCfg, err := f.cfg.GetKarma()
	if err != nil {
		return nil, err
	}

	if karmaCfg.Endpoint == "" {
		return karma.NewLogAwarder(f.logger), nil
	}
	return karma.NewHTTPAwarder(karmaCfg.Endpoint, karmaCfg.Timeout, f.logger), nil
}
