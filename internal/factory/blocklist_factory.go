package factory

import (
	"go.uber.org/zap"

	"github.com/pressroom/snowball/internal/blocklist"
	"github.com/pressroom/snowball/internal/config"
)

// NewBlocklist creates the blocklist checker from configuration
func NewBlocklist(cfg *config.Config, logger *zap.Logger) *blocklist.Checker {
	blCfg := cfg.GetBlocklist()
	return blocklist.NewChecker(
		blCfg.Addresses,
		blCfg.Domains,
		blCfg.PersonalDomains,
		blCfg.DisposableDomains,
		logger,
	)
}
