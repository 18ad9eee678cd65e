package factory

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/pressroom/snowball/internal/adapters/smtp"
	"github.com/pressroom/snowball/internal/config"
	"github.com/pressroom/snowball/internal/core"
)

// SenderFactory creates email senders based on configuration
type SenderFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewSenderFactory creates a new sender factory
func NewSenderFactory(cfg *config.Config, logger *zap.Logger) *SenderFactory {
	return &SenderFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateSender creates an email sender based on the configuration
func (f *SenderFactory) CreateSender() (core.EmailSender, error) {
	senderCfg := f.cfg.GetSender()

	switch senderCfg.Type {
	case "smtp":
		return smtp.NewSender(
			senderCfg.SMTPAddr,
			senderCfg.From,
			senderCfg.Username,
			senderCfg.Password,
			senderCfg.StartTLS,
			f.logger,
		), nil
	case "dry_run":
		return smtp.NewDryRunSender(f.logger), nil
	default:
		return nil, fmt.Errorf("unsupported sender type: %s", senderCfg.Type)
	}
}
