package smtp

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pressroom/snowball/internal/core"
)

// DryRunSender logs invitations instead of delivering them. Used in
// development and as a safe default when no relay is configured.
type DryRunSender struct {
	logger *zap.Logger
}

// NewDryRunSender creates a new dry-run sender
func NewDryRunSender(logger *zap.Logger) *DryRunSender {
	return &DryRunSender{logger: logger}
}

// Send logs the invitation and returns a synthetic message ID
func (s *DryRunSender) Send(ctx context.Context, invite *core.Invitation) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	msgID := uuid.NewString()
	s.logger.Info("Dry-run invitation",
		zap.String("to", invite.To),
		zap.String("repository_id", invite.RepositoryID),
		zap.String("opt_in_url", invite.OptInURL),
		zap.String("message_id", msgID))
	return msgID, nil
}
