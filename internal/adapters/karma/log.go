// Package karma provides clients for the platform karma service, which
// rewards repository owners whose invitations convert.
package karma

import (
	"context"

	"go.uber.org/zap"
)

// LogAwarder records bonus awards in the log without calling out anywhere.
// Used when no karma service endpoint is configured.
type LogAwarder struct {
	logger *zap.Logger
}

// NewLogAwarder creates a new log-only karma awarder
func NewLogAwarder(logger *zap.Logger) *LogAwarder {
	return &LogAwarder{logger: logger}
}

// AwardBonus logs the award and succeeds
func (a *LogAwarder) AwardBonus(ctx context.Context, userID string, reason string) error {
	a.logger.Info("Karma bonus awarded",
		zap.String("user_id", userID),
		zap.String("reason", reason))
	return nil
}
