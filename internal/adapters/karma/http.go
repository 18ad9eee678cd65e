package karma

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// HTTPAwarder posts bonus awards to the platform karma service
type HTTPAwarder struct {
	endpoint string
	client   *http.Client
	logger   *zap.Logger
}

// NewHTTPAwarder creates a new HTTP karma awarder
func NewHTTPAwarder(endpoint string, timeout time.Duration, logger *zap.Logger) *HTTPAwarder {
	return &HTTPAwarder{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

// AwardBonus posts the award to the karma service endpoint
func (a *HTTPAwarder) AwardBonus(ctx context.Context, userID string, reason string) error {
	payload, err := json.Marshal(map[string]string{
		"user_id": userID,
		"reason":  reason,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal karma request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create karma request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call karma service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("karma service returned status %d", resp.StatusCode)
	}

	a.logger.Info("Karma bonus awarded",
		zap.String("user_id", userID),
		zap.String("reason", reason))
	return nil
}
