package core

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BatchBuilder assembles bounded distribution batches from accepted
// candidates. Quality scores are taken as-is; no recomputation happens here.
type BatchBuilder struct {
	maxBatchSize int
	logger       *zap.Logger
}

// NewBatchBuilder creates a new batch builder
func NewBatchBuilder(cfg EngineConfig, logger *zap.Logger) *BatchBuilder {
	return &BatchBuilder{
		maxBatchSize: cfg.MaxBatchSize,
		logger:       logger,
	}
}

// Build truncates accepted candidates to the batch cap and issues a fresh
// random batch ID plus a single-use verification token per included
// candidate. Candidates beyond the cap are returned as deferred; they are
// excluded from this run only and may be resubmitted later.
func (b *BatchBuilder) Build(repoID, initiatorID string, accepted []Candidate, now time.Time) (*Batch, []Candidate, error) {
	included := accepted
	var deferred []Candidate
	if b.maxBatchSize > 0 && len(accepted) > b.maxBatchSize {
		included = accepted[:b.maxBatchSize]
		deferred = accepted[b.maxBatchSize:]
		b.logger.Info("Batch cap reached, deferring overflow candidates",
			zap.Int("cap", b.maxBatchSize),
			zap.Int("deferred", len(deferred)))
	}

	batch := &Batch{
		ID:           uuid.NewString(),
		RepositoryID: repoID,
		InitiatorID:  initiatorID,
		CreatedAt:    now,
		Candidates:   make([]BatchCandidate, 0, len(included)),
	}

	for _, cand := range included {
		token, err := NewVerificationToken()
		if err != nil {
			return nil, nil, fmt.Errorf("building batch %s: %w", batch.ID, err)
		}
		batch.Candidates = append(batch.Candidates, BatchCandidate{
			Email:        cand.Email,
			QualityScore: cand.QualityScore,
			Token:        token,
		})
	}

	return batch, deferred, nil
}
