package core

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pressroom/snowball/internal/blocklist"
)

// EngineConfig carries the tunable snowball constants. It is injected at
// construction so environments and tests can adjust them independently.
type EngineConfig struct {
	MinQualityScore    float64
	MaxBatchSize       int
	SnowballMultiplier float64
	VerificationExpiry time.Duration
	BonusThreshold     int
	BonusWindow        time.Duration
	MaxConcurrentSends int
	SendTimeout        time.Duration
	PublicBaseURL      string
}

// SnowballService is the snowball distribution and verification engine.
// It validates and scores candidates, dispatches invitations, tracks the
// per-email verification state machine and serves growth analytics.
type SnowballService struct {
	store     EntryStore
	events    EventLog
	sender    EmailSender
	karma     KarmaService
	verifier  DomainVerifier
	blocklist *blocklist.Checker
	validator *CandidateValidator
	builder   *BatchBuilder
	cfg       EngineConfig
	logger    *zap.Logger
}

// NewSnowballService creates a new snowball engine
func NewSnowballService(
	store EntryStore,
	events EventLog,
	sender EmailSender,
	karma KarmaService,
	verifier DomainVerifier,
	bl *blocklist.Checker,
	validator *CandidateValidator,
	builder *BatchBuilder,
	cfg EngineConfig,
	logger *zap.Logger,
) *SnowballService {
	return &SnowballService{
		store:     store,
		events:    events,
		sender:    sender,
		karma:     karma,
		verifier:  verifier,
		blocklist: bl,
		validator: validator,
		builder:   builder,
		cfg:       cfg,
		logger:    logger,
	}
}

// Distribute runs one snowball distribution: validate and score the raw
// candidates, build a bounded batch, dispatch invitations with bounded
// concurrency and provisionally enroll successful sends as pending entries.
// A single candidate's failure never aborts the batch. Returns
// ErrRepoNotFound when the repository does not exist.
func (s *SnowballService) Distribute(ctx context.Context, repoID string, rawEmails []string, initiatorID string) (*DistributeResult, error) {
	repo, err := s.store.GetRepository(ctx, repoID)
	if err != nil {
		return nil, err
	}

	entries, err := s.store.ListEntries(ctx, repoID, EntryFilter{})
	if err != nil {
		return nil, fmt.Errorf("listing entries for %s: %w", repoID, err)
	}
	existing := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		existing[entry.Email] = struct{}{}
	}

	accepted, rejectedCands := s.validator.Validate(ctx, rawEmails, existing)

	now := time.Now().UTC()
	batch, deferred, err := s.builder.Build(repoID, initiatorID, accepted, now)
	if err != nil {
		return nil, err
	}

	results := make([]EmailResult, 0, len(rawEmails))
	for _, rej := range rejectedCands {
		results = append(results, EmailResult{Email: rej.Email, Status: ResultRejected, Reason: rej.Reason})
	}
	for _, cand := range deferred {
		results = append(results, EmailResult{Email: cand.Email, Status: ResultDeferred, Reason: "batch cap reached"})
	}

	sendResults := s.dispatch(ctx, repo, batch, initiatorID)

	var sent, failed int
	for _, res := range sendResults {
		switch res.Status {
		case ResultSent:
			sent++
		case ResultFailed:
			failed++
		}
	}
	results = append(results, sendResults...)

	event := &SnowballEvent{
		BatchID:      batch.ID,
		RepositoryID: repoID,
		InitiatorID:  initiatorID,
		Sent:         sent,
		Failed:       failed,
		OccurredAt:   now,
	}
	if err := s.events.Record(ctx, event); err != nil {
		s.logger.Error("Failed to record snowball event",
			zap.String("batch_id", batch.ID),
			zap.Error(err))
	}

	if err := s.store.ApplyBatchStats(ctx, repoID, sent, now); err != nil {
		s.logger.Error("Failed to update repository counters",
			zap.String("repository_id", repoID),
			zap.Error(err))
	}

	s.logger.Info("Snowball distribution completed",
		zap.String("repository_id", repoID),
		zap.String("batch_id", batch.ID),
		zap.Int("candidates", len(rawEmails)),
		zap.Int("sent", sent),
		zap.Int("failed", failed),
		zap.Int("deferred", len(deferred)))

	return &DistributeResult{
		BatchID: batch.ID,
		Sent:    sent,
		Failed:  failed,
		Results: results,
	}, nil
}

// dispatch sends every batch candidate through the email collaborator with
// bounded concurrency. Each send carries its own timeout; a timeout counts
// as a failed dispatch and creates no entry.
func (s *SnowballService) dispatch(ctx context.Context, repo *Repository, batch *Batch, initiatorID string) []EmailResult {
	var (
		mu      sync.Mutex
		results = make([]EmailResult, 0, len(batch.Candidates))
	)
	record := func(res EmailResult) {
		mu.Lock()
		results = append(results, res)
		mu.Unlock()
	}

	limit := s.cfg.MaxConcurrentSends
	if limit <= 0 {
		limit = 1
	}

	// A plain group: sibling sends must keep going when one fails.
	var g errgroup.Group
	g.SetLimit(limit)

	for _, cand := range batch.Candidates {
		cand := cand
		g.Go(func() error {
			sendCtx, cancel := context.WithTimeout(ctx, s.cfg.SendTimeout)
			defer cancel()

			invite := s.buildInvitation(repo, batch, cand, initiatorID)
			msgID, err := s.sender.Send(sendCtx, invite)
			if err != nil {
				s.logger.Warn("Invitation dispatch failed",
					zap.String("email", cand.Email),
					zap.String("batch_id", batch.ID),
					zap.Error(err))
				record(EmailResult{Email: cand.Email, Status: ResultFailed, Reason: "dispatch failed"})
				return nil
			}

			entry := &EmailEntry{
				RepositoryID:      repo.ID,
				Email:             cand.Email,
				Source:            SourceSnowball,
				Status:            StatusPending,
				QualityScore:      cand.QualityScore,
				VerificationToken: cand.Token,
				TokenIssuedAt:     time.Now().UTC(),
				AddedBy:           initiatorID,
				AddedAt:           time.Now().UTC(),
			}
			inserted, err := s.store.InsertIfAbsent(ctx, entry)
			if err != nil {
				record(EmailResult{Email: cand.Email, Status: ResultFailed, Reason: "store error"})
				return nil
			}
			if !inserted {
				// An overlapping run enrolled this address first.
				record(EmailResult{Email: cand.Email, Status: ResultFailed, Reason: "already enrolled"})
				return nil
			}

			s.logger.Debug("Invitation dispatched",
				zap.String("email", cand.Email),
				zap.String("message_id", msgID))
			record(EmailResult{Email: cand.Email, Status: ResultSent, Reason: msgID})
			return nil
		})
	}

	// Goroutines never return errors; Wait only synchronizes.
	_ = g.Wait()
	return results
}

// buildInvitation assembles the invite payload with opt-in and opt-out links
func (s *SnowballService) buildInvitation(repo *Repository, batch *Batch, cand BatchCandidate, initiatorID string) *Invitation {
	base := s.cfg.PublicBaseURL
	optIn := fmt.Sprintf("%s/repositories/%s/opt-in?email=%s&token=%s",
		base, repo.ID, url.QueryEscape(cand.Email), cand.Token)
	optOut := fmt.Sprintf("%s/opt-out?token=%s", base, cand.Token)

	return &Invitation{
		To:                    cand.Email,
		RepositoryID:          repo.ID,
		RepositoryName:        repo.Name,
		RepositoryDescription: repo.Description,
		TopPosts:              repo.TopPosts,
		InviterID:             initiatorID,
		OptInURL:              optIn,
		OptOutURL:             optOut,
	}
}
