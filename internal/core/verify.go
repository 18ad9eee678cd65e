package core

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/pressroom/snowball/internal/utils"
)

// growthFraction is the share of a network estimate counted as direct growth
const growthFraction = 0.15

// ConfirmOptIn consumes an opt-in confirmation for a pending entry.
//
// The transition to verified is atomic: the guarded store update matches only
// while the entry is still pending with the presented token, so two
// near-simultaneous clicks produce exactly one verified transition and the
// loser gets ErrNotFound. A token at or past the configured expiry fails with
// ErrTokenExpired and marks the entry expired as a side effect.
func (s *SnowballService) ConfirmOptIn(ctx context.Context, repoID, email, token string) (*Contribution, error) {
	repo, err := s.store.GetRepository(ctx, repoID)
	if err != nil {
		return nil, err
	}

	normalized, err := utils.NormalizeEmail(email)
	if err != nil {
		return nil, ErrNotFound
	}

	entry, err := s.store.FindEntry(ctx, repoID, normalized)
	if err != nil {
		return nil, ErrNotFound
	}
	if token == "" || entry.Status != StatusPending || entry.VerificationToken != token {
		return nil, ErrNotFound
	}

	now := time.Now().UTC()
	if now.Sub(entry.TokenIssuedAt) >= s.cfg.VerificationExpiry {
		expired, terr := s.store.ConditionalTransition(ctx, TransitionRequest{
			RepositoryID: repoID,
			Email:        normalized,
			Token:        token,
			From:         StatusPending,
			To:           StatusExpired,
			At:           now,
		})
		if terr != nil {
			s.logger.Error("Failed to mark entry expired",
				zap.String("email", normalized), zap.Error(terr))
		} else if expired {
			s.logger.Info("Verification token expired",
				zap.String("repository_id", repoID),
				zap.String("email", normalized),
				zap.Time("issued_at", entry.TokenIssuedAt))
		}
		return nil, ErrTokenExpired
	}

	contribution := s.computeContribution(ctx, normalized)

	ok, err := s.store.ConditionalTransition(ctx, TransitionRequest{
		RepositoryID: repoID,
		Email:        normalized,
		Token:        token,
		From:         StatusPending,
		To:           StatusVerified,
		Contribution: contribution,
		At:           now,
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		// Replayed token or lost race against a concurrent confirmation.
		return nil, ErrNotFound
	}

	// Recount from current verified entries rather than incrementing blindly
	// so concurrent transitions stay consistent.
	if count, rerr := s.store.RecountVerified(ctx, repoID); rerr != nil {
		s.logger.Error("Failed to recount verified members",
			zap.String("repository_id", repoID), zap.Error(rerr))
	} else {
		s.logger.Info("Opt-in confirmed",
			zap.String("repository_id", repoID),
			zap.String("email", normalized),
			zap.Int("verified_members", count),
			zap.Int("potential_reach", contribution.PotentialReach))
	}

	s.maybeAwardBonus(ctx, repo, now)

	return contribution, nil
}

// OptOut processes an explicit unsubscribe for a pending invitation.
// No growth contribution is computed.
func (s *SnowballService) OptOut(ctx context.Context, repoID, email, token string) error {
	if _, err := s.store.GetRepository(ctx, repoID); err != nil {
		return err
	}

	normalized, err := utils.NormalizeEmail(email)
	if err != nil {
		return ErrNotFound
	}

	ok, err := s.store.ConditionalTransition(ctx, TransitionRequest{
		RepositoryID: repoID,
		Email:        normalized,
		Token:        token,
		From:         StatusPending,
		To:           StatusOptedOut,
		At:           time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}

	s.logger.Info("Recipient opted out",
		zap.String("repository_id", repoID),
		zap.String("email", normalized))
	return nil
}

// computeContribution derives the growth contribution of a freshly verified
// entry from the domain assessment and the network-size heuristic
func (s *SnowballService) computeContribution(ctx context.Context, email string) *Contribution {
	domain := utils.EmailDomain(email)

	authority := 0.5
	if assessment, err := s.verifier.VerifyDomain(ctx, domain); err != nil {
		s.logger.Warn("Domain assessment unavailable, using neutral authority",
			zap.String("domain", domain), zap.Error(err))
	} else {
		authority = assessment.Authority
	}

	size := s.estimatedNetworkSize(domain, authority)

	return &Contribution{
		PotentialReach:     int(math.Round(float64(size) * s.cfg.SnowballMultiplier)),
		DomainQualityScore: authority,
		EstimatedGrowth:    float64(size) * growthFraction,
	}
}

// estimatedNetworkSize guesses how many contacts an address could plausibly
// bring in. Personal webmail domains get a small flat estimate; organization
// domains scale with assessed authority.
func (s *SnowballService) estimatedNetworkSize(domain string, authority float64) int {
	if s.blocklist.IsPersonalDomain(domain) {
		return 8
	}
	return 25 + int(math.Round(50*authority))
}

// maybeAwardBonus applies the rolling-window growth bonus: once at least
// BonusThreshold verified transitions land within the trailing BonusWindow,
// the repository owner gets a one-time karma bonus. The store-side claim
// makes the award idempotent per window.
func (s *SnowballService) maybeAwardBonus(ctx context.Context, repo *Repository, now time.Time) {
	recent, err := s.store.CountEntries(ctx, repo.ID, EntryFilter{
		Status:        StatusVerified,
		VerifiedAfter: now.Add(-s.cfg.BonusWindow),
	})
	if err != nil {
		s.logger.Error("Failed to count recent verifications",
			zap.String("repository_id", repo.ID), zap.Error(err))
		return
	}
	if recent < s.cfg.BonusThreshold {
		return
	}

	claimed, err := s.store.ClaimBonus(ctx, repo.ID, s.cfg.BonusWindow, now)
	if err != nil {
		s.logger.Error("Failed to claim bonus window",
			zap.String("repository_id", repo.ID), zap.Error(err))
		return
	}
	if !claimed {
		return
	}

	if err := s.karma.AwardBonus(ctx, repo.OwnerID, "snowball growth streak"); err != nil {
		s.logger.Error("Failed to award growth bonus",
			zap.String("repository_id", repo.ID),
			zap.String("owner_id", repo.OwnerID),
			zap.Error(err))
		return
	}

	s.logger.Info("Growth bonus awarded",
		zap.String("repository_id", repo.ID),
		zap.String("owner_id", repo.OwnerID),
		zap.Int("recent_verifications", recent))
}
