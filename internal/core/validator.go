package core

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/pressroom/snowball/internal/blocklist"
	"github.com/pressroom/snowball/internal/utils"
)

// Quality scoring weights. Every candidate starts at the base score and
// earns the increments below, capped at 1.0.
const (
	scoreBase          = 0.5
	scoreBusinessBonus = 0.2
	scoreVerifiedBonus = 0.2
	scoreDurableBonus  = 0.1
)

// CandidateValidator validates and scores raw candidate emails before a
// distribution run. Validation has no side effects and is deterministic for
// a given blocklist snapshot and verifier behaviour.
type CandidateValidator struct {
	blocklist *blocklist.Checker
	verifier  DomainVerifier
	minScore  float64
	logger    *zap.Logger
}

// NewCandidateValidator creates a new validator
func NewCandidateValidator(bl *blocklist.Checker, verifier DomainVerifier, cfg EngineConfig, logger *zap.Logger) *CandidateValidator {
	return &CandidateValidator{
		blocklist: bl,
		verifier:  verifier,
		minScore:  cfg.MinQualityScore,
		logger:    logger,
	}
}

// Validate filters raw candidates against syntax, duplicates and blocklists,
// scores the survivors and keeps those at or above the quality threshold.
// existing holds the repository's current normalized emails (any status).
// The accepted list preserves input order.
func (v *CandidateValidator) Validate(ctx context.Context, raw []string, existing map[string]struct{}) ([]Candidate, []RejectedCandidate) {
	accepted := make([]Candidate, 0, len(raw))
	rejected := make([]RejectedCandidate, 0)
	seen := make(map[string]struct{}, len(raw))

	for _, candidate := range raw {
		email, err := utils.NormalizeEmail(candidate)
		if err != nil {
			rejected = append(rejected, RejectedCandidate{Email: candidate, Reason: "malformed address"})
			continue
		}

		if _, dup := seen[email]; dup {
			rejected = append(rejected, RejectedCandidate{Email: email, Reason: "duplicate candidate"})
			continue
		}
		seen[email] = struct{}{}

		if _, enrolled := existing[email]; enrolled {
			rejected = append(rejected, RejectedCandidate{Email: email, Reason: "already enrolled"})
			continue
		}

		if v.blocklist.IsBlacklisted(email) {
			rejected = append(rejected, RejectedCandidate{Email: email, Reason: "blacklisted"})
			continue
		}

		score := v.score(ctx, email)
		if score < v.minScore {
			v.logger.Debug("Candidate below quality threshold",
				zap.String("email", email),
				zap.Float64("score", score),
				zap.Float64("threshold", v.minScore))
			rejected = append(rejected, RejectedCandidate{Email: email, Reason: "quality score below threshold"})
			continue
		}

		accepted = append(accepted, Candidate{Email: email, QualityScore: score})
	}

	return accepted, rejected
}

// score computes the quality score of a normalized candidate email.
// The score is fixed at admission time and never recomputed afterwards.
func (v *CandidateValidator) score(ctx context.Context, email string) float64 {
	domain := utils.EmailDomain(email)
	score := scoreBase

	if !v.blocklist.IsPersonalDomain(domain) {
		score += scoreBusinessBonus
	}
	if v.domainVerified(ctx, domain) {
		score += scoreVerifiedBonus
	}
	if !v.blocklist.IsDisposableDomain(domain) {
		score += scoreDurableBonus
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}

// domainVerified runs the pluggable domain check. A verifier failure counts
// as not verified so scoring stays side-effect free.
func (v *CandidateValidator) domainVerified(ctx context.Context, domain string) bool {
	start := time.Now()
	assessment, err := v.verifier.VerifyDomain(ctx, domain)
	if err != nil {
		v.logger.Warn("Domain verification failed",
			zap.String("domain", domain),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return false
	}
	return assessment.Verified
}
