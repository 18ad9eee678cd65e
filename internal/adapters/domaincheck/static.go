// Package domaincheck provides the built-in domain verification strategies:
// a static heuristic over the configured domain categories and a DNS-based
// check. Richer reputation lookups live in the LLM adapter packages.
package domaincheck

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/pressroom/snowball/internal/blocklist"
	"github.com/pressroom/snowball/internal/core"
)

// Authority levels assigned by the static heuristic
const (
	authorityDisposable = 0.0
	authorityPersonal   = 0.3
	authorityBusiness   = 0.7
)

// StaticVerifier derives a domain assessment from the blocklist categories
// alone. It is the default strategy: deterministic, offline and cheap.
type StaticVerifier struct {
	blocklist *blocklist.Checker
	logger    *zap.Logger
}

// NewStaticVerifier creates a new static verifier
func NewStaticVerifier(bl *blocklist.Checker, logger *zap.Logger) *StaticVerifier {
	return &StaticVerifier{blocklist: bl, logger: logger}
}

// VerifyDomain assesses a domain from its category
func (v *StaticVerifier) VerifyDomain(ctx context.Context, domain string) (*core.DomainAssessment, error) {
	assessment := &core.DomainAssessment{
		Domain:    domain,
		CheckedAt: time.Now().UTC(),
	}

	switch {
	case v.blocklist.IsDisposableDomain(domain):
		assessment.Authority = authorityDisposable
		assessment.Explanation = "known disposable-email provider"
	case v.blocklist.IsPersonalDomain(domain):
		assessment.Authority = authorityPersonal
		assessment.Explanation = "personal webmail provider"
	default:
		assessment.Verified = true
		assessment.Authority = authorityBusiness
		assessment.Explanation = "organization domain"
	}

	return assessment, nil
}
