package domaincheck

import (
	"context"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/pressroom/snowball/internal/core"
)

// DNSVerifier verifies a domain by looking up its MX records. A domain that
// cannot receive mail is worthless for distribution regardless of its name.
type DNSVerifier struct {
	resolver *net.Resolver
	timeout  time.Duration
	logger   *zap.Logger
}

// NewDNSVerifier creates a new DNS verifier
func NewDNSVerifier(timeout time.Duration, logger *zap.Logger) *DNSVerifier {
	return &DNSVerifier{
		resolver: net.DefaultResolver,
		timeout:  timeout,
		logger:   logger,
	}
}

// VerifyDomain checks for MX records. Presence of mail exchangers verifies
// the domain; the authority estimate stays a coarse heuristic.
func (v *DNSVerifier) VerifyDomain(ctx context.Context, domain string) (*core.DomainAssessment, error) {
	lookupCtx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	assessment := &core.DomainAssessment{
		Domain:    domain,
		CheckedAt: time.Now().UTC(),
	}

	records, err := v.resolver.LookupMX(lookupCtx, domain)
	if err != nil || len(records) == 0 {
		v.logger.Debug("No MX records found",
			zap.String("domain", domain),
			zap.Error(err))
		assessment.Authority = 0.2
		assessment.Explanation = "no mail exchangers found"
		return assessment, nil
	}

	assessment.Verified = true
	assessment.Authority = 0.75
	assessment.Explanation = "mail exchangers present"
	return assessment, nil
}
