package blocklist

import (
	"strings"

	"go.uber.org/zap"
)

// Default domain sets. Configuration can extend but not shrink them.
var (
	defaultPersonalDomains = []string{
		"gmail.com", "yahoo.com", "hotmail.com", "outlook.com", "aol.com",
		"icloud.com", "proton.me", "protonmail.com", "mail.com", "gmx.com",
		"live.com", "msn.com",
	}

	defaultDisposableDomains = []string{
		"mailinator.com", "guerrillamail.com", "10minutemail.com",
		"tempmail.com", "temp-mail.org", "yopmail.com", "trashmail.com",
		"getnada.com", "sharklasers.com", "throwawaymail.com",
	}
)

// Checker answers blocklist and domain-category questions for candidate
// scoring. All lookups are case-insensitive.
type Checker struct {
	addresses  map[string]struct{}
	domains    map[string]struct{}
	personal   map[string]struct{}
	disposable map[string]struct{}
	logger     *zap.Logger
}

// NewChecker creates a checker from the configured blocklists. The personal
// and disposable sets always include the built-in defaults.
func NewChecker(addresses, domains, personal, disposable []string, logger *zap.Logger) *Checker {
	c := &Checker{
		addresses:  toSet(addresses),
		domains:    toSet(domains),
		personal:   toSet(append(append([]string{}, defaultPersonalDomains...), personal...)),
		disposable: toSet(append(append([]string{}, defaultDisposableDomains...), disposable...)),
		logger:     logger,
	}

	if logger != nil && (len(c.addresses) > 0 || len(c.domains) > 0) {
		logger.Info("Initialized blocklist checker",
			zap.Int("addresses", len(c.addresses)),
			zap.Int("domains", len(c.domains)))
	}

	return c
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" {
			set[v] = struct{}{}
		}
	}
	return set
}

// IsBlacklisted reports whether the address or its domain is explicitly
// blocked from distribution
func (c *Checker) IsBlacklisted(email string) bool {
	email = strings.ToLower(email)
	if _, ok := c.addresses[email]; ok {
		if c.logger != nil {
			c.logger.Debug("Address is blacklisted", zap.String("email", email))
		}
		return true
	}

	domain := domainOf(email)
	if domain == "" {
		return false
	}
	_, ok := c.domains[domain]
	return ok
}

// IsPersonalDomain reports whether the domain is a known personal-webmail
// provider
func (c *Checker) IsPersonalDomain(domain string) bool {
	_, ok := c.personal[strings.ToLower(domain)]
	return ok
}

// IsDisposableDomain reports whether the domain is a known disposable-email
// provider
func (c *Checker) IsDisposableDomain(domain string) bool {
	_, ok := c.disposable[strings.ToLower(domain)]
	return ok
}

func domainOf(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return ""
	}
	return email[at+1:]
}
