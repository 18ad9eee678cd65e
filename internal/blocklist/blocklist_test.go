package blocklist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestIsBlacklisted(t *testing.T) {
	c := NewChecker(
		[]string{"Banned@Corp.example"},
		[]string{"SPAMHAUS.example"},
		nil, nil,
		zap.NewNop(),
	)

	assert.True(t, c.IsBlacklisted("banned@corp.example"))
	assert.True(t, c.IsBlacklisted("BANNED@CORP.EXAMPLE"))
	assert.True(t, c.IsBlacklisted("anyone@spamhaus.example"))
	assert.False(t, c.IsBlacklisted("ok@corp.example"))
	assert.False(t, c.IsBlacklisted("no-at-sign"))
}

func TestDomainCategoriesIncludeDefaults(t *testing.T) {
	c := NewChecker(nil, nil, nil, nil, zap.NewNop())

	assert.True(t, c.IsPersonalDomain("gmail.com"))
	assert.True(t, c.IsPersonalDomain("GMAIL.COM"))
	assert.False(t, c.IsPersonalDomain("corp.example"))

	assert.True(t, c.IsDisposableDomain("mailinator.com"))
	assert.False(t, c.IsDisposableDomain("corp.example"))
}

func TestConfiguredDomainsExtendDefaults(t *testing.T) {
	c := NewChecker(nil, nil,
		[]string{"webmail.example"},
		[]string{"burner.example"},
		zap.NewNop(),
	)

	assert.True(t, c.IsPersonalDomain("webmail.example"))
	assert.True(t, c.IsPersonalDomain("gmail.com")) // defaults survive
	assert.True(t, c.IsDisposableDomain("burner.example"))
	assert.True(t, c.IsDisposableDomain("yopmail.com"))
}

func TestNilLoggerIsSafe(t *testing.T) {
	c := NewChecker([]string{"x@y.example"}, nil, nil, nil, nil)

	assert.True(t, c.IsBlacklisted("x@y.example"))
	assert.False(t, c.IsBlacklisted("other@y.example"))
}
