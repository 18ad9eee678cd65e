package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := NewFromViper(NewEmptyViper())

	engine, err := cfg.GetEngine()
	require.NoError(t, err)
	assert.Equal(t, 0.7, engine.MinQualityScore)
	assert.Equal(t, 100, engine.MaxBatchSize)
	assert.Equal(t, 1.5, engine.Multiplier)
	assert.Equal(t, 168*time.Hour, engine.VerificationExpiry)
	assert.Equal(t, 10, engine.BonusThreshold)
	assert.Equal(t, 24*time.Hour, engine.BonusWindow)

	dispatch, err := cfg.GetDispatch()
	require.NoError(t, err)
	assert.Equal(t, 20, dispatch.MaxConcurrent)
	assert.Equal(t, 10*time.Second, dispatch.SendTimeout)

	verifier, err := cfg.GetVerifier()
	require.NoError(t, err)
	assert.Equal(t, "static", verifier.Provider)

	assert.Equal(t, "memory", cfg.GetStore().Type)
	assert.Equal(t, "dry_run", cfg.GetSender().Type)
	assert.Empty(t, cfg.GetBlocklist().Addresses)
}

func TestOverrides(t *testing.T) {
	v := NewEmptyViper()
	v.Set("snowball.max_batch_size", 25)
	v.Set("snowball.verification_expiry", "72h")
	v.Set("verifier.provider", "gemini")
	v.Set("gemini.api_key", "test-key")
	v.Set("store.type", "sqlite")
	v.Set("store.sqlite_path", "/tmp/test.db")
	cfg := NewFromViper(v)

	engine, err := cfg.GetEngine()
	require.NoError(t, err)
	assert.Equal(t, 25, engine.MaxBatchSize)
	assert.Equal(t, 72*time.Hour, engine.VerificationExpiry)

	verifier, err := cfg.GetVerifier()
	require.NoError(t, err)
	assert.Equal(t, "gemini", verifier.Provider)
	assert.Equal(t, "test-key", cfg.GetGemini().APIKey)

	store := cfg.GetStore()
	assert.Equal(t, "sqlite", store.Type)
	assert.Equal(t, "/tmp/test.db", store.SQLitePath)
}

func TestInvalidDurationSurfaces(t *testing.T) {
	v := NewEmptyViper()
	v.Set("snowball.bonus_window", "not-a-duration")
	cfg := NewFromViper(v)

	_, err := cfg.GetEngine()
	assert.Error(t, err)
}
