package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pressroom/snowball/internal/adapters/domaincheck"
	"github.com/pressroom/snowball/internal/adapters/karma"
	"github.com/pressroom/snowball/internal/adapters/smtp"
	"github.com/pressroom/snowball/internal/adapters/store"
	"github.com/pressroom/snowball/internal/blocklist"
	"github.com/pressroom/snowball/internal/core"
)

func writeSpool(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "batch.spool")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadSpoolFile(t *testing.T) {
	path := writeSpool(t, "repo-1 user-1\nalice@corp.example\n\n# a comment\nbob@corp.example\n")

	repoID, initiatorID, emails, err := readSpoolFile(path)
	require.NoError(t, err)

	assert.Equal(t, "repo-1", repoID)
	assert.Equal(t, "user-1", initiatorID)
	assert.Equal(t, []string{"alice@corp.example", "bob@corp.example"}, emails)
}

func TestReadSpoolFileEmpty(t *testing.T) {
	path := writeSpool(t, "")

	_, _, _, err := readSpoolFile(path)
	assert.Error(t, err)
}

func TestReadSpoolFileMalformedHeader(t *testing.T) {
	path := writeSpool(t, "only-one-field\nalice@corp.example\n")

	_, _, _, err := readSpoolFile(path)
	assert.Error(t, err)
}

func TestReadSpoolFileMissing(t *testing.T) {
	_, _, _, err := readSpoolFile(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

// newSpoolFixture wires a spool source to an engine over the memory store
func newSpoolFixture(t *testing.T, dir string) (*SpoolSource, *store.MemoryStore) {
	t.Helper()

	logger := zap.NewNop()
	st := store.NewMemoryStore(logger)
	bl := blocklist.NewChecker(nil, nil, nil, nil, logger)
	verifier := domaincheck.NewStaticVerifier(bl, logger)
	cfg := core.EngineConfig{
		MinQualityScore:    0.7,
		MaxBatchSize:       100,
		SnowballMultiplier: 1.5,
		VerificationExpiry: 168 * time.Hour,
		BonusThreshold:     10,
		BonusWindow:        24 * time.Hour,
		MaxConcurrentSends: 2,
		SendTimeout:        time.Second,
		PublicBaseURL:      "https://news.example",
	}

	validator := core.NewCandidateValidator(bl, verifier, cfg, logger)
	builder := core.NewBatchBuilder(cfg, logger)
	engine := core.NewSnowballService(st, st,
		smtp.NewDryRunSender(logger), karma.NewLogAwarder(logger),
		verifier, bl, validator, builder, cfg, logger)

	src, err := NewSpoolSource(dir, engine, logger)
	require.NoError(t, err)
	t.Cleanup(func() { src.Stop() })
	return src, st
}

func TestSpoolFileProcessedOnce(t *testing.T) {
	dir := t.TempDir()
	src, st := newSpoolFixture(t, dir)
	require.NoError(t, st.PutRepository(context.Background(), &core.Repository{
		ID:      "repo-1",
		OwnerID: "user-1",
		Name:    "Daily Dispatch",
	}))

	path := filepath.Join(dir, "batch.spool")
	require.NoError(t, os.WriteFile(path, []byte("repo-1 user-1\nalice@corp.example\n"), 0o644))

	src.drain()

	entry, err := st.FindEntry(context.Background(), "repo-1", "alice@corp.example")
	require.NoError(t, err)
	assert.Equal(t, core.StatusPending, entry.Status)

	// The consumed file is removed
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// A duplicate event for the consumed file is a no-op
	src.process(path)

	count, err := st.CountEntries(context.Background(), "repo-1", core.EntryFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSpoolSkipsDotFiles(t *testing.T) {
	dir := t.TempDir()
	src, st := newSpoolFixture(t, dir)
	require.NoError(t, st.PutRepository(context.Background(), &core.Repository{
		ID:      "repo-1",
		OwnerID: "user-1",
		Name:    "Daily Dispatch",
	}))

	// A writer still composing under a dot-name must be left alone
	path := filepath.Join(dir, ".batch.spool")
	require.NoError(t, os.WriteFile(path, []byte("repo-1 user-1\nalice@corp.example\n"), 0o644))

	src.drain()

	_, err := os.Stat(path)
	assert.NoError(t, err)
	count, err := st.CountEntries(context.Background(), "repo-1", core.EntryFilter{})
	require.NoError(t, err)
	assert.Zero(t, count)
}
