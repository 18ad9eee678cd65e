package core_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pressroom/snowball/internal/core"
)

func resultByEmail(results []core.EmailResult, email string) (core.EmailResult, bool) {
	for _, r := range results {
		if r.Email == email {
			return r, true
		}
	}
	return core.EmailResult{}, false
}

func TestDistributeUnknownRepository(t *testing.T) {
	f := newEngineFixture(t, defaultTestConfig())

	_, err := f.engine.Distribute(context.Background(), "missing", []string{"a@corp.example"}, "user-1")

	assert.ErrorIs(t, err, core.ErrRepoNotFound)
}

func TestDistributeEndToEnd(t *testing.T) {
	f := newEngineFixture(t, defaultTestConfig())
	f.seedRepo(t, "repo-1", "owner-1")

	ctx := context.Background()
	raw := []string{
		"alice@corp.example",
		"bob@startup.example",
		"alice@corp.example", // duplicate
		"broken",
	}

	result, err := f.engine.Distribute(ctx, "repo-1", raw, "user-1")
	require.NoError(t, err)

	assert.NotEmpty(t, result.BatchID)
	assert.Equal(t, 2, result.Sent)
	assert.Equal(t, 0, result.Failed)
	assert.ElementsMatch(t, []string{"alice@corp.example", "bob@startup.example"}, f.sender.sentTo())

	// The duplicate and the malformed candidate are rejected, not sent
	var rejections int
	for _, r := range result.Results {
		if r.Status == core.ResultRejected {
			rejections++
		}
	}
	assert.Equal(t, 2, rejections)

	// Successful sends become pending entries carrying their batch token
	entry, err := f.store.FindEntry(ctx, "repo-1", "alice@corp.example")
	require.NoError(t, err)
	assert.Equal(t, core.StatusPending, entry.Status)
	assert.Equal(t, core.SourceSnowball, entry.Source)
	assert.Equal(t, "user-1", entry.AddedBy)
	assert.Len(t, entry.VerificationToken, 64)

	// Audit event and repository counters reflect the run
	events, err := f.store.List(ctx, "repo-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, result.BatchID, events[0].BatchID)
	assert.Equal(t, 2, events[0].Sent)

	repo, err := f.store.GetRepository(ctx, "repo-1")
	require.NoError(t, err)
	assert.Equal(t, 2, repo.TotalInvitesSent)
	assert.False(t, repo.LastSnowballAt.IsZero())
}

func TestDistributeSendFailureDoesNotAbortBatch(t *testing.T) {
	f := newEngineFixture(t, defaultTestConfig())
	f.seedRepo(t, "repo-1", "owner-1")
	f.sender.failFor["bob@startup.example"] = true

	ctx := context.Background()
	result, err := f.engine.Distribute(ctx, "repo-1",
		[]string{"alice@corp.example", "bob@startup.example"}, "user-1")
	require.NoError(t, err)

	assert.Equal(t, 1, result.Sent)
	assert.Equal(t, 1, result.Failed)

	failed, ok := resultByEmail(result.Results, "bob@startup.example")
	require.True(t, ok)
	assert.Equal(t, core.ResultFailed, failed.Status)

	// A failed dispatch enrolls nothing
	_, err = f.store.FindEntry(ctx, "repo-1", "bob@startup.example")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestDistributeDefersOverflow(t *testing.T) {
	cfg := defaultTestConfig()
	cfg.MaxBatchSize = 2
	f := newEngineFixture(t, cfg)
	f.seedRepo(t, "repo-1", "owner-1")

	result, err := f.engine.Distribute(context.Background(), "repo-1",
		[]string{"a@corp.example", "b@corp.example", "c@corp.example"}, "user-1")
	require.NoError(t, err)

	assert.Equal(t, 2, result.Sent)

	deferred, ok := resultByEmail(result.Results, "c@corp.example")
	require.True(t, ok)
	assert.Equal(t, core.ResultDeferred, deferred.Status)

	// Deferred candidates are not enrolled and can be resubmitted later
	_, err = f.store.FindEntry(context.Background(), "repo-1", "c@corp.example")
	assert.ErrorIs(t, err, core.ErrNotFound)

	resubmit, err := f.engine.Distribute(context.Background(), "repo-1",
		[]string{"c@corp.example"}, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, resubmit.Sent)
}

func TestDistributeSkipsEnrolledAddresses(t *testing.T) {
	f := newEngineFixture(t, defaultTestConfig())
	f.seedRepo(t, "repo-1", "owner-1")

	ctx := context.Background()
	first, err := f.engine.Distribute(ctx, "repo-1", []string{"alice@corp.example"}, "user-1")
	require.NoError(t, err)
	require.Equal(t, 1, first.Sent)

	second, err := f.engine.Distribute(ctx, "repo-1", []string{"alice@corp.example"}, "user-2")
	require.NoError(t, err)
	assert.Equal(t, 0, second.Sent)

	res, ok := resultByEmail(second.Results, "alice@corp.example")
	require.True(t, ok)
	assert.Equal(t, core.ResultRejected, res.Status)
	assert.Equal(t, "already enrolled", res.Reason)
}

func TestInvitationCarriesOptLinks(t *testing.T) {
	f := newEngineFixture(t, defaultTestConfig())
	f.seedRepo(t, "repo-1", "owner-1")

	_, err := f.engine.Distribute(context.Background(), "repo-1", []string{"alice@corp.example"}, "user-1")
	require.NoError(t, err)

	require.Len(t, f.sender.sent, 1)
	invite := f.sender.sent[0]
	assert.Equal(t, "Daily Dispatch", invite.RepositoryName)
	assert.Contains(t, invite.OptInURL, "https://news.example/repositories/repo-1/opt-in?email=")
	assert.Contains(t, invite.OptOutURL, "https://news.example/opt-out?token=")
	assert.Contains(t, invite.OptInURL, "alice%40corp.example")
}
