package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pressroom/snowball/internal/core"
)

func newTestStore(t *testing.T) (*MemoryStore, context.Context) {
	t.Helper()
	return NewMemoryStore(zap.NewNop()), context.Background()
}

func pendingEntry(repoID, email, token string, at time.Time) *core.EmailEntry {
	return &core.EmailEntry{
		RepositoryID:      repoID,
		Email:             email,
		Source:            core.SourceSnowball,
		Status:            core.StatusPending,
		QualityScore:      0.8,
		VerificationToken: token,
		TokenIssuedAt:     at,
		AddedBy:           "user-1",
		AddedAt:           at,
	}
}

func TestRepositoryRoundTrip(t *testing.T) {
	s, ctx := newTestStore(t)

	_, err := s.GetRepository(ctx, "repo-1")
	assert.ErrorIs(t, err, core.ErrRepoNotFound)

	require.NoError(t, s.PutRepository(ctx, &core.Repository{ID: "repo-1", Name: "Dispatch"}))

	repo, err := s.GetRepository(ctx, "repo-1")
	require.NoError(t, err)
	assert.Equal(t, "Dispatch", repo.Name)

	// The store hands out copies, not aliases
	repo.Name = "mutated"
	again, err := s.GetRepository(ctx, "repo-1")
	require.NoError(t, err)
	assert.Equal(t, "Dispatch", again.Name)
}

func TestInsertIfAbsent(t *testing.T) {
	s, ctx := newTestStore(t)
	now := time.Now().UTC()

	inserted, err := s.InsertIfAbsent(ctx, pendingEntry("repo-1", "a@corp.example", "tok-1", now))
	require.NoError(t, err)
	assert.True(t, inserted)

	// Same (repository, email) never inserts twice
	inserted, err = s.InsertIfAbsent(ctx, pendingEntry("repo-1", "a@corp.example", "tok-2", now))
	require.NoError(t, err)
	assert.False(t, inserted)

	entry, err := s.FindEntry(ctx, "repo-1", "a@corp.example")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", entry.VerificationToken)

	// Same email in another repository is a distinct entry
	inserted, err = s.InsertIfAbsent(ctx, pendingEntry("repo-2", "a@corp.example", "tok-3", now))
	require.NoError(t, err)
	assert.True(t, inserted)
}

func TestConditionalTransitionGuards(t *testing.T) {
	s, ctx := newTestStore(t)
	now := time.Now().UTC()
	_, err := s.InsertIfAbsent(ctx, pendingEntry("repo-1", "a@corp.example", "tok-1", now))
	require.NoError(t, err)

	// Wrong token refuses
	ok, err := s.ConditionalTransition(ctx, core.TransitionRequest{
		RepositoryID: "repo-1", Email: "a@corp.example", Token: "bad",
		From: core.StatusPending, To: core.StatusVerified, At: now,
	})
	require.NoError(t, err)
	assert.False(t, ok)

	// Matching transition applies contribution and clears the token
	ok, err = s.ConditionalTransition(ctx, core.TransitionRequest{
		RepositoryID: "repo-1", Email: "a@corp.example", Token: "tok-1",
		From: core.StatusPending, To: core.StatusVerified,
		Contribution: &core.Contribution{PotentialReach: 42},
		At:           now,
	})
	require.NoError(t, err)
	assert.True(t, ok)

	entry, err := s.FindEntry(ctx, "repo-1", "a@corp.example")
	require.NoError(t, err)
	assert.Equal(t, core.StatusVerified, entry.Status)
	assert.Empty(t, entry.VerificationToken)
	require.NotNil(t, entry.Contribution)
	assert.Equal(t, 42, entry.Contribution.PotentialReach)

	// The consumed token never matches again
	ok, err = s.ConditionalTransition(ctx, core.TransitionRequest{
		RepositoryID: "repo-1", Email: "a@corp.example", Token: "tok-1",
		From: core.StatusPending, To: core.StatusVerified, At: now,
	})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestListAndCountEntriesFilters(t *testing.T) {
	s, ctx := newTestStore(t)
	now := time.Now().UTC()

	_, err := s.InsertIfAbsent(ctx, pendingEntry("repo-1", "a@corp.example", "tok-1", now))
	require.NoError(t, err)
	_, err = s.InsertIfAbsent(ctx, &core.EmailEntry{
		RepositoryID: "repo-1",
		Email:        "b@corp.example",
		Source:       core.SourceManual,
		Status:       core.StatusVerified,
		AddedAt:      now.Add(-48 * time.Hour),
		VerifiedAt:   now,
	})
	require.NoError(t, err)

	byStatus, err := s.ListEntries(ctx, "repo-1", core.EntryFilter{Status: core.StatusVerified})
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	assert.Equal(t, "b@corp.example", byStatus[0].Email)

	bySource, err := s.CountEntries(ctx, "repo-1", core.EntryFilter{Source: core.SourceSnowball})
	require.NoError(t, err)
	assert.Equal(t, 1, bySource)

	recent, err := s.CountEntries(ctx, "repo-1", core.EntryFilter{AddedAfter: now.Add(-time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, 1, recent)

	verifiedRecently, err := s.CountEntries(ctx, "repo-1", core.EntryFilter{
		Status:        core.StatusVerified,
		VerifiedAfter: now.Add(-time.Minute),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, verifiedRecently)
}

func TestRecountVerified(t *testing.T) {
	s, ctx := newTestStore(t)
	now := time.Now().UTC()
	require.NoError(t, s.PutRepository(ctx, &core.Repository{ID: "repo-1"}))

	for _, email := range []string{"a@corp.example", "b@corp.example"} {
		_, err := s.InsertIfAbsent(ctx, &core.EmailEntry{
			RepositoryID: "repo-1",
			Email:        email,
			Source:       core.SourceSnowball,
			Status:       core.StatusVerified,
			AddedAt:      now,
			VerifiedAt:   now,
		})
		require.NoError(t, err)
	}
	_, err := s.InsertIfAbsent(ctx, pendingEntry("repo-1", "c@corp.example", "tok", now))
	require.NoError(t, err)

	count, err := s.RecountVerified(ctx, "repo-1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	repo, err := s.GetRepository(ctx, "repo-1")
	require.NoError(t, err)
	assert.Equal(t, 2, repo.VerifiedCount)
}

func TestApplyBatchStats(t *testing.T) {
	s, ctx := newTestStore(t)
	now := time.Now().UTC()
	require.NoError(t, s.PutRepository(ctx, &core.Repository{ID: "repo-1"}))

	require.NoError(t, s.ApplyBatchStats(ctx, "repo-1", 5, now))
	require.NoError(t, s.ApplyBatchStats(ctx, "repo-1", 3, now.Add(time.Minute)))

	repo, err := s.GetRepository(ctx, "repo-1")
	require.NoError(t, err)
	assert.Equal(t, 8, repo.TotalInvitesSent)
	assert.Equal(t, 8, repo.SnowballGrowth)
	assert.Equal(t, now.Add(time.Minute), repo.LastSnowballAt)

	assert.ErrorIs(t, s.ApplyBatchStats(ctx, "missing", 1, now), core.ErrRepoNotFound)
}

func TestClaimBonusOncePerWindow(t *testing.T) {
	s, ctx := newTestStore(t)
	now := time.Now().UTC()
	window := 24 * time.Hour
	require.NoError(t, s.PutRepository(ctx, &core.Repository{ID: "repo-1"}))

	claimed, err := s.ClaimBonus(ctx, "repo-1", window, now)
	require.NoError(t, err)
	assert.True(t, claimed)

	// Within the window the claim refuses
	claimed, err = s.ClaimBonus(ctx, "repo-1", window, now.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, claimed)

	// Once the window has fully elapsed a new claim wins
	claimed, err = s.ClaimBonus(ctx, "repo-1", window, now.Add(window))
	require.NoError(t, err)
	assert.True(t, claimed)
}

func TestEventLogAppendsInOrder(t *testing.T) {
	s, ctx := newTestStore(t)
	now := time.Now().UTC()

	for i, batch := range []string{"batch-1", "batch-2"} {
		require.NoError(t, s.Record(ctx, &core.SnowballEvent{
			BatchID:      batch,
			RepositoryID: "repo-1",
			Sent:         i + 1,
			OccurredAt:   now.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, s.Record(ctx, &core.SnowballEvent{
		BatchID:      "batch-other",
		RepositoryID: "repo-2",
		OccurredAt:   now,
	}))

	events, err := s.List(ctx, "repo-1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "batch-1", events[0].BatchID)
	assert.Equal(t, "batch-2", events[1].BatchID)
}
