package core_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pressroom/snowball/internal/core"
)

// seedVerified inserts an already-verified snowball entry directly
func (f *engineFixture) seedVerified(t *testing.T, repoID, email, addedBy string, addedAt time.Time, reach int) {
	t.Helper()
	inserted, err := f.store.InsertIfAbsent(context.Background(), &core.EmailEntry{
		RepositoryID: repoID,
		Email:        email,
		Source:       core.SourceSnowball,
		Status:       core.StatusVerified,
		QualityScore: 0.8,
		Contribution: &core.Contribution{PotentialReach: reach},
		AddedBy:      addedBy,
		AddedAt:      addedAt,
		VerifiedAt:   addedAt,
	})
	if err != nil || !inserted {
		t.Fatalf("seeding verified entry %s: inserted=%v err=%v", email, inserted, err)
	}
}

func TestAnalyticsUnknownRepository(t *testing.T) {
	f := newEngineFixture(t, defaultTestConfig())

	_, err := f.engine.Analytics(context.Background(), "missing", 7, 5)

	assert.ErrorIs(t, err, core.ErrRepoNotFound)
}

func TestAnalyticsEmptyRepository(t *testing.T) {
	f := newEngineFixture(t, defaultTestConfig())
	f.seedRepo(t, "repo-1", "owner-1")

	report, err := f.engine.Analytics(context.Background(), "repo-1", 7, 5)
	require.NoError(t, err)

	// Zero invitations yield a zero rate, not a division error
	assert.Zero(t, report.ConversionRate)
	assert.Empty(t, report.TopContributors)
	assert.Zero(t, report.NetworkReach)

	require.Len(t, report.GrowthTimeline, 7)
	for _, day := range report.GrowthTimeline {
		assert.Zero(t, day.Count)
	}
}

func TestAnalyticsConversionAndReach(t *testing.T) {
	f := newEngineFixture(t, defaultTestConfig())
	f.seedRepo(t, "repo-1", "owner-1")

	now := time.Now().UTC()
	f.seedVerified(t, "repo-1", "a@corp.example", "user-a", now, 90)
	f.seedVerified(t, "repo-1", "b@corp.example", "user-b", now, 50)
	f.seedPending(t, "repo-1", "c@corp.example", "tok", now)

	report, err := f.engine.Analytics(context.Background(), "repo-1", 7, 5)
	require.NoError(t, err)

	// 2 verified of 3 snowball invitations
	assert.InDelta(t, 100.0*2/3, report.ConversionRate, 1e-9)
	assert.Equal(t, 140, report.NetworkReach)

	require.Len(t, report.TopContributors, 2)
	assert.Equal(t, "user-a", report.TopContributors[0].UserID)
	assert.Equal(t, 90, report.TopContributors[0].PotentialReach)
	assert.Equal(t, 1, report.TopContributors[0].VerifiedCount)
	assert.Equal(t, "user-b", report.TopContributors[1].UserID)
}

func TestAnalyticsTopContributorLimit(t *testing.T) {
	f := newEngineFixture(t, defaultTestConfig())
	f.seedRepo(t, "repo-1", "owner-1")

	now := time.Now().UTC()
	f.seedVerified(t, "repo-1", "a@corp.example", "user-a", now, 30)
	f.seedVerified(t, "repo-1", "b@corp.example", "user-b", now, 90)
	f.seedVerified(t, "repo-1", "c@corp.example", "user-c", now, 60)

	report, err := f.engine.Analytics(context.Background(), "repo-1", 7, 1)
	require.NoError(t, err)

	require.Len(t, report.TopContributors, 1)
	assert.Equal(t, "user-b", report.TopContributors[0].UserID)
}

func TestAnalyticsGrowthTimeline(t *testing.T) {
	f := newEngineFixture(t, defaultTestConfig())
	f.seedRepo(t, "repo-1", "owner-1")

	now := time.Now().UTC()
	f.seedVerified(t, "repo-1", "a@corp.example", "user-a", now, 10)
	f.seedVerified(t, "repo-1", "b@corp.example", "user-a", now, 10)
	f.seedVerified(t, "repo-1", "c@corp.example", "user-a", now.Add(-48*time.Hour), 10)
	// Outside the window entirely
	f.seedVerified(t, "repo-1", "d@corp.example", "user-a", now.AddDate(0, 0, -30), 10)

	report, err := f.engine.Analytics(context.Background(), "repo-1", 3, 5)
	require.NoError(t, err)

	require.Len(t, report.GrowthTimeline, 3)
	// Oldest first
	assert.True(t, report.GrowthTimeline[0].Day.Before(report.GrowthTimeline[2].Day))
	assert.Equal(t, 1, report.GrowthTimeline[0].Count)
	assert.Equal(t, 0, report.GrowthTimeline[1].Count)
	assert.Equal(t, 2, report.GrowthTimeline[2].Count)
}

func TestAnalyticsGrowthTimelineWindowMatchesBuckets(t *testing.T) {
	f := newEngineFixture(t, defaultTestConfig())
	f.seedRepo(t, "repo-1", "owner-1")

	now := time.Now().UTC()
	oldest := now.Truncate(24 * time.Hour).AddDate(0, 0, -2)
	// First instant of the oldest emitted day
	f.seedVerified(t, "repo-1", "a@corp.example", "user-a", oldest, 10)
	// Just before the oldest emitted day
	f.seedVerified(t, "repo-1", "b@corp.example", "user-a", oldest.Add(-time.Minute), 10)

	report, err := f.engine.Analytics(context.Background(), "repo-1", 3, 5)
	require.NoError(t, err)

	// The counting window starts exactly at the oldest bucket's midnight:
	// the boundary entry lands in the first bucket and nothing is counted
	// toward a day the timeline does not emit.
	require.Len(t, report.GrowthTimeline, 3)
	assert.Equal(t, oldest, report.GrowthTimeline[0].Day)
	assert.Equal(t, 1, report.GrowthTimeline[0].Count)

	var total int
	for _, day := range report.GrowthTimeline {
		total += day.Count
	}
	assert.Equal(t, 1, total)
}
