package core

import (
	"context"
	"sort"
	"time"
)

// Analytics computes the read-side growth summary for a repository over the
// trailing number of days. It never mutates tracked state; a slightly stale
// snapshot is acceptable.
func (s *SnowballService) Analytics(ctx context.Context, repoID string, days, topLimit int) (*AnalyticsReport, error) {
	if _, err := s.store.GetRepository(ctx, repoID); err != nil {
		return nil, err
	}

	snowball, err := s.store.ListEntries(ctx, repoID, EntryFilter{Source: SourceSnowball})
	if err != nil {
		return nil, err
	}

	verified, err := s.store.ListEntries(ctx, repoID, EntryFilter{Status: StatusVerified})
	if err != nil {
		return nil, err
	}

	return &AnalyticsReport{
		ConversionRate:  conversionRate(snowball),
		TopContributors: topContributors(snowball, topLimit),
		GrowthTimeline:  growthTimeline(snowball, days, time.Now().UTC()),
		NetworkReach:    networkReach(verified),
	}, nil
}

// conversionRate is verified-over-invited for snowball-sourced entries, in
// percent. Zero invitations yield zero, not a division error.
func conversionRate(snowball []*EmailEntry) float64 {
	if len(snowball) == 0 {
		return 0
	}
	var verified int
	for _, entry := range snowball {
		if entry.Status == StatusVerified {
			verified++
		}
	}
	return float64(verified) / float64(len(snowball)) * 100
}

// topContributors ranks inviters by the summed potential reach of their
// verified snowball entries
func topContributors(snowball []*EmailEntry, limit int) []ContributorStat {
	byUser := make(map[string]*ContributorStat)
	for _, entry := range snowball {
		if entry.Status != StatusVerified {
			continue
		}
		stat, ok := byUser[entry.AddedBy]
		if !ok {
			stat = &ContributorStat{UserID: entry.AddedBy}
			byUser[entry.AddedBy] = stat
		}
		stat.VerifiedCount++
		if entry.Contribution != nil {
			stat.PotentialReach += entry.Contribution.PotentialReach
		}
	}

	ranked := make([]ContributorStat, 0, len(byUser))
	for _, stat := range byUser {
		ranked = append(ranked, *stat)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].PotentialReach != ranked[j].PotentialReach {
			return ranked[i].PotentialReach > ranked[j].PotentialReach
		}
		return ranked[i].UserID < ranked[j].UserID
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// growthTimeline buckets snowball entries per calendar day, oldest first.
// The window starts at midnight UTC of the oldest emitted day, so every
// counted entry lands in an emitted bucket. Days without additions appear
// with a zero count.
func growthTimeline(snowball []*EmailEntry, days int, now time.Time) []DayCount {
	if days <= 0 {
		return nil
	}

	start := now.UTC().Truncate(24 * time.Hour).AddDate(0, 0, -(days - 1))
	counts := make(map[time.Time]int)
	for _, entry := range snowball {
		if entry.AddedAt.Before(start) || entry.AddedAt.After(now) {
			continue
		}
		day := entry.AddedAt.UTC().Truncate(24 * time.Hour)
		counts[day]++
	}

	timeline := make([]DayCount, 0, days)
	for i := 0; i < days; i++ {
		day := start.AddDate(0, 0, i)
		timeline = append(timeline, DayCount{Day: day, Count: counts[day]})
	}
	return timeline
}

// networkReach sums potential reach across all verified entries
func networkReach(verified []*EmailEntry) int {
	var total int
	for _, entry := range verified {
		if entry.Contribution != nil {
			total += entry.Contribution.PotentialReach
		}
	}
	return total
}
