package core_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pressroom/snowball/internal/core"
)

func acceptedCandidates(n int) []core.Candidate {
	cands := make([]core.Candidate, 0, n)
	for i := 0; i < n; i++ {
		cands = append(cands, core.Candidate{
			Email:        fmt.Sprintf("user%03d@corp.example", i),
			QualityScore: 0.8,
		})
	}
	return cands
}

func TestBuildWithinCap(t *testing.T) {
	cfg := defaultTestConfig()
	builder := core.NewBatchBuilder(cfg, zap.NewNop())

	now := time.Now().UTC()
	batch, deferred, err := builder.Build("repo-1", "user-1", acceptedCandidates(10), now)

	require.NoError(t, err)
	assert.Empty(t, deferred)
	assert.NotEmpty(t, batch.ID)
	assert.Equal(t, "repo-1", batch.RepositoryID)
	assert.Equal(t, "user-1", batch.InitiatorID)
	assert.Equal(t, now, batch.CreatedAt)
	assert.Len(t, batch.Candidates, 10)
}

func TestBuildTruncatesAtCap(t *testing.T) {
	cfg := defaultTestConfig()
	builder := core.NewBatchBuilder(cfg, zap.NewNop())

	batch, deferred, err := builder.Build("repo-1", "user-1", acceptedCandidates(150), time.Now().UTC())

	require.NoError(t, err)
	assert.Len(t, batch.Candidates, 100)
	assert.Len(t, deferred, 50)

	// Input order survives truncation: the first 100 go out, the rest wait.
	assert.Equal(t, "user000@corp.example", batch.Candidates[0].Email)
	assert.Equal(t, "user099@corp.example", batch.Candidates[99].Email)
	assert.Equal(t, "user100@corp.example", deferred[0].Email)
}

func TestBuildIssuesUniqueTokens(t *testing.T) {
	cfg := defaultTestConfig()
	builder := core.NewBatchBuilder(cfg, zap.NewNop())

	batch, _, err := builder.Build("repo-1", "user-1", acceptedCandidates(50), time.Now().UTC())
	require.NoError(t, err)

	seen := make(map[string]struct{}, len(batch.Candidates))
	for _, cand := range batch.Candidates {
		require.Len(t, cand.Token, 64) // 32 random bytes, hex encoded
		_, dup := seen[cand.Token]
		require.False(t, dup, "token reused for %s", cand.Email)
		seen[cand.Token] = struct{}{}
	}
}
