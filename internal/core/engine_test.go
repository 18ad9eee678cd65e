package core_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/pressroom/snowball/internal/adapters/store"
	"github.com/pressroom/snowball/internal/blocklist"
	"github.com/pressroom/snowball/internal/core"
)

// fakeVerifier returns a canned assessment for every domain
type fakeVerifier struct {
	verified  bool
	authority float64
	err       error
}

func (f *fakeVerifier) VerifyDomain(ctx context.Context, domain string) (*core.DomainAssessment, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &core.DomainAssessment{
		Domain:    domain,
		Verified:  f.verified,
		Authority: f.authority,
		CheckedAt: time.Now().UTC(),
	}, nil
}

// fakeSender records invitations and can fail selected recipients
type fakeSender struct {
	mu      sync.Mutex
	sent    []*core.Invitation
	failFor map[string]bool
}

func (f *fakeSender) Send(ctx context.Context, invite *core.Invitation) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor[invite.To] {
		return "", errors.New("smtp unavailable")
	}
	f.sent = append(f.sent, invite)
	return "msg-" + invite.To, nil
}

func (f *fakeSender) sentTo() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.sent))
	for _, inv := range f.sent {
		out = append(out, inv.To)
	}
	return out
}

// fakeKarma records awarded bonuses
type fakeKarma struct {
	mu     sync.Mutex
	awards []string
}

func (f *fakeKarma) AwardBonus(ctx context.Context, userID, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.awards = append(f.awards, userID)
	return nil
}

func (f *fakeKarma) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.awards)
}

type engineFixture struct {
	engine   *core.SnowballService
	store    *store.MemoryStore
	sender   *fakeSender
	karma    *fakeKarma
	verifier *fakeVerifier
	cfg      core.EngineConfig
}

func defaultTestConfig() core.EngineConfig {
	return core.EngineConfig{
		MinQualityScore:    0.7,
		MaxBatchSize:       100,
		SnowballMultiplier: 1.5,
		VerificationExpiry: 168 * time.Hour,
		BonusThreshold:     10,
		BonusWindow:        24 * time.Hour,
		MaxConcurrentSends: 4,
		SendTimeout:        2 * time.Second,
		PublicBaseURL:      "https://news.example",
	}
}

func newEngineFixture(t *testing.T, cfg core.EngineConfig) *engineFixture {
	t.Helper()

	logger := zap.NewNop()
	st := store.NewMemoryStore(logger)
	sender := &fakeSender{failFor: make(map[string]bool)}
	karma := &fakeKarma{}
	verifier := &fakeVerifier{verified: true, authority: 0.7}
	bl := blocklist.NewChecker(nil, nil, nil, nil, logger)

	validator := core.NewCandidateValidator(bl, verifier, cfg, logger)
	builder := core.NewBatchBuilder(cfg, logger)
	engine := core.NewSnowballService(st, st, sender, karma, verifier, bl, validator, builder, cfg, logger)

	return &engineFixture{
		engine:   engine,
		store:    st,
		sender:   sender,
		karma:    karma,
		verifier: verifier,
		cfg:      cfg,
	}
}

func (f *engineFixture) seedRepo(t *testing.T, id, owner string) {
	t.Helper()
	err := f.store.PutRepository(context.Background(), &core.Repository{
		ID:      id,
		OwnerID: owner,
		Name:    "Daily Dispatch",
	})
	if err != nil {
		t.Fatalf("seeding repository: %v", err)
	}
}

// seedPending enrolls a pending entry directly, bypassing dispatch
func (f *engineFixture) seedPending(t *testing.T, repoID, email, token string, issuedAt time.Time) {
	t.Helper()
	inserted, err := f.store.InsertIfAbsent(context.Background(), &core.EmailEntry{
		RepositoryID:      repoID,
		Email:             email,
		Source:            core.SourceSnowball,
		Status:            core.StatusPending,
		QualityScore:      0.8,
		VerificationToken: token,
		TokenIssuedAt:     issuedAt,
		AddedBy:           "inviter-1",
		AddedAt:           issuedAt,
	})
	if err != nil || !inserted {
		t.Fatalf("seeding pending entry %s: inserted=%v err=%v", email, inserted, err)
	}
}
