package store

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pressroom/snowball/internal/core"
)

// MemoryStore is an in-memory implementation of the EntryStore and EventLog
// ports, used for development and tests
type MemoryStore struct {
	mu      sync.RWMutex
	repos   map[string]*core.Repository
	entries map[string]map[string]*core.EmailEntry
	events  []*core.SnowballEvent
	logger  *zap.Logger
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore(logger *zap.Logger) *MemoryStore {
	return &MemoryStore{
		repos:   make(map[string]*core.Repository),
		entries: make(map[string]map[string]*core.EmailEntry),
		logger:  logger,
	}
}

// GetRepository returns the repository record or core.ErrRepoNotFound
func (s *MemoryStore) GetRepository(ctx context.Context, repoID string) (*core.Repository, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	repo, ok := s.repos[repoID]
	if !ok {
		return nil, core.ErrRepoNotFound
	}
	clone := *repo
	return &clone, nil
}

// PutRepository creates or replaces a repository record
func (s *MemoryStore) PutRepository(ctx context.Context, repo *core.Repository) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *repo
	s.repos[repo.ID] = &clone
	return nil
}

// FindEntry returns the entry for a normalized email or core.ErrNotFound
func (s *MemoryStore) FindEntry(ctx context.Context, repoID, email string) (*core.EmailEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[repoID][email]
	if !ok {
		return nil, core.ErrNotFound
	}
	return copyEntry(entry), nil
}

// InsertIfAbsent stores the entry unless (repository, email) already exists
func (s *MemoryStore) InsertIfAbsent(ctx context.Context, entry *core.EmailEntry) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byEmail, ok := s.entries[entry.RepositoryID]
	if !ok {
		byEmail = make(map[string]*core.EmailEntry)
		s.entries[entry.RepositoryID] = byEmail
	}
	if _, exists := byEmail[entry.Email]; exists {
		return false, nil
	}
	byEmail[entry.Email] = copyEntry(entry)
	return true, nil
}

// ConditionalTransition applies req atomically under the store lock
func (s *MemoryStore) ConditionalTransition(ctx context.Context, req core.TransitionRequest) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[req.RepositoryID][req.Email]
	if !ok || entry.Status != req.From || entry.VerificationToken != req.Token {
		return false, nil
	}

	entry.Status = req.To
	entry.VerificationToken = ""
	if req.To == core.StatusVerified {
		entry.VerifiedAt = req.At
		if req.Contribution != nil {
			contrib := *req.Contribution
			entry.Contribution = &contrib
		}
	}
	return true, nil
}

// ListEntries returns entries of a repository matching the filter
func (s *MemoryStore) ListEntries(ctx context.Context, repoID string, filter core.EntryFilter) ([]*core.EmailEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*core.EmailEntry
	for _, entry := range s.entries[repoID] {
		if matchFilter(entry, filter) {
			matched = append(matched, copyEntry(entry))
		}
	}
	return matched, nil
}

// CountEntries counts entries of a repository matching the filter
func (s *MemoryStore) CountEntries(ctx context.Context, repoID string, filter core.EntryFilter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	for _, entry := range s.entries[repoID] {
		if matchFilter(entry, filter) {
			count++
		}
	}
	return count, nil
}

// ApplyBatchStats bumps the repository invite counters after a run
func (s *MemoryStore) ApplyBatchStats(ctx context.Context, repoID string, invitesSent int, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	repo, ok := s.repos[repoID]
	if !ok {
		return core.ErrRepoNotFound
	}
	repo.TotalInvitesSent += invitesSent
	repo.SnowballGrowth += invitesSent
	repo.LastSnowballAt = at
	return nil
}

// RecountVerified recomputes and persists the verified-member count
func (s *MemoryStore) RecountVerified(ctx context.Context, repoID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	repo, ok := s.repos[repoID]
	if !ok {
		return 0, core.ErrRepoNotFound
	}
	var count int
	for _, entry := range s.entries[repoID] {
		if entry.Status == core.StatusVerified {
			count++
		}
	}
	repo.VerifiedCount = count
	return count, nil
}

// ClaimBonus consumes the bonus window; exactly one caller wins per window
func (s *MemoryStore) ClaimBonus(ctx context.Context, repoID string, window time.Duration, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	repo, ok := s.repos[repoID]
	if !ok {
		return false, core.ErrRepoNotFound
	}
	if !repo.LastBonusAt.IsZero() && now.Sub(repo.LastBonusAt) < window {
		return false, nil
	}
	repo.LastBonusAt = now
	return true, nil
}

// Record appends an audit event
func (s *MemoryStore) Record(ctx context.Context, event *core.SnowballEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *event
	s.events = append(s.events, &clone)
	return nil
}

// List returns the recorded events of a repository, oldest first
func (s *MemoryStore) List(ctx context.Context, repoID string) ([]*core.SnowballEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*core.SnowballEvent
	for _, event := range s.events {
		if event.RepositoryID == repoID {
			clone := *event
			matched = append(matched, &clone)
		}
	}
	return matched, nil
}

func matchFilter(entry *core.EmailEntry, filter core.EntryFilter) bool {
	if filter.Status != "" && entry.Status != filter.Status {
		return false
	}
	if filter.Source != "" && entry.Source != filter.Source {
		return false
	}
	if !filter.AddedAfter.IsZero() && !entry.AddedAt.After(filter.AddedAfter) {
		return false
	}
	if !filter.AddedBefore.IsZero() && !entry.AddedAt.Before(filter.AddedBefore) {
		return false
	}
	if !filter.VerifiedAfter.IsZero() && !entry.VerifiedAt.After(filter.VerifiedAfter) {
		return false
	}
	return true
}

func copyEntry(entry *core.EmailEntry) *core.EmailEntry {
	clone := *entry
	if entry.Contribution != nil {
		contrib := *entry.Contribution
		clone.Contribution = &contrib
	}
	return &clone
}
