package core

import (
	"context"
	"time"
)

// TransitionRequest describes one conditional state transition.
// The store applies it atomically: the entry must still match
// (RepositoryID, Email, Token) and be in the From status, otherwise
// the transition is refused. Leaving pending always clears the token.
type TransitionRequest struct {
	RepositoryID string
	Email        string
	Token        string
	From         Status
	To           Status
	Contribution *Contribution
	At           time.Time
}

// EntryFilter narrows ListEntries/CountEntries results.
// Zero values match everything.
type EntryFilter struct {
	Status        Status
	Source        Source
	AddedAfter    time.Time
	AddedBefore   time.Time
	VerifiedAfter time.Time
}

// EntryStore is the persistence port for repositories and their email entries.
// The (repository, email) pair is the single shared mutable resource; all
// mutations go through the insert-if-absent and conditional-transition
// operations so concurrent runs cannot double-enroll an address.
type EntryStore interface {
	// GetRepository returns the repository record or ErrRepoNotFound
	GetRepository(ctx context.Context, repoID string) (*Repository, error)

	// PutRepository creates or replaces a repository record
	PutRepository(ctx context.Context, repo *Repository) error

	// FindEntry returns the entry for a normalized email or ErrNotFound
	FindEntry(ctx context.Context, repoID, email string) (*EmailEntry, error)

	// InsertIfAbsent stores the entry unless one already exists for
	// (repository, email). It reports whether the insert happened.
	InsertIfAbsent(ctx context.Context, entry *EmailEntry) (bool, error)

	// ConditionalTransition applies req atomically and reports whether
	// the guarded update matched
	ConditionalTransition(ctx context.Context, req TransitionRequest) (bool, error)

	// ListEntries returns entries of a repository matching the filter
	ListEntries(ctx context.Context, repoID string, filter EntryFilter) ([]*EmailEntry, error)

	// CountEntries counts entries of a repository matching the filter
	CountEntries(ctx context.Context, repoID string, filter EntryFilter) (int, error)

	// ApplyBatchStats bumps the repository invite counters after a run
	ApplyBatchStats(ctx context.Context, repoID string, invitesSent int, at time.Time) error

	// RecountVerified recomputes the repository verified-member count from
	// current verified entries and persists it
	RecountVerified(ctx context.Context, repoID string) (int, error)

	// ClaimBonus marks the bonus window as consumed if no bonus was awarded
	// within the trailing window. Exactly one caller wins per window.
	ClaimBonus(ctx context.Context, repoID string, window time.Duration, now time.Time) (bool, error)
}

// EventLog records append-only snowball audit events
type EventLog interface {
	// Record appends an event. Events are never updated afterwards.
	Record(ctx context.Context, event *SnowballEvent) error

	// List returns the recorded events of a repository, oldest first
	List(ctx context.Context, repoID string) ([]*SnowballEvent, error)
}

// EmailSender is the external email-sending collaborator
type EmailSender interface {
	// Send dispatches one invitation and returns the provider message ID
	Send(ctx context.Context, invite *Invitation) (string, error)
}

// KarmaService is the external reputation collaborator
type KarmaService interface {
	// AwardBonus credits a one-time bonus to a user
	AwardBonus(ctx context.Context, userID, reason string) error
}

// DomainVerifier is the pluggable domain verification strategy used both for
// candidate scoring and for the domain-quality part of a growth contribution
type DomainVerifier interface {
	// VerifyDomain assesses a bare domain (no local part)
	VerifyDomain(ctx context.Context, domain string) (*DomainAssessment, error)
}
