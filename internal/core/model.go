package core

import (
	"time"
)

// Source indicates how an email address entered a repository
type Source string

const (
	SourceManual   Source = "manual"
	SourceCSV      Source = "csv"
	SourceSnowball Source = "snowball"
	SourceAPI      Source = "api"
)

// Status is the lifecycle state of a repository email entry
type Status string

const (
	StatusPending     Status = "pending"
	StatusVerified    Status = "verified"
	StatusExpired     Status = "expired"
	StatusBlacklisted Status = "blacklisted"
	StatusOptedOut    Status = "opted_out"
)

// Terminal reports whether no further automatic transitions are allowed
func (s Status) Terminal() bool {
	return s != StatusPending
}

// Contribution is the growth contribution computed when an entry is verified
type Contribution struct {
	PotentialReach     int
	DomainQualityScore float64
	EstimatedGrowth    float64
}

// EmailEntry is one email address tracked within one repository.
// The email is stored normalized (lowercase) and is unique per repository.
// VerificationToken is present only while the entry is pending.
type EmailEntry struct {
	RepositoryID      string
	Email             string
	Source            Source
	Status            Status
	QualityScore      float64
	VerificationToken string
	TokenIssuedAt     time.Time
	Contribution      *Contribution
	AddedBy           string
	AddedAt           time.Time
	VerifiedAt        time.Time
}

// Repository is the owning collection an email entry belongs to,
// plus the counters maintained by snowball runs
type Repository struct {
	ID               string
	OwnerID          string
	Name             string
	Description      string
	TopPosts         []string
	TotalInvitesSent int
	SnowballGrowth   int
	VerifiedCount    int
	LastSnowballAt   time.Time
	LastBonusAt      time.Time
}

// Candidate is an email address that passed validation and scoring
type Candidate struct {
	Email        string
	QualityScore float64
}

// RejectedCandidate records why a raw candidate was excluded from a run
type RejectedCandidate struct {
	Email  string
	Reason string
}

// BatchCandidate is a candidate included in a distribution batch,
// carrying its single-use verification token
type BatchCandidate struct {
	Email        string
	QualityScore float64
	Token        string
}

// Batch is one snowball distribution run
type Batch struct {
	ID           string
	RepositoryID string
	InitiatorID  string
	CreatedAt    time.Time
	Candidates   []BatchCandidate
}

// SnowballEvent is the append-only audit record of a batch outcome.
// It is never mutated after being recorded.
type SnowballEvent struct {
	BatchID      string
	RepositoryID string
	InitiatorID  string
	Sent         int
	Failed       int
	OccurredAt   time.Time
}

// ResultStatus classifies the outcome of a single candidate within a run
type ResultStatus string

const (
	ResultSent     ResultStatus = "sent"
	ResultFailed   ResultStatus = "failed"
	ResultRejected ResultStatus = "rejected"
	ResultDeferred ResultStatus = "deferred"
)

// EmailResult is the per-candidate outcome of a distribution run
type EmailResult struct {
	Email  string
	Status ResultStatus
	Reason string
}

// DistributeResult is the aggregate outcome of one distribution run.
// Sent and Failed count dispatch outcomes only; rejected and deferred
// candidates appear in Results but never abort the batch.
type DistributeResult struct {
	BatchID string
	Sent    int
	Failed  int
	Results []EmailResult
}

// ContributorStat is one entry of the top-contributors ranking
type ContributorStat struct {
	UserID         string
	VerifiedCount  int
	PotentialReach int
}

// DayCount is one point of the growth timeline
type DayCount struct {
	Day   time.Time
	Count int
}

// AnalyticsReport is the read-side growth summary for a repository
type AnalyticsReport struct {
	ConversionRate  float64
	TopContributors []ContributorStat
	GrowthTimeline  []DayCount
	NetworkReach    int
}

// Invitation is the structured payload handed to the email sender
type Invitation struct {
	To                    string
	RepositoryID          string
	RepositoryName        string
	RepositoryDescription string
	TopPosts              []string
	InviterID             string
	OptInURL              string
	OptOutURL             string
}

// DomainAssessment is the result of a pluggable domain verification check
type DomainAssessment struct {
	Domain      string
	Verified    bool
	Authority   float64
	Explanation string
	CheckedAt   time.Time
}
