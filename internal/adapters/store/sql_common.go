package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/pressroom/snowball/internal/core"
)

// entryColumns is the canonical select list for email_entries
const entryColumns = `repository_id, email, source, status, quality_score,
	verification_token, token_issued_at, potential_reach,
	domain_quality_score, estimated_growth, added_by, added_at, verified_at`

// scanner covers both *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (*core.EmailEntry, error) {
	var (
		entry         core.EmailEntry
		source        string
		status        string
		token         sql.NullString
		tokenIssuedAt sql.NullString
		reach         sql.NullInt64
		quality       sql.NullFloat64
		growth        sql.NullFloat64
		addedAt       string
		verifiedAt    sql.NullString
	)
	err := row.Scan(&entry.RepositoryID, &entry.Email, &source, &status,
		&entry.QualityScore, &token, &tokenIssuedAt, &reach, &quality,
		&growth, &entry.AddedBy, &addedAt, &verifiedAt)
	if err != nil {
		return nil, err
	}

	entry.Source = core.Source(source)
	entry.Status = core.Status(status)
	entry.VerificationToken = token.String
	entry.TokenIssuedAt = parseTime(tokenIssuedAt.String)
	entry.AddedAt = parseTime(addedAt)
	entry.VerifiedAt = parseTime(verifiedAt.String)
	if reach.Valid {
		entry.Contribution = &core.Contribution{
			PotentialReach:     int(reach.Int64),
			DomainQualityScore: quality.Float64,
			EstimatedGrowth:    growth.Float64,
		}
	}
	return &entry, nil
}

func scanRepository(row scanner) (*core.Repository, error) {
	var (
		repo           core.Repository
		description    sql.NullString
		topPosts       sql.NullString
		lastSnowballAt sql.NullString
		lastBonusAt    sql.NullString
	)
	err := row.Scan(&repo.ID, &repo.OwnerID, &repo.Name, &description,
		&topPosts, &repo.TotalInvitesSent, &repo.SnowballGrowth,
		&repo.VerifiedCount, &lastSnowballAt, &lastBonusAt)
	if err == sql.ErrNoRows {
		return nil, core.ErrRepoNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load repository: %w", err)
	}

	repo.Description = description.String
	if topPosts.String != "" {
		repo.TopPosts = strings.Split(topPosts.String, "\n")
	}
	repo.LastSnowballAt = parseTime(lastSnowballAt.String)
	repo.LastBonusAt = parseTime(lastBonusAt.String)
	return &repo, nil
}

func scanEvent(row scanner) (*core.SnowballEvent, error) {
	var (
		event      core.SnowballEvent
		occurredAt string
	)
	err := row.Scan(&event.BatchID, &event.RepositoryID, &event.InitiatorID,
		&event.Sent, &event.Failed, &occurredAt)
	if err != nil {
		return nil, err
	}
	event.OccurredAt = parseTime(occurredAt)
	return &event, nil
}

func insertArgs(entry *core.EmailEntry) []any {
	var reach sql.NullInt64
	var quality, growth sql.NullFloat64
	if entry.Contribution != nil {
		reach = sql.NullInt64{Int64: int64(entry.Contribution.PotentialReach), Valid: true}
		quality = sql.NullFloat64{Float64: entry.Contribution.DomainQualityScore, Valid: true}
		growth = sql.NullFloat64{Float64: entry.Contribution.EstimatedGrowth, Valid: true}
	}
	return []any{
		entry.RepositoryID, entry.Email, string(entry.Source), string(entry.Status),
		entry.QualityScore, nullString(entry.VerificationToken),
		nullTime(entry.TokenIssuedAt), reach, quality, growth,
		entry.AddedBy, formatTime(entry.AddedAt), nullTime(entry.VerifiedAt),
	}
}

func transitionArgs(req core.TransitionRequest) []any {
	var reach sql.NullInt64
	var quality, growth sql.NullFloat64
	var verifiedAt sql.NullString
	if req.To == core.StatusVerified {
		verifiedAt = sql.NullString{String: formatTime(req.At), Valid: true}
		if req.Contribution != nil {
			reach = sql.NullInt64{Int64: int64(req.Contribution.PotentialReach), Valid: true}
			quality = sql.NullFloat64{Float64: req.Contribution.DomainQualityScore, Valid: true}
			growth = sql.NullFloat64{Float64: req.Contribution.EstimatedGrowth, Valid: true}
		}
	}
	return []any{
		string(req.To), reach, quality, growth, verifiedAt,
		req.RepositoryID, req.Email, req.Token, string(req.From),
	}
}

// filterClause builds the WHERE clause for ListEntries/CountEntries.
// Timestamps are stored as fixed-width UTC strings, so text comparison
// matches time order.
func filterClause(repoID string, filter core.EntryFilter) (string, []any) {
	clauses := []string{"repository_id = ?"}
	args := []any{repoID}

	if filter.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.Source != "" {
		clauses = append(clauses, "source = ?")
		args = append(args, string(filter.Source))
	}
	if !filter.AddedAfter.IsZero() {
		clauses = append(clauses, "added_at > ?")
		args = append(args, formatTime(filter.AddedAfter))
	}
	if !filter.AddedBefore.IsZero() {
		clauses = append(clauses, "added_at < ?")
		args = append(args, formatTime(filter.AddedBefore))
	}
	if !filter.VerifiedAfter.IsZero() {
		clauses = append(clauses, "verified_at IS NOT NULL AND verified_at > ?")
		args = append(args, formatTime(filter.VerifiedAfter))
	}

	return strings.Join(clauses, " AND "), args
}

// sqlTimeLayout is RFC 3339 with the nanoseconds padded to nine digits.
// RFC3339Nano trims trailing fractional zeros, which breaks lexical
// ordering within a second; the fixed width keeps every timestamp the
// same length so text comparison matches time order.
const sqlTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(sqlTimeLayout)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullTime(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(t), Valid: true}
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
