package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/pressroom/snowball/internal/core"
)

// SQLiteStore is a SQLite implementation of the EntryStore and EventLog
// ports. The (repository_id, email) primary key enforces at-most-once
// enrollment and state transitions run as single guarded updates.
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteStore opens (and if needed initializes) a SQLite-backed store
func NewSQLiteStore(dbPath string, logger *zap.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db, logger: logger}, nil
}

func initSchema(db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS repositories (
			id TEXT PRIMARY KEY,
			owner_id TEXT NOT NULL,
			name TEXT NOT NULL,
			description TEXT,
			top_posts TEXT,
			total_invites_sent INTEGER NOT NULL DEFAULT 0,
			snowball_growth INTEGER NOT NULL DEFAULT 0,
			verified_count INTEGER NOT NULL DEFAULT 0,
			last_snowball_at TEXT,
			last_bonus_at TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS email_entries (
			repository_id TEXT NOT NULL,
			email TEXT NOT NULL,
			source TEXT NOT NULL,
			status TEXT NOT NULL,
			quality_score REAL NOT NULL,
			verification_token TEXT,
			token_issued_at TEXT,
			potential_reach INTEGER,
			domain_quality_score REAL,
			estimated_growth REAL,
			added_by TEXT NOT NULL,
			added_at TEXT NOT NULL,
			verified_at TEXT,
			PRIMARY KEY (repository_id, email)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_entries_status ON email_entries(repository_id, status)`,
		`CREATE TABLE IF NOT EXISTS snowball_events (
			batch_id TEXT PRIMARY KEY,
			repository_id TEXT NOT NULL,
			initiator_id TEXT NOT NULL,
			sent INTEGER NOT NULL,
			failed INTEGER NOT NULL,
			occurred_at TEXT NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}
	return nil
}

// GetRepository returns the repository record or core.ErrRepoNotFound
func (s *SQLiteStore) GetRepository(ctx context.Context, repoID string) (*core.Repository, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, name, description, top_posts,
		       total_invites_sent, snowball_growth, verified_count,
		       last_snowball_at, last_bonus_at
		FROM repositories WHERE id = ?
	`, repoID)
	return scanRepository(row)
}

// PutRepository creates or replaces a repository record
func (s *SQLiteStore) PutRepository(ctx context.Context, repo *core.Repository) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO repositories
			(id, owner_id, name, description, top_posts,
			 total_invites_sent, snowball_growth, verified_count,
			 last_snowball_at, last_bonus_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, repo.ID, repo.OwnerID, repo.Name, repo.Description,
		strings.Join(repo.TopPosts, "\n"),
		repo.TotalInvitesSent, repo.SnowballGrowth, repo.VerifiedCount,
		nullTime(repo.LastSnowballAt), nullTime(repo.LastBonusAt))
	if err != nil {
		return fmt.Errorf("failed to store repository: %w", err)
	}
	return nil
}

// FindEntry returns the entry for a normalized email or core.ErrNotFound
func (s *SQLiteStore) FindEntry(ctx context.Context, repoID, email string) (*core.EmailEntry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+entryColumns+`
		FROM email_entries WHERE repository_id = ? AND email = ?
	`, repoID, email)

	entry, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, core.ErrNotFound
	}
	return entry, err
}

// InsertIfAbsent stores the entry unless (repository, email) already exists
func (s *SQLiteStore) InsertIfAbsent(ctx context.Context, entry *core.EmailEntry) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO email_entries
			(repository_id, email, source, status, quality_score,
			 verification_token, token_issued_at, potential_reach,
			 domain_quality_score, estimated_growth, added_by, added_at, verified_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, insertArgs(entry)...)
	if err != nil {
		return false, fmt.Errorf("failed to insert entry: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// ConditionalTransition applies req as one guarded UPDATE so only one of two
// concurrent confirmations can win
func (s *SQLiteStore) ConditionalTransition(ctx context.Context, req core.TransitionRequest) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE email_entries
		SET status = ?, verification_token = NULL,
		    potential_reach = ?, domain_quality_score = ?, estimated_growth = ?,
		    verified_at = ?
		WHERE repository_id = ? AND email = ?
		  AND verification_token = ? AND status = ?
	`, transitionArgs(req)...)
	if err != nil {
		return false, fmt.Errorf("failed to transition entry: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// ListEntries returns entries of a repository matching the filter
func (s *SQLiteStore) ListEntries(ctx context.Context, repoID string, filter core.EntryFilter) ([]*core.EmailEntry, error) {
	clause, args := filterClause(repoID, filter)
	rows, err := s.db.QueryContext(ctx, `SELECT `+entryColumns+` FROM email_entries WHERE `+clause, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	defer rows.Close()

	var entries []*core.EmailEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// CountEntries counts entries of a repository matching the filter
func (s *SQLiteStore) CountEntries(ctx context.Context, repoID string, filter core.EntryFilter) (int, error) {
	clause, args := filterClause(repoID, filter)
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM email_entries WHERE `+clause, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count entries: %w", err)
	}
	return count, nil
}

// ApplyBatchStats bumps the repository invite counters after a run
func (s *SQLiteStore) ApplyBatchStats(ctx context.Context, repoID string, invitesSent int, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE repositories
		SET total_invites_sent = total_invites_sent + ?,
		    snowball_growth = snowball_growth + ?,
		    last_snowball_at = ?
		WHERE id = ?
	`, invitesSent, invitesSent, formatTime(at), repoID)
	if err != nil {
		return fmt.Errorf("failed to update repository counters: %w", err)
	}
	return nil
}

// RecountVerified recomputes and persists the verified-member count
func (s *SQLiteStore) RecountVerified(ctx context.Context, repoID string) (int, error) {
	_, err := s.db.ExecContext(ctx, `
		UPDATE repositories
		SET verified_count = (
			SELECT COUNT(*) FROM email_entries
			WHERE repository_id = ? AND status = ?
		)
		WHERE id = ?
	`, repoID, string(core.StatusVerified), repoID)
	if err != nil {
		return 0, fmt.Errorf("failed to recount verified members: %w", err)
	}

	var count int
	err = s.db.QueryRowContext(ctx,
		`SELECT verified_count FROM repositories WHERE id = ?`, repoID).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// ClaimBonus consumes the bonus window; the guarded UPDATE lets exactly one
// caller win per window
func (s *SQLiteStore) ClaimBonus(ctx context.Context, repoID string, window time.Duration, now time.Time) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE repositories
		SET last_bonus_at = ?
		WHERE id = ? AND (last_bonus_at IS NULL OR last_bonus_at <= ?)
	`, formatTime(now), repoID, formatTime(now.Add(-window)))
	if err != nil {
		return false, fmt.Errorf("failed to claim bonus window: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// Record appends an audit event. The batch_id primary key keeps the log
// write-once.
func (s *SQLiteStore) Record(ctx context.Context, event *core.SnowballEvent) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO snowball_events
			(batch_id, repository_id, initiator_id, sent, failed, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, event.BatchID, event.RepositoryID, event.InitiatorID,
		event.Sent, event.Failed, formatTime(event.OccurredAt))
	if err != nil {
		return fmt.Errorf("failed to record event: %w", err)
	}
	return nil
}

// List returns the recorded events of a repository, oldest first
func (s *SQLiteStore) List(ctx context.Context, repoID string) ([]*core.SnowballEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT batch_id, repository_id, initiator_id, sent, failed, occurred_at
		FROM snowball_events WHERE repository_id = ? ORDER BY occurred_at
	`, repoID)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []*core.SnowballEvent
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
