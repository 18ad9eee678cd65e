package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"github.com/pressroom/snowball/internal/core"
)

// MySQLStore is a MySQL implementation of the EntryStore and EventLog ports
type MySQLStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewMySQLStore connects to MySQL and initializes the schema
func NewMySQLStore(dsn string, logger *zap.Logger) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	statements := []string{
		`CREATE TABLE IF NOT EXISTS repositories (
			id VARCHAR(64) PRIMARY KEY,
			owner_id VARCHAR(64) NOT NULL,
			name VARCHAR(255) NOT NULL,
			description TEXT,
			top_posts TEXT,
			total_invites_sent INT NOT NULL DEFAULT 0,
			snowball_growth INT NOT NULL DEFAULT 0,
			verified_count INT NOT NULL DEFAULT 0,
			last_snowball_at VARCHAR(40),
			last_bonus_at VARCHAR(40)
		)`,
		`CREATE TABLE IF NOT EXISTS email_entries (
			repository_id VARCHAR(64) NOT NULL,
			email VARCHAR(320) NOT NULL,
			source VARCHAR(16) NOT NULL,
			status VARCHAR(16) NOT NULL,
			quality_score DOUBLE NOT NULL,
			verification_token VARCHAR(128),
			token_issued_at VARCHAR(40),
			potential_reach INT,
			domain_quality_score DOUBLE,
			estimated_growth DOUBLE,
			added_by VARCHAR(64) NOT NULL,
			added_at VARCHAR(40) NOT NULL,
			verified_at VARCHAR(40),
			PRIMARY KEY (repository_id, email),
			INDEX idx_entries_status (repository_id, status)
		)`,
		`CREATE TABLE IF NOT EXISTS snowball_events (
			batch_id VARCHAR(64) PRIMARY KEY,
			repository_id VARCHAR(64) NOT NULL,
			initiator_id VARCHAR(64) NOT NULL,
			sent INT NOT NULL,
			failed INT NOT NULL,
			occurred_at VARCHAR(40) NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to initialize MySQL schema: %w", err)
		}
	}

	return &MySQLStore{db: db, logger: logger}, nil
}

// GetRepository returns the repository record or core.ErrRepoNotFound
func (s *MySQLStore) GetRepository(ctx context.Context, repoID string) (*core.Repository, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, name, description, top_posts,
		       total_invites_sent, snowball_growth, verified_count,
		       last_snowball_at, last_bonus_at
		FROM repositories WHERE id = ?
	`, repoID)
	return scanRepository(row)
}

// PutRepository creates or replaces a repository record
func (s *MySQLStore) PutRepository(ctx context.Context, repo *core.Repository) error {
	_, err := s.db.ExecContext(ctx, `
		REPLACE INTO repositories
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
func (s *MySQLStore) FindEntry(ctx context.Context, repoID, email string) (*core.EmailEntry, error) {
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
func (s *MySQLStore) InsertIfAbsent(ctx context.Context, entry *core.EmailEntry) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT IGNORE INTO email_entries
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

// ConditionalTransition applies req as one guarded UPDATE
func (s *MySQLStore) ConditionalTransition(ctx context.Context, req core.TransitionRequest) (bool, error) {
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
func (s *MySQLStore) ListEntries(ctx context.Context, repoID string, filter core.EntryFilter) ([]*core.EmailEntry, error) {
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
func (s *MySQLStore) CountEntries(ctx context.Context, repoID string, filter core.EntryFilter) (int, error) {
	clause, args := filterClause(repoID, filter)
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM email_entries WHERE `+clause, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count entries: %w", err)
	}
	return count, nil
}

// ApplyBatchStats bumps the repository invite counters after a run
func (s *MySQLStore) ApplyBatchStats(ctx context.Context, repoID string, invitesSent int, at time.Time) error {
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
func (s *MySQLStore) RecountVerified(ctx context.Context, repoID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM email_entries
		WHERE repository_id = ? AND status = ?
	`, repoID, string(core.StatusVerified)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to recount verified members: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE repositories SET verified_count = ? WHERE id = ?`, count, repoID)
	if err != nil {
		return 0, fmt.Errorf("failed to persist verified count: %w", err)
	}
	return count, nil
}

// ClaimBonus consumes the bonus window via a guarded UPDATE
func (s *MySQLStore) ClaimBonus(ctx context.Context, repoID string, window time.Duration, now time.Time) (bool, error) {
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

// Record appends an audit event
func (s *MySQLStore) Record(ctx context.Context, event *core.SnowballEvent) error {
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
func (s *MySQLStore) List(ctx context.Context, repoID string) ([]*core.SnowballEvent, error) {
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
func (s *MySQLStore) Close() error {
	return s.db.Close()
}
