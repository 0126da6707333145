package ranking

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Score is the ranking of one member
type Score struct {
	MemberID  string
	Name      string
	Score     int
	UpdatedAt time.Time
}

// Store persists scores and opt-outs
type Store interface {
	// Adjust adds delta to the member's score, creating it at delta
	Adjust(ctx context.Context, memberID, name string, delta int) (int, error)
	Score(ctx context.Context, memberID string) (int, bool, error)
	// All returns every score, highest first
	All(ctx context.Context) ([]Score, error)
	// OptOut marks the member and removes any score
	OptOut(ctx context.Context, memberID string) error
	OptIn(ctx context.Context, memberID string) error
	OptedOut(ctx context.Context, memberID string) (bool, error)
	Close() error
}

// SQLiteStore implements Store using SQLite
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// SQLiteConfig holds configuration for the SQLite store
type SQLiteConfig struct {
	Path string
}

// DefaultSQLiteConfig returns default configuration
func DefaultSQLiteConfig() SQLiteConfig {
	return SQLiteConfig{
		Path: "./data/ranking.db",
	}
}

// NewSQLiteStore opens or creates the ranking database
func NewSQLiteStore(cfg SQLiteConfig) (*SQLiteStore, error) {
	dir := filepath.Dir(cfg.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SQLiteStore{db: db}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS scores (
		member_id TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		score INTEGER NOT NULL DEFAULT 0,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS opted_out (
		member_id TEXT PRIMARY KEY,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_scores_score ON scores(score DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Adjust changes a member's score by delta
func (s *SQLiteStore) Adjust(ctx context.Context, memberID, name string, delta int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if memberID == "" {
		return 0, fmt.Errorf("member ID is required")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO scores (member_id, name, score, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(member_id) DO UPDATE SET
			score = score + excluded.score,
			name = excluded.name,
			updated_at = excluded.updated_at
	`, memberID, name, delta, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to adjust score: %w", err)
	}

	var score int
	if err := s.db.QueryRowContext(ctx, `SELECT score FROM scores WHERE member_id = ?`, memberID).Scan(&score); err != nil {
		return 0, fmt.Errorf("failed to read score: %w", err)
	}
	return score, nil
}

// Score returns a member's score and whether it exists
func (s *SQLiteStore) Score(ctx context.Context, memberID string) (int, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var score int
	err := s.db.QueryRowContext(ctx, `SELECT score FROM scores WHERE member_id = ?`, memberID).Scan(&score)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get score: %w", err)
	}
	return score, true, nil
}

// All returns every score, highest first
func (s *SQLiteStore) All(ctx context.Context) ([]Score, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT member_id, name, score, updated_at
		FROM scores
		ORDER BY score DESC, updated_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list scores: %w", err)
	}
	defer rows.Close()

	var scores []Score
	for rows.Next() {
		var sc Score
		if err := rows.Scan(&sc.MemberID, &sc.Name, &sc.Score, &sc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan score: %w", err)
		}
		scores = append(scores, sc)
	}
	return scores, rows.Err()
}

// OptOut excludes a member from ranking and drops their score
func (s *SQLiteStore) OptOut(ctx context.Context, memberID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO opted_out (member_id) VALUES (?)`, memberID); err != nil {
		return fmt.Errorf("failed to opt out: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM scores WHERE member_id = ?`, memberID); err != nil {
		return fmt.Errorf("failed to delete score: %w", err)
	}
	return tx.Commit()
}

// OptIn re-enables ranking for a member
func (s *SQLiteStore) OptIn(ctx context.Context, memberID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM opted_out WHERE member_id = ?`, memberID); err != nil {
		return fmt.Errorf("failed to opt in: %w", err)
	}
	return nil
}

// OptedOut reports whether a member has opted out
func (s *SQLiteStore) OptedOut(ctx context.Context, memberID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM opted_out WHERE member_id = ?`, memberID).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to check opt out: %w", err)
	}
	return n > 0, nil
}

// Ping checks the database connection
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
