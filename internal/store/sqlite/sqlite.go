package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/vovakirdan/portfolio-server/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS contact_submissions (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	id         TEXT NOT NULL UNIQUE,
	name       TEXT NOT NULL,
	email      TEXT NOT NULL,
	message    TEXT NOT NULL,
	timestamp  TEXT NOT NULL,
	ip_address TEXT
);
`

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db    *sql.DB
	limit int
	now   func() time.Time
}

var _ store.Store = (*SQLiteStore)(nil)

// New opens (or creates) the database at dbPath and ensures the schema exists.
func New(dbPath string, limit int) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// A single connection serializes writers and keeps :memory: databases alive.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLiteStore{
		db:    db,
		limit: store.NormalizeRetention(limit),
		now:   time.Now,
	}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Append inserts the submission and trims the table to the retention limit in one transaction.
func (s *SQLiteStore) Append(ctx context.Context, in store.Input) (store.Submission, error) {
	sub := store.NewSubmission(in, s.now())

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return store.Submission{}, fmt.Errorf("%w: begin tx: %w", store.ErrWrite, err)
	}
	defer func() { _ = tx.Rollback() }()

	var ip sql.NullString
	if sub.IPAddress != "" {
		ip = sql.NullString{String: sub.IPAddress, Valid: true}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO contact_submissions (id, name, email, message, timestamp, ip_address)
		VALUES (?, ?, ?, ?, ?, ?)
	`, sub.ID, sub.Name, sub.Email, sub.Message, sub.Timestamp, ip)
	if err != nil {
		return store.Submission{}, fmt.Errorf("%w: insert submission: %w", store.ErrWrite, err)
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM contact_submissions
		WHERE seq NOT IN (
			SELECT seq FROM contact_submissions ORDER BY seq DESC LIMIT ?
		)
	`, s.limit)
	if err != nil {
		return store.Submission{}, fmt.Errorf("%w: trim submissions: %w", store.ErrWrite, err)
	}

	if err := tx.Commit(); err != nil {
		return store.Submission{}, fmt.Errorf("%w: commit: %w", store.ErrWrite, err)
	}
	return sub, nil
}

// ReadAll returns all retained submissions in insertion order.
func (s *SQLiteStore) ReadAll(ctx context.Context) ([]store.Submission, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, email, message, timestamp, COALESCE(ip_address, '')
		FROM contact_submissions
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: query submissions: %w", store.ErrRead, err)
	}
	defer rows.Close()

	subs := make([]store.Submission, 0)
	for rows.Next() {
		var sub store.Submission
		if err := rows.Scan(&sub.ID, &sub.Name, &sub.Email, &sub.Message, &sub.Timestamp, &sub.IPAddress); err != nil {
			return nil, fmt.Errorf("%w: scan submission: %w", store.ErrRead, err)
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate submissions: %w", store.ErrRead, err)
	}
	return subs, nil
}
