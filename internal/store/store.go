package store

import (
	"context"
	"errors"
	"time"

	"github.com/vovakirdan/portfolio-server/internal/utils"
)

// DefaultRetention is the number of submissions kept when no limit is configured.
const DefaultRetention = 100

// TimestampLayout is the ISO-8601 layout used for Submission.Timestamp (UTC, millisecond precision).
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

var (
	// ErrWrite marks failures to persist a submission.
	ErrWrite = errors.New("storage write failed")
	// ErrRead marks failures to load persisted submissions.
	ErrRead = errors.New("storage read failed")
)

// Submission is a single contact form entry.
type Submission struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	IPAddress string `json:"ipAddress"`
}

// Input carries the caller-supplied part of a submission.
type Input struct {
	Name      string
	Email     string
	Message   string
	IPAddress string
}

// Store persists contact submissions in insertion order with a retention cap.
type Store interface {
	// Append stamps the input with a fresh ID and timestamp and persists it.
	// The returned record is exactly what was stored.
	Append(ctx context.Context, in Input) (Submission, error)

	// ReadAll returns every retained submission, oldest first.
	// A store that has never been written to returns an empty slice.
	ReadAll(ctx context.Context) ([]Submission, error)

	// Close releases the underlying medium.
	Close() error
}

// NewSubmission builds a complete record from input, assigning ID and timestamp.
func NewSubmission(in Input, now time.Time) Submission {
	return Submission{
		ID:        utils.NewID(),
		Name:      in.Name,
		Email:     in.Email,
		Message:   in.Message,
		Timestamp: now.UTC().Format(TimestampLayout),
		IPAddress: in.IPAddress,
	}
}

// Retain returns the most recent limit entries of subs, preserving order.
func Retain(subs []Submission, limit int) []Submission {
	if limit <= 0 || len(subs) <= limit {
		return subs
	}
	kept := make([]Submission, limit)
	copy(kept, subs[len(subs)-limit:])
	return kept
}

// NormalizeRetention maps non-positive limits to DefaultRetention.
func NormalizeRetention(limit int) int {
	if limit <= 0 {
		return DefaultRetention
	}
	return limit
}
