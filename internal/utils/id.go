package utils

import (
	"crypto/rand"
	"encoding/hex"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// NewID returns a unique, time-ordered identifier.
// UUIDv7 carries a millisecond timestamp followed by random bits, so IDs
// created within the same millisecond still differ.
func NewID() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}

	// Fallback: millisecond timestamp plus a random suffix.
	prefix := strconv.FormatInt(time.Now().UnixMilli(), 10)
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err == nil {
		return prefix + "-" + hex.EncodeToString(buf)
	}
	return strconv.FormatInt(time.Now().UnixNano(), 10)
}
