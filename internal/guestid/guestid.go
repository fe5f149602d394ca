package guestid

import (
	"github.com/google/uuid"
)

// New mints a fresh guest identifier. Always UUIDv4; a new browsing context
// never reuses a previous identifier.
func New() string {
	return uuid.NewString()
}

// Valid reports whether s is a well-formed guest identifier. Anything that
// does not parse as a version-4 UUID is treated as absent: migration must
// never be invoked with a malformed id.
func Valid(s string) bool {
	if s == "" {
		return false
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return false
	}
	return id.Version() == 4
}
