// Package mciid produces MCI identifiers: the durable, globally unique ids
// assigned to individuals exactly once at creation. Kept as its own package
// so the generation scheme can change without touching callers.
package mciid

import (
	"strings"

	"github.com/google/uuid"
)

// New returns a fresh MCI id: a random 128-bit value rendered as 32
// lowercase hex characters with no separators. Collision resistance comes
// from the underlying cryptographically random UUID.
func New() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
