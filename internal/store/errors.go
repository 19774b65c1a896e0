package store

import (
	"errors"
	"strings"
)

var (
	// ErrDuplicateMapping indicates an insert would violate the uniqueness of
	// (entity_type, source_name, source_id). The original mapping is retained.
	ErrDuplicateMapping = errors.New("duplicate source mapping")
	// ErrUnknownIdentity indicates a master_id that neither exists nor redirects.
	ErrUnknownIdentity = errors.New("unknown canonical identity")
	// ErrUnknownMapping indicates a mapping id with no row.
	ErrUnknownMapping = errors.New("unknown source mapping")
	// ErrNotPending indicates a review action on a mapping that is not pending.
	ErrNotPending = errors.New("mapping is not pending review")
)

// isUniqueViolation reports whether err is SQLite's UNIQUE constraint failure.
// The modernc driver exposes it only through the error text.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
