package catalog

import (
	"fmt"

	"github.com/google/uuid"
)

// ID is the canonical identifier for every catalog record. It is an
// opaque comparable wrapper over a UUIDv4 string; the zero value means
// "no reference".
type ID string

// NewID returns a fresh random identifier.
func NewID() ID {
	return ID(uuid.NewString())
}

// ParseID validates and canonicalizes an identifier string.
func ParseID(value string) (ID, error) {
	parsed, err := uuid.Parse(value)
	if err != nil {
		return "", fmt.Errorf("parse id %q: %w", value, err)
	}
	return ID(parsed.String()), nil
}

// IsZero reports whether the ID references nothing.
func (id ID) IsZero() bool {
	return id == ""
}

func (id ID) String() string {
	return string(id)
}
