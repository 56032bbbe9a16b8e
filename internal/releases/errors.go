package releases

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sys/unix"
)

var (
	// ErrStorageFull marks failures caused by exhausted storage. A batch
	// stops as soon as one of these surfaces.
	ErrStorageFull = errors.New("storage full")
	ErrTransient   = errors.New("transient failure")
)

const sqliteFullCode = 13

// Wrap builds an error message that includes promoter context while
// tagging it with the provided marker for later classification. The
// marker should be one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsStorageFull reports whether an error indicates exhausted storage,
// either tagged with ErrStorageFull or surfaced raw from SQLite or the
// filesystem.
func IsStorageFull(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrStorageFull) || errors.Is(err, unix.ENOSPC) {
		return true
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteFullCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "database or disk is full") || strings.Contains(msg, "SQLITE_FULL")
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "release failure"
	}
	return strings.Join(parts, ": ")
}
