package provenance

import (
	"errors"
	"fmt"
)

// InvariantError reports a broken internal consistency check.
// It is raised with panic and means the staging list is corrupt.
type InvariantError struct {
	// Check names the violated condition.
	Check string

	// Count is the slot count of the offending node.
	Count int

	// Capacity is the configured node capacity.
	Capacity int
}

// Error implements the error interface.
func (e *InvariantError) Error() string {
	return fmt.Sprintf("provenance: invariant violated: %s (count=%d, capacity=%d)", e.Check, e.Count, e.Capacity)
}

// IsInvariantError reports whether err (or a recovered panic value) is an
// InvariantError. Uses errors.As to handle wrapped errors.
func IsInvariantError(v any) bool {
	err, ok := v.(error)
	if !ok {
		return false
	}
	var ie *InvariantError
	return errors.As(err, &ie)
}
