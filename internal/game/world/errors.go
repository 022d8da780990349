package world

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a named room, player, fixture, puzzle or item does not exist.
var ErrNotFound = errors.New("world: not found")

// InvariantError reports a containment graph inconsistency. It indicates a
// programming error or corrupt data rather than bad player input.
type InvariantError struct {
	Op     string
	Detail string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("world: %s: invariant violated: %s", e.Op, e.Detail)
}

func invariant(op, format string, args ...any) error {
	return &InvariantError{Op: op, Detail: fmt.Sprintf(format, args...)}
}
