package vtab

import (
	"errors"
	"fmt"
)

var (
	// ErrReleased is returned by every operation on a destroyed or disconnected table.
	ErrReleased = errors.New("virtual table released")
	// ErrCursorClosed is returned by operations on a closed cursor.
	ErrCursorClosed = errors.New("cursor closed")
	// ErrDeclare wraps schema declaration failures during Create/Connect.
	ErrDeclare = errors.New("schema declaration failed")
	// ErrArgumentCount is returned when Filter receives a different number of
	// literals than BestIndex accepted constraints.
	ErrArgumentCount = errors.New("argument count does not match accepted constraints")
)

// BoundsError reports a column, row or literal index outside its valid range.
type BoundsError struct {
	Kind  string
	Index int
	Limit int
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("%s index %d out of range [0, %d)", e.Kind, e.Index, e.Limit)
}

// CoercionError describes a generated value that could not be parsed into its
// declared column type.
type CoercionError struct {
	Column string
	Type   string
	Value  string
	Err    error
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("error casting %s (%q) to %s: %v", e.Column, e.Value, e.Type, e.Err)
}

func (e *CoercionError) Unwrap() error { return e.Err }
