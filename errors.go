package goworkbook

import "github.com/cockroachdb/errors"

// Sentinel errors returned by workbook construction and rendering.
// Callers should test with errors.Is; the wrapped message carries the
// offending name or reference.
var (
	// ErrDuplicateName is returned when a column, calculation, worksheet or
	// dashboard is registered under a name that is already taken.
	ErrDuplicateName = errors.New("duplicate name")

	// ErrUnresolvedField is returned at render time when a worksheet or zone
	// references a field or worksheet that does not exist in the workbook.
	ErrUnresolvedField = errors.New("unresolved field")
)
