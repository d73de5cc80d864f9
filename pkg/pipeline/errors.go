package pipeline

import "errors"

// Fatal input conditions. The pipeline refuses to run on these rather than
// producing row diagnostics; callers should reject such files before invoking
// the core, but the orchestrator double-checks.
var (
	// ErrEmptyInput reports an input with no data rows.
	ErrEmptyInput = errors.New("input has no rows")

	// ErrNoHeaders reports an input with no header row.
	ErrNoHeaders = errors.New("input has no headers")
)
