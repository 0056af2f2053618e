package models

import "errors"

// Error taxonomy shared by the schema and route pipelines. Per-target errors
// wrap one of these and are turned into an Outcome at the target boundary.
var (
	ErrNotFound        = errors.New("not found")
	ErrAlreadyMigrated = errors.New("already migrated")
	ErrAmbiguous       = errors.New("ambiguous match")
	ErrPartialMatch    = errors.New("partial match")
	ErrFatalIO         = errors.New("fatal i/o")
)

// StatusFromError maps an error from the taxonomy to a report status.
// Unknown errors are failures.
func StatusFromError(err error) Status {
	switch {
	case err == nil:
		return StatusModified
	case errors.Is(err, ErrAlreadyMigrated):
		return StatusSkipped
	case errors.Is(err, ErrNotFound):
		return StatusNotFound
	case errors.Is(err, ErrAmbiguous):
		return StatusAmbiguous
	default:
		return StatusFailed
	}
}
