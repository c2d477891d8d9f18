package sentinel

import "errors"

// Sentinel dependency errors. Stores and publishers return these (optionally
// wrapped) so the service translates them into domain errors exactly once.
var (
	ErrNotFound    = errors.New("not found")
	ErrAlreadyUsed = errors.New("already used")
	ErrUnavailable = errors.New("unavailable")
)
