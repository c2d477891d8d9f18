package service

import (
	"errors"

	"tenancy/internal/sentinel"
	dErrors "tenancy/pkg/domain-errors"
)

// Error wrapping helpers translate sentinel errors to domain errors. Messages
// are fixed text; the collaborator's error stays reachable through Unwrap.

func wrapTenantErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "tenant not found")
	}
	return dErrors.Wrap(err, dErrors.CodeStorageFailure, "failed to load tenant")
}

func wrapAppendErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrAlreadyUsed):
		return dErrors.Wrap(err, dErrors.CodeConflict, "member already exists")
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "tenant not found")
	}
	return dErrors.Wrap(err, dErrors.CodeStorageFailure, "failed to append member")
}

// publicMessage is the message of the outermost domain error in err's chain,
// or a generic one when err carries none.
func publicMessage(err error) string {
	var e *dErrors.Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return "internal error"
}
