package types

import "errors"

// Domain specific errors shared by services and handlers.
var (
	ErrNotFound        = errors.New("requested item not found")
	ErrConflict        = errors.New("item already exists or conflict")
	ErrUnauthenticated = errors.New("authentication required or invalid credentials")
	ErrForbidden       = errors.New("action forbidden")
	ErrBadRequest      = errors.New("bad request")

	// ErrNoData means the reference data an operation depends on is absent.
	ErrNoData = errors.New("reference data unavailable")
	// ErrInvalidInput means a mandatory input was missing.
	ErrInvalidInput = errors.New("invalid input")
)
