package domain

import "errors"

var (
	// ErrAlreadyPicked rejects a second pick for the same session.
	ErrAlreadyPicked = errors.New("already picked")

	// ErrSessionNotFound is a lookup miss on the sessions table.
	ErrSessionNotFound = errors.New("session not found")

	// ErrNameRequired rejects the legacy track flow without a name.
	ErrNameRequired = errors.New("name is required")
)
