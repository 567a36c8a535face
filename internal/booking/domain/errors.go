package domain

import "errors"

var (
	// ErrValidation covers bad or missing input; the request has no side effects.
	ErrValidation = errors.New("invalid input")
	// ErrNotFound covers unknown ids.
	ErrNotFound = errors.New("not found")
	// ErrInvalidToken covers unknown or already-consumed verification tokens.
	ErrInvalidToken = errors.New("invalid verification token")
	// ErrNotVerified is returned when a profile write targets an unverified driver.
	ErrNotVerified = errors.New("driver not verified")
	// ErrPersistence means the store read/write failed; fatal to the request,
	// not to the process.
	ErrPersistence = errors.New("persistence failed")
	// ErrCollaborator means an external collaborator (notifier, estimator)
	// failed or timed out; already-persisted records are not rolled back.
	ErrCollaborator = errors.New("collaborator failed")
	// ErrCredentials is returned on admin login mismatch.
	ErrCredentials = errors.New("invalid credentials")
)
