// Package common defines sentinel errors and small helpers shared by the
// habitkeeper server layers. Callers should match the errors with errors.Is.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrorInternal      = errors.New("internal error")
	ErrorUnauthorized  = errors.New("unauthorized")
	ErrorValidation    = errors.New("validation error")
	ErrorInactiveUser  = errors.New("user is deactivated")
	ErrorNoPasswordSet = errors.New("password is not set")

	// Session issuance errors. They are never shown to the caller verbatim.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrIdentityConflict   = errors.New("identity conflict")
	ErrStorageUnavailable = errors.New("storage unavailable")

	// Session token errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrStaleSession = errors.New("stale session snapshot")
)
