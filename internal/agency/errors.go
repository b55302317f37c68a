package agency

import "errors"

var (
	// ErrMissingName is returned when registration omits the agency name.
	ErrMissingName = errors.New("agency name is required")

	// ErrMissingPrompt is returned when registration omits the system instruction.
	ErrMissingPrompt = errors.New("agency prompt is required")

	// ErrNotFound is returned when no agency matches the id.
	ErrNotFound = errors.New("agency not found")

	// ErrSuspended is returned when a suspended agency is asked to serve chat.
	ErrSuspended = errors.New("agency is suspended")

	// ErrOwnerEmailTaken is returned when another agency already uses the owner email.
	ErrOwnerEmailTaken = errors.New("owner email already registered")

	// ErrInvalidCredentials is returned on a failed owner login.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrPasswordTooShort is returned when the owner password is under MinPasswordLength.
	ErrPasswordTooShort = errors.New("password too short")

	// ErrInvalidStatus is returned for a status other than active or suspended.
	ErrInvalidStatus = errors.New("invalid agency status")
)
