package leads

import "errors"

var (
	// ErrMissingAgencyID is returned when a lead has no owning agency
	ErrMissingAgencyID = errors.New("agency id is required")

	// ErrUnknownAgency is returned when the owning agency does not exist
	ErrUnknownAgency = errors.New("agency does not exist")

	// ErrEmptyLead is returned when a lead carries neither fields nor a message
	ErrEmptyLead = errors.New("lead has no content")
)
