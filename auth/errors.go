package auth

import "errors"

var (
	// ErrMissingCredential is returned when a request carries no bearer token
	ErrMissingCredential = errors.New("missing credential")

	// ErrUnverified is returned when a principal is requested for a token
	// that did not come out of a successful validation
	ErrUnverified = errors.New("token is not verified")

	// ErrAuthorityLookup wraps failures of the authority store
	ErrAuthorityLookup = errors.New("authority lookup failed")
)
