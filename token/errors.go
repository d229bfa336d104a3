package token

import "errors"

var (
	// ErrMalformed is returned when a token is not a structurally valid compact JWT
	ErrMalformed = errors.New("malformed token")

	// ErrInvalidSignature is returned when the signature does not verify or the
	// declared algorithm is not allowed
	ErrInvalidSignature = errors.New("invalid token signature")

	// ErrExpired is returned when the current time is at or past the expiry instant
	ErrExpired = errors.New("token expired")

	// ErrRevoked is returned when a verified token id is on the revocation list
	ErrRevoked = errors.New("token revoked")

	// ErrSigningUnavailable is returned when encoding with verification-only material
	ErrSigningUnavailable = errors.New("signing key not available")

	// ErrInvalidSigningMaterial is returned when key material cannot be used
	ErrInvalidSigningMaterial = errors.New("invalid signing material")

	// ErrInvalidInput is returned when Encode is called with unusable arguments
	ErrInvalidInput = errors.New("invalid token input")
)
