package clients

import "errors"

var (
	// ErrNotFound is returned when the peer answers 404
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized is returned when the peer refuses the forwarded credential
	ErrUnauthorized = errors.New("peer rejected credential")

	// ErrUnavailable is returned for 5xx answers and transport failures,
	// after retries are exhausted
	ErrUnavailable = errors.New("peer service unavailable")

	// ErrUnexpectedResponse is returned for any other non-2xx answer or an
	// undecodable body
	ErrUnexpectedResponse = errors.New("unexpected peer response")
)
