package domain

import "errors"

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized indicates the upstream rejected the session (HTTP 401).
	// This is the only status that invalidates persisted session state.
	ErrUnauthorized = errors.New("session unauthorized")

	// ErrPaymentRequired indicates the upstream demanded payment (HTTP 402).
	ErrPaymentRequired = errors.New("payment required")

	// ErrUnprocessable indicates the upstream rejected the payload (HTTP 422).
	ErrUnprocessable = errors.New("unprocessable entity")
)
