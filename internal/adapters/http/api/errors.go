package api

import "errors"

// Sentinel kinds for API errors.
var (
	ErrInvalidID   = errors.New("case id must be an integer")
	ErrRateLimited = errors.New("rate limit exceeded")
	ErrInternal    = errors.New("unexpected error occurred")
)
