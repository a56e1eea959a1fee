package model

import "errors"

// Sentinel kinds shared by the data lookups.
var (
	// ErrNotLoaded signals that the evaluation documents have not been
	// loaded; the API surfaces it as 503.
	ErrNotLoaded = errors.New("evaluation data not loaded")

	// ErrNotFound signals that a case or document section is absent;
	// the API surfaces it as 404.
	ErrNotFound = errors.New("not found")

	// ErrInvalidCase signals a record that fails schema validation.
	ErrInvalidCase = errors.New("invalid case record")
)
