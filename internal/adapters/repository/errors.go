package repository

import "errors"

// Sentinel kinds for load errors. Lookup errors use the model package
// sentinels so callers need not import this package to classify them.
var (
	ErrReadDocument  = errors.New("read document failed")
	ErrParseDocument = errors.New("parse document failed")
	ErrDuplicateCase = errors.New("duplicate case id")
)
