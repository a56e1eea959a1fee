package diagnosis

import "errors"

// Sentinel kinds for label errors.
var (
	ErrUnknownClass = errors.New("unknown diagnostic class")
)
