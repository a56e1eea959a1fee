package audit

import "errors"

// Sentinel kinds for audit storage errors.
var (
	ErrOpenDatabase = errors.New("open audit database failed")
	ErrApplySchema  = errors.New("apply audit schema failed")
)
