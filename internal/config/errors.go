package config

import "errors"

// Sentinel kinds for configuration failures, matched with errors.Is.
var (
	ErrLoadConfig    = errors.New("configuration could not be loaded")
	ErrInvalidConfig = errors.New("configuration rejected by validation")
)
