package repository

import "errors"

// Sentinel kinds for draft store errors.
var (
	ErrNotFound          = errors.New("draft not found")
	ErrInvalidKey        = errors.New("invalid draft key")
	ErrUnsupportedDriver = errors.New("unsupported draft driver")
)
