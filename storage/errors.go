package storage

import "errors"

// ErrNotFound is returned when a stored file does not exist.
var ErrNotFound = errors.New("file not found")

// ErrInvalidName is returned when a storage name is empty, absolute or
// escapes the store root.
var ErrInvalidName = errors.New("invalid storage name")
