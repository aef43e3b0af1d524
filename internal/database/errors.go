package database

import "errors"

var (
	// ErrCodeExists is returned when an attempt is made to create
	// a mapping with a short code that is already taken.
	ErrCodeExists = errors.New("short code exists")
	// ErrURLExists is returned when an attempt is made to create
	// a mapping for a URL that has already been shortened.
	ErrURLExists = errors.New("url exists")
	// ErrMappingNotFound is returned when no mapping exists for
	// the requested short code or URL.
	ErrMappingNotFound = errors.New("mapping not found")
)
