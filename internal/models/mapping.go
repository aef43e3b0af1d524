package models

import "time"

// Mapping represents a stored short code and the URL it redirects to.
// A mapping is written exactly once and never updated or deleted.
type Mapping struct {
	// ID is the unique identifier for the mapping record.
	ID int64
	// Code is the short code used as the redirect path segment.
	Code string
	// OriginalURL is the original, full-length URL that the code points to.
	OriginalURL string
	// CreatedAt is the timestamp indicating when the mapping was created.
	CreatedAt time.Time
}
