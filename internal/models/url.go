package models

import "time"

// URL represents a shortened URL mapping and its associated metadata.
type URL struct {
	// ID is the unique identifier for the mapping, assigned by the database.
	ID int64 `json:"id"`
	// ShortCode is the short code associated with the original URL.
	// It is immutable once the mapping is created.
	ShortCode string `json:"short_code"`
	// OriginalURL is the original, full-length URL that the short code points to.
	OriginalURL string `json:"original_url"`
	// Clicks tracks the number of times the shortened URL has been followed.
	Clicks int64 `json:"clicks"`
	// CreatedAt is the timestamp indicating when the mapping was created.
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt is the timestamp indicating when the mapping was last updated.
	UpdatedAt time.Time `json:"updated_at"`
	// ExpiresAt, when set, marks the moment after which the mapping stops
	// being servable.
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	// IsActive reports whether the mapping is allowed to serve redirects.
	IsActive bool `json:"is_active"`
}

// Expired reports whether the mapping has an expiration in the past.
func (u *URL) Expired(now time.Time) bool {
	return u.ExpiresAt != nil && u.ExpiresAt.Before(now)
}
