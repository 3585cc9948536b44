package models

import "time"

// URLUpdate is a partial patch applied to an existing mapping. Nil fields
// are left untouched.
type URLUpdate struct {
	OriginalURL *string    `json:"original_url,omitempty"`
	IsActive    *bool      `json:"is_active,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (u URLUpdate) Empty() bool {
	return u.OriginalURL == nil && u.IsActive == nil && u.ExpiresAt == nil
}
