package models

import "time"

// RefreshToken is a stored refresh token. Only the SHA-256 of the token
// is kept, so a leaked table cannot be replayed.
type RefreshToken struct {
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the token is no longer valid at now.
func (t *RefreshToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
