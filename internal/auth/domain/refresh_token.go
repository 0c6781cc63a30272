package domain

import "time"

// RefreshToken is the stored record of an issued refresh token. TokenHash is
// a salted one-way hash of the signed token; the plaintext is never persisted.
type RefreshToken struct {
	ID        string
	TokenHash string
	UserID    string
	Device    string
	IssuedIP  string
	IsRevoked bool
	ExpiresAt time.Time
	CreatedAt time.Time

	// RawToken carries the signed token between issuance and the HTTP layer.
	// It is never written to storage.
	RawToken string
}

func (t RefreshToken) IsExpired(now time.Time) bool {
	return !t.ExpiresAt.After(now)
}
