package service

import (
	authdomain "github.com/stockroom-app/backend/internal/auth/domain"
	commoncrypto "github.com/stockroom-app/backend/internal/common/crypto"
)

// TokenMatcher finds the stored record a presented refresh token belongs to.
// Salted hashes cannot be looked up by equality, so every candidate is
// compared in turn. Candidate sets are bounded by the per-user retention cap.
type TokenMatcher struct {
	hasher commoncrypto.TokenHasher
}

func NewTokenMatcher(hasher commoncrypto.TokenHasher) *TokenMatcher {
	return &TokenMatcher{hasher: hasher}
}

// Match returns the first candidate whose hash matches the presented token,
// or false when none does.
func (m *TokenMatcher) Match(token string, candidates []authdomain.RefreshToken) (authdomain.RefreshToken, bool) {
	for _, candidate := range candidates {
		if m.hasher.Matches(candidate.TokenHash, token) {
			return candidate, true
		}
	}
	return authdomain.RefreshToken{}, false
}
