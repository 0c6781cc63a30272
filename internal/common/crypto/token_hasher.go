package crypto

import (
	"crypto/sha256"

	"golang.org/x/crypto/bcrypt"
)

// TokenHasher produces a salted one-way hash of a credential string. Hashes
// are not comparable by equality; matching requires Matches against each
// candidate.
type TokenHasher interface {
	Hash(token string) (string, error)
	Matches(hash string, token string) bool
}

// BcryptTokenHasher hashes a sha256 pre-digest of the token with bcrypt.
// The pre-digest keeps the input under bcrypt's 72-byte limit (signed tokens
// are far longer) while the bcrypt layer contributes the per-hash random salt.
type BcryptTokenHasher struct {
	Cost int
}

func NewBcryptTokenHasher(cost int) *BcryptTokenHasher {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &BcryptTokenHasher{Cost: cost}
}

func (h *BcryptTokenHasher) Hash(token string) (string, error) {
	digest := sha256.Sum256([]byte(token))
	hash, err := bcrypt.GenerateFromPassword(digest[:], h.Cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (h *BcryptTokenHasher) Matches(hash string, token string) bool {
	digest := sha256.Sum256([]byte(token))
	return bcrypt.CompareHashAndPassword([]byte(hash), digest[:]) == nil
}
