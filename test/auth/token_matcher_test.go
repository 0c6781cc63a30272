package auth

import (
	"strings"
	"testing"

	authdomain "github.com/stockroom-app/backend/internal/auth/domain"
	"github.com/stockroom-app/backend/internal/auth/service"
	commoncrypto "github.com/stockroom-app/backend/internal/common/crypto"
)

func TestTokenMatcher_FindsMatchingRecord(t *testing.T) {
	hasher := commoncrypto.NewBcryptTokenHasher(4)
	matcher := service.NewTokenMatcher(hasher)

	tokens := []string{"token-a", "token-b", "token-c"}
	var candidates []authdomain.RefreshToken
	for i, tok := range tokens {
		hash, err := hasher.Hash(tok)
		if err != nil {
			t.Fatalf("hash failed: %v", err)
		}
		candidates = append(candidates, authdomain.RefreshToken{
			ID:        tokens[i],
			TokenHash: hash,
		})
	}

	matched, ok := matcher.Match("token-b", candidates)
	if !ok {
		t.Fatal("expected a match")
	}
	if matched.ID != "token-b" {
		t.Errorf("expected record token-b, got %s", matched.ID)
	}
}

func TestTokenMatcher_NoMatch(t *testing.T) {
	hasher := commoncrypto.NewBcryptTokenHasher(4)
	matcher := service.NewTokenMatcher(hasher)

	hash, err := hasher.Hash("token-a")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}

	_, ok := matcher.Match("token-x", []authdomain.RefreshToken{{ID: "rt-1", TokenHash: hash}})
	if ok {
		t.Error("expected no match")
	}
}

func TestTokenMatcher_EmptyCandidates(t *testing.T) {
	matcher := service.NewTokenMatcher(commoncrypto.NewBcryptTokenHasher(4))

	_, ok := matcher.Match("token-a", nil)
	if ok {
		t.Error("expected no match on empty candidate set")
	}
}

func TestBcryptTokenHasher_LongTokensWithSharedPrefix(t *testing.T) {
	hasher := commoncrypto.NewBcryptTokenHasher(4)

	// JWTs for the same user share a long common prefix. The pre-digest
	// keeps tokens distinguishable past bcrypt's 72-byte input limit.
	prefix := strings.Repeat("a", 100)
	tokenOne := prefix + ".payload-one"
	tokenTwo := prefix + ".payload-two"

	hash, err := hasher.Hash(tokenOne)
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}

	if !hasher.Matches(hash, tokenOne) {
		t.Error("expected hash to match its own token")
	}
	if hasher.Matches(hash, tokenTwo) {
		t.Error("tokens differing past 72 bytes must not cross-match")
	}
}

func TestBcryptTokenHasher_SaltedHashesDiffer(t *testing.T) {
	hasher := commoncrypto.NewBcryptTokenHasher(4)

	first, err := hasher.Hash("same-token")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	second, err := hasher.Hash("same-token")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}

	if first == second {
		t.Error("expected per-hash salts to produce distinct hashes")
	}
	if !hasher.Matches(first, "same-token") || !hasher.Matches(second, "same-token") {
		t.Error("both hashes must match the original token")
	}
}
