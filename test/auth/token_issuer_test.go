package auth

import (
	"testing"
	"time"

	"github.com/stockroom-app/backend/internal/auth/service"
	"github.com/stockroom-app/backend/internal/common/clock"
	commoncrypto "github.com/stockroom-app/backend/internal/common/crypto"
	userdomain "github.com/stockroom-app/backend/internal/user/domain"
)

func newTestIssuer(t *testing.T) (*service.TokenIssuer, *clock.MockClock) {
	t.Helper()
	clk := clock.NewMockClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	issuer := service.NewTokenIssuer(
		testAccessSecret,
		testRefreshSecret,
		commoncrypto.NewUUIDGenerator(),
		time.Hour,
		14*24*time.Hour,
		clk,
	)
	return issuer, clk
}

func testUser() userdomain.User {
	return userdomain.User{
		ID:       "user-123",
		Email:    "user@example.com",
		RoleName: userdomain.RoleAdmin,
	}
}

func TestTokenIssuer_AccessTokenClaims(t *testing.T) {
	issuer, clk := newTestIssuer(t)

	token, err := issuer.IssueAccessToken(testUser())
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	claims, err := issuer.VerifyAccessToken(token)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}

	if claims.UserID != "user-123" {
		t.Errorf("expected subject user-123, got %s", claims.UserID)
	}
	if claims.Email != "user@example.com" {
		t.Errorf("expected email claim, got %s", claims.Email)
	}
	if claims.Role != userdomain.RoleAdmin {
		t.Errorf("expected role claim, got %s", claims.Role)
	}

	wantExpiry := clk.Now().Add(time.Hour)
	if !claims.ExpiresAt.Equal(wantExpiry) {
		t.Errorf("expected expiry %v, got %v", wantExpiry, claims.ExpiresAt)
	}
}

func TestTokenIssuer_SecretsAreNotInterchangeable(t *testing.T) {
	issuer, _ := newTestIssuer(t)

	accessToken, err := issuer.IssueAccessToken(testUser())
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	refreshToken, err := issuer.IssueRefreshToken(testUser())
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	if _, err := issuer.VerifyRefreshToken(accessToken); err == nil {
		t.Error("access token must not verify as a refresh token")
	}
	if _, err := issuer.VerifyAccessToken(refreshToken); err == nil {
		t.Error("refresh token must not verify as an access token")
	}
}

func TestTokenIssuer_ExpiredTokenRejected(t *testing.T) {
	issuer, clk := newTestIssuer(t)

	token, err := issuer.IssueAccessToken(testUser())
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	clk.Advance(time.Hour + time.Minute)

	if _, err := issuer.VerifyAccessToken(token); err == nil {
		t.Error("expected expired token to be rejected")
	}
}

func TestTokenIssuer_DecodeUnverifiedReadsExpiredToken(t *testing.T) {
	issuer, clk := newTestIssuer(t)

	token, err := issuer.IssueAccessToken(testUser())
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	wantExpiry := clk.Now().Add(time.Hour)
	clk.Advance(3 * time.Hour)

	claims, err := issuer.DecodeUnverified(token)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if claims.UserID != "user-123" {
		t.Errorf("expected subject user-123, got %s", claims.UserID)
	}
	if !claims.ExpiresAt.Equal(wantExpiry) {
		t.Errorf("expected expiry %v, got %v", wantExpiry, claims.ExpiresAt)
	}
}

func TestTokenIssuer_DecodeUnverifiedGarbage(t *testing.T) {
	issuer, _ := newTestIssuer(t)

	if _, err := issuer.DecodeUnverified("not-a-jwt"); err == nil {
		t.Error("expected decode of garbage to fail")
	}
}
