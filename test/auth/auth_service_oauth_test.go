package auth

import (
	"context"
	"errors"
	"testing"

	authdomain "github.com/stockroom-app/backend/internal/auth/domain"
	"github.com/stockroom-app/backend/internal/auth/service"
	"github.com/stockroom-app/backend/internal/identity"
	userdomain "github.com/stockroom-app/backend/internal/user/domain"
)

func TestAuthService_LoginOAuthApp_CreatesUser(t *testing.T) {
	svc, deps := setupAuthService(t)

	deps.verifier.verifyFunc = func(ctx context.Context, token string) (identity.ProviderIdentity, error) {
		if token != "provider-token" {
			t.Errorf("expected provider-token, got %s", token)
		}
		return identity.ProviderIdentity{Subject: "google-sub", Email: "new@example.com"}, nil
	}

	var resolvedEmail string
	deps.userRepo.findOrCreateOAuthFunc = func(ctx context.Context, id userdomain.ID, email string) (userdomain.User, error) {
		resolvedEmail = email
		return userdomain.User{ID: id, Email: email, RoleName: userdomain.RoleUser}, nil
	}

	var stored authdomain.RefreshToken
	deps.tokenRepo.createFunc = func(ctx context.Context, token authdomain.RefreshToken) error {
		stored = token
		return nil
	}

	result, err := svc.LoginOAuthApp(context.Background(), service.OAuthInput{
		ProviderToken: "provider-token",
		Device:        "android",
		ClientIP:      "10.0.0.2",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if resolvedEmail != "new@example.com" {
		t.Errorf("expected lookup by provider email, got %s", resolvedEmail)
	}
	if result.AccessToken == "" || result.RefreshToken == "" {
		t.Error("expected a full token pair")
	}
	if result.User.RoleName != userdomain.RoleUser {
		t.Errorf("expected USER role, got %s", result.User.RoleName)
	}
	if stored.Device != "android" {
		t.Errorf("expected stored device android, got %s", stored.Device)
	}
}

func TestAuthService_LoginOAuthWeb_Success(t *testing.T) {
	svc, deps := setupAuthService(t)

	deps.verifier.verifyFunc = func(ctx context.Context, token string) (identity.ProviderIdentity, error) {
		return identity.ProviderIdentity{Subject: "google-sub", Email: "user@example.com"}, nil
	}

	result, err := svc.LoginOAuthWeb(context.Background(), service.OAuthInput{
		ProviderToken: "provider-token",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.RefreshToken == "" {
		t.Error("web login must issue a refresh token for the cookie")
	}
}

func TestAuthService_LoginOAuth_RejectedToken(t *testing.T) {
	svc, deps := setupAuthService(t)

	deps.verifier.verifyFunc = func(ctx context.Context, token string) (identity.ProviderIdentity, error) {
		return identity.ProviderIdentity{}, identity.ErrWrongAudience
	}

	_, err := svc.LoginOAuthApp(context.Background(), service.OAuthInput{
		ProviderToken: "stolen-token",
	})
	if !errors.Is(err, service.ErrInvalidProviderToken) {
		t.Fatalf("expected ErrInvalidProviderToken, got %v", err)
	}
	if !errors.Is(err, identity.ErrWrongAudience) {
		t.Error("expected the provider cause to be preserved")
	}
}
