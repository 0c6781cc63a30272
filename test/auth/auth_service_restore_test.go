package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	authdomain "github.com/stockroom-app/backend/internal/auth/domain"
	"github.com/stockroom-app/backend/internal/auth/service"
	userdomain "github.com/stockroom-app/backend/internal/user/domain"
	userrepo "github.com/stockroom-app/backend/internal/user/repository"
)

// loginAndCapture performs a password login against the mocks and returns the
// issued pair together with the record the store received.
func loginAndCapture(t *testing.T, svc *service.AuthService, deps *testDeps, userID string) (service.AuthResult, *authdomain.RefreshToken) {
	t.Helper()

	user := userdomain.User{
		ID:           userdomain.ID(userID),
		Email:        "user@example.com",
		PasswordHash: strPtr("hashed_password123"),
		RoleName:     userdomain.RoleUser,
	}

	deps.userRepo.findByEmailFunc = func(ctx context.Context, email string) (userdomain.User, error) {
		return user, nil
	}
	deps.userRepo.findByIDFunc = func(ctx context.Context, id userdomain.ID) (userdomain.User, error) {
		if id != user.ID {
			return userdomain.User{}, userrepo.ErrUserNotFound
		}
		return user, nil
	}

	stored := &authdomain.RefreshToken{}
	deps.tokenRepo.createFunc = func(ctx context.Context, token authdomain.RefreshToken) error {
		*stored = token
		return nil
	}

	result, err := svc.Login(context.Background(), service.LoginInput{
		Email:    "user@example.com",
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	return result, stored
}

func TestAuthService_RestoreWeb_RotatesToken(t *testing.T) {
	svc, deps := setupAuthService(t)

	loginResult, stored := loginAndCapture(t, svc, deps, "user-123")

	deps.tokenRepo.findByUserIDFunc = func(ctx context.Context, userID string) ([]authdomain.RefreshToken, error) {
		return []authdomain.RefreshToken{*stored}, nil
	}

	var revokedID string
	deps.tokenRepo.revokeFunc = func(ctx context.Context, id string) (bool, error) {
		revokedID = id
		return true, nil
	}

	var newStored authdomain.RefreshToken
	deps.tokenRepo.createFunc = func(ctx context.Context, token authdomain.RefreshToken) error {
		newStored = token
		return nil
	}

	result, err := svc.RestoreWeb(context.Background(), loginResult.RefreshToken, "test-device", "10.0.0.1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if revokedID != stored.ID {
		t.Errorf("expected revocation of %s, got %s", stored.ID, revokedID)
	}
	if result.RefreshToken == "" || result.RefreshToken == loginResult.RefreshToken {
		t.Error("restore must issue a different refresh token")
	}
	if result.AccessToken == "" {
		t.Error("expected a new access token")
	}
	if newStored.ID == stored.ID {
		t.Error("rotated record must get its own id")
	}
}

func TestAuthService_RestoreWeb_RevokedTokenIsReuse(t *testing.T) {
	svc, deps := setupAuthService(t)

	loginResult, stored := loginAndCapture(t, svc, deps, "user-123")
	stored.IsRevoked = true

	deps.tokenRepo.findByUserIDFunc = func(ctx context.Context, userID string) ([]authdomain.RefreshToken, error) {
		return []authdomain.RefreshToken{*stored}, nil
	}

	_, err := svc.RestoreWeb(context.Background(), loginResult.RefreshToken, "", "")
	if !errors.Is(err, service.ErrTokenReuse) {
		t.Fatalf("expected ErrTokenReuse, got %v", err)
	}
}

func TestAuthService_RestoreWeb_LostRevokeRaceIsReuse(t *testing.T) {
	svc, deps := setupAuthService(t)

	loginResult, stored := loginAndCapture(t, svc, deps, "user-123")

	deps.tokenRepo.findByUserIDFunc = func(ctx context.Context, userID string) ([]authdomain.RefreshToken, error) {
		return []authdomain.RefreshToken{*stored}, nil
	}
	// Another request revoked the record between the read and the update.
	deps.tokenRepo.revokeFunc = func(ctx context.Context, id string) (bool, error) {
		return false, nil
	}

	_, err := svc.RestoreWeb(context.Background(), loginResult.RefreshToken, "", "")
	if !errors.Is(err, service.ErrTokenReuse) {
		t.Fatalf("expected ErrTokenReuse, got %v", err)
	}
}

func TestAuthService_RestoreWeb_UnrecognizedToken(t *testing.T) {
	svc, deps := setupAuthService(t)

	loginResult, _ := loginAndCapture(t, svc, deps, "user-123")

	// The user has records, but none match the presented token.
	otherHash, err := deps.tokenHasher.Hash("some other token")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	deps.tokenRepo.findByUserIDFunc = func(ctx context.Context, userID string) ([]authdomain.RefreshToken, error) {
		return []authdomain.RefreshToken{{
			ID:        "rt-other",
			TokenHash: otherHash,
			UserID:    "user-123",
			ExpiresAt: deps.clock.Now().Add(time.Hour),
		}}, nil
	}

	_, err = svc.RestoreWeb(context.Background(), loginResult.RefreshToken, "", "")
	if !errors.Is(err, service.ErrTokenNotRecognized) {
		t.Fatalf("expected ErrTokenNotRecognized, got %v", err)
	}
}

func TestAuthService_RestoreWeb_BadSignature(t *testing.T) {
	svc, deps := setupAuthService(t)

	// A token signed with the access secret must not pass refresh checks.
	deps.userRepo.findByIDFunc = func(ctx context.Context, id userdomain.ID) (userdomain.User, error) {
		return userdomain.User{ID: id, RoleName: userdomain.RoleUser}, nil
	}
	accessToken, err := deps.issuer.IssueAccessToken(userdomain.User{ID: "user-123", RoleName: userdomain.RoleUser})
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	_, err = svc.RestoreWeb(context.Background(), accessToken, "", "")
	if !errors.Is(err, service.ErrInvalidRefreshToken) {
		t.Fatalf("expected ErrInvalidRefreshToken, got %v", err)
	}
}

func TestAuthService_RestoreWeb_MissingToken(t *testing.T) {
	svc, _ := setupAuthService(t)

	_, err := svc.RestoreWeb(context.Background(), "", "", "")
	if !errors.Is(err, service.ErrMissingRefreshToken) {
		t.Fatalf("expected ErrMissingRefreshToken, got %v", err)
	}
}

func TestAuthService_RestoreWeb_SubjectGone(t *testing.T) {
	svc, deps := setupAuthService(t)

	loginResult, stored := loginAndCapture(t, svc, deps, "user-123")

	deps.tokenRepo.findByUserIDFunc = func(ctx context.Context, userID string) ([]authdomain.RefreshToken, error) {
		return []authdomain.RefreshToken{*stored}, nil
	}
	deps.userRepo.findByIDFunc = func(ctx context.Context, id userdomain.ID) (userdomain.User, error) {
		return userdomain.User{}, userrepo.ErrUserNotFound
	}

	_, err := svc.RestoreWeb(context.Background(), loginResult.RefreshToken, "", "")
	if !errors.Is(err, service.ErrUnknownSubject) {
		t.Fatalf("expected ErrUnknownSubject, got %v", err)
	}
}

func TestAuthService_RestoreApp_DoesNotRotate(t *testing.T) {
	svc, deps := setupAuthService(t)

	loginResult, stored := loginAndCapture(t, svc, deps, "user-123")

	deps.tokenRepo.findByUserIDFunc = func(ctx context.Context, userID string) ([]authdomain.RefreshToken, error) {
		return []authdomain.RefreshToken{*stored}, nil
	}
	deps.tokenRepo.revokeFunc = func(ctx context.Context, id string) (bool, error) {
		t.Error("app restore must not revoke the refresh token")
		return false, nil
	}

	first, err := svc.RestoreApp(context.Background(), loginResult.RefreshToken, "10.0.0.1")
	if err != nil {
		t.Fatalf("first restore failed: %v", err)
	}
	if first.AccessToken == "" {
		t.Error("expected an access token")
	}
	if first.RefreshToken != "" {
		t.Error("app restore must not issue a refresh token")
	}

	// The same token keeps working.
	if _, err := svc.RestoreApp(context.Background(), loginResult.RefreshToken, "10.0.0.1"); err != nil {
		t.Fatalf("second restore failed: %v", err)
	}
}

func TestAuthService_RestoreApp_ExpiredRecord(t *testing.T) {
	svc, deps := setupAuthService(t)

	loginResult, stored := loginAndCapture(t, svc, deps, "user-123")

	deps.tokenRepo.findByUserIDFunc = func(ctx context.Context, userID string) ([]authdomain.RefreshToken, error) {
		return []authdomain.RefreshToken{*stored}, nil
	}

	deps.clock.Advance(15 * 24 * time.Hour)

	_, err := svc.RestoreApp(context.Background(), loginResult.RefreshToken, "")
	if !errors.Is(err, service.ErrInvalidRefreshToken) {
		t.Fatalf("expected ErrInvalidRefreshToken, got %v", err)
	}
}
