package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	authdomain "github.com/stockroom-app/backend/internal/auth/domain"
	authhttp "github.com/stockroom-app/backend/internal/auth/http"
	"github.com/stockroom-app/backend/internal/auth/service"
	"github.com/stockroom-app/backend/internal/common/constants"
	"github.com/stockroom-app/backend/internal/common/logger"
	userdomain "github.com/stockroom-app/backend/internal/user/domain"
)

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func newTestHandler(t *testing.T, svc *service.AuthService) http.Handler {
	t.Helper()
	log, _ := logger.New("", "test", "info")
	return authhttp.NewHandler(svc, authhttp.HandlerConfig{
		Cookies:        authhttp.CookiePolicy{},
		FrontendURL:    "https://app.example.com/oauth",
		RequestTimeout: 30 * time.Second,
	}, log)
}

func refreshCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == constants.RefreshTokenCookieName {
			return c
		}
	}
	return nil
}

func TestAuthHTTP_Login_SetsRefreshCookie(t *testing.T) {
	svc, deps := setupAuthService(t)
	h := newTestHandler(t, svc)

	deps.userRepo.findByEmailFunc = func(ctx context.Context, email string) (userdomain.User, error) {
		return userdomain.User{
			ID:           "user-123",
			Email:        email,
			PasswordHash: strPtr("hashed_password123"),
			RoleName:     userdomain.RoleUser,
		}, nil
	}

	body, _ := json.Marshal(map[string]string{
		"email":    "user@example.com",
		"password": "password123",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		AccessToken string `json:"accessToken"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if resp.AccessToken == "" {
		t.Error("expected access token in body")
	}
	if strings.Contains(rec.Body.String(), "refreshToken") {
		t.Error("refresh token must not appear in the web response body")
	}

	cookie := refreshCookie(rec)
	if cookie == nil {
		t.Fatal("expected refresh cookie to be set")
	}
	if !cookie.HttpOnly {
		t.Error("refresh cookie must be http-only")
	}
	if cookie.Path != "/" {
		t.Errorf("expected cookie path /, got %s", cookie.Path)
	}
	if cookie.Value == resp.AccessToken {
		t.Error("cookie must carry the refresh token, not the access token")
	}
}

func TestAuthHTTP_Login_InvalidJSON(t *testing.T) {
	svc, _ := setupAuthService(t)
	h := newTestHandler(t, svc)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader([]byte("not json")))
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
	var env errorEnvelope
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if env.Code != "INVALID_JSON" {
		t.Errorf("expected code INVALID_JSON, got %s", env.Code)
	}
}

func TestAuthHTTP_Login_ValidationError(t *testing.T) {
	svc, _ := setupAuthService(t)
	h := newTestHandler(t, svc)

	body, _ := json.Marshal(map[string]string{
		"email":    "not-an-email",
		"password": "password123",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
	var env errorEnvelope
	_ = json.NewDecoder(rec.Body).Decode(&env)
	if env.Code != "VALIDATION_FAILED" {
		t.Errorf("expected code VALIDATION_FAILED, got %s", env.Code)
	}
}

func TestAuthHTTP_Login_MethodNotAllowed(t *testing.T) {
	svc, _ := setupAuthService(t)
	h := newTestHandler(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/login", nil)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status 405, got %d", rec.Code)
	}
}

func TestAuthHTTP_Restore_MissingCookie(t *testing.T) {
	svc, _ := setupAuthService(t)
	h := newTestHandler(t, svc)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/restore", nil)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", rec.Code)
	}
	var env errorEnvelope
	_ = json.NewDecoder(rec.Body).Decode(&env)
	if env.Code != "MISSING_REFRESH_TOKEN" {
		t.Errorf("expected code MISSING_REFRESH_TOKEN, got %s", env.Code)
	}
}

func TestAuthHTTP_Me_ValidToken(t *testing.T) {
	svc, deps := setupAuthService(t)
	h := newTestHandler(t, svc)

	user := userdomain.User{ID: "user-123", Email: "user@example.com", RoleName: userdomain.RoleUser}
	deps.userRepo.findByIDFunc = func(ctx context.Context, id userdomain.ID) (userdomain.User, error) {
		return user, nil
	}

	accessToken, err := deps.issuer.IssueAccessToken(user)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+accessToken)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if resp.ID != "user-123" || resp.Email != "user@example.com" {
		t.Errorf("unexpected user payload: %+v", resp)
	}
}

func TestAuthHTTP_Me_BlockedToken(t *testing.T) {
	svc, deps := setupAuthService(t)
	h := newTestHandler(t, svc)

	user := userdomain.User{ID: "user-123", Email: "user@example.com", RoleName: userdomain.RoleUser}
	deps.userRepo.findByIDFunc = func(ctx context.Context, id userdomain.ID) (userdomain.User, error) {
		return user, nil
	}
	deps.blocklist.isBlockedFunc = func(ctx context.Context, token string) (bool, error) {
		return true, nil
	}

	accessToken, err := deps.issuer.IssueAccessToken(user)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+accessToken)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
	var env errorEnvelope
	_ = json.NewDecoder(rec.Body).Decode(&env)
	if env.Code != "TOKEN_BLOCKED" {
		t.Errorf("expected code TOKEN_BLOCKED, got %s", env.Code)
	}
}

func TestAuthHTTP_Me_MissingAuthorization(t *testing.T) {
	svc, _ := setupAuthService(t)
	h := newTestHandler(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", rec.Code)
	}
}

func TestAuthHTTP_Logout_ClearsCookieEvenWithoutToken(t *testing.T) {
	svc, _ := setupAuthService(t)
	h := newTestHandler(t, svc)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401 without a refresh token, got %d", rec.Code)
	}

	cookie := refreshCookie(rec)
	if cookie == nil {
		t.Fatal("expected the refresh cookie to be cleared")
	}
	if cookie.Value != "" || cookie.MaxAge != -1 {
		t.Errorf("expected a deletion cookie, got value=%q maxage=%d", cookie.Value, cookie.MaxAge)
	}
}

func TestAuthHTTP_Logout_WithCookie(t *testing.T) {
	svc, deps := setupAuthService(t)
	h := newTestHandler(t, svc)

	loginResult, stored := loginAndCapture(t, svc, deps, "user-123")
	deps.tokenRepo.findByUserIDFunc = func(ctx context.Context, userID string) ([]authdomain.RefreshToken, error) {
		return []authdomain.RefreshToken{*stored}, nil
	}

	var revokedID string
	deps.tokenRepo.revokeFunc = func(ctx context.Context, id string) (bool, error) {
		revokedID = id
		return true, nil
	}

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: constants.RefreshTokenCookieName, Value: loginResult.RefreshToken})
	req.Header.Set("Authorization", "Bearer "+loginResult.AccessToken)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "logged out") {
		t.Errorf("expected logout confirmation, got %s", rec.Body.String())
	}

	cookie := refreshCookie(rec)
	if cookie == nil || cookie.MaxAge != -1 {
		t.Error("expected the refresh cookie to be cleared")
	}
	if revokedID != stored.ID {
		t.Errorf("expected revocation of %s, got %s", stored.ID, revokedID)
	}
}
