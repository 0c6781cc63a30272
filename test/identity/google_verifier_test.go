package identity

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stockroom-app/backend/internal/identity"
)

func newTokenInfoServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("id_token") == "" {
			t.Error("expected id_token query parameter")
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGoogleVerifier_Success(t *testing.T) {
	srv := newTokenInfoServer(t, http.StatusOK,
		`{"sub":"google-sub","aud":"client-id","email":"user@example.com","email_verified":"true"}`)

	verifier := identity.NewGoogleVerifierWithEndpoint("client-id", srv.URL)

	asserted, err := verifier.Verify(context.Background(), "provider-token")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if asserted.Subject != "google-sub" {
		t.Errorf("expected subject google-sub, got %s", asserted.Subject)
	}
	if asserted.Email != "user@example.com" {
		t.Errorf("expected provider email, got %s", asserted.Email)
	}
}

func TestGoogleVerifier_RejectedToken(t *testing.T) {
	srv := newTokenInfoServer(t, http.StatusBadRequest, `{"error":"invalid_token"}`)

	verifier := identity.NewGoogleVerifierWithEndpoint("client-id", srv.URL)

	_, err := verifier.Verify(context.Background(), "bad-token")
	if !errors.Is(err, identity.ErrTokenRejected) {
		t.Fatalf("expected ErrTokenRejected, got %v", err)
	}
}

func TestGoogleVerifier_WrongAudience(t *testing.T) {
	srv := newTokenInfoServer(t, http.StatusOK,
		`{"sub":"google-sub","aud":"other-client","email":"user@example.com","email_verified":"true"}`)

	verifier := identity.NewGoogleVerifierWithEndpoint("client-id", srv.URL)

	_, err := verifier.Verify(context.Background(), "provider-token")
	if !errors.Is(err, identity.ErrWrongAudience) {
		t.Fatalf("expected ErrWrongAudience, got %v", err)
	}
}

func TestGoogleVerifier_UnverifiedEmail(t *testing.T) {
	srv := newTokenInfoServer(t, http.StatusOK,
		`{"sub":"google-sub","aud":"client-id","email":"user@example.com","email_verified":"false"}`)

	verifier := identity.NewGoogleVerifierWithEndpoint("client-id", srv.URL)

	_, err := verifier.Verify(context.Background(), "provider-token")
	if !errors.Is(err, identity.ErrEmailUnverified) {
		t.Fatalf("expected ErrEmailUnverified, got %v", err)
	}
}
