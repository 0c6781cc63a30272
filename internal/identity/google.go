package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/stockroom-app/backend/internal/common/constants"
)

const googleTokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"

var (
	ErrTokenRejected   = errors.New("identity provider rejected token")
	ErrWrongAudience   = errors.New("token issued for a different audience")
	ErrEmailUnverified = errors.New("provider email is not verified")
)

// GoogleVerifier validates Google ID tokens against the tokeninfo endpoint
// and checks the audience matches the configured OAuth client.
type GoogleVerifier struct {
	clientID string
	baseURL  string
	client   *http.Client
}

func NewGoogleVerifier(clientID string) *GoogleVerifier {
	return &GoogleVerifier{
		clientID: clientID,
		baseURL:  googleTokenInfoURL,
		client:   &http.Client{Timeout: constants.IdentityRequestTimeout},
	}
}

// NewGoogleVerifierWithEndpoint overrides the tokeninfo endpoint, used in tests.
func NewGoogleVerifierWithEndpoint(clientID, baseURL string) *GoogleVerifier {
	v := NewGoogleVerifier(clientID)
	v.baseURL = baseURL
	return v
}

type tokenInfoResponse struct {
	Sub           string `json:"sub"`
	Aud           string `json:"aud"`
	Email         string `json:"email"`
	EmailVerified string `json:"email_verified"`
}

func (v *GoogleVerifier) Verify(ctx context.Context, token string) (ProviderIdentity, error) {
	reqURL := v.baseURL + "?id_token=" + url.QueryEscape(token)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return ProviderIdentity{}, fmt.Errorf("failed to build tokeninfo request: %w", err)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return ProviderIdentity{}, fmt.Errorf("tokeninfo request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ProviderIdentity{}, ErrTokenRejected
	}

	var info tokenInfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return ProviderIdentity{}, fmt.Errorf("failed to decode tokeninfo response: %w", err)
	}

	if info.Aud != v.clientID {
		return ProviderIdentity{}, ErrWrongAudience
	}
	if info.EmailVerified != "true" {
		return ProviderIdentity{}, ErrEmailUnverified
	}

	return ProviderIdentity{Subject: info.Sub, Email: info.Email}, nil
}
