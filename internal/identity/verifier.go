package identity

import "context"

// ProviderIdentity is the subject asserted by an external identity provider.
type ProviderIdentity struct {
	Subject string
	Email   string
}

// TokenVerifier checks a provider-issued token and returns the identity it
// asserts. Implementations decide how the token is validated.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (ProviderIdentity, error)
}
