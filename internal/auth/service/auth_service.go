package service

import (
	"context"
	"errors"
	"time"

	authdomain "github.com/stockroom-app/backend/internal/auth/domain"
	authrepo "github.com/stockroom-app/backend/internal/auth/repository"
	"github.com/stockroom-app/backend/internal/common/clock"
	commoncrypto "github.com/stockroom-app/backend/internal/common/crypto"
	commonerrors "github.com/stockroom-app/backend/internal/common/errors"
	"github.com/stockroom-app/backend/internal/common/logger"
	"github.com/stockroom-app/backend/internal/common/resilience"
	"github.com/stockroom-app/backend/internal/identity"
	userdomain "github.com/stockroom-app/backend/internal/user/domain"
	userrepo "github.com/stockroom-app/backend/internal/user/repository"
)

// TokenSource names where the refresh token in a logout request came from.
type TokenSource int

const (
	SourceMissing TokenSource = iota
	SourceAppToken
	SourceWebCookie
)

type AuthService struct {
	users         userrepo.Repository
	refreshTokens authrepo.RefreshTokenRepository
	blocklist     authrepo.AccessTokenBlocklist
	verifier      identity.TokenVerifier
	issuer        *TokenIssuer
	matcher       *TokenMatcher
	retention     *RetentionPolicy
	hasher        commoncrypto.PasswordHasher
	tokenHasher   commoncrypto.TokenHasher
	idGenerator   commoncrypto.IDGenerator
	breaker       resilience.CircuitBreakerInterface
	clock         clock.Clock
	log           *logger.Logger
}

func NewAuthService(
	users userrepo.Repository,
	refreshTokens authrepo.RefreshTokenRepository,
	blocklist authrepo.AccessTokenBlocklist,
	verifier identity.TokenVerifier,
	issuer *TokenIssuer,
	matcher *TokenMatcher,
	retention *RetentionPolicy,
	hasher commoncrypto.PasswordHasher,
	tokenHasher commoncrypto.TokenHasher,
	idGenerator commoncrypto.IDGenerator,
	breaker resilience.CircuitBreakerInterface,
	clock clock.Clock,
	log *logger.Logger,
) *AuthService {
	return &AuthService{
		users:         users,
		refreshTokens: refreshTokens,
		blocklist:     blocklist,
		verifier:      verifier,
		issuer:        issuer,
		matcher:       matcher,
		retention:     retention,
		hasher:        hasher,
		tokenHasher:   tokenHasher,
		idGenerator:   idGenerator,
		breaker:       breaker,
		clock:         clock,
		log:           log,
	}
}

type LoginInput struct {
	Email    string
	Password string
	Device   string
	ClientIP string
}

type OAuthInput struct {
	ProviderToken string
	Device        string
	ClientIP      string
}

type LogoutInput struct {
	AccessToken  string
	RefreshToken string
	Source       TokenSource
}

type AuthResult struct {
	User             userdomain.User
	AccessToken      string
	RefreshToken     string
	RefreshExpiresAt time.Time
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (AuthResult, error) {
	s.log.WithFields(ctx, logger.Fields{
		"email":  input.Email,
		"action": "login_attempt",
	}).Info("login attempt")

	user, err := s.users.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, userrepo.ErrUserNotFound) {
			s.log.WithFields(ctx, logger.Fields{
				"email":  input.Email,
				"action": "login_user_not_found",
			}).Warn("login failed: not found")
			return AuthResult{}, ErrInvalidCredentials
		}
		s.log.WithFields(ctx, logger.Fields{
			"email":  input.Email,
			"action": "login_fetch_failed",
		}).Errorf("login failed: %v", err)
		return AuthResult{}, commonerrors.ErrDatabaseError.WithCause(err)
	}

	if user.IsSocialOnly() {
		s.log.WithFields(ctx, logger.Fields{
			"email":  input.Email,
			"action": "login_social_only",
		}).Warn("login failed: account has no password")
		return AuthResult{}, ErrSocialOnlyAccount
	}

	if err := s.hasher.Compare(*user.PasswordHash, input.Password); err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"email":  input.Email,
			"action": "login_invalid_password",
		}).Warn("login failed: invalid password")
		return AuthResult{}, ErrInvalidCredentials
	}

	result, err := s.issueTokenPair(ctx, user, input.Device, input.ClientIP)
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"email":   input.Email,
			"user_id": string(user.ID),
			"action":  "login_token_issue_failed",
		}).Errorf("login failed: token issue error: %v", err)
		return AuthResult{}, err
	}

	s.log.WithFields(ctx, logger.Fields{
		"email":   user.Email,
		"user_id": string(user.ID),
		"action":  "login_success",
	}).Info("login success")

	return result, nil
}

func (s *AuthService) LoginOAuthApp(ctx context.Context, input OAuthInput) (AuthResult, error) {
	return s.loginOAuth(ctx, input, "app")
}

func (s *AuthService) LoginOAuthWeb(ctx context.Context, input OAuthInput) (AuthResult, error) {
	return s.loginOAuth(ctx, input, "web")
}

func (s *AuthService) loginOAuth(ctx context.Context, input OAuthInput, surface string) (AuthResult, error) {
	s.log.WithFields(ctx, logger.Fields{
		"surface": surface,
		"action":  "oauth_login_attempt",
	}).Info("federated login attempt")

	asserted, err := s.verifier.Verify(ctx, input.ProviderToken)
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"surface": surface,
			"action":  "oauth_token_rejected",
		}).Warnf("federated login failed: %v", err)
		return AuthResult{}, ErrInvalidProviderToken.WithCause(err)
	}

	id, err := s.idGenerator.NewID()
	if err != nil {
		return AuthResult{}, commonerrors.ErrInternalError.WithCause(err)
	}

	user, err := s.users.FindOrCreateOAuth(ctx, userdomain.ID(id), asserted.Email)
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"email":   asserted.Email,
			"surface": surface,
			"action":  "oauth_user_resolve_failed",
		}).Errorf("federated login failed: %v", err)
		return AuthResult{}, commonerrors.ErrDatabaseError.WithCause(err)
	}

	result, err := s.issueTokenPair(ctx, user, input.Device, input.ClientIP)
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"user_id": string(user.ID),
			"surface": surface,
			"action":  "oauth_token_issue_failed",
		}).Errorf("federated login failed: token issue error: %v", err)
		return AuthResult{}, err
	}

	incrementFederatedLogins(surface)
	s.log.WithFields(ctx, logger.Fields{
		"email":   user.Email,
		"user_id": string(user.ID),
		"surface": surface,
		"action":  "oauth_login_success",
	}).Info("federated login success")

	return result, nil
}

// RestoreWeb exchanges a valid refresh token for a fresh token pair. The
// presented record is revoked exactly once; presenting it again is treated
// as reuse and rejected.
func (s *AuthService) RestoreWeb(ctx context.Context, refreshToken string, device string, clientIP string) (AuthResult, error) {
	s.log.WithFields(ctx, logger.Fields{
		"action": "restore_attempt",
	}).Info("session restore attempt")

	stored, user, err := s.resolveRefreshToken(ctx, refreshToken, clientIP)
	if err != nil {
		return AuthResult{}, err
	}

	revoked, err := s.refreshTokens.Revoke(ctx, stored.ID)
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"user_id": stored.UserID,
			"action":  "restore_revoke_failed",
		}).Errorf("session restore failed to revoke old token: %v", err)
		return AuthResult{}, commonerrors.ErrDatabaseError.WithCause(err)
	}
	if !revoked {
		s.log.WithFields(ctx, logger.Fields{
			"user_id": stored.UserID,
			"action":  "restore_reuse_detected",
		}).Warn("session restore failed: token already revoked")
		incrementRefreshTokenReuseDetected()
		return AuthResult{}, ErrTokenReuse
	}
	incrementRefreshTokensRevoked()

	result, err := s.issueTokenPair(ctx, user, device, clientIP)
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"user_id": stored.UserID,
			"action":  "restore_token_issue_failed",
		}).Errorf("session restore failed: token issue error: %v", err)
		return AuthResult{}, err
	}

	incrementRefreshTokensRotated()
	s.log.WithFields(ctx, logger.Fields{
		"user_id": stored.UserID,
		"action":  "restore_success",
	}).Info("session restore success")

	return result, nil
}

// RestoreApp issues a fresh access token against an app-held refresh token.
// The refresh token stays valid; app sessions do not rotate.
func (s *AuthService) RestoreApp(ctx context.Context, refreshToken string, clientIP string) (AuthResult, error) {
	s.log.WithFields(ctx, logger.Fields{
		"action": "restore_app_attempt",
	}).Info("app session restore attempt")

	stored, user, err := s.resolveRefreshToken(ctx, refreshToken, clientIP)
	if err != nil {
		return AuthResult{}, err
	}

	accessToken, err := s.issuer.IssueAccessToken(user)
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"user_id": stored.UserID,
			"action":  "restore_app_token_issue_failed",
		}).Errorf("app session restore failed: token issue error: %v", err)
		return AuthResult{}, commonerrors.ErrInternalError.WithCause(err)
	}

	s.log.WithFields(ctx, logger.Fields{
		"user_id": stored.UserID,
		"action":  "restore_app_success",
	}).Info("app session restore success")

	return AuthResult{User: user, AccessToken: accessToken}, nil
}

// resolveRefreshToken validates a presented refresh token end to end: the
// signature and expiry, the stored record it matches, and the subject it
// names. All rejections collapse into 401-class errors.
func (s *AuthService) resolveRefreshToken(ctx context.Context, refreshToken string, clientIP string) (authdomain.RefreshToken, userdomain.User, error) {
	if refreshToken == "" {
		return authdomain.RefreshToken{}, userdomain.User{}, ErrMissingRefreshToken
	}

	claims, err := s.issuer.VerifyRefreshToken(refreshToken)
	if err != nil {
		fields := logger.Fields{"action": "restore_token_invalid"}
		if clientIP != "" {
			fields["client_ip"] = clientIP
		}
		s.log.WithFields(ctx, fields).Warnf("session restore failed: %v", err)
		return authdomain.RefreshToken{}, userdomain.User{}, ErrInvalidRefreshToken
	}

	candidates, err := s.refreshTokens.FindByUserID(ctx, claims.UserID)
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"user_id": claims.UserID,
			"action":  "restore_lookup_failed",
		}).Errorf("session restore lookup failed: %v", err)
		return authdomain.RefreshToken{}, userdomain.User{}, commonerrors.ErrDatabaseError.WithCause(err)
	}

	stored, ok := s.matcher.Match(refreshToken, candidates)
	if !ok {
		s.log.WithFields(ctx, logger.Fields{
			"user_id": claims.UserID,
			"action":  "restore_token_not_recognized",
		}).Warn("session restore failed: no matching record")
		return authdomain.RefreshToken{}, userdomain.User{}, ErrTokenNotRecognized
	}

	if stored.IsRevoked {
		s.log.WithFields(ctx, logger.Fields{
			"user_id": stored.UserID,
			"action":  "restore_reuse_detected",
		}).Warn("session restore failed: token already revoked")
		incrementRefreshTokenReuseDetected()
		return authdomain.RefreshToken{}, userdomain.User{}, ErrTokenReuse
	}

	if stored.IsExpired(s.clock.Now()) {
		s.log.WithFields(ctx, logger.Fields{
			"user_id": stored.UserID,
			"action":  "restore_token_expired",
		}).Warn("session restore failed: token expired")
		return authdomain.RefreshToken{}, userdomain.User{}, ErrInvalidRefreshToken
	}

	user, err := s.users.FindByID(ctx, userdomain.ID(stored.UserID))
	if err != nil {
		if errors.Is(err, userrepo.ErrUserNotFound) {
			s.log.WithFields(ctx, logger.Fields{
				"user_id": stored.UserID,
				"action":  "restore_subject_missing",
			}).Warn("session restore failed: subject no longer exists")
			return authdomain.RefreshToken{}, userdomain.User{}, ErrUnknownSubject
		}
		s.log.WithFields(ctx, logger.Fields{
			"user_id": stored.UserID,
			"action":  "restore_user_lookup_failed",
		}).Errorf("session restore failed: user lookup error: %v", err)
		return authdomain.RefreshToken{}, userdomain.User{}, commonerrors.ErrDatabaseError.WithCause(err)
	}

	return stored, user, nil
}

// Logout invalidates both halves of a session. The side channels are best
// effort: a blocklist or revocation failure is logged and swallowed so the
// client always ends up logged out.
func (s *AuthService) Logout(ctx context.Context, input LogoutInput) error {
	if input.Source == SourceMissing || input.RefreshToken == "" {
		s.log.WithFields(ctx, logger.Fields{
			"action": "logout_missing_token",
		}).Warn("logout failed: no refresh token presented")
		return ErrMissingRefreshToken
	}

	s.blockAccessToken(ctx, input.AccessToken)
	s.revokePresentedToken(ctx, input.RefreshToken)

	s.log.WithFields(ctx, logger.Fields{
		"action": "logout_success",
	}).Info("logout success")
	return nil
}

func (s *AuthService) blockAccessToken(ctx context.Context, accessToken string) {
	if accessToken == "" {
		return
	}

	claims, err := s.issuer.DecodeUnverified(accessToken)
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"action": "logout_access_decode_failed",
		}).Warnf("logout: could not decode access token: %v", err)
		return
	}

	ttl := claims.ExpiresAt.Sub(s.clock.Now())
	if err := s.blocklist.Block(ctx, accessToken, ttl); err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"user_id": claims.UserID,
			"action":  "logout_blocklist_failed",
		}).Errorf("logout: failed to block access token: %v", err)
		return
	}
	if ttl > 0 {
		incrementAccessTokensBlocked()
	}
}

func (s *AuthService) revokePresentedToken(ctx context.Context, refreshToken string) {
	claims, err := s.issuer.VerifyRefreshToken(refreshToken)
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"action": "logout_refresh_invalid",
		}).Warnf("logout: refresh token did not verify: %v", err)
		return
	}

	candidates, err := s.refreshTokens.FindByUserID(ctx, claims.UserID)
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"user_id": claims.UserID,
			"action":  "logout_lookup_failed",
		}).Errorf("logout: refresh token lookup failed: %v", err)
		return
	}

	stored, ok := s.matcher.Match(refreshToken, candidates)
	if !ok || stored.IsRevoked {
		return
	}

	revoked, err := s.refreshTokens.Revoke(ctx, stored.ID)
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"user_id": stored.UserID,
			"action":  "logout_revoke_failed",
		}).Errorf("logout: failed to revoke refresh token: %v", err)
		return
	}
	if revoked {
		incrementRefreshTokensRevoked()
		s.log.WithFields(ctx, logger.Fields{
			"user_id": stored.UserID,
			"action":  "refresh_token_revoked",
		}).Info("refresh token revoked")
	}
}

// Authenticate guards protected routes: the token must carry a valid
// signature and expiry, must not be on the block-list, and its subject must
// still exist.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (userdomain.User, TokenClaims, error) {
	claims, err := s.issuer.VerifyAccessToken(accessToken)
	if err != nil {
		return userdomain.User{}, TokenClaims{}, ErrInvalidAccessToken
	}

	blocked, err := s.checkBlocklist(ctx, accessToken)
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"user_id": claims.UserID,
			"action":  "blocklist_check_failed",
		}).Errorf("blocklist check failed: %v", err)
		return userdomain.User{}, TokenClaims{}, ErrServiceUnavailable.WithCause(err)
	}
	if blocked {
		return userdomain.User{}, TokenClaims{}, ErrAccessTokenBlocked
	}

	user, err := s.users.FindByID(ctx, userdomain.ID(claims.UserID))
	if err != nil {
		if errors.Is(err, userrepo.ErrUserNotFound) {
			return userdomain.User{}, TokenClaims{}, ErrUnknownSubject
		}
		return userdomain.User{}, TokenClaims{}, commonerrors.ErrDatabaseError.WithCause(err)
	}

	return user, claims, nil
}

func (s *AuthService) checkBlocklist(ctx context.Context, accessToken string) (bool, error) {
	incrementBlocklistChecks()
	blocked, err := s.blocklist.IsBlocked(ctx, accessToken)
	if err != nil {
		return false, err
	}
	if blocked {
		incrementBlocklistHits()
	}
	return blocked, nil
}

func (s *AuthService) issueTokenPair(ctx context.Context, user userdomain.User, device string, clientIP string) (AuthResult, error) {
	accessToken, err := s.issuer.IssueAccessToken(user)
	if err != nil {
		return AuthResult{}, commonerrors.ErrInternalError.WithCause(err)
	}

	refresh, err := s.issueRefreshToken(ctx, user, device, clientIP)
	if err != nil {
		return AuthResult{}, err
	}

	return AuthResult{
		User:             user,
		AccessToken:      accessToken,
		RefreshToken:     refresh.RawToken,
		RefreshExpiresAt: refresh.ExpiresAt,
	}, nil
}

func (s *AuthService) issueRefreshToken(ctx context.Context, user userdomain.User, device string, clientIP string) (authdomain.RefreshToken, error) {
	rawToken, err := s.issuer.IssueRefreshToken(user)
	if err != nil {
		return authdomain.RefreshToken{}, commonerrors.ErrInternalError.WithCause(err)
	}

	claims, err := s.issuer.DecodeUnverified(rawToken)
	if err != nil {
		return authdomain.RefreshToken{}, ErrTokenPayloadUnreadable.WithCause(err)
	}

	hash, err := s.tokenHasher.Hash(rawToken)
	if err != nil {
		return authdomain.RefreshToken{}, commonerrors.ErrInternalError.WithCause(err)
	}

	id, err := s.idGenerator.NewID()
	if err != nil {
		return authdomain.RefreshToken{}, commonerrors.ErrInternalError.WithCause(err)
	}

	stored := authdomain.RefreshToken{
		ID:        id,
		TokenHash: hash,
		UserID:    string(user.ID),
		Device:    device,
		IssuedIP:  clientIP,
		ExpiresAt: claims.ExpiresAt,
		CreatedAt: s.clock.Now(),
	}

	err = s.breaker.Call(ctx, func(ctx context.Context) error {
		return s.refreshTokens.Create(ctx, stored)
	})
	if err != nil {
		if errors.Is(err, commonerrors.ErrCircuitOpen) {
			return authdomain.RefreshToken{}, ErrServiceUnavailable.WithCause(err)
		}
		return authdomain.RefreshToken{}, ErrTokenSaveFailed.WithCause(err)
	}

	s.retention.Enforce(ctx, string(user.ID))

	stored.RawToken = rawToken
	return stored, nil
}
