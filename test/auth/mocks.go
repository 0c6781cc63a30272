package auth

import (
	"context"
	"testing"
	"time"

	authdomain "github.com/stockroom-app/backend/internal/auth/domain"
	authrepo "github.com/stockroom-app/backend/internal/auth/repository"
	"github.com/stockroom-app/backend/internal/auth/service"
	"github.com/stockroom-app/backend/internal/common/clock"
	commoncrypto "github.com/stockroom-app/backend/internal/common/crypto"
	"github.com/stockroom-app/backend/internal/common/logger"
	"github.com/stockroom-app/backend/internal/identity"
	userdomain "github.com/stockroom-app/backend/internal/user/domain"
	userrepo "github.com/stockroom-app/backend/internal/user/repository"
)

type mockUserRepo struct {
	createFunc            func(ctx context.Context, user userdomain.User) error
	findByEmailFunc       func(ctx context.Context, email string) (userdomain.User, error)
	findByIDFunc          func(ctx context.Context, id userdomain.ID) (userdomain.User, error)
	findOrCreateOAuthFunc func(ctx context.Context, id userdomain.ID, email string) (userdomain.User, error)
}

func (m *mockUserRepo) Create(ctx context.Context, user userdomain.User) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, user)
	}
	return nil
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (userdomain.User, error) {
	if m.findByEmailFunc != nil {
		return m.findByEmailFunc(ctx, email)
	}
	return userdomain.User{}, userrepo.ErrUserNotFound
}

func (m *mockUserRepo) FindByID(ctx context.Context, id userdomain.ID) (userdomain.User, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return userdomain.User{}, userrepo.ErrUserNotFound
}

func (m *mockUserRepo) FindOrCreateOAuth(ctx context.Context, id userdomain.ID, email string) (userdomain.User, error) {
	if m.findOrCreateOAuthFunc != nil {
		return m.findOrCreateOAuthFunc(ctx, id, email)
	}
	return userdomain.User{ID: id, Email: email, RoleName: userdomain.RoleUser}, nil
}

type mockRefreshTokenRepo struct {
	createFunc             func(ctx context.Context, token authdomain.RefreshToken) error
	findByUserIDFunc       func(ctx context.Context, userID string) ([]authdomain.RefreshToken, error)
	revokeFunc             func(ctx context.Context, id string) (bool, error)
	countByUserIDFunc      func(ctx context.Context, userID string) (int, error)
	findOldestByUserIDFunc func(ctx context.Context, userID string, limit int) ([]string, error)
	deleteByIDsFunc        func(ctx context.Context, ids []string) error
	deleteExpiredFunc      func(ctx context.Context) (int64, error)
}

func (m *mockRefreshTokenRepo) Create(ctx context.Context, token authdomain.RefreshToken) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, token)
	}
	return nil
}

func (m *mockRefreshTokenRepo) FindByUserID(ctx context.Context, userID string) ([]authdomain.RefreshToken, error) {
	if m.findByUserIDFunc != nil {
		return m.findByUserIDFunc(ctx, userID)
	}
	return nil, nil
}

func (m *mockRefreshTokenRepo) Revoke(ctx context.Context, id string) (bool, error) {
	if m.revokeFunc != nil {
		return m.revokeFunc(ctx, id)
	}
	return true, nil
}

func (m *mockRefreshTokenRepo) CountByUserID(ctx context.Context, userID string) (int, error) {
	if m.countByUserIDFunc != nil {
		return m.countByUserIDFunc(ctx, userID)
	}
	return 0, nil
}

func (m *mockRefreshTokenRepo) FindOldestByUserID(ctx context.Context, userID string, limit int) ([]string, error) {
	if m.findOldestByUserIDFunc != nil {
		return m.findOldestByUserIDFunc(ctx, userID, limit)
	}
	return nil, nil
}

func (m *mockRefreshTokenRepo) DeleteByIDs(ctx context.Context, ids []string) error {
	if m.deleteByIDsFunc != nil {
		return m.deleteByIDsFunc(ctx, ids)
	}
	return nil
}

func (m *mockRefreshTokenRepo) DeleteExpired(ctx context.Context) (int64, error) {
	if m.deleteExpiredFunc != nil {
		return m.deleteExpiredFunc(ctx)
	}
	return 0, nil
}

type mockBlocklist struct {
	blockFunc     func(ctx context.Context, token string, ttl time.Duration) error
	isBlockedFunc func(ctx context.Context, token string) (bool, error)
}

func (m *mockBlocklist) Block(ctx context.Context, token string, ttl time.Duration) error {
	if m.blockFunc != nil {
		return m.blockFunc(ctx, token, ttl)
	}
	return nil
}

func (m *mockBlocklist) IsBlocked(ctx context.Context, token string) (bool, error) {
	if m.isBlockedFunc != nil {
		return m.isBlockedFunc(ctx, token)
	}
	return false, nil
}

type mockVerifier struct {
	verifyFunc func(ctx context.Context, token string) (identity.ProviderIdentity, error)
}

func (m *mockVerifier) Verify(ctx context.Context, token string) (identity.ProviderIdentity, error) {
	if m.verifyFunc != nil {
		return m.verifyFunc(ctx, token)
	}
	return identity.ProviderIdentity{}, identity.ErrTokenRejected
}

type mockHasher struct {
	hashFunc    func(password string) (string, error)
	compareFunc func(hash string, password string) error
}

func (m *mockHasher) Hash(password string) (string, error) {
	if m.hashFunc != nil {
		return m.hashFunc(password)
	}
	return "hashed_" + password, nil
}

func (m *mockHasher) Compare(hash string, password string) error {
	if m.compareFunc != nil {
		return m.compareFunc(hash, password)
	}
	return nil
}

type mockBreaker struct {
	callFunc func(ctx context.Context, fn func(context.Context) error) error
}

func (m *mockBreaker) Call(ctx context.Context, fn func(context.Context) error) error {
	if m.callFunc != nil {
		return m.callFunc(ctx, fn)
	}
	return fn(ctx)
}

const (
	testAccessSecret  = "test-access-secret-0123456789abcdef"
	testRefreshSecret = "test-refresh-secret-0123456789abcd"
)

type testDeps struct {
	userRepo    *mockUserRepo
	tokenRepo   *mockRefreshTokenRepo
	blocklist   *mockBlocklist
	verifier    *mockVerifier
	hasher      *mockHasher
	issuer      *service.TokenIssuer
	tokenHasher commoncrypto.TokenHasher
	clock       *clock.MockClock
}

func setupAuthService(t *testing.T) (*service.AuthService, *testDeps) {
	t.Helper()

	deps := &testDeps{
		userRepo:  &mockUserRepo{},
		tokenRepo: &mockRefreshTokenRepo{},
		blocklist: &mockBlocklist{},
		verifier:  &mockVerifier{},
		hasher:    &mockHasher{},
		clock:     clock.NewMockClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)),
	}

	log, _ := logger.New("", "test", "info")

	deps.issuer = service.NewTokenIssuer(
		testAccessSecret,
		testRefreshSecret,
		commoncrypto.NewUUIDGenerator(),
		time.Hour,
		14*24*time.Hour,
		deps.clock,
	)
	// Minimum bcrypt cost keeps the real hashing path while staying fast.
	deps.tokenHasher = commoncrypto.NewBcryptTokenHasher(4)

	matcher := service.NewTokenMatcher(deps.tokenHasher)
	retention := service.NewRetentionPolicy(deps.tokenRepo, 5, log)

	svc := service.NewAuthService(
		deps.userRepo,
		deps.tokenRepo,
		deps.blocklist,
		deps.verifier,
		deps.issuer,
		matcher,
		retention,
		deps.hasher,
		deps.tokenHasher,
		commoncrypto.NewUUIDGenerator(),
		&mockBreaker{},
		deps.clock,
		log,
	)

	return svc, deps
}

var _ userrepo.Repository = (*mockUserRepo)(nil)
var _ authrepo.RefreshTokenRepository = (*mockRefreshTokenRepo)(nil)
var _ authrepo.AccessTokenBlocklist = (*mockBlocklist)(nil)
var _ identity.TokenVerifier = (*mockVerifier)(nil)
var _ commoncrypto.PasswordHasher = (*mockHasher)(nil)
