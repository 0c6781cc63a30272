package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/stockroom-app/backend/internal/common/constants"
	commonerrors "github.com/stockroom-app/backend/internal/common/errors"
)

// AuthConfig carries everything the auth service needs at construction time.
// Nothing in the service reads the process environment after startup.
type AuthConfig struct {
	HTTPPort    string
	DatabaseURL string
	RedisAddr   string

	AccessTokenSecret  string
	RefreshTokenSecret string
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration

	MaxRefreshTokensPerUser int
	BcryptCost              int

	GoogleClientID string
	FrontendURL    string

	Environment  string
	CookieSecure bool

	RequestTimeout time.Duration

	CircuitBreakerThreshold int
	CircuitBreakerTimeout   time.Duration
	CircuitBreakerReset     time.Duration
}

func (c AuthConfig) IsProduction() bool {
	return c.Environment == "production"
}

func LoadAuthConfig() (AuthConfig, error) {
	accessSecret, err := mustEnv("JWT_ACCESS_TOKEN_SECRET")
	if err != nil {
		return AuthConfig{}, err
	}
	refreshSecret, err := mustEnv("JWT_REFRESH_TOKEN_SECRET")
	if err != nil {
		return AuthConfig{}, err
	}
	for _, secret := range []string{accessSecret, refreshSecret} {
		if err := validateTokenSecret(secret); err != nil {
			return AuthConfig{}, err
		}
	}

	databaseURL, err := mustEnv("DATABASE_URL")
	if err != nil {
		return AuthConfig{}, err
	}

	redisAddr, err := mustEnv("REDIS_ADDR")
	if err != nil {
		return AuthConfig{}, err
	}

	googleClientID, err := mustEnv("GOOGLE_CLIENT_ID")
	if err != nil {
		return AuthConfig{}, err
	}

	return AuthConfig{
		HTTPPort:                getEnv("AUTH_HTTP_PORT", constants.DefaultAuthHTTPPort),
		DatabaseURL:             databaseURL,
		RedisAddr:               redisAddr,
		AccessTokenSecret:       accessSecret,
		RefreshTokenSecret:      refreshSecret,
		AccessTokenTTL:          getDurationEnv("JWT_ACCESS_TOKEN_TTL", constants.DefaultAccessTokenTTL),
		RefreshTokenTTL:         getDurationEnv("JWT_REFRESH_TOKEN_TTL", constants.DefaultRefreshTokenTTL),
		MaxRefreshTokensPerUser: getIntEnv("MAX_REFRESH_TOKENS_PER_USER", constants.DefaultMaxRefreshTokensPerUser),
		BcryptCost:              getIntEnv("BCRYPT_COST", constants.DefaultBcryptCost),
		GoogleClientID:          googleClientID,
		FrontendURL:             getEnv("FRONTEND_URL", "http://localhost:3000"),
		Environment:             getEnv("APP_ENV", "development"),
		CookieSecure:            getBoolEnv("COOKIE_SECURE", false),
		RequestTimeout:          getDurationEnv("AUTH_REQUEST_TIMEOUT", constants.DefaultAuthRequestTimeout),
		CircuitBreakerThreshold: getIntEnv("DB_CB_THRESHOLD", constants.DefaultCircuitBreakerThreshold),
		CircuitBreakerTimeout:   getDurationEnv("DB_CB_TIMEOUT", constants.DefaultCircuitBreakerTimeout),
		CircuitBreakerReset:     getDurationEnv("DB_CB_RESET", constants.DefaultCircuitBreakerReset),
	}, nil
}

func validateTokenSecret(secret string) error {
	if len(secret) < constants.TokenSecretMinLength {
		return commonerrors.ErrWeakTokenSecret.WithCause(fmt.Errorf("got %d bytes", len(secret)))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func mustEnv(key string) (string, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return "", commonerrors.ErrMissingRequiredEnv.WithCause(fmt.Errorf("%s", key))
	}
	return v, nil
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func getIntEnv(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

func getBoolEnv(key string, fallback bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
