package constants

import "time"

const (
	PasswordMinLength    = 8
	PasswordMaxLength    = 72
	TokenSecretMinLength = 32

	DefaultMaxRequestSize = 1 << 20

	DBPoolMaxConns        = 25
	DBPoolMinConns        = 5
	DBPoolConnMaxLifetime = time.Hour
	DBPoolConnMaxIdleTime = 30 * time.Minute
	DBPoolHealthCheck     = 1 * time.Minute
	DBPoolConnectTimeout  = 5 * time.Second
	DBPoolMaxAttempts     = 10
	DBPoolRetryDelay      = 1 * time.Second
	DBPoolMetricsInterval = 30 * time.Second
	DBQueryTimeout        = 30 * time.Second

	ServerReadHeaderTimeout = 10 * time.Second
	ServerReadTimeout       = 30 * time.Second
	ServerWriteTimeout      = 30 * time.Second
	ServerIdleTimeout       = 120 * time.Second

	ShutdownTimeout = 30 * time.Second
	DrainTimeout    = 10 * time.Second

	DefaultAuthHTTPPort = "8081"

	DefaultCircuitBreakerThreshold = 500
	DefaultCircuitBreakerTimeout   = 15 * time.Second
	DefaultCircuitBreakerReset     = 10 * time.Second

	DefaultAuthRequestTimeout      = 5 * time.Second
	DefaultAccessTokenTTL          = 1 * time.Hour
	DefaultRefreshTokenTTL         = 14 * 24 * time.Hour
	DefaultMaxRefreshTokensPerUser = 5

	DefaultBcryptCost = 12

	RefreshTokenCookieName = "refreshToken"

	IdentityRequestTimeout = 5 * time.Second

	CleanupInterval = time.Hour

	RateLimitCleanupInterval          = 10 * time.Minute
	RateLimitLoginRequestsPerSecond   = 1
	RateLimitLoginBurst               = 5
	RateLimitRestoreRequestsPerSecond = 2
	RateLimitRestoreBurst             = 10
	RateLimitLogoutRequestsPerSecond  = 2
	RateLimitLogoutBurst              = 5
	RateLimitGeneralRequestsPerSecond = 20
	RateLimitGeneralBurst             = 40

	LoggerMaxSize    = 100
	LoggerMaxBackups = 3
	LoggerMaxAge     = 28
)

type TraceIDKeyType string

const TraceIDKey TraceIDKeyType = "trace_id"
