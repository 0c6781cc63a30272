package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	authcleanup "github.com/stockroom-app/backend/internal/auth/cleanup"
	authhttp "github.com/stockroom-app/backend/internal/auth/http"
	authrepo "github.com/stockroom-app/backend/internal/auth/repository"
	"github.com/stockroom-app/backend/internal/auth/service"
	"github.com/stockroom-app/backend/internal/common/clock"
	"github.com/stockroom-app/backend/internal/common/config"
	commoncrypto "github.com/stockroom-app/backend/internal/common/crypto"
	"github.com/stockroom-app/backend/internal/common/db"
	commonhttp "github.com/stockroom-app/backend/internal/common/http"
	"github.com/stockroom-app/backend/internal/common/logger"
	"github.com/stockroom-app/backend/internal/common/resilience"
	srv "github.com/stockroom-app/backend/internal/common/server"
	"github.com/stockroom-app/backend/internal/identity"
	userrepo "github.com/stockroom-app/backend/internal/user/repository"
)

func main() {
	log, err := logger.New(os.Getenv("LOG_DIR"), "stockroom-auth", os.Getenv("LOG_LEVEL"))
	if err != nil {
		os.Stderr.WriteString(fmt.Sprintf("failed to initialize logger: %v\n", err))
		os.Exit(1)
	}

	cfg, err := config.LoadAuthConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := db.RunMigrations(context.Background(), cfg.DatabaseURL); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	pool := db.NewPool(log, cfg.DatabaseURL)
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()

	userRepo := userrepo.NewPgRepository(pool)
	refreshTokenRepo := authrepo.NewPgRefreshTokenRepository(pool)
	blocklist := authrepo.NewRedisBlocklist(redisClient)
	verifier := identity.NewGoogleVerifier(cfg.GoogleClientID)

	clk := clock.NewRealClock()
	idGenerator := commoncrypto.NewUUIDGenerator()
	passwordHasher := commoncrypto.NewBcryptHasher(cfg.BcryptCost)
	tokenHasher := commoncrypto.NewBcryptTokenHasher(cfg.BcryptCost)

	issuer := service.NewTokenIssuer(
		cfg.AccessTokenSecret,
		cfg.RefreshTokenSecret,
		idGenerator,
		cfg.AccessTokenTTL,
		cfg.RefreshTokenTTL,
		clk,
	)
	matcher := service.NewTokenMatcher(tokenHasher)
	retention := service.NewRetentionPolicy(refreshTokenRepo, cfg.MaxRefreshTokensPerUser, log)

	breaker := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		Threshold:  int32(cfg.CircuitBreakerThreshold),
		Timeout:    cfg.CircuitBreakerTimeout,
		ResetAfter: cfg.CircuitBreakerReset,
		Name:       "refresh_token_store",
		Logger:     log,
	})

	authService := service.NewAuthService(
		userRepo,
		refreshTokenRepo,
		blocklist,
		verifier,
		issuer,
		matcher,
		retention,
		passwordHasher,
		tokenHasher,
		idGenerator,
		breaker,
		clk,
		log,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cleanupWorker := authcleanup.NewWorker(refreshTokenRepo, log)
	go cleanupWorker.Run(ctx)

	handler := authhttp.NewHandler(authService, authhttp.HandlerConfig{
		Cookies: authhttp.CookiePolicy{
			Secure:     cfg.CookieSecure,
			Production: cfg.IsProduction(),
		},
		FrontendURL:    cfg.FrontendURL,
		RequestTimeout: cfg.RequestTimeout,
	}, log)

	mux := http.NewServeMux()
	mux.Handle("/", handler)
	mux.Handle("/metrics", promhttp.Handler())

	rateLimiter := commonhttp.NewStrictRateLimiter()
	baseHandler := commonhttp.BuildBaseHandler("stockroom-auth", log, mux)

	rateLimitMiddleware := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			if path == "/health" || path == "/metrics" {
				next.ServeHTTP(w, r)
				return
			}
			rateLimiter.MiddlewareForPath(path)(next).ServeHTTP(w, r)
		})
	}

	finalHandler := rateLimitMiddleware(baseHandler)

	serverConfig := srv.DefaultServerConfig(cfg.HTTPPort)
	server := srv.NewServer(serverConfig, finalHandler)

	shutdownHooks := []srv.ShutdownHook{
		func(ctx context.Context) error {
			log.Infof("stockroom-auth service: stopping cleanup goroutine")
			cancel()
			return nil
		},
	}

	srv.StartWithGracefulShutdownAndHooks(server, log, "stockroom-auth", shutdownHooks)
}
