package service

import (
	"github.com/stockroom-app/backend/internal/observability/metrics"
)

func incrementAccessTokensIssued() {
	metrics.AccessTokensIssued.Inc()
}

func incrementAccessTokensBlocked() {
	metrics.AccessTokensBlocked.Inc()
}

func incrementRefreshTokensIssued() {
	metrics.RefreshTokensIssued.Inc()
}

func incrementRefreshTokensRevoked() {
	metrics.RefreshTokensRevoked.Inc()
}

func incrementRefreshTokensRotated() {
	metrics.RefreshTokensRotated.Inc()
}

func incrementRefreshTokenReuseDetected() {
	metrics.RefreshTokenReuseDetected.Inc()
}

func incrementRefreshTokensEvicted(n int) {
	metrics.RefreshTokensEvicted.Add(float64(n))
}

func incrementBlocklistChecks() {
	metrics.BlocklistChecksTotal.Inc()
}

func incrementBlocklistHits() {
	metrics.BlocklistHitsTotal.Inc()
}

func incrementFederatedLogins(surface string) {
	metrics.FederatedLoginsTotal.WithLabelValues(surface).Inc()
}

func incrementJWTValidations() {
	metrics.JWTValidationsTotal.Inc()
}

func incrementJWTValidationsFailed() {
	metrics.JWTValidationsFailed.Inc()
}
