package service

import (
	"context"

	authrepo "github.com/stockroom-app/backend/internal/auth/repository"
	"github.com/stockroom-app/backend/internal/common/logger"
)

// RetentionPolicy caps the number of stored refresh token records per user.
// When the count exceeds the cap, the records closest to expiry are deleted
// first. Enforcement is best effort: a failure here must never fail the login
// that triggered it.
type RetentionPolicy struct {
	repo      authrepo.RefreshTokenRepository
	maxTokens int
	log       *logger.Logger
}

func NewRetentionPolicy(repo authrepo.RefreshTokenRepository, maxTokens int, log *logger.Logger) *RetentionPolicy {
	return &RetentionPolicy{
		repo:      repo,
		maxTokens: maxTokens,
		log:       log,
	}
}

// Enforce trims the user's records down to the cap. It runs after each
// successful save, so a failed insert never costs the user a live record.
func (p *RetentionPolicy) Enforce(ctx context.Context, userID string) {
	count, err := p.repo.CountByUserID(ctx, userID)
	if err != nil {
		p.log.WithFields(ctx, logger.Fields{
			"user_id": userID,
			"action":  "retention_count_failed",
		}).Warnf("failed to count refresh tokens: %v", err)
		return
	}

	if count <= p.maxTokens {
		return
	}

	excess := count - p.maxTokens
	ids, err := p.repo.FindOldestByUserID(ctx, userID, excess)
	if err != nil {
		p.log.WithFields(ctx, logger.Fields{
			"user_id": userID,
			"action":  "retention_find_oldest_failed",
		}).Warnf("failed to find oldest refresh tokens: %v", err)
		return
	}

	if err := p.repo.DeleteByIDs(ctx, ids); err != nil {
		p.log.WithFields(ctx, logger.Fields{
			"user_id": userID,
			"action":  "retention_delete_failed",
		}).Warnf("failed to delete oldest refresh tokens: %v", err)
		return
	}

	incrementRefreshTokensEvicted(len(ids))
	p.log.WithFields(ctx, logger.Fields{
		"user_id": userID,
		"evicted": len(ids),
		"action":  "retention_evicted",
	}).Info("evicted refresh tokens over retention cap")
}
