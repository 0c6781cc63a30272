package cleanup

import (
	"context"
	"time"

	authrepo "github.com/stockroom-app/backend/internal/auth/repository"
	"github.com/stockroom-app/backend/internal/common/constants"
	"github.com/stockroom-app/backend/internal/common/logger"
	"github.com/stockroom-app/backend/internal/observability/metrics"
)

// Worker periodically deletes refresh token records whose expiry has passed.
// Expired records are dead weight either way; the store's correctness never
// depends on this loop running.
type Worker struct {
	repo     authrepo.RefreshTokenRepository
	interval time.Duration
	log      *logger.Logger
}

func NewWorker(repo authrepo.RefreshTokenRepository, log *logger.Logger) *Worker {
	return &Worker{
		repo:     repo,
		interval: constants.CleanupInterval,
		log:      log,
	}
}

func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info("refresh token cleanup stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *Worker) sweep(ctx context.Context) {
	deleted, err := w.repo.DeleteExpired(ctx)
	if err != nil {
		w.log.WithFields(ctx, logger.Fields{
			"action": "cleanup_failed",
		}).Errorf("failed to delete expired refresh tokens: %v", err)
		return
	}

	if deleted > 0 {
		metrics.RefreshTokensCleanupDeleted.Add(float64(deleted))
		w.log.WithFields(ctx, logger.Fields{
			"deleted": deleted,
			"action":  "cleanup_success",
		}).Infof("deleted %d expired refresh tokens", deleted)
	}
}
