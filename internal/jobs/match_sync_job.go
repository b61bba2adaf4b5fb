package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"

	"betvex/internal/services"
)

// MatchSyncJob periodically refreshes the match snapshot from the indexer.
type MatchSyncJob struct {
	service *services.MatchService
	log     *zap.Logger
}

func NewMatchSyncJob(service *services.MatchService, log *zap.Logger) *MatchSyncJob {
	return &MatchSyncJob{
		service: service,
		log:     log,
	}
}

// Start begins the periodic sync loop
func (j *MatchSyncJob) Start(ctx context.Context, interval time.Duration) {
	go func() {
		// Run immediately on start
		if err := j.service.Refresh(ctx); err != nil {
			j.log.Warn("initial match sync failed", zap.Error(err))
		}

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := j.service.Refresh(ctx); err != nil {
					j.log.Warn("match sync failed", zap.Error(err))
				}
			}
		}
	}()
}
