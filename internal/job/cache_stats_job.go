package job

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/cinerag/cinerag/internal/repo"
)

// CacheStatsJob periodically logs how large the semantic cache and the
// embedding cache have grown. Cheap visibility until real metrics land.
type CacheStatsJob struct {
	exchanges  *repo.ExchangeRepo
	embedCache *repo.EmbeddingCacheRepo
}

func NewCacheStatsJob(exchanges *repo.ExchangeRepo, embedCache *repo.EmbeddingCacheRepo) *CacheStatsJob {
	return &CacheStatsJob{exchanges: exchanges, embedCache: embedCache}
}

func (j *CacheStatsJob) Name() string {
	return "cache_stats"
}

func (j *CacheStatsJob) Run(ctx context.Context) error {
	if j.exchanges == nil || j.embedCache == nil {
		return nil
	}
	exchanges, err := j.exchanges.Count(ctx)
	if err != nil {
		return err
	}
	cached, err := j.embedCache.Count(ctx)
	if err != nil {
		return err
	}
	logutil.GetLogger(ctx).Info("cache stats",
		zap.Int64("exchanges", exchanges),
		zap.Int64("embedding_cache", cached))
	return nil
}
