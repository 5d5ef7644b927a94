package job

import (
	"context"
	"time"

	"github.com/cinerag/cinerag/internal/repo"
)

type EmbedCacheCleanupJob struct {
	repo       *repo.EmbeddingCacheRepo
	maxAgeDays int
}

func NewEmbedCacheCleanupJob(repo *repo.EmbeddingCacheRepo, maxAgeDays int) *EmbedCacheCleanupJob {
	return &EmbedCacheCleanupJob{repo: repo, maxAgeDays: maxAgeDays}
}

func (j *EmbedCacheCleanupJob) Name() string {
	return "embed_cache_cleanup"
}

func (j *EmbedCacheCleanupJob) Run(ctx context.Context) error {
	if j.repo == nil {
		return nil
	}
	maxAgeDays := j.maxAgeDays
	if maxAgeDays <= 0 {
		maxAgeDays = 30
	}
	cutoff := time.Now().Add(-time.Duration(maxAgeDays) * 24 * time.Hour).Unix()
	_, err := j.repo.DeleteBefore(ctx, cutoff)
	return err
}
