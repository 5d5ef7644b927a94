package embedcache

import (
	"context"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/cinerag/cinerag/internal/ai"
	"github.com/cinerag/cinerag/internal/model"
	"github.com/cinerag/cinerag/internal/repo"
)

// WrapDBCacheToEmbedder backs an embedder with the Postgres embedding cache,
// so embeddings survive restarts. A write failure only loses caching, never
// the embedding itself.
func WrapDBCacheToEmbedder(e ai.IEmbedder, cacheRepo *repo.EmbeddingCacheRepo) ai.IEmbedder {
	if e == nil || cacheRepo == nil {
		return e
	}
	return &dbEmbedder{next: e, repo: cacheRepo}
}

type dbEmbedder struct {
	next ai.IEmbedder
	repo *repo.EmbeddingCacheRepo
}

func (d *dbEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if d == nil || d.next == nil {
		return nil, nil
	}
	modelName := strings.TrimSpace(d.next.ModelName())
	if modelName == "" {
		modelName = "unknown"
	}
	_, contentHash := buildCacheKey(modelName, text)
	values, ok, err := d.repo.Get(ctx, modelName, contentHash)
	if err != nil {
		return nil, err
	}
	if ok {
		logutil.GetLogger(ctx).Debug("embedding cache hit (db)")
		return values, nil
	}
	res, err := d.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	if err := d.repo.Save(ctx, &model.EmbeddingCache{
		ModelName:   modelName,
		ContentHash: contentHash,
		Embedding:   res,
		Ctime:       time.Now().Unix(),
	}); err != nil {
		logutil.GetLogger(ctx).Warn("failed to cache embedding", zap.Error(err))
	}
	return res, nil
}

func (d *dbEmbedder) ModelName() string {
	if d == nil || d.next == nil {
		return ""
	}
	return d.next.ModelName()
}
