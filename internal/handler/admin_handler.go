package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/cinerag/cinerag/internal/filestore"
	"github.com/cinerag/cinerag/internal/pkg/errcode"
	"github.com/cinerag/cinerag/internal/pkg/response"
	"github.com/cinerag/cinerag/internal/repo"
	"github.com/cinerag/cinerag/internal/service"
)

type AdminHandler struct {
	catalog    *service.CatalogService
	source     filestore.Source
	exchanges  *repo.ExchangeRepo
	embedCache *repo.EmbeddingCacheRepo
}

func NewAdminHandler(catalog *service.CatalogService, source filestore.Source, exchanges *repo.ExchangeRepo, embedCache *repo.EmbeddingCacheRepo) *AdminHandler {
	return &AdminHandler{
		catalog:    catalog,
		source:     source,
		exchanges:  exchanges,
		embedCache: embedCache,
	}
}

type loadRequest struct {
	Key string `json:"key"`
}

// Load pulls a dataset object from the configured source and runs the bulk
// loader. Loads are synchronous; large datasets belong on the CLI.
func (h *AdminHandler) Load(c *gin.Context) {
	var req loadRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Key == "" {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	reader, err := h.source.Open(c.Request.Context(), req.Key)
	if err != nil {
		logutil.GetLogger(c.Request.Context()).Error("open dataset failed", zap.String("key", req.Key), zap.Error(err))
		response.Error(c, errcode.ErrLoadFailed, "open dataset failed")
		return
	}
	defer reader.Close()
	loaded, err := h.catalog.Load(c.Request.Context(), reader)
	if err != nil {
		logutil.GetLogger(c.Request.Context()).Error("dataset load failed", zap.String("key", req.Key), zap.Error(err))
		response.Error(c, errcode.ErrLoadFailed, "dataset load failed")
		return
	}
	response.Success(c, gin.H{"loaded": loaded})
}

func (h *AdminHandler) Stats(c *gin.Context) {
	ctx := c.Request.Context()
	movies, err := h.catalog.Count(ctx)
	if err != nil {
		handleError(c, err)
		return
	}
	exchanges, err := h.exchanges.Count(ctx)
	if err != nil {
		handleError(c, err)
		return
	}
	embedCache, err := h.embedCache.Count(ctx)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{
		"movies":          movies,
		"exchanges":       exchanges,
		"embedding_cache": embedCache,
	})
}

type cleanupRequest struct {
	MaxAgeDays int `json:"max_age_days"`
}

func (h *AdminHandler) CleanupEmbedCache(c *gin.Context) {
	var req cleanupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	if req.MaxAgeDays <= 0 {
		req.MaxAgeDays = 30
	}
	cutoff := time.Now().Add(-time.Duration(req.MaxAgeDays) * 24 * time.Hour).Unix()
	deleted, err := h.embedCache.DeleteBefore(c.Request.Context(), cutoff)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": deleted})
}
