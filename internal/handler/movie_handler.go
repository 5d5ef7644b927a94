package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cinerag/cinerag/internal/model"
	"github.com/cinerag/cinerag/internal/pkg/errcode"
	"github.com/cinerag/cinerag/internal/pkg/response"
	"github.com/cinerag/cinerag/internal/service"
)

type MovieHandler struct {
	catalog         *service.CatalogService
	searchThreshold float32
}

func NewMovieHandler(catalog *service.CatalogService, searchThreshold float32) *MovieHandler {
	return &MovieHandler{catalog: catalog, searchThreshold: searchThreshold}
}

func (h *MovieHandler) Search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		response.Error(c, errcode.ErrInvalid, "query required")
		return
	}
	limit := queryInt(c, "limit", 10)
	hits, err := h.catalog.Search(c.Request.Context(), query, h.searchThreshold, limit)
	if err != nil {
		handleError(c, err)
		return
	}
	if hits == nil {
		hits = []model.SearchHit{}
	}
	response.Success(c, gin.H{"items": hits})
}

func (h *MovieHandler) List(c *gin.Context) {
	year := queryInt(c, "year", 0)
	limit := queryInt(c, "limit", 20)
	offset := queryInt(c, "offset", 0)
	movies, err := h.catalog.List(c.Request.Context(), year, limit, offset)
	if err != nil {
		handleError(c, err)
		return
	}
	if movies == nil {
		movies = []model.Movie{}
	}
	response.Success(c, gin.H{"items": movies})
}

func (h *MovieHandler) Get(c *gin.Context) {
	movie, err := h.catalog.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, movie)
}

func (h *MovieHandler) Count(c *gin.Context) {
	count, err := h.catalog.Count(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"count": count})
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
