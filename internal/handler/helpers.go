package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/cinerag/cinerag/internal/ai"
	"github.com/cinerag/cinerag/internal/pkg/errcode"
	appErr "github.com/cinerag/cinerag/internal/pkg/errors"
	"github.com/cinerag/cinerag/internal/pkg/response"
)

func handleError(c *gin.Context, err error) {
	switch {
	case err == nil:
		return
	case errors.Is(err, appErr.ErrUnauthorized):
		response.Error(c, errcode.ErrUnauthorized, "unauthorized")
	case errors.Is(err, appErr.ErrForbidden):
		response.Error(c, errcode.ErrForbidden, "forbidden")
	case errors.Is(err, appErr.ErrNotFound):
		response.Error(c, errcode.ErrNotFound, "not found")
	case errors.Is(err, appErr.ErrInvalid):
		response.Error(c, errcode.ErrInvalid, "invalid request")
	case errors.Is(err, appErr.ErrConflict):
		response.Error(c, errcode.ErrConflict, "conflict")
	case errors.Is(err, ai.ErrUnavailable):
		response.Error(c, errcode.ErrAIUnavailable, "ai not configured")
	case errors.Is(err, appErr.ErrEmbedding):
		response.Error(c, errcode.ErrEmbeddingFailed, "embedding failed")
	case errors.Is(err, appErr.ErrCompletion):
		response.Error(c, errcode.ErrCompletionFailed, "completion failed")
	case errors.Is(err, appErr.ErrStoreQuery):
		response.Error(c, errcode.ErrStoreQueryFailed, "store query failed")
	default:
		response.Error(c, errcode.ErrInternal, "internal error")
	}
}
