package handler

import (
	"bytes"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yuin/goldmark"

	"github.com/cinerag/cinerag/internal/pkg/errcode"
	"github.com/cinerag/cinerag/internal/pkg/response"
	"github.com/cinerag/cinerag/internal/service"
)

type ChatHandler struct {
	rag *service.RAGService
	md  goldmark.Markdown
}

func NewChatHandler(rag *service.RAGService) *ChatHandler {
	return &ChatHandler{
		rag: rag,
		md:  goldmark.New(),
	}
}

type askRequest struct {
	Question string `json:"question"`
}

func (h *ChatHandler) Ask(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	answer, err := h.rag.Answer(c.Request.Context(), req.Question)
	if err != nil {
		handleError(c, err)
		return
	}
	// The thin web front end wants rendered markdown next to the raw text.
	var html bytes.Buffer
	if err := h.md.Convert([]byte(answer.Text), &html); err != nil {
		html.Reset()
	}
	response.Success(c, gin.H{
		"answer":     answer.Text,
		"html":       html.String(),
		"cached":     answer.Cached,
		"elapsed_ms": answer.Elapsed.Milliseconds(),
	})
}

func (h *ChatHandler) History(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			response.Error(c, errcode.ErrInvalid, "invalid limit")
			return
		}
		limit = parsed
	}
	items, err := h.rag.History(c.Request.Context(), limit)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"items": items})
}
