package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/cinerag/cinerag/internal/ai"
	"github.com/cinerag/cinerag/internal/model"
	appErr "github.com/cinerag/cinerag/internal/pkg/errors"
	"github.com/cinerag/cinerag/internal/pkg/timeutil"
	"github.com/cinerag/cinerag/internal/repo"
)

const defaultSystemPrompt = `You are a helpful movie expert.
Answer the user's question using the movie information provided as context.
- Only answer questions related to movies.
- Be concise and factual; if the context does not cover the question, say so.
- Format the answer as markdown.`

// SemanticCache stores prior prompt/completion exchanges keyed by embedding.
// An empty Search result is a normal miss, not an error.
type SemanticCache interface {
	Search(ctx context.Context, vector []float32, threshold float32, limit int) ([]repo.ExchangeHit, error)
	Insert(ctx context.Context, ex *model.CachedExchange) error
	Recent(ctx context.Context, limit int) ([]model.CachedExchange, error)
}

// ContextSearcher retrieves grounding documents for a query embedding.
type ContextSearcher interface {
	Search(ctx context.Context, vector []float32, threshold float32, limit int) ([]model.SearchHit, error)
}

type RAGConfig struct {
	Dimension        int
	CacheThreshold   float32
	ContextThreshold float32
	ContextLimit     int
	HistoryLimit     int
	Timeout          int
	MaxInputChars    int
	StrictContext    bool
	SystemPrompt     string
}

// RAGService is the cache-first answering pipeline: embed the query, probe
// the semantic cache, and only on a miss retrieve context and generate a
// completion, which is then cached for the next near-duplicate question.
type RAGService struct {
	embedder  ai.IEmbedder
	completer ai.ICompleter
	cache     SemanticCache
	contexts  ContextSearcher
	cfg       RAGConfig
}

func NewRAGService(embedder ai.IEmbedder, completer ai.ICompleter, cache SemanticCache, contexts ContextSearcher, cfg RAGConfig) *RAGService {
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = defaultSystemPrompt
	}
	if cfg.ContextLimit <= 0 {
		cfg.ContextLimit = 4
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 3
	}
	return &RAGService{
		embedder:  embedder,
		completer: completer,
		cache:     cache,
		contexts:  contexts,
		cfg:       cfg,
	}
}

func (s *RAGService) Answer(ctx context.Context, query string) (*model.Answer, error) {
	query = strings.TrimSpace(query)
	if s.cfg.MaxInputChars > 0 && len(query) > s.cfg.MaxInputChars {
		return nil, fmt.Errorf("%w: query exceeds %d chars", appErr.ErrInvalid, s.cfg.MaxInputChars)
	}
	logger := logutil.GetLogger(ctx).With(zap.String("query", query))
	start := time.Now()

	vector, err := s.embed(ctx, query)
	if err != nil {
		logger.Error("failed to embed query", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", appErr.ErrEmbedding, err)
	}

	// The cache probe is one vector query against generation-call money;
	// always run it first. A probe failure is degraded to a miss so a cache
	// outage never takes down answering.
	hits, err := s.cache.Search(ctx, vector, s.cfg.CacheThreshold, 1)
	if err != nil {
		logger.Warn("cache probe failed, treating as miss", zap.Error(err))
	}
	if len(hits) > 0 {
		logger.Info("cache hit",
			zap.Float32("score", hits[0].Score),
			zap.Duration("elapsed", time.Since(start)))
		return &model.Answer{
			Text:    hits[0].Exchange.Completion,
			Cached:  true,
			Elapsed: time.Since(start),
		}, nil
	}

	contextHits, history, err := s.gatherContext(ctx, vector)
	if err != nil {
		logger.Error("context search failed", zap.Error(err))
		return nil, err
	}

	msgs := s.buildMessages(query, history, contextHits)
	completion, err := s.complete(ctx, msgs)
	if err != nil {
		logger.Error("completion failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", appErr.ErrCompletion, err)
	}

	// Persisting the exchange is best effort: the caller gets the answer
	// whether or not the cache write lands.
	exchange := &model.CachedExchange{
		ID:               newID(),
		Prompt:           query,
		Completion:       completion.Text,
		PromptTokens:     completion.PromptTokens,
		CompletionTokens: completion.CompletionTokens,
		TotalTokens:      completion.TotalTokens,
		Model:            completion.Model,
		Embedding:        vector,
		Ctime:            timeutil.NowUnix(),
	}
	if err := s.cache.Insert(ctx, exchange); err != nil {
		logger.Warn("failed to cache exchange", zap.Error(err))
	}

	logger.Info("answer generated",
		zap.Int("context_docs", len(contextHits)),
		zap.Int("history", len(history)),
		zap.Int("total_tokens", completion.TotalTokens),
		zap.Duration("elapsed", time.Since(start)))
	return &model.Answer{
		Text:    completion.Text,
		Cached:  false,
		Elapsed: time.Since(start),
	}, nil
}

// History exposes the recent exchange window, newest first.
func (s *RAGService) History(ctx context.Context, limit int) ([]model.CachedExchange, error) {
	if limit <= 0 || limit > 50 {
		limit = s.cfg.HistoryLimit
	}
	return s.cache.Recent(ctx, limit)
}

func (s *RAGService) embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := s.callContext(ctx)
	defer cancel()
	vector, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	if s.cfg.Dimension > 0 && len(vector) != s.cfg.Dimension {
		return nil, fmt.Errorf("embedding dimension mismatch: got %d, want %d", len(vector), s.cfg.Dimension)
	}
	return vector, nil
}

// gatherContext issues the context search and history fetch concurrently;
// neither read depends on the other.
func (s *RAGService) gatherContext(ctx context.Context, vector []float32) ([]model.SearchHit, []model.CachedExchange, error) {
	var (
		wg         sync.WaitGroup
		hits       []model.SearchHit
		history    []model.CachedExchange
		searchErr  error
		historyErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		hits, searchErr = s.contexts.Search(ctx, vector, s.cfg.ContextThreshold, s.cfg.ContextLimit)
	}()
	go func() {
		defer wg.Done()
		history, historyErr = s.cache.Recent(ctx, s.cfg.HistoryLimit)
	}()
	wg.Wait()

	if searchErr != nil {
		if s.cfg.StrictContext {
			return nil, nil, fmt.Errorf("%w: %v", appErr.ErrStoreQuery, searchErr)
		}
		logutil.GetLogger(ctx).Warn("context search failed, answering without grounding", zap.Error(searchErr))
		hits = nil
	}
	if historyErr != nil {
		// History is auxiliary color; losing it does not block the answer.
		logutil.GetLogger(ctx).Warn("history fetch failed", zap.Error(historyErr))
		history = nil
	}
	return hits, history, nil
}

// buildMessages lays out the prompt: persona first, prior exchanges as
// conversational turns, then the live question, then the grounding content.
// The question goes before the grounding blocks so it is not buried under
// static context.
func (s *RAGService) buildMessages(query string, history []model.CachedExchange, hits []model.SearchHit) []ai.Message {
	msgs := make([]ai.Message, 0, 2+2*len(history)+len(hits))
	msgs = append(msgs, ai.Message{Role: ai.RoleSystem, Content: s.cfg.SystemPrompt})
	// Recent comes newest first; replay oldest first to keep the thread order.
	for i := len(history) - 1; i >= 0; i-- {
		msgs = append(msgs,
			ai.Message{Role: ai.RoleUser, Content: history[i].Prompt},
			ai.Message{Role: ai.RoleAssistant, Content: history[i].Completion},
		)
	}
	msgs = append(msgs, ai.Message{Role: ai.RoleUser, Content: query})
	for _, hit := range hits {
		msgs = append(msgs, ai.Message{
			Role:    ai.RoleSystem,
			Content: "Context:\n" + hit.Content,
		})
	}
	return msgs
}

func (s *RAGService) complete(ctx context.Context, msgs []ai.Message) (*ai.Completion, error) {
	ctx, cancel := s.callContext(ctx)
	defer cancel()
	completion, err := s.completer.Complete(ctx, msgs)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(completion.Text) == "" {
		return nil, fmt.Errorf("empty completion")
	}
	return completion, nil
}

func (s *RAGService) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.Timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, time.Duration(s.cfg.Timeout)*time.Second)
}
