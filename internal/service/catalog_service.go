package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/cinerag/cinerag/internal/ai"
	"github.com/cinerag/cinerag/internal/model"
	appErr "github.com/cinerag/cinerag/internal/pkg/errors"
	"github.com/cinerag/cinerag/internal/pkg/timeutil"
	"github.com/cinerag/cinerag/internal/repo"
	"github.com/cinerag/cinerag/internal/store"
)

// CatalogService owns the movie catalog: bulk loading with vectorization,
// browsing, and similarity search over the context store.
type CatalogService struct {
	movies        *repo.MovieRepo
	contexts      store.ContextStore
	embedder      ai.IEmbedder
	dimension     int
	batchSize     int
	maxInputChars int
}

func NewCatalogService(movies *repo.MovieRepo, contexts store.ContextStore, embedder ai.IEmbedder, dimension, batchSize, maxInputChars int) *CatalogService {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &CatalogService{
		movies:        movies,
		contexts:      contexts,
		embedder:      embedder,
		dimension:     dimension,
		batchSize:     batchSize,
		maxInputChars: maxInputChars,
	}
}

type datasetRecord struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Overview string   `json:"overview"`
	Genres   []string `json:"genres"`
	Year     int      `json:"year"`
}

// Load reads a JSON array of movie records, embeds each one, and upserts
// catalog rows plus vectors. Records without an id get a fresh one, so the
// same file can be re-loaded idempotently when ids are present.
func (s *CatalogService) Load(ctx context.Context, r io.Reader) (int, error) {
	var records []datasetRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return 0, fmt.Errorf("decode dataset: %w", err)
	}
	logger := logutil.GetLogger(ctx).With(zap.Int("records", len(records)))
	logger.Info("dataset load started")

	loaded := 0
	batch := make([]store.ContextDoc, 0, s.batchSize)
	for i := range records {
		record := &records[i]
		if strings.TrimSpace(record.Title) == "" {
			logger.Warn("skipping record without title", zap.Int("index", i))
			continue
		}
		if record.ID == "" {
			record.ID = uuid.New().String()
		}
		movie := &model.Movie{
			ID:       record.ID,
			Title:    record.Title,
			Overview: record.Overview,
			Genres:   record.Genres,
			Year:     record.Year,
			Ctime:    timeutil.NowUnix(),
		}
		vector, err := s.embedder.Embed(ctx, movie.SearchText())
		if err != nil {
			return loaded, fmt.Errorf("%w: embed %q: %v", appErr.ErrEmbedding, movie.Title, err)
		}
		if s.dimension > 0 && len(vector) != s.dimension {
			return loaded, fmt.Errorf("%w: embed %q: dimension mismatch: got %d, want %d",
				appErr.ErrEmbedding, movie.Title, len(vector), s.dimension)
		}
		if err := s.movies.Upsert(ctx, movie); err != nil {
			return loaded, fmt.Errorf("upsert movie %s: %w", movie.ID, err)
		}
		batch = append(batch, store.ContextDoc{
			ID:      movie.ID,
			Title:   movie.Title,
			Content: movie.SearchText(),
			Vector:  vector,
		})
		if len(batch) >= s.batchSize {
			if err := s.flush(ctx, batch); err != nil {
				return loaded, err
			}
			loaded += len(batch)
			batch = batch[:0]
			logger.Info("dataset load progress", zap.Int("loaded", loaded))
		}
	}
	if len(batch) > 0 {
		if err := s.flush(ctx, batch); err != nil {
			return loaded, err
		}
		loaded += len(batch)
	}
	logger.Info("dataset load finished", zap.Int("loaded", loaded))
	return loaded, nil
}

func (s *CatalogService) flush(ctx context.Context, batch []store.ContextDoc) error {
	if err := s.contexts.Upsert(ctx, batch); err != nil {
		return fmt.Errorf("upsert vectors: %w", err)
	}
	return nil
}

// Search embeds the query text and runs a similarity search against the
// context store. Hits with missing fields are backfilled from the catalog
// so qdrant-backed stores return the same shape as the postgres one.
func (s *CatalogService) Search(ctx context.Context, query string, threshold float32, limit int) ([]model.SearchHit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, appErr.ErrInvalid
	}
	if s.maxInputChars > 0 && len(query) > s.maxInputChars {
		return nil, fmt.Errorf("%w: query exceeds %d chars", appErr.ErrInvalid, s.maxInputChars)
	}
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", appErr.ErrEmbedding, err)
	}
	hits, err := s.contexts.Search(ctx, vector, threshold, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", appErr.ErrStoreQuery, err)
	}
	s.hydrateHits(ctx, hits)
	return hits, nil
}

// hydrateHits fills Title/Content from the relational catalog for hits the
// store returned as bare ids. Hydration failure is logged, not fatal: the
// hits still carry scores and ids.
func (s *CatalogService) hydrateHits(ctx context.Context, hits []model.SearchHit) {
	var ids []string
	for i := range hits {
		if hits[i].Title == "" || hits[i].Content == "" {
			ids = append(ids, hits[i].ID)
		}
	}
	if len(ids) == 0 {
		return
	}
	movies, err := s.movies.ListByIDs(ctx, ids)
	if err != nil {
		logutil.GetLogger(ctx).Warn("failed to hydrate search hits", zap.Error(err))
		return
	}
	byID := make(map[string]*model.Movie, len(movies))
	for i := range movies {
		byID[movies[i].ID] = &movies[i]
	}
	for i := range hits {
		movie, ok := byID[hits[i].ID]
		if !ok {
			continue
		}
		if hits[i].Title == "" {
			hits[i].Title = movie.Title
		}
		if hits[i].Content == "" {
			hits[i].Content = movie.SearchText()
		}
	}
}

func (s *CatalogService) List(ctx context.Context, year, limit, offset int) ([]model.Movie, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.movies.List(ctx, year, limit, offset)
}

func (s *CatalogService) Get(ctx context.Context, id string) (*model.Movie, error) {
	if id == "" {
		return nil, appErr.ErrInvalid
	}
	return s.movies.GetByID(ctx, id)
}

func (s *CatalogService) Count(ctx context.Context) (int64, error) {
	return s.movies.Count(ctx)
}
