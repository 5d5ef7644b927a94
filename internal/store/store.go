package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/cinerag/cinerag/internal/config"
	"github.com/cinerag/cinerag/internal/model"
)

// ContextDoc is one vectorized document bound for the context store.
type ContextDoc struct {
	ID      string
	Title   string
	Content string
	Vector  []float32
}

// ContextStore answers nearest-neighbour queries for grounding content.
// Similarity scores are cosine-like: higher means more similar, and Search
// results come back ordered most similar first.
type ContextStore interface {
	Init(ctx context.Context, dimension int) error
	Upsert(ctx context.Context, docs []ContextDoc) error
	Search(ctx context.Context, vector []float32, threshold float32, limit int) ([]model.SearchHit, error)
	Close() error
}

// Deps carries the shared handles a backend may need next to its own
// decoded config block.
type Deps struct {
	DB   *sql.DB
	Args interface{}
}

type Factory func(deps Deps) (ContextStore, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

func Register(name string, factory Factory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	registryMu.Lock()
	registry[key] = factory
	registryMu.Unlock()
}

func New(cfg config.StoreConfig, db *sql.DB) (ContextStore, error) {
	key := strings.ToLower(strings.TrimSpace(cfg.Type))
	if key == "" {
		return nil, fmt.Errorf("context_store.type is required")
	}
	registryMu.RLock()
	factory := registry[key]
	registryMu.RUnlock()
	if factory == nil {
		return nil, fmt.Errorf("unsupported context store type: %s", cfg.Type)
	}
	return factory(Deps{DB: db, Args: cfg.Data})
}

func decodeConfig(args interface{}, dst interface{}) error {
	if args == nil {
		return nil
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode store config: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode store config: %w", err)
	}
	return nil
}
