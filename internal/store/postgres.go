package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/cinerag/cinerag/internal/model"
)

// postgresStore serves vector search straight from the movies table, so the
// catalog row and its embedding live in the same place.
type postgresStore struct {
	db *sql.DB
}

func init() {
	Register("postgres", createPostgresStore)
}

func createPostgresStore(deps Deps) (ContextStore, error) {
	if deps.DB == nil {
		return nil, fmt.Errorf("postgres store requires a database handle")
	}
	return &postgresStore{db: deps.DB}, nil
}

func (s *postgresStore) Init(ctx context.Context, dimension int) error {
	// Tables and ANN indexes come from migrations; nothing to provision here.
	_ = ctx
	_ = dimension
	return nil
}

func (s *postgresStore) Upsert(ctx context.Context, docs []ContextDoc) error {
	const query = `UPDATE movies SET embedding = $2 WHERE id = $1`
	for _, doc := range docs {
		if _, err := s.db.ExecContext(ctx, query, doc.ID, pgvector.NewVector(doc.Vector)); err != nil {
			return err
		}
	}
	return nil
}

func (s *postgresStore) Search(ctx context.Context, vector []float32, threshold float32, limit int) ([]model.SearchHit, error) {
	const query = `
		SELECT id, title, overview, 1 - (embedding <=> $1) AS score
		FROM movies
		WHERE embedding IS NOT NULL AND 1 - (embedding <=> $1) > $2
		ORDER BY embedding <=> $1
		LIMIT $3
	`
	rows, err := s.db.QueryContext(ctx, query, pgvector.NewVector(vector), threshold, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var hits []model.SearchHit
	for rows.Next() {
		var hit model.SearchHit
		var overview string
		if err := rows.Scan(&hit.ID, &hit.Title, &overview, &hit.Score); err != nil {
			return nil, err
		}
		hit.Content = hit.Title
		if overview != "" {
			hit.Content = hit.Title + "\n" + overview
		}
		hits = append(hits, hit)
	}
	return hits, rows.Err()
}

func (s *postgresStore) Close() error {
	// The pool is owned by the caller.
	return nil
}
