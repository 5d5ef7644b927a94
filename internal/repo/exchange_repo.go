package repo

import (
	"context"
	"database/sql"

	"github.com/pgvector/pgvector-go"

	"github.com/cinerag/cinerag/internal/model"
)

// ExchangeHit is a semantic-cache lookup result.
type ExchangeHit struct {
	Score    float32
	Exchange model.CachedExchange
}

// ExchangeRepo persists prompt/completion exchanges with their query
// embeddings. The table is append-only; lookups re-rank by similarity.
type ExchangeRepo struct {
	db *sql.DB
}

func NewExchangeRepo(db *sql.DB) *ExchangeRepo {
	return &ExchangeRepo{db: db}
}

func (r *ExchangeRepo) Insert(ctx context.Context, ex *model.CachedExchange) error {
	const query = `
		INSERT INTO exchanges (id, prompt, completion, prompt_tokens, completion_tokens, total_tokens, model, embedding, ctime)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.ExecContext(ctx, query,
		ex.ID,
		ex.Prompt,
		ex.Completion,
		ex.PromptTokens,
		ex.CompletionTokens,
		ex.TotalTokens,
		ex.Model,
		pgvector.NewVector(ex.Embedding),
		ex.Ctime,
	)
	return err
}

// Search returns cached exchanges whose similarity to vector is strictly
// above threshold, most similar first. An empty result is a normal miss.
func (r *ExchangeRepo) Search(ctx context.Context, vector []float32, threshold float32, limit int) ([]ExchangeHit, error) {
	const query = `
		SELECT id, prompt, completion, prompt_tokens, completion_tokens, total_tokens, model, ctime,
			1 - (embedding <=> $1) AS score
		FROM exchanges
		WHERE embedding IS NOT NULL AND 1 - (embedding <=> $1) > $2
		ORDER BY embedding <=> $1
		LIMIT $3
	`
	rows, err := r.db.QueryContext(ctx, query, pgvector.NewVector(vector), threshold, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var hits []ExchangeHit
	for rows.Next() {
		var hit ExchangeHit
		if err := rows.Scan(
			&hit.Exchange.ID,
			&hit.Exchange.Prompt,
			&hit.Exchange.Completion,
			&hit.Exchange.PromptTokens,
			&hit.Exchange.CompletionTokens,
			&hit.Exchange.TotalTokens,
			&hit.Exchange.Model,
			&hit.Exchange.Ctime,
			&hit.Score,
		); err != nil {
			return nil, err
		}
		hits = append(hits, hit)
	}
	return hits, rows.Err()
}

// Recent returns the newest exchanges first, for the conversational window.
func (r *ExchangeRepo) Recent(ctx context.Context, limit int) ([]model.CachedExchange, error) {
	const query = `
		SELECT id, prompt, completion, prompt_tokens, completion_tokens, total_tokens, model, ctime
		FROM exchanges
		ORDER BY ctime DESC, id DESC
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []model.CachedExchange
	for rows.Next() {
		var item model.CachedExchange
		if err := rows.Scan(
			&item.ID,
			&item.Prompt,
			&item.Completion,
			&item.PromptTokens,
			&item.CompletionTokens,
			&item.TotalTokens,
			&item.Model,
			&item.Ctime,
		); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *ExchangeRepo) Count(ctx context.Context) (int64, error) {
	const query = `SELECT COUNT(1) FROM exchanges`
	var count int64
	if err := r.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
