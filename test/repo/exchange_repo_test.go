package repo_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cinerag/cinerag/internal/model"
	"github.com/cinerag/cinerag/internal/pkg/timeutil"
	"github.com/cinerag/cinerag/internal/repo"
	"github.com/cinerag/cinerag/test/testutil"
)

func testVector(seed float32) []float32 {
	vec := make([]float32, 1536)
	vec[0] = seed
	vec[1] = 1
	return vec
}

func TestExchangeRepoSearchThreshold(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	exchanges := repo.NewExchangeRepo(db)
	base := testVector(1)

	require.NoError(t, exchanges.Insert(context.Background(), &model.CachedExchange{
		ID:         "ex-1",
		Prompt:     "what is Heat about?",
		Completion: "a heist film",
		Embedding:  base,
		Ctime:      timeutil.NowUnix(),
	}))

	// Identical vector scores 1.0, which clears any threshold below 1.
	hits, err := exchanges.Search(context.Background(), base, 0.97, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, "ex-1", hits[0].Exchange.ID)
	require.Equal(t, "a heist film", hits[0].Exchange.Completion)
	require.Greater(t, hits[0].Score, float32(0.97))

	// An orthogonal-ish vector stays under a high threshold.
	far := make([]float32, 1536)
	far[2] = 1
	hits, err = exchanges.Search(context.Background(), far, 0.97, 1)
	require.NoError(t, err)
	require.Empty(t, hits)
}

func TestExchangeRepoSearchEmptyTable(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	exchanges := repo.NewExchangeRepo(db)
	hits, err := exchanges.Search(context.Background(), testVector(1), 0.97, 1)
	require.NoError(t, err)
	require.Empty(t, hits)
}

func TestExchangeRepoSearchOrdering(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	exchanges := repo.NewExchangeRepo(db)
	query := testVector(1)
	for i := 0; i < 3; i++ {
		vec := testVector(1)
		vec[2] = float32(i) // drift: higher i, lower similarity to query
		require.NoError(t, exchanges.Insert(context.Background(), &model.CachedExchange{
			ID:        fmt.Sprintf("ex-%d", i),
			Prompt:    fmt.Sprintf("q%d", i),
			Embedding: vec,
			Ctime:     timeutil.NowUnix(),
		}))
	}

	hits, err := exchanges.Search(context.Background(), query, 0.1, 10)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	for i := 1; i < len(hits); i++ {
		require.GreaterOrEqual(t, hits[i-1].Score, hits[i].Score)
	}
}

func TestExchangeRepoRecentWindow(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	exchanges := repo.NewExchangeRepo(db)
	now := timeutil.NowUnix()
	for i := 0; i < 5; i++ {
		require.NoError(t, exchanges.Insert(context.Background(), &model.CachedExchange{
			ID:        fmt.Sprintf("ex-%d", i),
			Prompt:    fmt.Sprintf("q%d", i),
			Embedding: testVector(float32(i)),
			Ctime:     now + int64(i),
		}))
	}

	items, err := exchanges.Recent(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, items, 3)
	require.Equal(t, "ex-4", items[0].ID)
	require.Equal(t, "ex-3", items[1].ID)
	require.Equal(t, "ex-2", items[2].ID)

	count, err := exchanges.Count(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 5, count)
}
