package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cinerag/cinerag/internal/config"
	"github.com/cinerag/cinerag/internal/model"
	"github.com/cinerag/cinerag/internal/pkg/timeutil"
	"github.com/cinerag/cinerag/internal/repo"
	"github.com/cinerag/cinerag/internal/store"
	"github.com/cinerag/cinerag/test/testutil"
)

func testVector(seed int) []float32 {
	vec := make([]float32, 1536)
	vec[seed%1536] = 1
	return vec
}

func TestPostgresStoreSearch(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	movies := repo.NewMovieRepo(db)
	contexts, err := store.New(config.StoreConfig{Type: "postgres"}, db)
	require.NoError(t, err)
	require.NoError(t, contexts.Init(context.Background(), 1536))
	defer contexts.Close()

	seed := []model.Movie{
		{ID: "m-1", Title: "Heat", Overview: "heist film", Ctime: timeutil.NowUnix()},
		{ID: "m-2", Title: "Alien", Overview: "horror in space", Ctime: timeutil.NowUnix()},
	}
	for i := range seed {
		require.NoError(t, movies.Upsert(context.Background(), &seed[i]))
	}
	require.NoError(t, contexts.Upsert(context.Background(), []store.ContextDoc{
		{ID: "m-1", Title: "Heat", Content: "Heat\nheist film", Vector: testVector(0)},
		{ID: "m-2", Title: "Alien", Content: "Alien\nhorror in space", Vector: testVector(1)},
	}))

	hits, err := contexts.Search(context.Background(), testVector(0), 0.5, 4)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, "m-1", hits[0].ID)
	require.Equal(t, "Heat", hits[0].Title)
	require.Contains(t, hits[0].Content, "heist film")
	require.Greater(t, hits[0].Score, float32(0.5))

	// Loose threshold surfaces both, best first.
	hits, err = contexts.Search(context.Background(), testVector(0), -0.5, 4)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	require.Equal(t, "m-1", hits[0].ID)
	require.GreaterOrEqual(t, hits[0].Score, hits[1].Score)
}

func TestStoreRegistryUnknownType(t *testing.T) {
	_, err := store.New(config.StoreConfig{Type: "bogus"}, nil)
	require.Error(t, err)
}
