package repo_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cinerag/cinerag/internal/model"
	appErr "github.com/cinerag/cinerag/internal/pkg/errors"
	"github.com/cinerag/cinerag/internal/pkg/timeutil"
	"github.com/cinerag/cinerag/internal/repo"
	"github.com/cinerag/cinerag/test/testutil"
)

func TestMovieRepoUpsertAndGet(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	movies := repo.NewMovieRepo(db)
	movie := &model.Movie{
		ID:       "m-1",
		Title:    "Heat",
		Overview: "A heist crew and a detective circle each other.",
		Genres:   []string{"Crime", "Thriller"},
		Year:     1995,
		Ctime:    timeutil.NowUnix(),
	}
	require.NoError(t, movies.Upsert(context.Background(), movie))

	fetched, err := movies.GetByID(context.Background(), "m-1")
	require.NoError(t, err)
	require.Equal(t, "Heat", fetched.Title)
	require.Equal(t, []string{"Crime", "Thriller"}, fetched.Genres)
	require.Equal(t, 1995, fetched.Year)

	// Upsert with the same id replaces the row.
	movie.Overview = "updated overview"
	require.NoError(t, movies.Upsert(context.Background(), movie))
	fetched, err = movies.GetByID(context.Background(), "m-1")
	require.NoError(t, err)
	require.Equal(t, "updated overview", fetched.Overview)

	count, err := movies.Count(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 1, count)

	_, err = movies.GetByID(context.Background(), "missing")
	require.ErrorIs(t, err, appErr.ErrNotFound)
}

func TestMovieRepoListFilters(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	movies := repo.NewMovieRepo(db)
	seed := []model.Movie{
		{ID: "m-1", Title: "Alien", Year: 1979, Ctime: timeutil.NowUnix()},
		{ID: "m-2", Title: "Aliens", Year: 1986, Ctime: timeutil.NowUnix()},
		{ID: "m-3", Title: "Blade Runner", Year: 1982, Ctime: timeutil.NowUnix()},
	}
	for i := range seed {
		require.NoError(t, movies.Upsert(context.Background(), &seed[i]))
	}

	all, err := movies.List(context.Background(), 0, 10, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)

	byYear, err := movies.List(context.Background(), 1986, 10, 0)
	require.NoError(t, err)
	require.Len(t, byYear, 1)
	require.Equal(t, "Aliens", byYear[0].Title)

	paged, err := movies.List(context.Background(), 0, 2, 2)
	require.NoError(t, err)
	require.Len(t, paged, 1)

	byIDs, err := movies.ListByIDs(context.Background(), []string{"m-1", "m-3"})
	require.NoError(t, err)
	require.Len(t, byIDs, 2)
}
