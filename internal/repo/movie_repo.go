package repo

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/didi/gendry/builder"
	"github.com/jmoiron/sqlx"

	"github.com/cinerag/cinerag/internal/model"
	"github.com/cinerag/cinerag/internal/pkg/dbutil"
	appErr "github.com/cinerag/cinerag/internal/pkg/errors"
)

// MovieRepo owns the relational movie catalog. Vector search over the same
// table lives in the store package.
type MovieRepo struct {
	db *sql.DB
}

func NewMovieRepo(db *sql.DB) *MovieRepo {
	return &MovieRepo{db: db}
}

func (r *MovieRepo) Upsert(ctx context.Context, movie *model.Movie) error {
	genres, err := json.Marshal(movie.Genres)
	if err != nil {
		return err
	}
	const query = `
		INSERT INTO movies (id, title, overview, genres, year, ctime)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			overview = EXCLUDED.overview,
			genres = EXCLUDED.genres,
			year = EXCLUDED.year
	`
	_, err = r.db.ExecContext(ctx, query,
		movie.ID,
		movie.Title,
		movie.Overview,
		genres,
		movie.Year,
		movie.Ctime,
	)
	return err
}

func (r *MovieRepo) GetByID(ctx context.Context, id string) (*model.Movie, error) {
	const query = `SELECT id, title, overview, genres, year, ctime FROM movies WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)
	var movie model.Movie
	var genres []byte
	if err := row.Scan(&movie.ID, &movie.Title, &movie.Overview, &genres, &movie.Year, &movie.Ctime); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErr.ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(genres, &movie.Genres); err != nil {
		return nil, err
	}
	return &movie, nil
}

func (r *MovieRepo) ListByIDs(ctx context.Context, ids []string) ([]model.Movie, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT id, title, overview, genres, year, ctime FROM movies WHERE id IN (?)`
	query, args, err := sqlx.In(query, ids)
	if err != nil {
		return nil, err
	}
	query = sqlx.Rebind(sqlx.DOLLAR, query)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMovies(rows)
}

// List supports the catalog browse endpoint; year filter is optional.
func (r *MovieRepo) List(ctx context.Context, year int, limit, offset int) ([]model.Movie, error) {
	where := map[string]interface{}{
		"_orderby": "ctime desc",
		"_limit":   []uint{uint(offset), uint(limit)},
	}
	if year > 0 {
		where["year"] = year
	}
	query, args, err := builder.BuildSelect("movies", where, []string{"id", "title", "overview", "genres", "year", "ctime"})
	if err != nil {
		return nil, err
	}
	query, args = dbutil.Finalize(query, args)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMovies(rows)
}

func (r *MovieRepo) Count(ctx context.Context) (int64, error) {
	const query = `SELECT COUNT(1) FROM movies`
	var count int64
	if err := r.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func scanMovies(rows *sql.Rows) ([]model.Movie, error) {
	var movies []model.Movie
	for rows.Next() {
		var movie model.Movie
		var genres []byte
		if err := rows.Scan(&movie.ID, &movie.Title, &movie.Overview, &genres, &movie.Year, &movie.Ctime); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(genres, &movie.Genres); err != nil {
			return nil, err
		}
		movies = append(movies, movie)
	}
	return movies, rows.Err()
}
