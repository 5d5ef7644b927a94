package dbutil

import (
	"github.com/jmoiron/sqlx"
)

// Finalize rebinds a gendry-built query (MySQL-style ? placeholders) to the
// $N placeholders Postgres expects.
func Finalize(query string, args []interface{}) (string, []interface{}) {
	return sqlx.Rebind(sqlx.DOLLAR, query), args
}
