package testutil

import (
	"database/sql"
	"os"
	"testing"

	"github.com/cinerag/cinerag/internal/config"
	"github.com/cinerag/cinerag/internal/db"
)

func OpenTestDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()
	host := os.Getenv("TEST_DB_HOST")
	if host == "" {
		t.Skip("TEST_DB_HOST not set, skipping postgres test")
	}
	conn, err := db.Open(config.DatabaseConfig{
		Host:     host,
		Port:     5432,
		User:     "cinerag",
		Password: "cinerag_pass",
		DBName:   "cinerag_test",
		SSLMode:  "disable",
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.ApplyMigrations(conn); err != nil {
		t.Fatalf("migrations: %v", err)
	}
	truncate(t, conn)
	return conn, func() {
		_ = conn.Close()
	}
}

func truncate(t *testing.T, conn *sql.DB) {
	t.Helper()
	for _, table := range []string{"movies", "exchanges", "embedding_cache"} {
		if _, err := conn.Exec("TRUNCATE TABLE " + table); err != nil {
			t.Fatalf("truncate %s: %v", table, err)
		}
	}
}
