// README: Shared helpers for DB-backed tests; they skip unless NEARMATCH_TEST_DSN is set.
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"nearmatch/internal/infra"
)

// OpenTestDB connects to NEARMATCH_TEST_DSN, applies the schema and truncates
// every table.
func OpenTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv("NEARMATCH_TEST_DSN")
	if dsn == "" {
		t.Skip("NEARMATCH_TEST_DSN not set; skipping DB-backed tests")
	}

	ctx := context.Background()
	db, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := ApplyMigration(ctx, db); err != nil {
		t.Fatalf("apply migration: %v", err)
	}
	if _, err := db.Exec(ctx, "TRUNCATE TABLE matches, users"); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
	return db
}

// OpenTestRedis connects to NEARMATCH_TEST_REDIS and flushes the selected database.
func OpenTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	addr := os.Getenv("NEARMATCH_TEST_REDIS")
	if addr == "" {
		t.Skip("NEARMATCH_TEST_REDIS not set; skipping Redis-backed tests")
	}

	ctx := context.Background()
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })
	if err := rdb.Ping(ctx).Err(); err != nil {
		t.Fatalf("ping redis: %v", err)
	}
	if err := rdb.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("flush redis: %v", err)
	}
	return rdb
}

func ApplyMigration(ctx context.Context, db *pgxpool.Pool) error {
	root, err := RepoRoot()
	if err != nil {
		return err
	}
	_, err = infra.ApplyMigrationFile(ctx, db, filepath.Join(root, "migrations", "0001_init.sql"))
	return err
}

// RepoRoot walks up from the working directory to the directory holding go.mod.
func RepoRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for i := 0; i < 6; i++ {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", os.ErrNotExist
}
