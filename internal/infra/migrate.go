// README: Applies a plain SQL migration file statement by statement.
package infra

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ApplyMigrationFile runs every statement in path. Statements are split on ';'
// so the file must not contain function bodies.
func ApplyMigrationFile(ctx context.Context, db *pgxpool.Pool, path string) (int, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read migration: %w", err)
	}
	stmts := splitSQL(stripSQLComments(string(content)))
	for i, stmt := range stmts {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return i, fmt.Errorf("migration statement %d: %w", i+1, err)
		}
	}
	return len(stmts), nil
}

func stripSQLComments(input string) string {
	var b strings.Builder
	scanner := bufio.NewScanner(strings.NewReader(input))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}
		b.WriteString(scanner.Text())
		b.WriteString("\n")
	}
	return b.String()
}

func splitSQL(input string) []string {
	parts := strings.Split(input, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		stmt := strings.TrimSpace(p)
		if stmt == "" {
			continue
		}
		out = append(out, stmt)
	}
	return out
}
