package infra

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitMigration(t *testing.T) {
	sql := `-- header comment
CREATE TABLE a (id TEXT);

-- second
CREATE INDEX IF NOT EXISTS a_idx ON a (id);
`
	stmts := splitSQL(stripSQLComments(sql))
	assert.Equal(t, []string{
		"CREATE TABLE a (id TEXT)",
		"CREATE INDEX IF NOT EXISTS a_idx ON a (id)",
	}, stmts)
}
