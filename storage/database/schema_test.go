package database

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Course content keeps the short human-readable ids it ships with ("og-101",
// "m1", "l1-1", "r1"), so every content table must key on TEXT; postgres
// rejects such ids on a UUID column and the whole seed transaction rolls back.
func Test_initialSchema_contentIDsAreText(t *testing.T) {
	schema, err := migrationsFS.ReadFile("migrations/00001_initial_schema.sql")
	require.NoError(t, err)

	for _, table := range []string{"course", "module", "lesson", "resource"} {
		assert.Equalf(t, "TEXT", columnType(t, string(schema), table, "id"), "%s.id", table)
	}

	// users are minted by the app and stay UUID-keyed
	assert.Equal(t, "UUID", columnType(t, string(schema), `"user"`, "id"))
}

func columnType(t *testing.T, schema, table, column string) string {
	t.Helper()

	tableRx := regexp.MustCompile(`(?s)CREATE TABLE ` + regexp.QuoteMeta(table) + `\s*\((.*?)\);`)
	tm := tableRx.FindStringSubmatch(schema)
	require.NotNilf(t, tm, "table %s not found", table)

	colRx := regexp.MustCompile(`(?m)^\s*` + regexp.QuoteMeta(column) + `\s+(\w+)`)
	cm := colRx.FindStringSubmatch(tm[1])
	require.NotNilf(t, cm, "column %s.%s not found", table, column)
	return cm[1]
}
