package migrations

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSQLMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"m/0100_b.sql":   {Data: []byte("SELECT 2;")},
		"m/0099_a.sql":   {Data: []byte("SELECT 1;")},
		"m/README.md":    {Data: []byte("ignored")},
		"m/nested/x.sql": {Data: []byte("ignored")},
	}
	require.NoError(t, LoadSQLMigrations(fsys, "m"))

	ids := Registered()
	assert.Contains(t, ids, "0099_a")
	assert.Contains(t, ids, "0100_b")
	assert.NotContains(t, ids, "x")
	assert.NotContains(t, ids, "README")

	var a, b int
	for i, id := range ids {
		switch id {
		case "0099_a":
			a = i
		case "0100_b":
			b = i
		}
	}
	assert.Less(t, a, b, "migrations run in lexical order")
}

func TestLoadEmbedded(t *testing.T) {
	require.NoError(t, LoadEmbedded())
	assert.Contains(t, Registered(), "0001_diary_logs_by_day")
	assert.Contains(t, Registered(), "0002_diary_logs_order")
}

func TestLoadSQLMigrationsMissingDir(t *testing.T) {
	assert.Error(t, LoadSQLMigrations(fstest.MapFS{}, "nope"))
}
