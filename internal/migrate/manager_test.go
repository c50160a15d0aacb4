package migrate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitStatements(t *testing.T) {
	stmts := splitStatements(`create table a (id int); create table b (id int);`)
	require.Len(t, stmts, 2)

	// Semicolons inside string literals do not split.
	stmts = splitStatements(`insert into t values ('a;b'); select 1;`)
	require.Len(t, stmts, 2)
	require.Contains(t, stmts[0], "'a;b'")

	// A trailing statement without a terminator is kept.
	stmts = splitStatements(`select 1; select 2`)
	require.Len(t, stmts, 2)

	require.Empty(t, splitStatements("  \n  "))
}

func TestCollectMissingDir(t *testing.T) {
	files, err := collect("does-not-exist", ".sql")
	require.NoError(t, err)
	require.Empty(t, files)
}

func TestCollectOrdersByName(t *testing.T) {
	dir := t.TempDir()
	write := func(name string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("select 1;"), 0o644))
	}
	write("0002_b.up.sql")
	write("0001_a.up.sql")
	write("0003_c.down.sql")

	files, err := collect(dir, ".up.sql")
	require.NoError(t, err)
	require.Len(t, files, 2)
	require.Contains(t, files[0], "0001_a.up.sql")
	require.Contains(t, files[1], "0002_b.up.sql")
}
