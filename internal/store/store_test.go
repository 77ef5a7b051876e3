package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func createTable(name string) func(tx *sql.Tx) error {
	return func(tx *sql.Tx) error {
		_, err := tx.Exec("CREATE TABLE " + name + " (id INTEGER PRIMARY KEY)")
		return err
	}
}

func TestMigrateAppliesOnce(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	migrations := []Migration{
		{Version: 1, Description: "create a", Up: createTable("a")},
		{Version: 2, Description: "create b", Up: createTable("b")},
	}

	require.NoError(t, s.Migrate(ctx, "audit", migrations))
	// A second run would fail on CREATE TABLE if anything were re-applied.
	require.NoError(t, s.Migrate(ctx, "audit", migrations))

	versions, err := s.AppliedVersions(ctx, "audit")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, versions)
}

func TestMigrateOwnersAreIndependent(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Migrate(ctx, "one", []Migration{{Version: 1, Description: "x", Up: createTable("x")}}))
	require.NoError(t, s.Migrate(ctx, "two", []Migration{{Version: 1, Description: "y", Up: createTable("y")}}))

	versions, err := s.AppliedVersions(ctx, "two")
	require.NoError(t, err)
	assert.Equal(t, []int{1}, versions)
}

func TestMigrateFailureRollsBack(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.Migrate(ctx, "audit", []Migration{{
		Version:     1,
		Description: "half done",
		Up: func(tx *sql.Tx) error {
			if err := createTable("partial")(tx); err != nil {
				return err
			}
			return boom
		},
	}})
	require.ErrorIs(t, err, boom)

	versions, err := s.AppliedVersions(ctx, "audit")
	require.NoError(t, err)
	assert.Empty(t, versions)

	var n int
	require.NoError(t, s.DB().QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'partial'").Scan(&n))
	assert.Zero(t, n)
}

func TestFileDatabasePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "switchconnector.db")
	ctx := context.Background()

	s, err := New(path)
	require.NoError(t, err)
	require.NoError(t, s.Migrate(ctx, "audit", []Migration{{Version: 1, Description: "a", Up: createTable("a")}}))
	require.NoError(t, s.Close())

	s, err = New(path)
	require.NoError(t, err)
	defer s.Close()
	versions, err := s.AppliedVersions(ctx, "audit")
	require.NoError(t, err)
	assert.Equal(t, []int{1}, versions)
}
