package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_Pragmas(t *testing.T) {
	s := openTestStore(t)

	assert.NoError(t, s.verifyPragma("journal_mode", "wal"))
	assert.NoError(t, s.verifyPragma("busy_timeout", "5000"))
	assert.NoError(t, s.verifyPragma("user_version", "1"))
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	s1, err := Open(path)
	require.NoError(t, err)
	id, err := s1.Create(ctx, Note{Text: "buy milk", Tags: "shopping", Intent: "task", Timestamp: "2024-01-01 10:00:00"})
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	n, err := s2.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "buy milk", n.Text)
}

func TestOpen_ImportsLegacyTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.db")

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE VIRTUAL TABLE memory USING fts5(text, tags, intent, timestamp, UNINDEXED)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO memory (text, tags, intent, timestamp) VALUES
		('call mom', 'family', 'task', '2024-02-01 09:00:00'),
		('the wifi password is hunter2', 'home', 'fact', '2024-02-02 09:00:00')`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()
	ctx := context.Background()

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	notes, err := s.Search(ctx, "wifi", 10)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, int64(2), notes[0].ID)
	assert.Equal(t, "home", notes[0].Tags)
}
