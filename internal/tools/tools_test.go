package tools

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/jeanpaul/dontforget/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T) (*Registry, *store.Store) {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "memory.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	r := NewRegistry()
	RegisterDefaults(r, s)
	return r, s
}

func addNote(t *testing.T, s *store.Store, text string) int64 {
	t.Helper()
	id, err := s.Create(context.Background(), store.Note{
		Text: text, Tags: "general", Intent: "fact", Timestamp: "2026-01-02 10:00:00",
	})
	require.NoError(t, err)
	return id
}

func sqlArgs(q string) string {
	b, _ := json.Marshal(map[string]string{"sql_query": q})
	return string(b)
}

func TestSearch_ReturnsRowsWithIDs(t *testing.T) {
	r, s := newTestRegistry(t)
	id := addNote(t, s, "Car keys are in the blue jacket")
	addNote(t, s, "Buy milk")

	res, err := r.Execute(context.Background(), SearchToolName,
		sqlArgs("SELECT rowid, text FROM memory WHERE memory MATCH 'keys'"))
	require.NoError(t, err)
	assert.Empty(t, res.Error)
	assert.Equal(t, 1, res.Rows)
	assert.Equal(t, []int64{id}, res.NoteIDs)

	var rows []map[string]any
	require.NoError(t, json.Unmarshal([]byte(res.Output), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "Car keys are in the blue jacket", rows[0]["text"])
}

func TestSearch_NoRecords(t *testing.T) {
	r, _ := newTestRegistry(t)
	res, err := r.Execute(context.Background(), SearchToolName,
		sqlArgs("SELECT rowid FROM memory WHERE memory MATCH 'nothing'"))
	require.NoError(t, err)
	assert.Equal(t, NoRecords, res.String())
	assert.Zero(t, res.Rows)
}

func TestSearch_RefusesWrites(t *testing.T) {
	r, s := newTestRegistry(t)
	addNote(t, s, "keep me")

	for _, q := range []string{"DELETE FROM notes", "drop table notes", "Update notes set text='x'", "insert into notes(text) values('x')"} {
		res, err := r.Execute(context.Background(), SearchToolName, sqlArgs(q))
		require.NoError(t, err)
		assert.True(t, res.Refused, q)
		assert.Contains(t, res.Error, DeleteToolName)
	}
	n, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestSearch_SQLErrorIsInBand(t *testing.T) {
	r, _ := newTestRegistry(t)
	res, err := r.Execute(context.Background(), SearchToolName, sqlArgs("SELEC nonsense"))
	require.NoError(t, err)
	assert.Contains(t, res.Error, "SQL Error: ")
	assert.False(t, res.Refused)
}

func TestRegistry_SchemaViolationIsInBand(t *testing.T) {
	r, _ := newTestRegistry(t)
	res, err := r.Execute(context.Background(), SearchToolName, `{"query": "SELECT 1"}`)
	require.NoError(t, err)
	assert.Contains(t, res.Error, "execute_sql rejected its arguments")
}

func TestRegistry_UnknownTool(t *testing.T) {
	r, _ := newTestRegistry(t)
	_, err := r.Execute(context.Background(), "run_shell", `{}`)
	assert.ErrorIs(t, err, ErrUnknownTool)
}

func TestRegistry_ToolDefsSorted(t *testing.T) {
	r, _ := newTestRegistry(t)
	defs := r.ToolDefs()
	require.Len(t, defs, 2)
	assert.Equal(t, DeleteToolName, defs[0].Name)
	assert.Equal(t, SearchToolName, defs[1].Name)
}

func TestDelete_RemovesNotes(t *testing.T) {
	r, s := newTestRegistry(t)
	a := addNote(t, s, "one")
	b := addNote(t, s, "two")
	addNote(t, s, "three")

	res, err := r.Execute(context.Background(), DeleteToolName, `{"rowids": [`+itoa(a)+`, `+itoa(b)+`]}`)
	require.NoError(t, err)
	assert.Equal(t, "Successfully deleted 2 memories.", res.String())

	res, err = r.Execute(context.Background(), DeleteToolName, `{"rowids": [`+itoa(a)+`]}`)
	require.NoError(t, err)
	assert.Equal(t, "Successfully deleted 0 memories.", res.String())
}

func TestDelete_AcceptsScalarFloat(t *testing.T) {
	r, s := newTestRegistry(t)
	id := addNote(t, s, "only")
	res, err := r.Execute(context.Background(), DeleteToolName, `{"rowids": `+itoa(id)+`.0}`)
	require.NoError(t, err)
	assert.Equal(t, "Successfully deleted 1 memories.", res.String())
}

func TestParseDeleteArgs(t *testing.T) {
	tests := []struct {
		args string
		want []int64
	}{
		{`{"rowids": [1, 2]}`, []int64{1, 2}},
		{`{"rowids": 7}`, []int64{7}},
		{`{"rowids": 7.0}`, []int64{7}},
		{`{"rowids": 4.5}`, []int64{4}},
		{`{"rowids": "12"}`, []int64{12}},
		{`{"rowids": ["3", 4.9]}`, []int64{3, 4}},
		{`{"rowids": []}`, []int64{}},
	}
	for _, tt := range tests {
		t.Run(tt.args, func(t *testing.T) {
			got, err := ParseDeleteArgs(tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{`{}`, `{"rowids": "abc"}`, `{"rowids": [true]}`, `not json`} {
		_, err := ParseDeleteArgs(bad)
		assert.Error(t, err, bad)
	}
}

type failingStore struct{ err error }

func (f failingStore) Query(context.Context, string) ([]store.Row, error) { return nil, f.err }
func (f failingStore) Delete(context.Context, []int64) (int64, error)     { return 0, f.err }

func TestFaultsAreData(t *testing.T) {
	boom := errors.New("disk I/O error")
	search := &SearchTool{Store: failingStore{boom}}
	res, err := search.Run(context.Background(), "SELECT 1")
	require.NoError(t, err)
	assert.Equal(t, "SQL Error: disk I/O error", res.Error)

	del := &DeleteTool{Store: failingStore{boom}}
	res, err = del.Run(context.Background(), []int64{1})
	require.NoError(t, err)
	assert.Equal(t, "Deletion Error: disk I/O error", res.Error)
}

func TestCancellationIsAnError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	search := &SearchTool{Store: failingStore{context.Canceled}}
	_, err := search.Run(ctx, "SELECT 1")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNoteIDs(t *testing.T) {
	rows := []store.Row{
		{"ROWID": int64(3), "text": "a"},
		{"id": "9"},
		{"text": "no id"},
	}
	assert.Equal(t, []int64{3, 9}, noteIDs(rows))
}

func itoa(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}
