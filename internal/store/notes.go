package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// TimestampLayout is the format of Note.Timestamp.
const TimestampLayout = "2006-01-02 15:04:05"

// Note is a stored unit of memory.
type Note struct {
	ID        int64  `json:"id"`
	Text      string `json:"text"`
	Tags      string `json:"tags"`
	Intent    string `json:"intent"`
	Timestamp string `json:"timestamp"`
}

// Row is one result row of an arbitrary read statement, keyed by column name.
type Row map[string]any

// Create appends a note and returns its id.
func (s *Store) Create(ctx context.Context, n Note) (int64, error) {
	if strings.TrimSpace(n.Text) == "" {
		return 0, ErrEmptyText
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO notes (text, tags, intent, timestamp) VALUES (?, ?, ?, ?)`,
		n.Text, n.Tags, n.Intent, n.Timestamp,
	)
	if err != nil {
		return 0, fmt.Errorf("create note: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("create note: %w", err)
	}
	return id, nil
}

// Get returns the note with the given id or ErrNotFound.
func (s *Store) Get(ctx context.Context, id int64) (Note, error) {
	var n Note
	err := s.db.QueryRowContext(ctx,
		`SELECT id, text, tags, intent, timestamp FROM notes WHERE id = ?`, id,
	).Scan(&n.ID, &n.Text, &n.Tags, &n.Intent, &n.Timestamp)
	if errors.Is(err, sql.ErrNoRows) {
		return Note{}, ErrNotFound
	}
	if err != nil {
		return Note{}, fmt.Errorf("get note %d: %w", id, err)
	}
	return n, nil
}

// Count returns the number of stored notes.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM notes`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count notes: %w", err)
	}
	return n, nil
}

// Query runs a read statement and returns every row it produces.
//
// The statement runs inside a transaction that is always rolled back, so
// nothing it does can persist. An empty result is not an error.
func (s *Store) Query(ctx context.Context, statement string) ([]Row, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("query: acquire connection: %w", err)
	}
	defer conn.Close()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("query: begin: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, statement)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	result := []Row{}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(Row, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = values[i]
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Search is a keyword lookup over the full-text index, newest first.
func (s *Store) Search(ctx context.Context, keywords string, limit int) ([]Note, error) {
	if limit <= 0 {
		limit = 20
	}
	match := sanitizeFTS(keywords)
	if match == "" {
		return []Note{}, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT n.id, n.text, n.tags, n.intent, n.timestamp
		FROM memory m
		JOIN notes n ON n.id = m.rowid
		WHERE memory MATCH ?
		ORDER BY n.id DESC
		LIMIT ?
	`, match, limit)
	if err != nil {
		return nil, fmt.Errorf("search notes: %w", err)
	}
	defer rows.Close()

	notes := []Note{}
	for rows.Next() {
		var n Note
		if err := rows.Scan(&n.ID, &n.Text, &n.Tags, &n.Intent, &n.Timestamp); err != nil {
			return nil, fmt.Errorf("search notes: %w", err)
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

// Delete removes the notes with the given ids and returns how many were
// actually removed. Unknown ids are ignored.
func (s *Store) Delete(ctx context.Context, ids []int64) (int64, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return 0, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM notes WHERE id IN (%s)`, placeholders), args...)
	if err != nil {
		return 0, fmt.Errorf("delete notes: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete notes: %w", err)
	}
	return n, nil
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// sanitizeFTS quotes every term so user input cannot break FTS5 syntax.
func sanitizeFTS(query string) string {
	var terms []string
	for _, w := range strings.Fields(query) {
		w = strings.ReplaceAll(w, `"`, "")
		if w == "" {
			continue
		}
		terms = append(terms, `"`+w+`"`)
	}
	return strings.Join(terms, " ")
}
