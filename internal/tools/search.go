package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/jeanpaul/dontforget/internal/guard"
	"github.com/jeanpaul/dontforget/internal/store"
)

const (
	SearchToolName = "execute_sql"
	DeleteToolName = "delete_memories"

	// NoRecords is returned when a search matches nothing.
	NoRecords = "No records found."
)

// NoteStore is the slice of the store the tools need.
type NoteStore interface {
	Query(ctx context.Context, statement string) ([]store.Row, error)
	Delete(ctx context.Context, ids []int64) (int64, error)
}

// SearchTool runs a model-written read statement against the notes.
type SearchTool struct {
	Store NoteStore
}

type searchArgs struct {
	SQLQuery string `json:"sql_query"`
}

func (t *SearchTool) Name() string { return SearchToolName }

func (t *SearchTool) Description() string {
	return "Executes a read-only SQL query against the memory table and returns matching rows as JSON. " +
		"Columns: rowid, text, tags, intent, timestamp. Always select rowid. " +
		"Use `memory MATCH '<words>'` for full-text search. Never use this tool to delete."
}

func (t *SearchTool) Parameters() any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"sql_query": map[string]any{
				"type":        "string",
				"description": "A single SELECT statement.",
			},
		},
		"required": []string{"sql_query"},
	}
}

func (t *SearchTool) Execute(ctx context.Context, args string) (Result, error) {
	var a searchArgs
	if err := json.Unmarshal([]byte(args), &a); err != nil {
		return Result{Error: fmt.Sprintf("SQL Error: invalid arguments: %v", err)}, nil
	}
	return t.Run(ctx, a.SQLQuery)
}

// Run executes a bare statement. It is also the entry point for SQL the
// model writes as text instead of a tool call.
func (t *SearchTool) Run(ctx context.Context, statement string) (Result, error) {
	if v := guard.Classify(statement); v.Intent == guard.Write {
		return Result{Error: guard.Refusal(v, DeleteToolName), Refused: true}, nil
	}

	rows, err := t.Store.Query(ctx, statement)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		return Result{Error: "SQL Error: " + err.Error()}, nil
	}
	if len(rows) == 0 {
		return Result{Output: NoRecords}, nil
	}

	out, err := json.Marshal(rows)
	if err != nil {
		return Result{Error: "SQL Error: " + err.Error()}, nil
	}
	return Result{Output: string(out), Rows: len(rows), NoteIDs: noteIDs(rows)}, nil
}

// noteIDs collects the id column of every row that has one.
func noteIDs(rows []store.Row) []int64 {
	var ids []int64
	for _, row := range rows {
		for col, v := range row {
			if !isIDColumn(col) {
				continue
			}
			if id, ok := asInt64(v); ok {
				ids = append(ids, id)
				break
			}
		}
	}
	return ids
}

func isIDColumn(col string) bool {
	switch strings.ToLower(col) {
	case "rowid", "id", "docid", "_rowid_", "oid":
		return true
	}
	return false
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	case string:
		id, err := strconv.ParseInt(n, 10, 64)
		return id, err == nil
	}
	return 0, false
}
