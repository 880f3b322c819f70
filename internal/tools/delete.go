package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// DeleteTool removes notes by id.
type DeleteTool struct {
	Store NoteStore
}

func (t *DeleteTool) Name() string { return DeleteToolName }

func (t *DeleteTool) Description() string {
	return "Deletes memories by rowid. Search first to learn the rowid of the note to delete."
}

func (t *DeleteTool) Parameters() any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"rowids": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "integer"},
				"description": "The rowids of the memories to delete.",
			},
		},
		"required": []string{"rowids"},
	}
}

// ArgsSchema accepts what models actually send: a bare number, a numeric
// string, or an array of either.
func (t *DeleteTool) ArgsSchema() any {
	scalar := []any{
		map[string]any{"type": "number"},
		map[string]any{"type": "string"},
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"rowids": map[string]any{
				"anyOf": append(scalar, map[string]any{
					"type":  "array",
					"items": map[string]any{"anyOf": scalar},
				}),
			},
		},
		"required": []string{"rowids"},
	}
}

func (t *DeleteTool) Execute(ctx context.Context, args string) (Result, error) {
	ids, err := ParseDeleteArgs(args)
	if err != nil {
		return Result{Error: "Deletion Error: " + err.Error()}, nil
	}
	return t.Run(ctx, ids)
}

func (t *DeleteTool) Run(ctx context.Context, ids []int64) (Result, error) {
	n, err := t.Store.Delete(ctx, ids)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		return Result{Error: "Deletion Error: " + err.Error()}, nil
	}
	return Result{Output: fmt.Sprintf("Successfully deleted %d memories.", n), Deleted: int(n)}, nil
}

// ParseDeleteArgs extracts the id set from delete_memories arguments.
// Non-integral numbers are truncated toward zero.
func ParseDeleteArgs(args string) ([]int64, error) {
	var a struct {
		RowIDs json.RawMessage `json:"rowids"`
	}
	if err := json.Unmarshal([]byte(args), &a); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	if len(a.RowIDs) == 0 {
		return nil, errors.New("rowids is required")
	}

	dec := json.NewDecoder(bytes.NewReader(a.RowIDs))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("invalid rowids: %w", err)
	}

	list, ok := raw.([]any)
	if !ok {
		list = []any{raw}
	}
	ids := make([]int64, 0, len(list))
	for _, v := range list {
		id, err := coerceID(v)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func coerceID(v any) (int64, error) {
	var s string
	switch x := v.(type) {
	case json.Number:
		s = x.String()
	case string:
		s = strings.TrimSpace(x)
	default:
		return 0, fmt.Errorf("rowid %v is not a number", v)
	}
	if id, err := strconv.ParseInt(s, 10, 64); err == nil {
		return id, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("rowid %q is not a number", s)
	}
	return int64(f), nil
}
