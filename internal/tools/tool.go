// Package tools holds the closed set of capabilities the model may invoke
// while answering a question.
package tools

import "context"

// Result is what a tool hands back to the model. Faults are carried in
// Error as text the model can read; they never surface as Go errors.
type Result struct {
	Output string
	Error  string

	// Refused marks a statement the guard would not run.
	Refused bool
	// Rows is the number of rows a search produced.
	Rows int
	// NoteIDs are the note ids a search surfaced, in row order.
	NoteIDs []int64
	// Deleted is the number of notes a delete removed.
	Deleted int
}

// String is the text sent back to the model.
func (r Result) String() string {
	if r.Error != "" {
		return r.Error
	}
	return r.Output
}

type Tool interface {
	Name() string
	Description() string
	// Parameters is the JSON schema advertised to the model.
	Parameters() any
	// Execute runs the tool. The returned error is reserved for
	// cancellation; everything else is reported through Result.
	Execute(ctx context.Context, args string) (Result, error)
}

// ArgsSchema is implemented by tools that accept a looser argument shape
// than the one they advertise.
type ArgsSchema interface {
	ArgsSchema() any
}
