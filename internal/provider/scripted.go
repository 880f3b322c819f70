package provider

import (
	"context"
	"fmt"
	"sync"
)

// ScriptedTurn is one canned model response.
type ScriptedTurn struct {
	Text      string
	ToolCalls []ToolCall
	// Err fails the Chat call itself; StreamErr fails the stream after it starts.
	Err       error
	StreamErr error
}

// Scripted is a deterministic Provider that replays a fixed sequence of
// turns and records every request it receives. When the script runs out
// it repeats the last turn if Loop is set, otherwise it returns an error.
type Scripted struct {
	Turns []ScriptedTurn
	Loop  bool

	mu    sync.Mutex
	calls [][]Message
	tools [][]ToolDef
}

func NewScripted(turns ...ScriptedTurn) *Scripted {
	return &Scripted{Turns: turns}
}

func (s *Scripted) Name() string { return "scripted" }

func (s *Scripted) ModelName() string { return "scripted" }

func (s *Scripted) Models(context.Context) ([]string, error) { return []string{"scripted"}, nil }

func (s *Scripted) Chat(ctx context.Context, msgs []Message, tools []ToolDef) (<-chan StreamChunk, error) {
	s.mu.Lock()
	n := len(s.calls)
	s.calls = append(s.calls, append([]Message(nil), msgs...))
	s.tools = append(s.tools, tools)
	s.mu.Unlock()

	if n >= len(s.Turns) {
		if !s.Loop || len(s.Turns) == 0 {
			return nil, fmt.Errorf("scripted provider: no turn %d", n+1)
		}
		n = len(s.Turns) - 1
	}
	turn := s.Turns[n]
	if turn.Err != nil {
		return nil, turn.Err
	}

	ch := make(chan StreamChunk, 2)
	if turn.StreamErr != nil {
		ch <- StreamChunk{Error: turn.StreamErr, Done: true}
		close(ch)
		return ch, nil
	}
	if turn.Text != "" {
		ch <- StreamChunk{Delta: turn.Text}
	}
	ch <- StreamChunk{Done: true, ToolCalls: turn.ToolCalls}
	close(ch)
	return ch, nil
}

// Calls returns the message history sent on each Chat call so far.
func (s *Scripted) Calls() [][]Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]Message(nil), s.calls...)
}

// ToolsOffered returns the tool manifest sent on the given call.
func (s *Scripted) ToolsOffered(call int) []ToolDef {
	s.mu.Lock()
	defer s.mu.Unlock()
	if call < 0 || call >= len(s.tools) {
		return nil
	}
	return s.tools[call]
}
