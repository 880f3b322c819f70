// Package agent drives the remind exchange: it primes the model with the
// memory protocol, dispatches the tools it asks for and returns its answer.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jeanpaul/dontforget/internal/metrics"
	"github.com/jeanpaul/dontforget/internal/provider"
	"github.com/jeanpaul/dontforget/internal/tools"
)

// DefaultMaxTurns bounds the model round-trips after the question is sent.
const DefaultMaxTurns = 5

// ErrUnknownTool is returned when the model calls a tool outside the set.
var ErrUnknownTool = tools.ErrUnknownTool

type EventType int

const (
	EventToolCall EventType = iota
	EventToolResult
	EventDone
)

// Event reports orchestration progress to an optional observer.
type Event struct {
	Type     EventType
	ToolName string
	ToolArgs string
	ToolID   string
	Result   string
	Outcome  string
	Turns    int
}

type Options struct {
	MaxTurns int
	Policy   Policy
	Logger   *zap.Logger
	Metrics  *metrics.Metrics
	Observer func(Event)
	Now      func() time.Time
}

// Agent is stateless between exchanges and safe for concurrent use.
type Agent struct {
	prov     provider.Provider
	tools    *tools.Registry
	search   *tools.SearchTool
	maxTurns int
	policy   Policy
	log      *zap.Logger
	metrics  *metrics.Metrics
	observe  func(Event)
	now      func() time.Time
}

// New builds an Agent. The registry must hold the search tool; it is also
// used for SQL the model writes as text.
func New(prov provider.Provider, registry *tools.Registry, opts Options) (*Agent, error) {
	t, ok := registry.Get(tools.SearchToolName)
	if !ok {
		return nil, fmt.Errorf("agent: registry has no %s tool", tools.SearchToolName)
	}
	search, ok := t.(*tools.SearchTool)
	if !ok {
		return nil, fmt.Errorf("agent: %s has unexpected type %T", tools.SearchToolName, t)
	}

	a := &Agent{
		prov:     prov,
		tools:    registry,
		search:   search,
		maxTurns: opts.MaxTurns,
		policy:   opts.Policy,
		log:      opts.Logger,
		metrics:  opts.Metrics,
		observe:  opts.Observer,
		now:      opts.Now,
	}
	if a.maxTurns <= 0 {
		a.maxTurns = DefaultMaxTurns
	}
	if a.policy == "" {
		a.policy = PolicyStrict
	}
	if !a.policy.Valid() {
		return nil, fmt.Errorf("agent: unknown delete policy %q", a.policy)
	}
	if a.log == nil {
		a.log = zap.NewNop()
	}
	if a.now == nil {
		a.now = time.Now
	}
	return a, nil
}

// WithObserver returns a copy of a that reports events to fn.
func (a *Agent) WithObserver(fn func(Event)) *Agent {
	cp := *a
	cp.observe = fn
	return &cp
}

// turn is one model output, fully drained from the stream.
type turn struct {
	text  string
	calls []provider.ToolCall
}

func (t turn) empty() bool {
	return strings.TrimSpace(t.text) == "" && len(t.calls) == 0
}

// exchange is the per-question state of one Remind call.
type exchange struct {
	id    string
	conv  *Conversation
	gate  *deleteGate
	turns int
	log   *zap.Logger
}

// Remind answers a question from memory. Tool faults are fed back to the
// model; only provider failures and calls to unknown tools are returned as
// errors. When the turn budget runs out the last model text is returned.
func (a *Agent) Remind(ctx context.Context, question string) (string, error) {
	ex := &exchange{
		id:   uuid.NewString(),
		conv: NewConversation(BuildSystemPrompt(a.now())),
		gate: newDeleteGate(a.policy, question),
	}
	ex.log = a.log.With(zap.String("exchange", ex.id))
	ex.conv.AddUser(question)

	defer func() {
		a.metrics.ObserveTurns(ex.turns)
		a.emit(Event{Type: EventDone, Turns: ex.turns})
	}()

	cur, err := a.complete(ctx, ex)
	if err != nil {
		return "", err
	}

	for round := 0; round < a.maxTurns; round++ {
		if cur.empty() {
			break
		}

		if len(cur.calls) > 0 {
			ex.conv.AddAssistant(cur.text, cur.calls)
			for _, call := range cur.calls {
				res, err := a.dispatch(ctx, ex, call)
				if err != nil {
					return "", err
				}
				ex.conv.AddToolResult(call.ID, call.Name, res.String())
			}
		} else if stmt, ok := extractSQL(cur.text); ok {
			res, err := a.runImplicitSearch(ctx, ex, stmt)
			if err != nil {
				return "", err
			}
			ex.conv.AddAssistant(cur.text, nil)
			ex.conv.AddUser("SYSTEM: Executed SQL. Result: " + res.String())
		} else {
			break
		}

		if cur, err = a.complete(ctx, ex); err != nil {
			return "", err
		}
	}

	return strings.TrimSpace(cur.text), nil
}

// complete sends the conversation and drains one model turn.
func (a *Agent) complete(ctx context.Context, ex *exchange) (turn, error) {
	ex.turns++
	stream, err := a.prov.Chat(ctx, ex.conv.Messages(), a.tools.ToolDefs())
	if err != nil {
		return turn{}, fmt.Errorf("model turn %d: %w", ex.turns, err)
	}

	var text strings.Builder
	var t turn
	for chunk := range stream {
		if chunk.Error != nil {
			return turn{}, fmt.Errorf("model turn %d: %w", ex.turns, chunk.Error)
		}
		text.WriteString(chunk.Delta)
		if chunk.Done {
			t.calls = append([]provider.ToolCall(nil), chunk.ToolCalls...)
		}
	}
	t.text = text.String()
	for i := range t.calls {
		if t.calls[i].ID == "" {
			t.calls[i].ID = uuid.NewString()
		}
	}
	return t, nil
}

// dispatch resolves one structured tool call.
func (a *Agent) dispatch(ctx context.Context, ex *exchange, call provider.ToolCall) (tools.Result, error) {
	a.emit(Event{Type: EventToolCall, ToolName: call.Name, ToolArgs: call.Args, ToolID: call.ID})
	ex.log.Info("tool call", zap.String("tool", call.Name), zap.String("args", call.Args))

	var (
		res     tools.Result
		err     error
		outcome string
	)
	switch call.Name {
	case tools.SearchToolName:
		res, err = a.tools.Execute(ctx, call.Name, call.Args)
		if err == nil {
			ex.gate.observe(res)
		}
	case tools.DeleteToolName:
		ids, perr := tools.ParseDeleteArgs(call.Args)
		if perr == nil {
			if msg := ex.gate.check(ids); msg != "" {
				res, outcome = tools.Result{Error: msg}, metrics.OutcomeBlocked
				ex.log.Warn("delete blocked", zap.Int64s("rowids", ids), zap.String("reason", msg))
				break
			}
		}
		res, err = a.tools.Execute(ctx, call.Name, call.Args)
		if err == nil {
			a.metrics.NotesDeleted(res.Deleted)
		}
	default:
		return tools.Result{}, fmt.Errorf("%w: %q", ErrUnknownTool, call.Name)
	}
	if err != nil {
		if errors.Is(err, tools.ErrUnknownTool) {
			return tools.Result{}, err
		}
		return tools.Result{}, fmt.Errorf("tool %s: %w", call.Name, err)
	}

	a.finish(ex, call.Name, call.ID, res, outcome)
	return res, nil
}

// runImplicitSearch executes a SQL block the model wrote as prose.
func (a *Agent) runImplicitSearch(ctx context.Context, ex *exchange, stmt string) (tools.Result, error) {
	args, _ := json.Marshal(map[string]string{"sql_query": stmt})
	a.emit(Event{Type: EventToolCall, ToolName: tools.SearchToolName, ToolArgs: string(args)})
	ex.log.Info("implicit sql", zap.String("sql", stmt))

	res, err := a.search.Run(ctx, stmt)
	if err != nil {
		return tools.Result{}, fmt.Errorf("tool %s: %w", tools.SearchToolName, err)
	}
	ex.gate.observe(res)
	a.finish(ex, tools.SearchToolName, "", res, "")
	return res, nil
}

func (a *Agent) finish(ex *exchange, name, id string, res tools.Result, outcome string) {
	if outcome == "" {
		outcome = outcomeOf(res)
	}
	a.metrics.ToolCall(name, outcome)
	if res.Error != "" {
		ex.log.Info("tool result", zap.String("tool", name), zap.String("outcome", outcome), zap.String("error", res.Error))
	} else {
		ex.log.Debug("tool result", zap.String("tool", name), zap.Int("rows", res.Rows))
	}
	a.emit(Event{Type: EventToolResult, ToolName: name, ToolID: id, Result: res.String(), Outcome: outcome})
}

func (a *Agent) emit(e Event) {
	if a.observe != nil {
		a.observe(e)
	}
}

func outcomeOf(res tools.Result) string {
	switch {
	case res.Refused:
		return metrics.OutcomeRefused
	case res.Error != "":
		return metrics.OutcomeError
	}
	return metrics.OutcomeOK
}

var sqlFence = regexp.MustCompile("(?is)```sql[ \\t]*\\r?\\n(.*?)```")

// extractSQL returns the first fenced sql block in text.
func extractSQL(text string) (string, bool) {
	m := sqlFence.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	stmt := strings.TrimSpace(m[1])
	return stmt, stmt != ""
}
