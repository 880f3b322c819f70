package headless

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/jeanpaul/dontforget/internal/agent"
	"github.com/jeanpaul/dontforget/internal/provider"
	"github.com/jeanpaul/dontforget/internal/store"
	"github.com/jeanpaul/dontforget/internal/tools"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAgent(t *testing.T, turns ...provider.ScriptedTurn) *agent.Agent {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "memory.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	reg := tools.NewRegistry()
	tools.RegisterDefaults(reg, s)
	a, err := agent.New(provider.NewScripted(turns...), reg, agent.Options{})
	require.NoError(t, err)
	return a
}

func TestRun_SplitsAnswerAndActivity(t *testing.T) {
	a := newAgent(t,
		provider.ScriptedTurn{ToolCalls: []provider.ToolCall{
			{ID: "1", Name: tools.SearchToolName, Args: `{"sql_query":"SELECT rowid FROM memory"}`},
		}},
		provider.ScriptedTurn{Text: "I don't remember anything yet."},
	)

	var out, errOut bytes.Buffer
	err := Run(context.Background(), a, "what do you know?", Options{Out: &out, Err: &errOut})
	require.NoError(t, err)

	assert.Equal(t, "I don't remember anything yet.\n", out.String())
	assert.Contains(t, errOut.String(), "[Tool Call: execute_sql(")
	assert.Contains(t, errOut.String(), "[Tool Result: No records found.]")
	assert.Contains(t, errOut.String(), "[Done after 2 model turns]")
}

func TestRun_Quiet(t *testing.T) {
	a := newAgent(t, provider.ScriptedTurn{Text: "hi"})
	var out, errOut bytes.Buffer
	require.NoError(t, Run(context.Background(), a, "hello", Options{Out: &out, Err: &errOut, Quiet: true}))
	assert.Equal(t, "hi\n", out.String())
	assert.Empty(t, errOut.String())
}

func TestRun_PropagatesFailure(t *testing.T) {
	a := newAgent(t, provider.ScriptedTurn{Err: errors.New("offline")})
	var out bytes.Buffer
	err := Run(context.Background(), a, "hello", Options{Out: &out, Err: &out})
	assert.ErrorContains(t, err, "offline")
}
