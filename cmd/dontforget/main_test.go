package main

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeanpaul/dontforget/internal/config"
	"github.com/jeanpaul/dontforget/internal/provider"
	"github.com/jeanpaul/dontforget/internal/store"
)

func TestNewProvider(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Provider.APIKey = "k"

	p := newProvider(cfg, false, nil)
	assert.IsType(t, &provider.BreakerProvider{}, p)
	assert.Equal(t, "google", p.Name())
	assert.Equal(t, "gemini-2.0-flash", p.ModelName())

	cfg.Resilience.Breaker = false
	cfg.Provider.Type = "openai"
	cfg.Provider.BaseURL = "http://localhost:11434/v1"
	cfg.Provider.Model = "llama3.1"
	p = newProvider(cfg, true, nil)
	assert.IsType(t, &provider.RetryProvider{}, p)
	assert.Equal(t, "openai", p.Name())
}

func TestSearchAndForgetCommands(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "memory.db")
	t.Setenv("DONTFORGET_DB_PATH", db)
	t.Setenv("GEMINI_API_KEY", "k")
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", dir)

	st, err := store.Open(db)
	require.NoError(t, err)
	id, err := st.Create(context.Background(), store.Note{Text: "dentist on friday", Tags: "health", Intent: "task"})
	require.NoError(t, err)
	require.NoError(t, st.Close())

	run := func(args ...string) string {
		var out bytes.Buffer
		rootCmd.SetOut(&out)
		rootCmd.SetErr(&out)
		rootCmd.SetArgs(append([]string{"--env-file", "-", "--config", ""}, args...))
		require.NoError(t, rootCmd.ExecuteContext(context.Background()))
		return out.String()
	}

	assert.Contains(t, run("search", "dentist"), "dentist on friday")
	assert.Equal(t, "Successfully deleted 1 memories.\n", run("forget", fmt.Sprint(id)))
	assert.Equal(t, "No records found.\n", run("search", "dentist"))
}
