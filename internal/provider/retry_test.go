package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetry_RetriesTransientStatus(t *testing.T) {
	s := NewScripted(
		ScriptedTurn{Err: &StatusError{Provider: "scripted", Code: 503}},
		ScriptedTurn{Text: "ok"},
	)
	r := WithRetry(s, 2, nil)
	r.baseDelay = time.Millisecond

	ch, err := r.Chat(context.Background(), nil, nil)
	require.NoError(t, err)
	text, _ := drain(t, ch)
	assert.Equal(t, "ok", text)
	assert.Len(t, s.Calls(), 2)
}

func TestRetry_DoesNotRetryPermanentErrors(t *testing.T) {
	s := NewScripted(
		ScriptedTurn{Err: &StatusError{Provider: "scripted", Code: 401}},
		ScriptedTurn{Text: "never"},
	)
	r := WithRetry(s, 3, nil)
	r.baseDelay = time.Millisecond

	_, err := r.Chat(context.Background(), nil, nil)
	require.Error(t, err)
	assert.Len(t, s.Calls(), 1)
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, isRetryable(context.Canceled))
	assert.False(t, isRetryable(errors.New("plain")))
	assert.True(t, isRetryable(&StatusError{Code: 429}))
	assert.False(t, isRetryable(&StatusError{Code: 400}))
}

func TestBreaker_OpensAfterRepeatedFailures(t *testing.T) {
	fail := ScriptedTurn{Err: &StatusError{Provider: "scripted", Code: 500}}
	s := &Scripted{Turns: []ScriptedTurn{fail}, Loop: true}
	cfg := DefaultBreakerConfig()
	cfg.MinRequests = 3
	b := WithBreaker(s, cfg, nil)

	for i := 0; i < 3; i++ {
		_, err := b.Chat(context.Background(), nil, nil)
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, b.State())

	_, err := b.Chat(context.Background(), nil, nil)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Len(t, s.Calls(), 3)
}

func TestBreaker_IgnoresPermanentErrors(t *testing.T) {
	s := &Scripted{Turns: []ScriptedTurn{{Err: &StatusError{Code: 401}}}, Loop: true}
	cfg := DefaultBreakerConfig()
	cfg.MinRequests = 2
	b := WithBreaker(s, cfg, nil)

	for i := 0; i < 4; i++ {
		_, err := b.Chat(context.Background(), nil, nil)
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateClosed, b.State())
}
