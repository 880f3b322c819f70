package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New("dontforget")
	m.ToolCall("execute_sql", OutcomeOK)
	m.ToolCall("execute_sql", OutcomeOK)
	m.ToolCall("delete_memories", OutcomeBlocked)
	m.NoteCreated()
	m.NotesDeleted(3)
	m.NotesDeleted(0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.toolCalls.WithLabelValues("execute_sql", OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.toolCalls.WithLabelValues("delete_memories", OutcomeBlocked)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.notesCreated))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.notesDeleted))
}

func TestHandlerExposesSeries(t *testing.T) {
	m := New("dontforget")
	m.ObserveHTTP(http.MethodPost, "/remind", 200, 15*time.Millisecond)
	m.ObserveTurns(2)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `dontforget_http_requests_total{method="POST",route="/remind",status="200"} 1`)
	assert.Contains(t, body, "dontforget_model_turns_count 1")
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ToolCall("x", OutcomeOK)
		m.NoteCreated()
		m.NotesDeleted(1)
		m.ObserveTurns(1)
		m.ObserveHTTP("GET", "/", 200, time.Second)
	})
	assert.Nil(t, m.Registry())
}
