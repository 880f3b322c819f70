package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoogle_BuildRequest(t *testing.T) {
	g := NewGoogle("k", "", Generation{Temperature: Temperature(0.1), JSONResponse: true})
	req := g.buildRequest([]Message{
		{Role: RoleSystem, Content: "be terse"},
		{Role: RoleUser, Content: "where are my keys?"},
		{Role: RoleAssistant, ToolCalls: []ToolCall{
			{ID: "a", Name: "execute_sql", Args: `{"sql_query":"SELECT 1"}`},
			{ID: "b", Name: "execute_sql", Args: `{"sql_query":"SELECT 2"}`},
		}},
		{Role: RoleTool, Name: "execute_sql", ToolCallID: "a", Content: "r1"},
		{Role: RoleTool, Name: "execute_sql", ToolCallID: "b", Content: "r2"},
	}, []ToolDef{{Name: "execute_sql", Description: "search"}})

	require.NotNil(t, req.SystemInstruction)
	assert.Equal(t, "be terse", req.SystemInstruction.Parts[0].Text)
	require.Len(t, req.Contents, 3)
	assert.Equal(t, "model", req.Contents[1].Role)
	assert.Len(t, req.Contents[1].Parts, 2)

	responses := req.Contents[2]
	assert.Equal(t, "user", responses.Role)
	require.Len(t, responses.Parts, 2)
	assert.Equal(t, "execute_sql", responses.Parts[0].FunctionResponse.Name)
	assert.Equal(t, "r2", responses.Parts[1].FunctionResponse.Response["result"])

	require.NotNil(t, req.GenerationConfig)
	assert.Equal(t, "application/json", req.GenerationConfig.ResponseMIMEType)
	assert.InDelta(t, 0.1, *req.GenerationConfig.Temperature, 1e-9)
	require.Len(t, req.Tools, 1)
	assert.Equal(t, "execute_sql", req.Tools[0].FunctionDeclarations[0].Name)
	assert.Equal(t, "gemini-2.0-flash", g.ModelName())
}

func TestGoogle_ChatStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gemini-test:streamGenerateContent", r.URL.Path)
		assert.Equal(t, "sse", r.URL.Query().Get("alt"))
		assert.Equal(t, "secret", r.Header.Get("x-goog-api-key"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte(`data: {"candidates":[{"content":{"role":"model","parts":[{"text":"Let me look"}]}}]}` + "\n\n"))
		w.Write([]byte(`data: {"candidates":[{"content":{"role":"model","parts":[{"functionCall":{"name":"execute_sql","args":{"sql_query":"SELECT 1"}}}]},"finishReason":"STOP"}]}` + "\n\n"))
	}))
	defer srv.Close()

	g := NewGoogle("secret", "gemini-test", Generation{}).WithBaseURL(srv.URL)
	ch, err := g.Chat(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, nil)
	require.NoError(t, err)
	text, calls := drain(t, ch)
	assert.Equal(t, "Let me look", text)
	require.Len(t, calls, 1)
	assert.Equal(t, "execute_sql", calls[0].Name)
	assert.JSONEq(t, `{"sql_query":"SELECT 1"}`, calls[0].Args)
	assert.NotEmpty(t, calls[0].ID)
}

func TestGoogle_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"API key not valid"}}`))
	}))
	defer srv.Close()

	g := NewGoogle("bad", "m", Generation{}).WithBaseURL(srv.URL)
	_, err := g.Chat(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, nil)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "API key not valid", se.Message)
	assert.False(t, se.Retryable())
}
