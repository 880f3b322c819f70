package provider

import "context"

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one entry of a conversation. Tool results carry the name of
// the tool that produced them in Name.
type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	Name       string     `json:"name,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

type ToolCall struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Args string `json:"arguments"`
}

type ToolDef struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Parameters  any    `json:"parameters"`
}

type StreamChunk struct {
	Delta     string
	ToolCalls []ToolCall
	Done      bool
	Error     error
}

// Generation holds sampling settings shared by the concrete providers.
type Generation struct {
	Temperature *float64
	// JSONResponse asks the model to answer with a JSON document only.
	JSONResponse bool
}

func Temperature(t float64) *float64 { return &t }

type Provider interface {
	Chat(ctx context.Context, msgs []Message, tools []ToolDef) (<-chan StreamChunk, error)
	Name() string
	ModelName() string
	Models(ctx context.Context) ([]string, error)
}
