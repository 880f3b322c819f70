package agent

import (
	"github.com/jeanpaul/dontforget/internal/provider"
)

// maxToolResult caps the size of a single tool result fed back to the model.
const maxToolResult = 30000

// Conversation is the message history of one remind exchange.
type Conversation struct {
	messages []provider.Message
}

func NewConversation(system string) *Conversation {
	c := &Conversation{}
	if system != "" {
		c.AddSystem(system)
	}
	return c
}

func (c *Conversation) AddSystem(content string) {
	c.messages = append(c.messages, provider.Message{Role: provider.RoleSystem, Content: content})
}

func (c *Conversation) AddUser(content string) {
	c.messages = append(c.messages, provider.Message{Role: provider.RoleUser, Content: content})
}

func (c *Conversation) AddAssistant(content string, toolCalls []provider.ToolCall) {
	c.messages = append(c.messages, provider.Message{
		Role: provider.RoleAssistant, Content: content, ToolCalls: toolCalls,
	})
}

// AddToolResult records a tool's answer, keyed by both the call id and
// the tool name.
func (c *Conversation) AddToolResult(toolCallID, toolName, content string) {
	if len(content) > maxToolResult {
		content = content[:maxToolResult] + "\n... [truncated]"
	}
	c.messages = append(c.messages, provider.Message{
		Role: provider.RoleTool, Name: toolName, Content: content, ToolCallID: toolCallID,
	})
}

// Messages returns a copy of the history.
func (c *Conversation) Messages() []provider.Message {
	return append([]provider.Message(nil), c.messages...)
}

func (c *Conversation) Len() int {
	return len(c.messages)
}
