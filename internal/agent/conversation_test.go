package agent

import (
	"strings"
	"testing"

	"github.com/jeanpaul/dontforget/internal/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversation_Order(t *testing.T) {
	c := NewConversation("protocol")
	c.AddUser("where are my keys?")
	c.AddAssistant("", []provider.ToolCall{{ID: "1", Name: "execute_sql", Args: "{}"}})
	c.AddToolResult("1", "execute_sql", "No records found.")

	msgs := c.Messages()
	require.Len(t, msgs, 4)
	assert.Equal(t, provider.RoleSystem, msgs[0].Role)
	assert.Equal(t, provider.RoleUser, msgs[1].Role)
	assert.Equal(t, provider.RoleAssistant, msgs[2].Role)
	assert.Equal(t, provider.RoleTool, msgs[3].Role)
	assert.Equal(t, "execute_sql", msgs[3].Name)
	assert.Equal(t, "1", msgs[3].ToolCallID)
}

func TestConversation_MessagesIsACopy(t *testing.T) {
	c := NewConversation("")
	c.AddUser("a")
	msgs := c.Messages()
	msgs[0].Content = "changed"
	assert.Equal(t, "a", c.Messages()[0].Content)
	assert.Equal(t, 1, c.Len())
}

func TestConversation_TruncatesLargeToolResults(t *testing.T) {
	c := NewConversation("")
	c.AddToolResult("1", "execute_sql", strings.Repeat("x", maxToolResult+100))
	got := c.Messages()[0].Content
	assert.True(t, strings.HasSuffix(got, "[truncated]"))
	assert.Less(t, len(got), maxToolResult+100)
}
