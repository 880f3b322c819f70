package agent

import (
	"strings"
	"testing"
	"time"
)

func TestSystemPromptCarriesProtocol(t *testing.T) {
	prompt := BuildSystemPrompt(time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC))

	requiredPhrases := []string{
		"Date: 2026-03-09",
		"execute_sql(sql_query)",
		"delete_memories(rowids)",
		"**SEARCH**",
		"**DELETE**",
		"**CONFIRM**",
		"**ZERO-HESITATION**",
		"Always select rowid",
	}
	for _, phrase := range requiredPhrases {
		if !strings.Contains(prompt, phrase) {
			t.Errorf("System prompt missing required phrase: %q", phrase)
		}
	}

	if strings.Index(prompt, "**SEARCH**") > strings.Index(prompt, "**DELETE**") {
		t.Error("search rule should come before the delete rule")
	}
}

func TestPromptLength(t *testing.T) {
	prompt := BuildSystemPrompt(time.Now())
	if estimated := len(prompt) / 4; estimated > 600 {
		t.Errorf("system prompt is ~%d tokens", estimated)
	}
}
