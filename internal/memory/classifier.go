// Package memory is the ingestion path: it classifies incoming text and
// stores it as a note.
package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jeanpaul/dontforget/internal/provider"
)

// Defaults used when classification is missing or fails.
const (
	DefaultTags   = "general"
	DefaultIntent = "fact"
)

// Intents the classifier is asked to choose from. Other values are kept as-is.
var Intents = []string{"task", "fact", "idea", "list"}

// Classification is the advisory metadata attached to a note.
type Classification struct {
	Tags   string
	Intent string
}

type Classifier interface {
	Classify(ctx context.Context, text string) (Classification, error)
}

// LLMClassifier asks a model for a JSON classification. The provider
// should be configured for JSON responses.
type LLMClassifier struct {
	Provider provider.Provider
}

func classifyPrompt(text string) string {
	return fmt.Sprintf(`Analyze input: %q
Return JSON:
- "tags": csv keywords.
- "intent": ONE word [%s].`, text, strings.Join(Intents, ", "))
}

func (c *LLMClassifier) Classify(ctx context.Context, text string) (Classification, error) {
	stream, err := c.Provider.Chat(ctx, []provider.Message{
		{Role: provider.RoleUser, Content: classifyPrompt(text)},
	}, nil)
	if err != nil {
		return Classification{}, fmt.Errorf("classify: %w", err)
	}

	var sb strings.Builder
	for chunk := range stream {
		if chunk.Error != nil {
			return Classification{}, fmt.Errorf("classify: %w", chunk.Error)
		}
		sb.WriteString(chunk.Delta)
	}
	return parseClassification(sb.String())
}

// parseClassification reads the model's JSON answer. Missing fields are
// left empty for the caller to default.
func parseClassification(raw string) (Classification, error) {
	body := extractObject(raw)
	if body == "" {
		return Classification{}, errors.New("classify: no JSON object in response")
	}

	var resp struct {
		Tags   json.RawMessage `json:"tags"`
		Intent string          `json:"intent"`
	}
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		return Classification{}, fmt.Errorf("classify: %w", err)
	}
	return Classification{
		Tags:   decodeTags(resp.Tags),
		Intent: strings.ToLower(strings.TrimSpace(resp.Intent)),
	}, nil
}

// decodeTags accepts a csv string or an array of strings.
func decodeTags(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return strings.TrimSpace(s)
	}
	var list []string
	if json.Unmarshal(raw, &list) == nil {
		parts := make([]string, 0, len(list))
		for _, t := range list {
			if t = strings.TrimSpace(t); t != "" {
				parts = append(parts, t)
			}
		}
		return strings.Join(parts, ",")
	}
	return ""
}

// extractObject strips markdown fences and returns the outermost {...}.
func extractObject(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end < start {
		return ""
	}
	return raw[start : end+1]
}
