package provider

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

const googleBaseURL = "https://generativelanguage.googleapis.com/v1beta"

type GoogleProvider struct {
	apiKey  string
	model   string
	baseURL string
	gen     Generation
	client  *http.Client
}

func NewGoogle(apiKey, model string, gen Generation) *GoogleProvider {
	if model == "" {
		model = "gemini-2.0-flash"
	}
	return &GoogleProvider{apiKey: apiKey, model: model, baseURL: googleBaseURL, gen: gen, client: &http.Client{}}
}

// WithBaseURL points the provider at a different API root.
func (g *GoogleProvider) WithBaseURL(baseURL string) *GoogleProvider {
	if baseURL != "" {
		g.baseURL = strings.TrimRight(baseURL, "/")
	}
	return g
}

func (g *GoogleProvider) Name() string { return "google" }

func (g *GoogleProvider) ModelName() string { return g.model }

func (g *GoogleProvider) Models(_ context.Context) ([]string, error) {
	return []string{
		"gemini-2.0-flash",
		"gemini-2.0-flash-lite",
		"gemini-1.5-pro",
	}, nil
}

type geminiRequest struct {
	Contents          []geminiContent   `json:"contents"`
	SystemInstruction *geminiContent    `json:"systemInstruction,omitempty"`
	Tools             []geminiTool      `json:"tools,omitempty"`
	GenerationConfig  *geminiGeneration `json:"generationConfig,omitempty"`
}

type geminiGeneration struct {
	Temperature      *float64 `json:"temperature,omitempty"`
	ResponseMIMEType string   `json:"responseMimeType,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text             string        `json:"text,omitempty"`
	FunctionCall     *geminiFnCall `json:"functionCall,omitempty"`
	FunctionResponse *geminiFnResp `json:"functionResponse,omitempty"`
}

type geminiFnCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

type geminiFnResp struct {
	Name     string         `json:"name"`
	Response map[string]any `json:"response"`
}

type geminiTool struct {
	FunctionDeclarations []geminiFnDecl `json:"functionDeclarations"`
}

type geminiFnDecl struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Parameters  any    `json:"parameters"`
}

type geminiStreamChunk struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
}

func (g *GoogleProvider) buildRequest(msgs []Message, tools []ToolDef) geminiRequest {
	var req geminiRequest

	for _, m := range msgs {
		switch m.Role {
		case RoleSystem:
			req.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: m.Content}}}
		case RoleUser:
			req.Contents = append(req.Contents, geminiContent{Role: "user", Parts: []geminiPart{{Text: m.Content}}})
		case RoleAssistant:
			parts := []geminiPart{}
			if m.Content != "" {
				parts = append(parts, geminiPart{Text: m.Content})
			}
			for _, tc := range m.ToolCalls {
				var args map[string]any
				json.Unmarshal([]byte(tc.Args), &args)
				parts = append(parts, geminiPart{FunctionCall: &geminiFnCall{Name: tc.Name, Args: args}})
			}
			req.Contents = append(req.Contents, geminiContent{Role: "model", Parts: parts})
		case RoleTool:
			part := geminiPart{FunctionResponse: &geminiFnResp{
				Name:     m.Name,
				Response: map[string]any{"result": m.Content},
			}}
			// Responses to calls from the same model turn share one content.
			if n := len(req.Contents); n > 0 && req.Contents[n-1].Role == "user" && req.Contents[n-1].Parts[0].FunctionResponse != nil {
				req.Contents[n-1].Parts = append(req.Contents[n-1].Parts, part)
				continue
			}
			req.Contents = append(req.Contents, geminiContent{Role: "user", Parts: []geminiPart{part}})
		}
	}

	if len(tools) > 0 {
		var decls []geminiFnDecl
		for _, t := range tools {
			decls = append(decls, geminiFnDecl{Name: t.Name, Description: t.Description, Parameters: t.Parameters})
		}
		req.Tools = []geminiTool{{FunctionDeclarations: decls}}
	}

	if g.gen.Temperature != nil || g.gen.JSONResponse {
		req.GenerationConfig = &geminiGeneration{Temperature: g.gen.Temperature}
		if g.gen.JSONResponse {
			req.GenerationConfig.ResponseMIMEType = "application/json"
		}
	}
	return req
}

func (g *GoogleProvider) Chat(ctx context.Context, msgs []Message, tools []ToolDef) (<-chan StreamChunk, error) {
	payload, err := json.Marshal(g.buildRequest(msgs, tools))
	if err != nil {
		return nil, err
	}

	apiURL := fmt.Sprintf("%s/models/%s:streamGenerateContent?alt=sse", g.baseURL, g.model)
	req, err := http.NewRequestWithContext(ctx, "POST", apiURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("google API error (%s): %w", friendlyProviderError(err), err)
	}
	if resp.StatusCode != 200 {
		b, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, newStatusError("google", resp.StatusCode, b)
	}

	ch := make(chan StreamChunk, 64)
	go func() {
		defer close(ch)
		defer resp.Body.Close()
		var toolCalls []ToolCall
		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
		for scanner.Scan() {
			line := scanner.Text()
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			var chunk geminiStreamChunk
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &chunk); err != nil {
				continue
			}
			if len(chunk.Candidates) == 0 {
				continue
			}
			cand := chunk.Candidates[0]
			for _, part := range cand.Content.Parts {
				if part.Text != "" {
					ch <- StreamChunk{Delta: part.Text}
				}
				if part.FunctionCall != nil {
					args, _ := json.Marshal(part.FunctionCall.Args)
					toolCalls = append(toolCalls, ToolCall{
						ID: uuid.NewString(), Name: part.FunctionCall.Name, Args: string(args),
					})
				}
			}
			if cand.FinishReason != "" {
				ch <- StreamChunk{Done: true, ToolCalls: toolCalls}
				return
			}
		}
		if err := scanner.Err(); err != nil {
			ch <- StreamChunk{Error: err, Done: true}
			return
		}
		ch <- StreamChunk{Done: true, ToolCalls: toolCalls}
	}()
	return ch, nil
}
