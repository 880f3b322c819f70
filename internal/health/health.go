// Package health checks that the configured model provider and the note
// store are usable.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const googleBaseURL = "https://generativelanguage.googleapis.com/v1beta"

type Status struct {
	Provider  string
	BaseURL   string
	Reachable bool
	Models    []string
	Error     string
	Latency   time.Duration
}

// Check verifies that a provider endpoint is reachable and accepts the key.
// OpenAI-compatible endpoints (Ollama, vLLM, OpenAI) are probed on /models,
// Gemini on its model listing. An empty baseURL selects the public Gemini API.
func Check(ctx context.Context, providerType, baseURL, apiKey string) Status {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var s Status
	switch providerType {
	case "openai":
		s = checkOpenAICompat(ctx, baseURL, apiKey)
	case "google":
		if baseURL == "" {
			baseURL = googleBaseURL
		}
		s = checkGoogle(ctx, baseURL, apiKey)
	default:
		s.Error = fmt.Sprintf("unknown provider type: %s", providerType)
	}

	s.Provider = providerType
	s.BaseURL = baseURL
	s.Latency = time.Since(start)
	return s
}

func checkOpenAICompat(ctx context.Context, baseURL, apiKey string) Status {
	s := Status{}
	req, err := http.NewRequestWithContext(ctx, "GET", strings.TrimRight(baseURL, "/")+"/models", nil)
	if err != nil {
		s.Error = err.Error()
		return s
	}
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		s.Error = fmt.Sprintf("cannot reach %s: %s", baseURL, friendlyError(err))
		return s
	}
	defer resp.Body.Close()

	if resp.StatusCode == 401 || resp.StatusCode == 403 {
		s.Error = "authentication failed, check your API key"
		return s
	}
	if resp.StatusCode != 200 {
		s.Error = fmt.Sprintf("endpoint returned HTTP %d", resp.StatusCode)
		return s
	}

	var result struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	s.Reachable = true
	// Some endpoints return non-standard JSON but are still reachable.
	if json.NewDecoder(resp.Body).Decode(&result) == nil {
		for _, m := range result.Data {
			s.Models = append(s.Models, m.ID)
		}
	}
	return s
}

func checkGoogle(ctx context.Context, baseURL, apiKey string) Status {
	s := Status{}
	if apiKey == "" {
		s.Error = "no API key configured (set GEMINI_API_KEY)"
		return s
	}
	req, err := http.NewRequestWithContext(ctx, "GET", strings.TrimRight(baseURL, "/")+"/models?pageSize=50", nil)
	if err != nil {
		s.Error = err.Error()
		return s
	}
	req.Header.Set("x-goog-api-key", apiKey)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		s.Error = fmt.Sprintf("cannot reach Google API: %s", friendlyError(err))
		return s
	}
	defer resp.Body.Close()

	if resp.StatusCode == 400 || resp.StatusCode == 401 || resp.StatusCode == 403 {
		s.Error = "invalid API key"
		return s
	}
	if resp.StatusCode != 200 {
		s.Error = fmt.Sprintf("endpoint returned HTTP %d", resp.StatusCode)
		return s
	}

	var result struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	s.Reachable = true
	if json.NewDecoder(resp.Body).Decode(&result) == nil {
		for _, m := range result.Models {
			s.Models = append(s.Models, strings.TrimPrefix(m.Name, "models/"))
		}
	}
	return s
}

// CheckModel verifies that a specific model is offered by a reachable provider.
// Providers that list no models are given the benefit of the doubt.
func CheckModel(s Status, modelName string) error {
	if !s.Reachable {
		return fmt.Errorf("provider not reachable: %s", s.Error)
	}
	if len(s.Models) == 0 {
		return nil
	}
	for _, m := range s.Models {
		if m == modelName {
			return nil
		}
	}
	return fmt.Errorf("model %q not found, available: %s", modelName, strings.Join(s.Models, ", "))
}

// Pinger is anything that can report its own reachability, such as the store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// CheckStore pings p with a short timeout.
func CheckStore(ctx context.Context, p Pinger) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := p.Ping(ctx); err != nil {
		return fmt.Errorf("store unavailable: %w", err)
	}
	return nil
}

func friendlyError(err error) string {
	msg := err.Error()
	if strings.Contains(msg, "connection refused") {
		return "connection refused (is the service running?)"
	}
	if strings.Contains(msg, "no such host") {
		return "host not found (check the URL)"
	}
	if strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline exceeded") {
		return "connection timed out (service may be starting up)"
	}
	return msg
}
