package provider

import (
	"encoding/json"
	"fmt"
	"strings"
)

// StatusError is returned when a provider answers with a non-200 status.
type StatusError struct {
	Provider string
	Code     int
	Message  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned %d: %s", e.Provider, e.Code, e.Message)
}

// Retryable reports whether the request may succeed if sent again.
func (e *StatusError) Retryable() bool {
	switch e.Code {
	case 429, 500, 502, 503, 504, 529:
		return true
	}
	return false
}

func newStatusError(providerName string, statusCode int, body []byte) *StatusError {
	return &StatusError{Provider: providerName, Code: statusCode, Message: parseProviderError(statusCode, body)}
}

var statusMessages = map[int]string{
	400: "request rejected by the provider",
	401: "authentication failed, check your API key",
	403: "access denied, your API key may not have the required permissions",
	404: "model or endpoint not found",
	429: "rate limited, too many requests",
	500: "internal server error on the provider side",
	502: "provider service temporarily unavailable",
	503: "provider service temporarily unavailable",
	529: "provider is overloaded, please try again later",
}

// parseProviderError extracts a human-readable error from a provider API response body.
func parseProviderError(statusCode int, body []byte) string {
	var errResp struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &errResp) == nil {
		if msg := errResp.Error.Message; msg != "" {
			return msg
		}
		if errResp.Message != "" {
			return errResp.Message
		}
	}
	if msg, ok := statusMessages[statusCode]; ok {
		return msg
	}
	s := string(body)
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return fmt.Sprintf("HTTP %d: %s", statusCode, s)
}

var networkMessages = []struct{ match, msg string }{
	{"connection refused", "connection refused (is the service running?)"},
	{"no such host", "host not found (check the URL)"},
	{"timeout", "connection timed out"},
	{"deadline exceeded", "connection timed out"},
	{"EOF", "connection closed unexpectedly"},
	{"reset by peer", "connection reset by server"},
}

// friendlyProviderError converts common network errors to user-friendly messages.
func friendlyProviderError(err error) string {
	msg := err.Error()
	for _, m := range networkMessages {
		if strings.Contains(msg, m.match) {
			return m.msg
		}
	}
	return msg
}
