package agent

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sakif/compliance-chat/internal/apperror"
)

// TESTING AN EXTERNAL API CLIENT:
// We never call the real service in tests. httptest.NewServer gives us a
// local HTTP server with canned responses, and Config.BaseURL points the
// client at it. The tests then exercise OUR code — request construction,
// response extraction, error mapping — against a wire-faithful stub.

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// completionBody builds a minimal chat-completions response payload.
func completionBody(content string, totalTokens int64) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "gpt-4o",
		"choices": []map[string]any{
			{
				"index":         0,
				"finish_reason": "stop",
				"message": map[string]any{
					"role":    "assistant",
					"content": content,
				},
			},
		},
		"usage": map[string]any{
			"prompt_tokens":     3,
			"completion_tokens": totalTokens - 3,
			"total_tokens":      totalTokens,
		},
	}
}

func newTestAgent(t *testing.T, handler http.HandlerFunc) *OpenAIAgent {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	a, err := NewOpenAIAgent(Config{
		APIKey:       "test-key",
		BaseURL:      srv.URL,
		Model:        "gpt-4o",
		Instructions: "You are a test assistant.",
		Timeout:      5 * time.Second,
	}, testLogger())
	if err != nil {
		t.Fatalf("NewOpenAIAgent() error = %v", err)
	}
	return a
}

// =========================================================================
// CONSTRUCTOR TESTS
// =========================================================================

func TestNewOpenAIAgent_RequiresAPIKey(t *testing.T) {
	_, err := NewOpenAIAgent(Config{Model: "gpt-4o"}, testLogger())
	if !errors.Is(err, apperror.ErrUpstream) {
		t.Errorf("NewOpenAIAgent() without key: error = %v, want ErrUpstream", err)
	}
}

// =========================================================================
// ASK TESTS
// =========================================================================

func TestAsk(t *testing.T) {
	var gotReq struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}

	a := newTestAgent(t, func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(completionBody("hi there", 42))
	})

	reply, err := a.Ask(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if reply.Text != "hi there" {
		t.Errorf("Text = %q, want %q", reply.Text, "hi there")
	}
	if reply.Model != "gpt-4o" {
		t.Errorf("Model = %q, want gpt-4o", reply.Model)
	}
	if reply.Tokens != 42 {
		t.Errorf("Tokens = %d, want 42", reply.Tokens)
	}

	// The request must carry the persona as the system message and the user
	// message after it.
	if gotReq.Model != "gpt-4o" {
		t.Errorf("request model = %q, want gpt-4o", gotReq.Model)
	}
	if len(gotReq.Messages) != 2 {
		t.Fatalf("request has %d messages, want 2 (system + user)", len(gotReq.Messages))
	}
	if gotReq.Messages[0].Role != "system" || gotReq.Messages[0].Content != "You are a test assistant." {
		t.Errorf("first message = %+v, want the system persona", gotReq.Messages[0])
	}
	if gotReq.Messages[1].Role != "user" || gotReq.Messages[1].Content != "hello" {
		t.Errorf("second message = %+v, want the user message", gotReq.Messages[1])
	}
}

func TestAsk_APIError(t *testing.T) {
	a := newTestAgent(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"message":"server melted","type":"server_error"}}`))
	})

	_, err := a.Ask(context.Background(), "hello")
	if !errors.Is(err, apperror.ErrUpstream) {
		t.Errorf("Ask() error = %v, want ErrUpstream", err)
	}
}

func TestAsk_EmptyOutput(t *testing.T) {
	a := newTestAgent(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(completionBody("", 5))
	})

	_, err := a.Ask(context.Background(), "hello")
	if !errors.Is(err, apperror.ErrUpstream) {
		t.Errorf("Ask() with empty completion: error = %v, want ErrUpstream", err)
	}
}

func TestAsk_NoChoices(t *testing.T) {
	a := newTestAgent(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"chatcmpl-test","object":"chat.completion","choices":[]}`))
	})

	_, err := a.Ask(context.Background(), "hello")
	if !errors.Is(err, apperror.ErrUpstream) {
		t.Errorf("Ask() with no choices: error = %v, want ErrUpstream", err)
	}
}

// One Ask = one HTTP request, even when the service fails. The client's
// retry machinery is disabled in the constructor.
func TestAsk_SingleAttempt(t *testing.T) {
	var requests int
	a := newTestAgent(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error":{"message":"overloaded","type":"server_error"}}`))
	})

	_, err := a.Ask(context.Background(), "hello")
	if !errors.Is(err, apperror.ErrUpstream) {
		t.Fatalf("Ask() error = %v, want ErrUpstream", err)
	}
	if requests != 1 {
		t.Errorf("server saw %d requests, want exactly 1", requests)
	}
}

func TestAsk_Timeout(t *testing.T) {
	a := newTestAgent(t, func(w http.ResponseWriter, r *http.Request) {
		// Outlast the caller's deadline below.
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	// Override with a very short timeout
	a.cfg.Timeout = 50 * time.Millisecond

	_, err := a.Ask(context.Background(), "hello")
	if !errors.Is(err, apperror.ErrUpstream) {
		t.Errorf("Ask() past deadline: error = %v, want ErrUpstream", err)
	}
}
