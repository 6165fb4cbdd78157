// Package agent defines the gateway to the external AI agent service.
//
// The rest of the application only ever sees the Agent interface: one message
// in, one reply out. Which provider answers, which model, which persona — all
// of that is configuration injected into the concrete implementation
// (openai.go). Tests substitute a stub that satisfies the same interface.
package agent

import (
	"context"
	"time"
)

// Reply is the agent's answer to a single user message.
//
// Tokens is best-effort: when the upstream service doesn't report usage
// figures, it is 0 — never an error.
type Reply struct {
	Text   string `json:"text"`
	Model  string `json:"model"`
	Tokens int64  `json:"tokens"`
}

// Agent represents the core interface for asking the external AI service a
// question and getting its final text output back.
//
// CONTRACT:
//   - One attempt per call. No retries — that's a deliberate extension point
//     left to a future circuit-breaker layer.
//   - On any upstream failure (unreachable, API error, timeout, empty
//     output), Ask returns apperror.ErrUpstream. The caller must NOT persist
//     anything on that path.
type Agent interface {
	Ask(ctx context.Context, message string) (*Reply, error)
}

// Config holds everything the concrete agent implementation needs to talk to
// the hosted service. It is passed into the constructor — there is no
// module-level singleton — so tests and deployments can swap personas,
// models, and endpoints freely.
type Config struct {
	// APIKey authenticates against the hosted service.
	APIKey string
	// BaseURL overrides the service endpoint. Empty means the provider
	// default; tests point this at a local httptest server.
	BaseURL string
	// Model is the fixed model identifier, e.g. "gpt-4o".
	Model string
	// Instructions is the persona/system prompt sent with every message.
	Instructions string
	// Timeout bounds a single upstream call so one slow request can't pin a
	// server goroutine indefinitely.
	Timeout time.Duration
}

// DefaultTimeout is applied when Config.Timeout is zero.
const DefaultTimeout = 60 * time.Second
