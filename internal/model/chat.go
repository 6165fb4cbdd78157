package model

import "time"

// ChatMessage is one persisted conversation turn: the user's message and the
// agent's response, stored together as a single record.
//
// INVARIANT: a ChatMessage is only ever written complete. There is no
// "message sent, waiting for response" state in the database — if the agent
// call fails, nothing is persisted. This keeps history reads trivially simple:
// every row is a finished exchange.
//
// UserID is the owning user. Every query that touches chat records filters on
// user_id as well as id, so one user can never read or delete another user's
// history.
type ChatMessage struct {
	ID        string       `json:"id"        db:"id"`
	UserID    string       `json:"userId"    db:"user_id"`
	Message   string       `json:"message"   db:"message"`
	Response  string       `json:"response"  db:"response"`
	Timestamp time.Time    `json:"timestamp" db:"created_at"`
	Metadata  ChatMetadata `json:"metadata"`
}

// ChatMetadata records which model produced the response and how many tokens
// the exchange consumed. Token counts are best-effort: when the upstream
// service doesn't report usage, Tokens is simply 0.
type ChatMetadata struct {
	Model  string `json:"model"  db:"model"`
	Tokens int64  `json:"tokens" db:"tokens"`
}
