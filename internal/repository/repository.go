// Package repository declares the storage interfaces the service layer
// depends on. Concrete implementations live in subpackages (sqlite).
package repository

import (
	"context"

	"github.com/sakif/compliance-chat/internal/model"
)

// ListOptions carries pagination parameters for history queries.
// Skip is the number of records to pass over before collecting Limit records
// (the limit/skip scheme the HTTP API exposes directly).
type ListOptions struct {
	Limit int
	Skip  int
}

// UserRepository persists user accounts.
type UserRepository interface {
	// Create inserts a new user. The repository fills in ID and CreatedAt.
	// Returns apperror.ErrConflict if the username or email is taken.
	Create(ctx context.Context, user *model.User) error
	// GetByID returns apperror.ErrNotFound if no user has that ID.
	GetByID(ctx context.Context, id string) (*model.User, error)
	// GetByEmail looks a user up by normalized (lowercase) email.
	// Returns apperror.ErrNotFound if no user has that email.
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	// UsernameOrEmailTaken reports whether any existing user already holds
	// the given username or email.
	UsernameOrEmailTaken(ctx context.Context, username, email string) (bool, error)
}

// ChatRepository persists completed conversation turns.
//
// OWNERSHIP FILTER:
// Every read and delete is constrained by userID as well as record ID.
// There is deliberately no "get by id alone" — the interface makes
// cross-user access impossible to express.
type ChatRepository interface {
	// Append writes one complete turn (message + response + metadata).
	// The repository fills in ID and Timestamp.
	Append(ctx context.Context, chat *model.ChatMessage) error
	// ListByUser returns one page of the user's history, most recent
	// first, plus the total record count for that user (independent of
	// the page bounds).
	ListByUser(ctx context.Context, userID string, opts ListOptions) ([]model.ChatMessage, int, error)
	// DeleteOne removes a single record owned by userID. Returns
	// apperror.ErrNotFound if no record matches both IDs.
	DeleteOne(ctx context.Context, userID, chatID string) error
	// DeleteAll removes every record owned by userID and returns how many
	// were deleted. Deleting an empty history is not an error.
	DeleteAll(ctx context.Context, userID string) (int64, error)
}
