// Package service — chat orchestration.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/compliance-chat/internal/agent"
	"github.com/sakif/compliance-chat/internal/apperror"
	"github.com/sakif/compliance-chat/internal/model"
	"github.com/sakif/compliance-chat/internal/repository"
)

// Pagination constants for history queries.
// The default page matches what the frontend has always requested; the max
// keeps a single request from dragging an entire multi-year history through
// one query.
const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 200
	MaxMessageLength    = 4000
)

// ChatService orchestrates the send pipeline and history operations.
//
// SEND PIPELINE (terminal states only, no partial persistence):
//
//	Validating  → InvalidInput if the message is empty
//	Dispatching → one agent call; on failure, STOP — nothing is written
//	Persisting  → one atomic append of the complete turn
//	Completed   → reply text + record ID + token count back to the caller
//
// The ordering of Dispatching before Persisting is the core invariant:
// history never contains a message without its response.
type ChatService struct {
	chats  repository.ChatRepository
	agent  agent.Agent
	logger *slog.Logger
}

// NewChatService creates a ChatService.
//
// ai may be nil when no agent is configured (e.g. missing API key at
// startup); Send then fails with UpstreamUnavailable instead of panicking,
// and the history/delete endpoints keep working.
func NewChatService(chats repository.ChatRepository, ai agent.Agent, logger *slog.Logger) *ChatService {
	return &ChatService{
		chats:  chats,
		agent:  ai,
		logger: logger,
	}
}

// SendResult is what a completed send returns to the handler.
type SendResult struct {
	Reply  string
	ChatID string
	Tokens int64
}

// Send runs one user message through the agent and persists the turn.
func (s *ChatService) Send(ctx context.Context, userID, message string) (*SendResult, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, apperror.ValidationFailed("message", "message is required")
	}
	if len(message) > MaxMessageLength {
		return nil, apperror.ValidationFailed("message",
			fmt.Sprintf("message must be %d characters or less", MaxMessageLength))
	}

	if s.agent == nil {
		return nil, apperror.Upstream("AI agent is not configured", nil)
	}

	// Single attempt, no retry. On failure we return before any write —
	// a failed agent call must leave zero trace in history.
	reply, err := s.agent.Ask(ctx, message)
	if err != nil {
		s.logger.Error("agent dispatch failed",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	chat := &model.ChatMessage{
		UserID:   userID,
		Message:  message,
		Response: reply.Text,
		Metadata: model.ChatMetadata{
			Model:  reply.Model,
			Tokens: reply.Tokens,
		},
	}
	if err := s.chats.Append(ctx, chat); err != nil {
		s.logger.Error("persisting chat failed",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, apperror.Internal("failed to save chat message")
	}

	s.logger.Info("chat completed",
		slog.String("userID", userID),
		slog.String("chatID", chat.ID),
		slog.Int64("tokens", reply.Tokens),
	)

	return &SendResult{
		Reply:  reply.Text,
		ChatID: chat.ID,
		Tokens: reply.Tokens,
	}, nil
}

// History returns one page of the user's chat history, newest first, plus
// the total record count. Limit and skip are clamped to sane ranges rather
// than rejected — a sloppy query string still gets a sensible page.
func (s *ChatService) History(ctx context.Context, userID string, limit, skip int) ([]model.ChatMessage, int, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	if skip < 0 {
		skip = 0
	}

	chats, total, err := s.chats.ListByUser(ctx, userID, repository.ListOptions{
		Limit: limit,
		Skip:  skip,
	})
	if err != nil {
		s.logger.Error("listing history failed",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, 0, fmt.Errorf("listing history: %w", err)
	}

	return chats, total, nil
}

// DeleteOne removes a single chat record owned by the user.
// Returns apperror.ErrNotFound for records that don't exist OR belong to
// someone else — the repository's ownership filter makes no distinction.
func (s *ChatService) DeleteOne(ctx context.Context, userID, chatID string) error {
	chatID = strings.TrimSpace(chatID)
	if chatID == "" {
		return apperror.ValidationFailed("chatId", "chat ID is required")
	}

	if err := s.chats.DeleteOne(ctx, userID, chatID); err != nil {
		return err
	}

	s.logger.Info("chat deleted",
		slog.String("userID", userID),
		slog.String("chatID", chatID),
	)
	return nil
}

// DeleteAll clears the user's entire history. Idempotent.
func (s *ChatService) DeleteAll(ctx context.Context, userID string) (int64, error) {
	count, err := s.chats.DeleteAll(ctx, userID)
	if err != nil {
		s.logger.Error("clearing history failed",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return 0, fmt.Errorf("clearing history: %w", err)
	}

	s.logger.Info("history cleared",
		slog.String("userID", userID),
		slog.Int64("deleted", count),
	)
	return count, nil
}
