package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/compliance-chat/internal/apperror"
	"github.com/sakif/compliance-chat/internal/model"
	"github.com/sakif/compliance-chat/internal/repository"
)

// compile-time check that *DB implements repository.ChatRepository
var _ repository.ChatRepository = (*DB)(nil)

// Append writes one complete conversation turn as a single INSERT.
//
// ATOMICITY:
// The whole record — message, response, metadata — goes in with one
// statement, so there is never a half-written turn visible to readers.
// No transaction needed: a single INSERT is already atomic.
func (db *DB) Append(ctx context.Context, chat *model.ChatMessage) error {
	chat.ID = xid.New().String()
	chat.Timestamp = time.Now().UTC()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO chats (id, user_id, message, response, model, tokens, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		chat.ID,
		chat.UserID,
		chat.Message,
		chat.Response,
		chat.Metadata.Model,
		chat.Metadata.Tokens,
		chat.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting chat for user %s: %w", chat.UserID, err)
	}

	return nil
}

// ListByUser returns one page of a user's history plus the total count.
//
// ORDERING:
// created_at DESC puts the newest turn first. Two turns submitted
// concurrently can carry near-identical timestamps, so id DESC (xids are
// time-sortable) breaks the tie deterministically.
//
// The total is a separate COUNT(*) over the same ownership filter — it
// reflects the user's whole history, not just the returned page.
func (db *DB) ListByUser(ctx context.Context, userID string, opts repository.ListOptions) ([]model.ChatMessage, int, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, user_id, message, response, model, tokens, created_at
		 FROM chats
		 WHERE user_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ? OFFSET ?`,
		userID, opts.Limit, opts.Skip,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: listing chats for user %s: %w", userID, err)
	}
	defer rows.Close()

	// Start with an empty (non-nil) slice so an empty history serializes as
	// [] rather than null.
	chats := []model.ChatMessage{}
	for rows.Next() {
		var c model.ChatMessage
		if err := rows.Scan(
			&c.ID,
			&c.UserID,
			&c.Message,
			&c.Response,
			&c.Metadata.Model,
			&c.Metadata.Tokens,
			&c.Timestamp,
		); err != nil {
			return nil, 0, fmt.Errorf("sqlite: scanning chat row: %w", err)
		}
		chats = append(chats, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("sqlite: iterating chat rows: %w", err)
	}

	var total int
	err = db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM chats WHERE user_id = ?`, userID,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: counting chats for user %s: %w", userID, err)
	}

	return chats, total, nil
}

// DeleteOne removes a single chat record owned by userID.
//
// The WHERE clause filters on BOTH id and user_id — the ownership filter.
// A valid chat ID belonging to someone else affects zero rows and reports
// NotFound, exactly like an ID that never existed. The response deliberately
// doesn't distinguish the two cases.
func (db *DB) DeleteOne(ctx context.Context, userID, chatID string) error {
	res, err := db.conn.ExecContext(ctx,
		`DELETE FROM chats WHERE id = ? AND user_id = ?`,
		chatID, userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting chat %s: %w", chatID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking delete result for chat %s: %w", chatID, err)
	}
	if affected == 0 {
		return apperror.NotFound("chat", chatID)
	}

	return nil
}

// DeleteAll removes every chat record owned by userID and returns the count.
// Idempotent: clearing an already-empty history succeeds with count 0.
func (db *DB) DeleteAll(ctx context.Context, userID string) (int64, error) {
	res, err := db.conn.ExecContext(ctx,
		`DELETE FROM chats WHERE user_id = ?`, userID,
	)
	if err != nil {
		return 0, fmt.Errorf("sqlite: clearing chats for user %s: %w", userID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite: checking clear result for user %s: %w", userID, err)
	}

	return affected, nil
}
