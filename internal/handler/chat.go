package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/compliance-chat/internal/auth"
	"github.com/sakif/compliance-chat/internal/model"
	"github.com/sakif/compliance-chat/internal/service"
)

// ChatHandler exposes the chat endpoints. All of them sit behind
// RequireAuth, so mustUserID always succeeds in practice.
type ChatHandler struct {
	chats  *service.ChatService
	logger *slog.Logger
}

// NewChatHandler creates a ChatHandler.
func NewChatHandler(chats *service.ChatService, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{
		chats:  chats,
		logger: logger,
	}
}

type sendRequest struct {
	Message string `json:"message"`
}

// sendResponse mirrors what the frontend expects: "message" carries the
// AGENT'S reply text (not an acknowledgement string), plus the persisted
// record's ID and the best-effort token count.
type sendResponse struct {
	Message string `json:"message"`
	ChatID  string `json:"chatId"`
	Tokens  int64  `json:"tokens"`
}

// historyResponse is one page of chat history. Total counts the user's
// whole history regardless of the page bounds; limit and skip echo what was
// actually applied after clamping.
type historyResponse struct {
	Chats []model.ChatMessage `json:"chats"`
	Total int                 `json:"total"`
	Limit int                 `json:"limit"`
	Skip  int                 `json:"skip"`
}

// mustUserID pulls the authenticated userID out of the context, writing a
// 401 if it's somehow missing (only possible if a route was wired without
// RequireAuth — a bug, but one that should fail closed).
func (h *ChatHandler) mustUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "valid authentication required",
		})
		return "", false
	}
	return userID, true
}

// HandleSend runs one message through the agent pipeline.
//
// HTTP: POST /api/chat/send
// BODY: {"message": "..."}
//
// 200 {message, chatId, tokens} on success
// 400 when the message is empty; 500 when the agent or storage fails —
// and on the agent-failure path, nothing was persisted.
func (h *ChatHandler) HandleSend(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.mustUserID(w, r)
	if !ok {
		return
	}

	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid send body", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	result, err := h.chats.Send(r.Context(), userID, req.Message)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sendResponse{
		Message: result.Reply,
		ChatID:  result.ChatID,
		Tokens:  result.Tokens,
	})
}

// HandleHistory returns one page of the user's history, newest first.
//
// HTTP: GET /api/chat/history?limit=50&skip=0
//
// Unparseable or missing limit/skip fall back to the defaults rather than
// erroring — the query string is advisory.
func (h *ChatHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.mustUserID(w, r)
	if !ok {
		return
	}

	limit := parseIntParam(r, "limit", service.DefaultHistoryLimit)
	skip := parseIntParam(r, "skip", 0)

	chats, total, err := h.chats.History(r.Context(), userID, limit, skip)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, historyResponse{
		Chats: chats,
		Total: total,
		Limit: clampLimit(limit),
		Skip:  max(skip, 0),
	})
}

// HandleDelete removes a single chat record.
//
// HTTP: DELETE /api/chat/{chatID}
//
// 404 when the record doesn't exist — or exists but belongs to another
// user; the ownership filter treats both identically.
func (h *ChatHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.mustUserID(w, r)
	if !ok {
		return
	}

	chatID := chi.URLParam(r, "chatID")

	if err := h.chats.DeleteOne(r.Context(), userID, chatID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Chat deleted successfully"})
}

// HandleClear wipes the user's entire history.
//
// HTTP: DELETE /api/chat
//
// Always 200 — clearing an already-empty history is a success, not an error.
func (h *ChatHandler) HandleClear(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.mustUserID(w, r)
	if !ok {
		return
	}

	if _, err := h.chats.DeleteAll(r.Context(), userID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Chat history cleared successfully"})
}

// parseIntParam reads an integer query parameter, falling back to def when
// absent or malformed.
func parseIntParam(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

// clampLimit mirrors the service's clamping so the echoed limit matches what
// was actually applied.
func clampLimit(limit int) int {
	if limit <= 0 {
		return service.DefaultHistoryLimit
	}
	if limit > service.MaxHistoryLimit {
		return service.MaxHistoryLimit
	}
	return limit
}
