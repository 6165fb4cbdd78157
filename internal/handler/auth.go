package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sakif/compliance-chat/internal/auth"
	"github.com/sakif/compliance-chat/internal/model"
	"github.com/sakif/compliance-chat/internal/service"
)

// AuthHandler exposes the account endpoints.
//
// HANDLER RESPONSIBILITIES:
//   - HandleRegister → create an account, return token + user (201)
//   - HandleLogin    → verify credentials, return token + user (200)
//   - HandleLogout   → acknowledge; tokens are stateless so there is
//     nothing to invalidate server-side
//   - HandleProfile  → return the authenticated user's record
//
// Handlers parse JSON and translate errors; every rule lives in the service.
type AuthHandler struct {
	auths  *service.AuthService
	logger *slog.Logger
}

// NewAuthHandler creates an AuthHandler. All dependencies are injected here;
// the handler has no knowledge of how they're constructed.
func NewAuthHandler(auths *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		auths:  auths,
		logger: logger,
	}
}

// credentialsRequest is the body of both register and login. Login simply
// ignores Username.
type credentialsRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// userPayload is the sanitized user object embedded in auth responses.
// Built explicitly rather than serializing model.User so the wire shape
// can't drift when the model grows fields.
type userPayload struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// authResponse is the success body for register and login.
type authResponse struct {
	Message string      `json:"message"`
	Token   string      `json:"token"`
	User    userPayload `json:"user"`
}

func toUserPayload(u *model.User) userPayload {
	return userPayload{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
	}
}

// HandleRegister creates a new account.
//
// HTTP: POST /api/auth/register
// BODY: {"username": "...", "email": "...", "password": "..."}
//
// 201 {message, token, user} on success; 400 for missing/short fields and
// for duplicate username/email.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid register body", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	result, err := h.auths.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, authResponse{
		Message: "User registered successfully",
		Token:   result.Token,
		User:    toUserPayload(result.User),
	})
}

// HandleLogin verifies credentials and issues a fresh 7-day token.
//
// HTTP: POST /api/auth/login
// BODY: {"email": "...", "password": "..."}
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid login body", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	result, err := h.auths.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, authResponse{
		Message: "Login successful",
		Token:   result.Token,
		User:    toUserPayload(result.User),
	})
}

// HandleLogout acknowledges a logout.
//
// HTTP: POST /api/auth/logout
// Auth: Required
//
// STATELESS LOGOUT:
// There is no server-side session to destroy — the client discards its
// token and that's that. The token remains technically valid until its
// 7-day expiry; accepting that trade-off is what keeps every request free
// of a session-store lookup.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logout successful"})
}

// HandleProfile returns the currently authenticated user's record.
//
// HTTP: GET /api/auth/profile
// Auth: Required (RequireAuth middleware sets userID in context)
func (h *AuthHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		// Should never happen on a RequireAuth-protected route, but be safe.
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "valid authentication required",
		})
		return
	}

	user, err := h.auths.Profile(r.Context(), userID)
	if err != nil {
		h.logger.Error("profile lookup failed", slog.String("userID", userID))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user": map[string]any{
			"id":        user.ID,
			"username":  user.Username,
			"email":     user.Email,
			"createdAt": user.CreatedAt,
		},
	})
}
