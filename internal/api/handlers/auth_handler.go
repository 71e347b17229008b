package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	middleware "github.com/markdave123-py/mindwise/internal/api/middlewares"
	db "github.com/markdave123-py/mindwise/internal/core/database"
	"github.com/markdave123-py/mindwise/internal/services"
)

type AuthHandler struct {
	users    *services.UserService
	sessions *middleware.Sessions
}

func NewAuthHandler(users *services.UserService, sessions *middleware.Sessions) *AuthHandler {
	return &AuthHandler{users: users, sessions: sessions}
}

type registerRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Status string `json:"status"`
	UserID int64  `json:"user_id"`
	Token  string `json:"token"`
}

// Register creates the account and logs the new user in.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	user, err := h.users.Register(r.Context(), req.Email, req.Password, req.ConfirmPassword)
	switch {
	case err == nil:
	case errors.Is(err, db.ErrEmailTaken):
		writeError(w, http.StatusConflict, "This email is already registered. Please use a different email or log in.")
		return
	case errors.Is(err, services.ErrPasswordMismatch), errors.Is(err, services.ErrInvalidPayload):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	default:
		slog.Error("register failed", "error", err)
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	}

	token, err := h.sessions.SetCookie(w, user.ID)
	if err != nil {
		slog.Error("issue session failed", "user_id", user.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	}
	slog.Info("user registered", "user_id", user.ID)
	writeJSON(w, http.StatusCreated, sessionResponse{Status: "success", UserID: user.ID, Token: token})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	user, err := h.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if !errors.Is(err, services.ErrInvalidCredentials) {
			slog.Error("login lookup failed", "error", err)
		}
		writeError(w, http.StatusUnauthorized, "Invalid email or password.")
		return
	}

	token, err := h.sessions.SetCookie(w, user.ID)
	if err != nil {
		slog.Error("issue session failed", "user_id", user.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Status: "success", UserID: user.ID, Token: token})
}

type meResponse struct {
	ID       int64   `json:"id"`
	Email    string  `json:"email"`
	ClientID *string `json:"client_id"`
}

// Me returns the signed-in account and the client ID of its latest chatbot.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	user, err := h.users.Get(r.Context(), userID)
	if errors.Is(err, services.ErrUserGone) {
		h.sessions.ClearCookie(w)
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err != nil {
		slog.Error("load session user failed", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "could not load account")
		return
	}
	writeJSON(w, http.StatusOK, meResponse{ID: user.ID, Email: user.Email, ClientID: user.ClientID})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, _ *http.Request) {
	h.sessions.ClearCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"status": "success", "message": "You have been logged out."})
}
