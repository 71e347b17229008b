package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"

	"github.com/markdave123-py/mindwise/internal/core"
	"github.com/markdave123-py/mindwise/internal/models"
	"github.com/markdave123-py/mindwise/internal/ratelimit"
)

const maxQuestionLen = 4000

type TicketHandler struct {
	dbclient core.DbClient
	limiter  ratelimit.Limiter
}

// NewTicketHandler builds the public /create_ticket handler. limiter may be nil.
func NewTicketHandler(db core.DbClient, limiter ratelimit.Limiter) *TicketHandler {
	return &TicketHandler{dbclient: db, limiter: limiter}
}

type ticketRequest struct {
	Question string `json:"question"`
	Email    string `json:"email"`
	ClientID string `json:"clientId"`
}

type ticketResponse struct {
	Status   string `json:"status"`
	TicketID int64  `json:"ticket_id"`
}

// CreateTicket records a visitor's unanswered question and contact email.
func (h *TicketHandler) CreateTicket(w http.ResponseWriter, r *http.Request) {
	var req ticketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Missing data")
		return
	}
	t := models.Ticket{
		ClientID: strings.TrimSpace(req.ClientID),
		Email:    strings.TrimSpace(req.Email),
		Question: strings.TrimSpace(req.Question),
	}
	if t.ClientID == "" || t.Email == "" || t.Question == "" {
		writeError(w, http.StatusBadRequest, "Missing data")
		return
	}
	if addr, err := mail.ParseAddress(t.Email); err != nil || addr.Address != t.Email {
		writeError(w, http.StatusBadRequest, "Invalid email")
		return
	}
	if len(t.Question) > maxQuestionLen {
		writeError(w, http.StatusBadRequest, "Question too long")
		return
	}

	if h.limiter != nil && !h.limiter.Allow(r.Context(), "ticket:"+t.ClientID+":"+remoteHost(r)) {
		writeError(w, http.StatusTooManyRequests, "Too many requests")
		return
	}

	if err := h.dbclient.CreateTicket(r.Context(), &t); err != nil {
		slog.Error("create ticket failed", "client_id", t.ClientID, "error", err)
		writeError(w, http.StatusInternalServerError, "Could not create ticket")
		return
	}
	slog.Info("support ticket created", "client_id", t.ClientID, "ticket_id", t.ID)
	writeJSON(w, http.StatusCreated, ticketResponse{Status: "success", TicketID: t.ID})
}
