package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	middleware "github.com/markdave123-py/mindwise/internal/api/middlewares"
	"github.com/markdave123-py/mindwise/internal/core/ingestion_engine"
)

const (
	buildingMessage   = "Your chatbot is now being built. Please check back in a few minutes."
	defaultJobTimeout = 5 * time.Minute
)

type DocumentHandler struct {
	ingestor   ingestion_engine.Ingestor
	jobTimeout time.Duration
}

// NewDocumentHandler runs each job for at most jobTimeout (five minutes when zero).
func NewDocumentHandler(ing ingestion_engine.Ingestor, jobTimeout time.Duration) *DocumentHandler {
	if jobTimeout <= 0 {
		jobTimeout = defaultJobTimeout
	}
	return &DocumentHandler{ingestor: ing, jobTimeout: jobTimeout}
}

type createScriptRequest struct {
	WebsiteURL string `json:"website_url"`
	SalesEmail string `json:"sales_email"`
}

type createScriptResponse struct {
	Status   string `json:"status"`
	ClientID string `json:"client_id,omitempty"`
	Message  string `json:"message"`
}

type jobErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// CreateScript runs one ingestion job for the caller's website and returns the
// client ID the chat widget should use.
func (h *DocumentHandler) CreateScript(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req createScriptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	// A sales handoff email is acknowledged only; it is not stored and starts no job.
	if email := strings.TrimSpace(req.SalesEmail); email != "" {
		slog.Info("sales handoff email updated", "user_id", userID, "sales_email", email)
		writeJSON(w, http.StatusOK, createScriptResponse{Status: "success", Message: "Sales email updated."})
		return
	}

	// A started job finishes even if the caller hangs up.
	jobCtx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), h.jobTimeout)
	defer cancel()

	res, err := h.ingestor.Ingest(jobCtx, userID, req.WebsiteURL)
	if err != nil {
		if errors.Is(err, ingestion_engine.ErrInvalidInput) {
			writeJSON(w, http.StatusBadRequest, jobErrorResponse{Error: "Website URL is required.", Message: err.Error()})
			return
		}
		slog.Error("create script failed", "user_id", userID, "error", err)
		writeJSON(w, http.StatusInternalServerError, jobErrorResponse{
			Error:   err.Error(),
			Message: "An error occurred while building your chatbot.",
		})
		return
	}

	writeJSON(w, http.StatusOK, createScriptResponse{Status: "success", ClientID: res.ClientID, Message: buildingMessage})
}
