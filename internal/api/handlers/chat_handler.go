package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/markdave123-py/mindwise/internal/core"
	"github.com/markdave123-py/mindwise/internal/ratelimit"
)

const (
	retrievalLimit = 5
	knowledgeGap   = "knowledge_gap"

	gapAnswer     = "I couldn't find an answer. Would you like to create a support ticket?"
	troubleAnswer = "I'm having trouble accessing my knowledge. I can create a support ticket."

	systemPrompt = "You are a helpful support assistant for a business website. Answer the visitor's " +
		"question using only the provided context. If the context does not contain the answer, " +
		"reply with exactly the word knowledge_gap and nothing else."
)

type ChatHandler struct {
	dbclient core.DbClient
	embedder core.EmbeddingProvider
	llm      core.LLMProvider
	limiter  ratelimit.Limiter
}

// NewChatHandler builds the public /ask handler. limiter may be nil.
func NewChatHandler(db core.DbClient, emb core.EmbeddingProvider, llm core.LLMProvider, limiter ratelimit.Limiter) *ChatHandler {
	return &ChatHandler{dbclient: db, embedder: emb, llm: llm, limiter: limiter}
}

type askRequest struct {
	Question string `json:"question"`
	ClientID string `json:"clientId"`
}

type askResponse struct {
	Status string `json:"status"`
	Answer string `json:"answer"`
}

// Ask answers a widget visitor's question from the client's indexed pages. Apart
// from a malformed request, every outcome is a 200; failures become a handoff.
func (h *ChatHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Missing data")
		return
	}
	question := strings.TrimSpace(req.Question)
	clientID := strings.TrimSpace(req.ClientID)
	if question == "" || clientID == "" {
		writeError(w, http.StatusBadRequest, "Missing data")
		return
	}

	ctx := r.Context()
	log := slog.With("client_id", clientID)

	if h.limiter != nil && !h.limiter.Allow(ctx, clientID+":"+remoteHost(r)) {
		log.Warn("ask rate limited")
		handoff(w, troubleAnswer)
		return
	}
	if h.embedder == nil || h.llm == nil {
		log.Error("ask called without embedding or generation provider")
		handoff(w, troubleAnswer)
		return
	}

	queryVec, err := h.embedder.EmbedQuery(ctx, question)
	if err != nil {
		log.Error("embed question failed", "error", err)
		handoff(w, troubleAnswer)
		return
	}

	docs, err := h.dbclient.SearchDocuments(ctx, clientID, queryVec, retrievalLimit)
	if err != nil {
		log.Error("retrieval failed", "error", err)
		handoff(w, troubleAnswer)
		return
	}
	if len(docs) == 0 {
		log.Info("no documents for client")
		handoff(w, gapAnswer)
		return
	}

	var sb strings.Builder
	for _, d := range docs {
		sb.WriteString(d.Content)
		sb.WriteString("\n---\n")
	}
	userPrompt := fmt.Sprintf("Context:\n%s\nQuestion: %s", sb.String(), question)

	answer, err := h.llm.Generate(ctx, systemPrompt, userPrompt)
	if errors.Is(err, core.ErrNoAnswer) {
		log.Info("generator gave no answer", "reason", err)
		handoff(w, gapAnswer)
		return
	}
	if err != nil {
		log.Error("answer generation failed", "error", err)
		handoff(w, troubleAnswer)
		return
	}
	answer = strings.TrimSpace(answer)
	if answer == "" || strings.Contains(answer, knowledgeGap) {
		handoff(w, gapAnswer)
		return
	}

	writeJSON(w, http.StatusOK, askResponse{Status: "success", Answer: answer})
}

func handoff(w http.ResponseWriter, answer string) {
	writeJSON(w, http.StatusOK, askResponse{Status: "human_handoff", Answer: answer})
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
