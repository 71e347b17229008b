package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTicket(h *TicketHandler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/create_ticket", strings.NewReader(body))
	req.RemoteAddr = "198.51.100.4:1234"
	rec := httptest.NewRecorder()
	h.CreateTicket(rec, req)
	return rec
}

func TestCreateTicketStores(t *testing.T) {
	store := newFakeStore()
	rec := createTicket(NewTicketHandler(store, nil),
		`{"question":" Do you ship to Norway? ","email":"visitor@example.com","clientId":"acme.com_docs"}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp ticketResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, ticketResponse{Status: "success", TicketID: 1}, resp)

	require.Len(t, store.tickets, 1)
	got := store.tickets[0]
	assert.Equal(t, "acme.com_docs", got.ClientID)
	assert.Equal(t, "visitor@example.com", got.Email)
	assert.Equal(t, "Do you ship to Norway?", got.Question)
}

func TestCreateTicketRejectsBadInput(t *testing.T) {
	cases := map[string]string{
		"malformed":     `{"question":`,
		"no email":      `{"question":"q","clientId":"acme.com_docs"}`,
		"no question":   `{"email":"v@example.com","clientId":"acme.com_docs"}`,
		"no client":     `{"question":"q","email":"v@example.com"}`,
		"invalid email": `{"question":"q","email":"not an email","clientId":"acme.com_docs"}`,
		"display name":  `{"question":"q","email":"Visitor <v@example.com>","clientId":"acme.com_docs"}`,
		"too long":      `{"question":"` + strings.Repeat("x", maxQuestionLen+1) + `","email":"v@example.com","clientId":"acme.com_docs"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			store := newFakeStore()
			rec := createTicket(NewTicketHandler(store, nil), body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Empty(t, store.tickets)
		})
	}
}

func TestCreateTicketRateLimited(t *testing.T) {
	store := newFakeStore()
	limiter := &fakeLimiter{}
	rec := createTicket(NewTicketHandler(store, limiter),
		`{"question":"q","email":"v@example.com","clientId":"acme.com_docs"}`)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, []string{"ticket:acme.com_docs:198.51.100.4"}, limiter.keys)
	assert.Empty(t, store.tickets)
}

func TestCreateTicketStoreFailure(t *testing.T) {
	store := newFakeStore()
	store.ticketErr = errors.New("connection refused")
	rec := createTicket(NewTicketHandler(store, nil),
		`{"question":"q","email":"v@example.com","clientId":"acme.com_docs"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}
