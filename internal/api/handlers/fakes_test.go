package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/markdave123-py/mindwise/internal/core"
	db "github.com/markdave123-py/mindwise/internal/core/database"
	"github.com/markdave123-py/mindwise/internal/models"
)

type fakeStore struct {
	core.DbClient

	mu        sync.Mutex
	users     map[string]*models.User
	nextID    int64
	docs      []models.Document
	searchErr error
	searched  []string
	tickets   []models.Ticket
	ticketErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: map[string]*models.User{}}
}

func (f *fakeStore) CreateUser(_ context.Context, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[u.Email]; ok {
		return db.ErrEmailTaken
	}
	f.nextID++
	u.ID = f.nextID
	f.users[u.Email] = u
	return nil
}

func (f *fakeStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.users[email], nil
}

func (f *fakeStore) GetUserByID(_ context.Context, id int64) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) SearchDocuments(_ context.Context, clientID string, _ []float32, limit int) ([]models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searched = append(f.searched, clientID)
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	var out []models.Document
	for _, d := range f.docs {
		if d.ClientID == clientID && len(out) < limit {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateTicket(_ context.Context, t *models.Ticket) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ticketErr != nil {
		return f.ticketErr
	}
	t.ID = int64(len(f.tickets) + 1)
	t.CreatedAt = time.Now()
	f.tickets = append(f.tickets, *t)
	return nil
}

type fakeEmbedder struct {
	err error
}

func (e *fakeEmbedder) EmbedDocuments(context.Context, []string) ([][]float32, error) {
	return nil, e.err
}

func (e *fakeEmbedder) EmbedQuery(context.Context, string) ([]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	return []float32{0.1, 0.2}, nil
}

type fakeLLM struct {
	answer     string
	err        error
	userPrompt string
}

func (l *fakeLLM) Generate(_ context.Context, _, userPrompt string) (string, error) {
	l.userPrompt = userPrompt
	return l.answer, l.err
}

type fakeLimiter struct {
	allow bool
	keys  []string
}

func (l *fakeLimiter) Allow(_ context.Context, key string) bool {
	l.keys = append(l.keys, key)
	return l.allow
}
