package models

import "time"

// User represents an account that owns chatbots.
type User struct {
	ID           int64   `db:"id" json:"id"`
	Email        string  `db:"email" json:"email"`
	PasswordHash string  `db:"password_hash" json:"-"`
	ClientID     *string `db:"client_id" json:"client_id,omitempty"` // most recent ingestion job
}

// Document is one embedded chunk of a scraped website.
// Many documents share a ClientID; one ingestion job writes them all together.
type Document struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	ClientID  string    `db:"client_id" json:"client_id"`
	Content   string    `db:"content" json:"content"`
	Embedding []float32 `db:"embedding" json:"-"` // pgvector column, vector(768)
}

// Ticket is a support request left by a widget visitor after a human handoff.
type Ticket struct {
	ID        int64     `db:"id" json:"id"`
	ClientID  string    `db:"client_id" json:"client_id"`
	Email     string    `db:"email" json:"email"`
	Question  string    `db:"question" json:"question"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
