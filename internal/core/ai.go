package core

import (
	"context"
	"errors"
)

// ErrNoAnswer means the generator produced nothing usable: the answer was
// blocked or came back without text.
var ErrNoAnswer = errors.New("generator returned no answer")

// EmbeddingProvider turns texts into fixed-width vectors, one per text and in input order.
type EmbeddingProvider interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// LLMProvider answers userPrompt under systemPrompt. It returns an error wrapping
// ErrNoAnswer instead of an empty string.
type LLMProvider interface {
	Generate(ctx context.Context, systemPrompt string, userPrompt string) (string, error)
}
