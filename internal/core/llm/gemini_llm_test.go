package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/mindwise/internal/core"
)

func stubLLM(resp *genai.GenerateContentResponse, err error) *GeminiLLM {
	return &GeminiLLM{generate: func(context.Context, string, string) (*genai.GenerateContentResponse, error) {
		return resp, err
	}}
}

func candidate(reason genai.FinishReason, parts ...genai.Part) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		FinishReason: reason,
		Content:      &genai.Content{Role: "model", Parts: parts},
	}}}
}

func TestGenerateJoinsTextParts(t *testing.T) {
	resp := candidate(genai.FinishReasonStop,
		genai.Text("We ship "),
		genai.Blob{MIMEType: "image/png", Data: []byte{1}},
		genai.Text("within 5 days.\n"),
	)
	answer, err := stubLLM(resp, nil).Generate(context.Background(), "sys", "q")
	require.NoError(t, err)
	assert.Equal(t, "We ship within 5 days.", answer)
}

func TestGenerateNoAnswer(t *testing.T) {
	cases := map[string]*genai.GenerateContentResponse{
		"nil response":  nil,
		"no candidates": {},
		"nil content":   {Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonStop}}},
		"no text parts": candidate(genai.FinishReasonStop, genai.Blob{MIMEType: "image/png"}),
		"blank text":    candidate(genai.FinishReasonMaxTokens, genai.Text("  \n")),
	}
	for name, resp := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := stubLLM(resp, nil).Generate(context.Background(), "sys", "q")
			require.ErrorIs(t, err, core.ErrNoAnswer)
			assert.NotErrorIs(t, err, ErrBlocked)
		})
	}
}

func TestGenerateBlocked(t *testing.T) {
	cases := map[string]struct {
		resp *genai.GenerateContentResponse
		err  error
	}{
		"safety finish":     {resp: candidate(genai.FinishReasonSafety, genai.Text("partial"))},
		"recitation":        {resp: candidate(genai.FinishReasonRecitation)},
		"prompt feedback":   {resp: &genai.GenerateContentResponse{PromptFeedback: &genai.PromptFeedback{BlockReason: genai.BlockReasonSafety}}},
		"sdk blocked error": {err: &genai.BlockedError{PromptFeedback: &genai.PromptFeedback{BlockReason: genai.BlockReasonOther}}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := stubLLM(tc.resp, tc.err).Generate(context.Background(), "sys", "q")
			require.ErrorIs(t, err, ErrBlocked)
			assert.ErrorIs(t, err, core.ErrNoAnswer)
		})
	}
}

func TestGenerateServiceError(t *testing.T) {
	_, err := stubLLM(nil, errors.New("503 unavailable")).Generate(context.Background(), "sys", "q")
	require.Error(t, err)
	assert.NotErrorIs(t, err, core.ErrNoAnswer)
}

func TestNewGeminiLLMRequiresKey(t *testing.T) {
	_, err := NewGeminiLLM(context.Background(), "", "")
	require.ErrorIs(t, err, ErrMissingAPIKey)
}
