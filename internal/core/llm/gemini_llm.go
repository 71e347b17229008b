package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/markdave123-py/mindwise/internal/core"
)

// ErrBlocked is returned when safety or recitation filters stop the answer.
var ErrBlocked = fmt.Errorf("%w: blocked by content filters", core.ErrNoAnswer)

// Answers are short widget replies grounded in a few chunks.
const (
	answerTemperature = 0.2
	answerMaxTokens   = 512
)

type generateFunc func(ctx context.Context, systemPrompt, userPrompt string) (*genai.GenerateContentResponse, error)

type GeminiLLM struct {
	client    *genai.Client
	modelName string
	generate  generateFunc
}

var _ core.LLMProvider = (*GeminiLLM)(nil)

func NewGeminiLLM(ctx context.Context, apiKey, modelName string) (*GeminiLLM, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}
	g := &GeminiLLM{client: cl, modelName: modelName}
	g.generate = g.callModel
	return g, nil
}

func (g *GeminiLLM) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

// Generate returns the joined text of the first candidate. Blocked or empty
// answers come back as ErrBlocked or core.ErrNoAnswer.
func (g *GeminiLLM) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	resp, err := g.generate(ctx, systemPrompt, userPrompt)
	if err != nil {
		var blocked *genai.BlockedError
		if errors.As(err, &blocked) {
			return "", fmt.Errorf("%w: %v", ErrBlocked, err)
		}
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	return answerText(resp)
}

func (g *GeminiLLM) callModel(ctx context.Context, systemPrompt, userPrompt string) (*genai.GenerateContentResponse, error) {
	m := g.client.GenerativeModel(g.modelName)
	m.SetTemperature(answerTemperature)
	m.SetMaxOutputTokens(answerMaxTokens)
	m.SetCandidateCount(1)
	if systemPrompt != "" {
		m.SystemInstruction = genai.NewUserContent(genai.Text(systemPrompt))
	}
	return m.GenerateContent(ctx, genai.Text(userPrompt))
}

func answerText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", core.ErrNoAnswer
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockReasonUnspecified {
		return "", fmt.Errorf("%w: prompt %s", ErrBlocked, resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return "", core.ErrNoAnswer
	}

	c := resp.Candidates[0]
	switch c.FinishReason {
	case genai.FinishReasonSafety, genai.FinishReasonRecitation:
		return "", fmt.Errorf("%w: finish reason %s", ErrBlocked, c.FinishReason)
	}
	if c.Content == nil {
		return "", core.ErrNoAnswer
	}

	var b strings.Builder
	for _, p := range c.Content.Parts {
		if t, ok := p.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	answer := strings.TrimSpace(b.String())
	if answer == "" {
		return "", core.ErrNoAnswer
	}
	return answer, nil
}
