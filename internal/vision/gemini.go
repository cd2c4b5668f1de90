package vision

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/UnendingLoop/percepto/internal/model"
	"google.golang.org/genai"
)

// Client sends one image plus an instruction to one hosted model.
type Client interface {
	Generate(ctx context.Context, modelID string, img model.ProcessedImage, prompt string) (string, error)
}

type GeminiConfig struct {
	APIKey    string
	BaseURL   string // empty means the public Gemini API endpoint
	MaxTokens int32
	Timeout   time.Duration
}

// GeminiClient talks to the Gemini API through the genai SDK.
type GeminiClient struct {
	client    *genai.Client
	maxTokens int32
}

func NewGeminiClient(ctx context.Context, cfg GeminiConfig) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}

	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &GeminiClient{client: client, maxTokens: cfg.MaxTokens}, nil
}

// Generate returns the text of the first candidate. Errors are tagged with the
// package sentinels so the generator can decide whether to move on.
func (c *GeminiClient) Generate(ctx context.Context, modelID string, img model.ProcessedImage, prompt string) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(img.Data, img.MIMEType),
			genai.NewPartFromText(prompt),
		}, genai.RoleUser),
	}

	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0.2),
	}
	if c.maxTokens > 0 {
		cfg.MaxOutputTokens = c.maxTokens
	}

	resp, err := c.client.Models.GenerateContent(ctx, modelID, contents, cfg)
	if err != nil {
		return "", classify(err)
	}

	return parseText(resp)
}

func parseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", ErrEmptyResponse
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("%w: prompt blocked (%s)", ErrRejected, resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 {
		return "", ErrEmptyResponse
	}

	// Only the first candidate is requested.
	candidate := resp.Candidates[0]

	var sb strings.Builder
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if part == nil || part.Thought {
				continue
			}
			sb.WriteString(part.Text)
		}
	}

	text := strings.TrimSpace(sb.String())
	if text != "" {
		return text, nil
	}

	if candidate.FinishReason != genai.FinishReasonUnspecified && candidate.FinishReason != genai.FinishReasonStop {
		return "", fmt.Errorf("%w: generation stopped (FinishReason: %s)", ErrRejected, candidate.FinishReason)
	}
	return "", ErrEmptyResponse
}
