package vision

import (
	"context"

	"github.com/UnendingLoop/percepto/internal/model"
)

// MOCK CLIENT

type mockClient struct {
	generateFn func(ctx context.Context, modelID string, img model.ProcessedImage, prompt string) (string, error)
	calls      []string
}

func (m *mockClient) Generate(ctx context.Context, modelID string, img model.ProcessedImage, prompt string) (string, error) {
	m.calls = append(m.calls, modelID)
	return m.generateFn(ctx, modelID, img, prompt)
}
