package service

import (
	"context"
	"time"

	"github.com/UnendingLoop/percepto/internal/model"
)

// MOCK PREPROCESSOR

type mockPreprocessor struct {
	compressFn func(img model.UploadedImage, target int64) (model.ProcessedImage, error)
}

func (m *mockPreprocessor) Compress(img model.UploadedImage, target int64) (model.ProcessedImage, error) {
	return m.compressFn(img, target)
}

// MOCK DESCRIBER

type mockDescriber struct {
	describeFn func(ctx context.Context, img model.ProcessedImage, models []model.ModelCandidate) (model.DescriptionResult, error)
	calls      int
}

func (m *mockDescriber) Describe(ctx context.Context, img model.ProcessedImage, models []model.ModelCandidate) (model.DescriptionResult, error) {
	m.calls++
	return m.describeFn(ctx, img, models)
}

// MOCK SPEECH

type mockSpeech struct {
	synthesizeFn func(ctx context.Context, text string) (model.AudioArtifact, error)
	calls        int
}

func (m *mockSpeech) Synthesize(ctx context.Context, text string) (model.AudioArtifact, error) {
	m.calls++
	return m.synthesizeFn(ctx, text)
}

// MOCK VISION CLIENT - для сквозных тестов с настоящим vision.Generator

type mockVisionClient struct {
	generateFn func(ctx context.Context, modelID string, img model.ProcessedImage, prompt string) (string, error)
	calls      []string
}

func (m *mockVisionClient) Generate(ctx context.Context, modelID string, img model.ProcessedImage, prompt string) (string, error) {
	m.calls = append(m.calls, modelID)
	return m.generateFn(ctx, modelID, img, prompt)
}

// MOCK SPEECH ENGINE - для сквозных тестов с настоящим speech.Synthesizer

type mockEngine struct {
	name string
	err  error
}

func (m *mockEngine) Name() string { return m.name }

func (m *mockEngine) Synthesize(ctx context.Context, text string) ([]byte, error) {
	return nil, m.err
}

// MOCK OBSERVER

type mockObserver struct {
	outcomes []model.Outcome
}

func (m *mockObserver) ObserveOutcome(out model.Outcome, took time.Duration) {
	m.outcomes = append(m.outcomes, out)
}
