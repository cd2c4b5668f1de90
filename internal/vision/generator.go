// Package vision turns a prepared image into a screen-reader description by
// asking a ranked list of hosted models until one answers.
package vision

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/UnendingLoop/percepto/internal/chain"
	"github.com/UnendingLoop/percepto/internal/model"
	"github.com/UnendingLoop/percepto/internal/mwlogger"
)

// DefaultPrompt asks for a description suited to blind and low-vision readers.
const DefaultPrompt = `You are describing an image for a person who is blind or has low vision and uses a screen reader.
Describe the image in plain prose, in the same language as any visible text, without markdown, lists or headings.
Start with the scene and setting, then the people and objects that matter and what they are doing.
Mention colours and lighting, and say where things are relative to each other.
Read out any visible text verbatim. Do not speculate about things that cannot be seen.
Keep the description under 150 words.`

// DefaultModels is the preference order, highest capability first.
var DefaultModels = []model.ModelCandidate{
	"gemini-2.5-pro",
	"gemini-2.5-flash",
	"gemini-2.0-flash",
	"gemini-2.0-flash-lite",
}

type Generator struct {
	client Client
	prompt string
}

func NewGenerator(client Client, prompt string) *Generator {
	if strings.TrimSpace(prompt) == "" {
		prompt = DefaultPrompt
	}
	return &Generator{client: client, prompt: prompt}
}

// Describe asks each candidate in order and returns the first non-blank text.
// A credential failure stops the scan since every model shares the same key.
func (g *Generator) Describe(ctx context.Context, img model.ProcessedImage, models []model.ModelCandidate) (model.DescriptionResult, error) {
	logger := mwlogger.LoggerFromContext(ctx)

	strategies := make([]chain.Strategy[model.ProcessedImage, string], 0, len(models))
	for _, m := range models {
		strategies = append(strategies, &modelStrategy{client: g.client, modelID: string(m), prompt: g.prompt})
	}

	text, used, err := chain.Run(ctx, strategies, img, chain.Policy{
		Abort: func(err error) bool { return errors.Is(err, ErrUnauthorized) },
		OnFailure: func(name string, err error) {
			logger.Warn().Str("model", name).Err(err).Msg("vision model failed")
		},
	})
	if err == nil {
		logger.Info().Str("model", used).Int("chars", len(text)).Msg("description generated")
		return model.DescriptionResult{Text: text, ModelID: model.ModelCandidate(used)}, nil
	}

	return model.DescriptionResult{}, describeError(used, err)
}

func describeError(used string, err error) error {
	var exhausted *chain.ExhaustedError

	switch {
	case errors.Is(err, chain.ErrNoStrategies):
		return &model.Error{Kind: model.KindAllModelsExhausted, Msg: "no vision models are configured", Err: err}

	case errors.Is(err, ErrUnauthorized):
		return &model.Error{
			Kind:     model.KindUnauthorized,
			Msg:      "the vision service rejected the configured API key",
			Attempts: []model.Attempt{{Name: used, Err: err}},
			Err:      err,
		}

	case errors.As(err, &exhausted):
		kind := model.KindNetwork
		for _, a := range exhausted.Attempts {
			if !isConnectivity(a.Err) {
				kind = model.KindAllModelsExhausted
				break
			}
		}
		msg := fmt.Sprintf("all %d vision models failed, please try again later", len(exhausted.Attempts))
		if kind == model.KindNetwork {
			msg = "the vision service could not be reached, please check the connection and try again"
		}
		return &model.Error{Kind: kind, Msg: msg, Attempts: exhausted.Attempts, Err: err}

	default:
		// canceled or deadline hit between attempts
		return &model.Error{Kind: model.KindNetwork, Msg: "the request ended before any vision model answered", Err: err}
	}
}

type modelStrategy struct {
	client  Client
	modelID string
	prompt  string
}

func (s *modelStrategy) Name() string { return s.modelID }

func (s *modelStrategy) Attempt(ctx context.Context, img model.ProcessedImage) (string, error) {
	text, err := s.client.Generate(ctx, s.modelID, img, s.prompt)
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
