// Package speech reads description text aloud. Engines are tried in order and
// every engine returns the same canonical encoding: 16-bit mono WAV.
package speech

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/UnendingLoop/percepto/internal/chain"
	"github.com/UnendingLoop/percepto/internal/model"
	"github.com/UnendingLoop/percepto/internal/mwlogger"
)

// Engine converts text to WAV audio.
type Engine interface {
	Name() string
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

type Synthesizer struct {
	engines []Engine
}

func NewSynthesizer(engines ...Engine) *Synthesizer {
	return &Synthesizer{engines: engines}
}

// Synthesize returns the audio of the first engine that succeeds. Text length
// is not checked here; long text is the engines' concern.
func (s *Synthesizer) Synthesize(ctx context.Context, text string) (model.AudioArtifact, error) {
	if strings.TrimSpace(text) == "" {
		return model.AudioArtifact{}, &model.Error{
			Kind: model.KindSynthesisExhausted,
			Msg:  "there is no text to read aloud",
			Err:  errBlankText,
		}
	}

	logger := mwlogger.LoggerFromContext(ctx)

	strategies := make([]chain.Strategy[string, []byte], 0, len(s.engines))
	for _, e := range s.engines {
		strategies = append(strategies, engineStrategy{e})
	}

	audio, engine, err := chain.Run(ctx, strategies, text, chain.Policy{
		OnFailure: func(name string, err error) {
			logger.Warn().Str("engine", name).Err(err).Msg("speech engine failed")
		},
	})
	if err != nil {
		return model.AudioArtifact{}, synthesisError(err)
	}

	logger.Info().Str("engine", engine).Int("bytes", len(audio)).Msg("speech synthesized")
	return model.AudioArtifact{Data: audio, MIMEType: model.WAV, Engine: engine}, nil
}

func synthesisError(err error) error {
	var exhausted *chain.ExhaustedError
	switch {
	case errors.As(err, &exhausted):
		return &model.Error{
			Kind:     model.KindSynthesisExhausted,
			Msg:      fmt.Sprintf("audio is unavailable: all %d speech engines failed", len(exhausted.Attempts)),
			Attempts: exhausted.Attempts,
			Err:      err,
		}
	case errors.Is(err, chain.ErrNoStrategies):
		return &model.Error{Kind: model.KindSynthesisExhausted, Msg: "audio is unavailable: no speech engines are configured", Err: err}
	default:
		return &model.Error{Kind: model.KindSynthesisExhausted, Msg: "audio is unavailable: the request ended during synthesis", Err: err}
	}
}

type engineStrategy struct {
	Engine
}

func (e engineStrategy) Attempt(ctx context.Context, text string) ([]byte, error) {
	return e.Synthesize(ctx, text)
}
