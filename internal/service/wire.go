package service

import (
	"context"
	"fmt"

	"github.com/UnendingLoop/percepto/internal/config"
	"github.com/UnendingLoop/percepto/internal/imageproc"
	"github.com/UnendingLoop/percepto/internal/speech"
	"github.com/UnendingLoop/percepto/internal/vision"
)

// Build assembles the production pipeline: Gemini for descriptions,
// translate TTS with espeak-ng as the offline fallback. obs may be nil.
func Build(ctx context.Context, cfg config.Config, obs OutcomeObserver) (*DescribeService, error) {
	client, err := vision.NewGeminiClient(ctx, vision.GeminiConfig{
		APIKey:    cfg.APIKey,
		BaseURL:   cfg.VisionBaseURL,
		MaxTokens: cfg.MaxTokens,
		Timeout:   cfg.VisionTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("vision client: %w", err)
	}

	synth := speech.NewSynthesizer(
		speech.NewGoogleTTS(speech.GoogleTTSConfig{
			Endpoint: cfg.TTSEndpoint,
			Language: cfg.TTSLanguage,
			Slow:     cfg.TTSSlow,
			Timeout:  cfg.TTSTimeout,
		}),
		speech.NewEspeak(speech.EspeakConfig{
			Binary: cfg.EspeakBinary,
			Rate:   cfg.EspeakRate,
			Voice:  cfg.EspeakVoice,
		}),
	)

	return NewDescribeService(
		imageproc.NewGuard(cfg.MaxUploadBytes),
		imageproc.NewCompressor(cfg.MaxDimension),
		vision.NewGenerator(client, cfg.Prompt),
		synth,
		Options{Models: cfg.Models, TargetBytes: cfg.MaxPayloadBytes, Observer: obs},
	), nil
}
