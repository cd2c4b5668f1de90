// Package service provides business-logic for the app
package service

import (
	"context"
	"time"

	"github.com/UnendingLoop/percepto/internal/model"
	"github.com/UnendingLoop/percepto/internal/mwlogger"
	"github.com/google/uuid"
	"github.com/wb-go/wbf/zlog"
)

// Validator - контракт входной проверки загрузки
type Validator interface {
	Validate(data []byte, declaredFormat string) (model.UploadedImage, error)
}

// Preprocessor - контракт подготовки изображения под лимит vision-API
type Preprocessor interface {
	Compress(img model.UploadedImage, target int64) (model.ProcessedImage, error)
}

// Describer - контракт генерации описания
type Describer interface {
	Describe(ctx context.Context, img model.ProcessedImage, models []model.ModelCandidate) (model.DescriptionResult, error)
}

// SpeechSynthesizer - контракт озвучки описания
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text string) (model.AudioArtifact, error)
}

// OutcomeObserver - контракт для метрик, вызывается после каждого прогона
type OutcomeObserver interface {
	ObserveOutcome(out model.Outcome, took time.Duration)
}

type Options struct {
	Models      []model.ModelCandidate
	TargetBytes int64
	Observer    OutcomeObserver // optional
}

type DescribeService struct {
	guard      Validator
	preprocess Preprocessor
	describer  Describer
	speech     SpeechSynthesizer
	opts       Options
}

// NewDescribeService wires the stages; speech may be nil to skip audio.
func NewDescribeService(guard Validator, pre Preprocessor, desc Describer, speech SpeechSynthesizer, opts Options) *DescribeService {
	return &DescribeService{
		guard:      guard,
		preprocess: pre,
		describer:  desc,
		speech:     speech,
		opts:       opts,
	}
}

// Run executes Guard -> Preprocess -> Describe -> Synthesize for one upload.
// Only the first three stages can fail the request.
func (s *DescribeService) Run(ctx context.Context, data []byte, declaredFormat string) model.Outcome {
	started := time.Now()
	out := s.run(ctx, data, declaredFormat)
	if s.opts.Observer != nil {
		s.opts.Observer.ObserveOutcome(out, time.Since(started))
	}
	return out
}

func (s *DescribeService) run(ctx context.Context, data []byte, declaredFormat string) model.Outcome {
	ctx, reqID := ensureRequestID(ctx)
	logger := mwlogger.LoggerFromContext(ctx)
	started := time.Now()
	out := model.Outcome{RequestID: reqID}

	// Guard
	uploaded, err := s.guard.Validate(data, declaredFormat)
	if err != nil {
		out.Failure = failure(model.StageGuard, err)
		logFailure(logger, out.Failure)
		return out
	}
	logger.Info().Str("stage", string(model.StageGuard)).
		Str("format", string(uploaded.Format)).
		Int64("size", uploaded.Size).
		Msg("upload accepted")

	// Preprocess
	processed, err := s.preprocess.Compress(uploaded, s.opts.TargetBytes)
	if err != nil {
		out.Failure = failure(model.StagePreprocess, err)
		logFailure(logger, out.Failure)
		return out
	}
	logger.Info().Str("stage", string(model.StagePreprocess)).
		Int("bytes", len(processed.Data)).
		Bool("reencoded", processed.Reencoded).
		Int("width", processed.Width).
		Int("height", processed.Height).
		Msg("image prepared")

	// Describe
	desc, err := s.describer.Describe(ctx, processed, s.opts.Models)
	if err != nil {
		out.Failure = failure(model.StageDescribe, err)
		logFailure(logger, out.Failure)
		return out
	}
	out.Description = &desc

	// Synthesize - best effort, описание уже есть
	if s.speech != nil {
		audio, err := s.speech.Synthesize(ctx, desc.Text)
		if err != nil {
			out.AudioErr = err
			logger.Warn().Str("stage", string(model.StageSynthesize)).Err(err).Msg("continuing without audio")
		} else {
			out.Audio = &audio
		}
	}

	logger.Info().Str("model", string(desc.ModelID)).
		Bool("audio", out.Audio != nil).
		Dur("took", time.Since(started)).
		Msg("request completed")
	return out
}

func ensureRequestID(ctx context.Context) (context.Context, string) {
	if id := mwlogger.RequestIDFromContext(ctx); id != "" {
		return ctx, id
	}
	id := uuid.NewString()
	logger := zlog.Logger.With().Str("request_id", id).Logger()
	return mwlogger.WithLogger(ctx, id, logger), id
}
