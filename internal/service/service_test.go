package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/color"
	"testing"

	"github.com/UnendingLoop/percepto/internal/imageproc"
	"github.com/UnendingLoop/percepto/internal/model"
	"github.com/UnendingLoop/percepto/internal/mwlogger"
	"github.com/UnendingLoop/percepto/internal/speech"
	"github.com/UnendingLoop/percepto/internal/vision"
	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/zlog"
	"go.uber.org/goleak"
)

const (
	maxUpload = 10_000_000
	target    = 5_000_000
)

var testModels = []model.ModelCandidate{"A", "B", "C"}

// jpegOfSize returns a decodable JPEG padded with trailing bytes up to size.
func jpegOfSize(t *testing.T, size int) []byte {
	t.Helper()
	img := imaging.New(64, 48, color.NRGBA{R: 30, G: 120, B: 200, A: 255})
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, imaging.JPEG))
	require.Less(t, buf.Len(), size)
	return append(buf.Bytes(), make([]byte, size-buf.Len())...)
}

func newPipeline(client vision.Client, engines []speech.Engine) *DescribeService {
	return NewDescribeService(
		imageproc.NewGuard(maxUpload),
		imageproc.NewCompressor(imageproc.DefaultMaxDimension),
		vision.NewGenerator(client, ""),
		speech.NewSynthesizer(engines...),
		Options{Models: testModels, TargetBytes: target},
	)
}

func TestRun_OversizePNG(t *testing.T) {
	data := make([]byte, 12_000_000)
	copy(data, "\x89PNG\r\n\x1a\n")

	client := &mockVisionClient{generateFn: func(ctx context.Context, modelID string, img model.ProcessedImage, prompt string) (string, error) {
		return "unused", nil
	}}

	out := newPipeline(client, nil).Run(context.Background(), data, "png")
	require.False(t, out.OK())
	require.NotNil(t, out.Failure)
	require.Equal(t, model.StageGuard, out.Failure.Stage)
	require.Equal(t, model.KindOversize, out.Failure.Kind)
	require.Contains(t, out.Failure.Reason, "12.0 MB")
	require.Contains(t, out.Failure.Reason, "10.0 MB")

	var me *model.Error
	require.True(t, errors.As(out.Failure.Err, &me))
	require.EqualValues(t, 12_000_000, me.Size)
	require.EqualValues(t, 10_000_000, me.Limit)
	require.Empty(t, client.calls)
}

func TestRun_AllModelsFail(t *testing.T) {
	data := jpegOfSize(t, 2_000_000)

	client := &mockVisionClient{generateFn: func(ctx context.Context, modelID string, img model.ProcessedImage, prompt string) (string, error) {
		return "", fmt.Errorf("%w: 503", vision.ErrUnavailable)
	}}

	out := newPipeline(client, nil).Run(context.Background(), data, "jpg")
	require.False(t, out.OK())
	require.Equal(t, model.StageDescribe, out.Failure.Stage)
	require.Equal(t, model.KindAllModelsExhausted, out.Failure.Kind)
	require.Equal(t, []string{"A", "B", "C"}, client.calls)
	require.Contains(t, out.Failure.Reason, "3 vision models")

	var me *model.Error
	require.True(t, errors.As(out.Failure.Err, &me))
	require.Len(t, me.Attempts, 3)
}

func TestRun_DescriptionWithoutAudio(t *testing.T) {
	data := jpegOfSize(t, 200_000)

	client := &mockVisionClient{generateFn: func(ctx context.Context, modelID string, img model.ProcessedImage, prompt string) (string, error) {
		if modelID == "A" {
			return "", fmt.Errorf("%w: 429", vision.ErrRateLimited)
		}
		return "A blue rectangle.", nil
	}}
	engines := []speech.Engine{
		&mockEngine{name: "google-tts", err: errors.New("offline")},
		&mockEngine{name: "espeak", err: errors.New("not installed")},
	}

	out := newPipeline(client, engines).Run(context.Background(), data, "jpeg")
	require.True(t, out.OK())
	require.Nil(t, out.Failure)
	require.Equal(t, "A blue rectangle.", out.Description.Text)
	require.Equal(t, model.ModelCandidate("B"), out.Description.ModelID)
	require.Nil(t, out.Audio)
	require.ErrorIs(t, out.AudioErr, model.ErrSynthesisExhausted)
	require.Equal(t, []string{"A", "B"}, client.calls)
}

func TestRun_Stages(t *testing.T) {
	okImage := model.ProcessedImage{Data: []byte("jpeg"), MIMEType: model.JPEG}
	okDesc := model.DescriptionResult{Text: "A lighthouse.", ModelID: "A"}
	okAudio := model.AudioArtifact{Data: []byte("RIFF"), MIMEType: model.WAV, Engine: "espeak"}

	tests := []struct {
		name          string
		format        string
		compressErr   error
		describeErr   error
		speechErr     error
		noSpeech      bool
		wantStage     model.Stage
		wantKind      model.Kind
		wantDescribes int
		wantSpeech    int
		wantAudio     bool
	}{
		{name: "success with audio", format: "png", wantDescribes: 1, wantSpeech: 1, wantAudio: true},
		{name: "speech disabled", format: "png", noSpeech: true, wantDescribes: 1},
		{
			name: "unsupported format", format: "gif",
			wantStage: model.StageGuard, wantKind: model.KindUnsupportedFormat,
		},
		{
			name: "compression exhausted", format: "png",
			compressErr: &model.Error{Kind: model.KindCompressionExhausted, Msg: "image is still 6 MB after compression, the limit is 5 MB"},
			wantStage:   model.StagePreprocess, wantKind: model.KindCompressionExhausted,
		},
		{
			name: "unauthorized", format: "png",
			describeErr: &model.Error{Kind: model.KindUnauthorized, Msg: "bad key"},
			wantStage:   model.StageDescribe, wantKind: model.KindUnauthorized, wantDescribes: 1,
		},
		{
			name: "speech failure keeps success", format: "webp",
			speechErr:     &model.Error{Kind: model.KindSynthesisExhausted, Msg: "no audio"},
			wantDescribes: 1, wantSpeech: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pre := &mockPreprocessor{compressFn: func(img model.UploadedImage, tgt int64) (model.ProcessedImage, error) {
				require.EqualValues(t, target, tgt)
				return okImage, tt.compressErr
			}}
			desc := &mockDescriber{describeFn: func(ctx context.Context, img model.ProcessedImage, models []model.ModelCandidate) (model.DescriptionResult, error) {
				require.Equal(t, testModels, models)
				if tt.describeErr != nil {
					return model.DescriptionResult{}, tt.describeErr
				}
				return okDesc, nil
			}}
			sp := &mockSpeech{synthesizeFn: func(ctx context.Context, text string) (model.AudioArtifact, error) {
				require.Equal(t, okDesc.Text, text)
				if tt.speechErr != nil {
					return model.AudioArtifact{}, tt.speechErr
				}
				return okAudio, nil
			}}

			var speechStage SpeechSynthesizer = sp
			if tt.noSpeech {
				speechStage = nil
			}
			svc := NewDescribeService(imageproc.NewGuard(maxUpload), pre, desc, speechStage, Options{Models: testModels, TargetBytes: target})

			out := svc.Run(context.Background(), []byte("not inspected by mocks"), tt.format)
			require.NotEmpty(t, out.RequestID)
			require.Equal(t, tt.wantDescribes, desc.calls)
			require.Equal(t, tt.wantSpeech, sp.calls)

			if tt.wantStage != "" {
				require.False(t, out.OK())
				require.Equal(t, tt.wantStage, out.Failure.Stage)
				require.Equal(t, tt.wantKind, out.Failure.Kind)
				require.NotEmpty(t, out.Failure.Reason)
				require.Nil(t, out.Description)
				return
			}

			require.True(t, out.OK())
			require.Equal(t, okDesc, *out.Description)
			if tt.wantAudio {
				require.Equal(t, okAudio, *out.Audio)
			} else {
				require.Nil(t, out.Audio)
			}
		})
	}
}

func TestRun_UsesRequestIDFromContext(t *testing.T) {
	ctx := mwlogger.WithLogger(context.Background(), "req-42", zlog.Logger)
	out := newPipeline(nil, nil).Run(ctx, nil, "bmp")
	require.Equal(t, "req-42", out.RequestID)
	require.Equal(t, model.StageGuard, out.Failure.Stage)
}

func TestReasonOf_Joined(t *testing.T) {
	err := errors.Join(
		&model.Error{Kind: model.KindUnsupportedFormat, Msg: "format \"gif\" is not supported"},
		&model.Error{Kind: model.KindOversize, Msg: "file too large"},
	)
	require.Equal(t, "format \"gif\" is not supported; file too large", reasonOf(err))

	f := failure(model.StageGuard, err)
	require.Equal(t, model.KindUnsupportedFormat, f.Kind)
}

func TestRun_ObserverSeesEveryOutcome(t *testing.T) {
	obs := &mockObserver{}
	svc := NewDescribeService(imageproc.NewGuard(maxUpload), nil, nil, nil, Options{Observer: obs})

	out := svc.Run(context.Background(), []byte("x"), "tiff")
	require.Len(t, obs.outcomes, 1)
	require.Equal(t, out, obs.outcomes[0])
}

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
