package transport

import (
	"errors"
	"io"
	"log"

	"github.com/UnendingLoop/percepto/internal/model"
)

type successResponse struct {
	RequestID   string               `json:"request_id"`
	Description string               `json:"description"`
	Model       model.ModelCandidate `json:"model"`
	Audio       *model.AudioArtifact `json:"audio"`
	AudioError  string               `json:"audio_error,omitempty"`
}

type failureResponse struct {
	RequestID string      `json:"request_id"`
	Stage     model.Stage `json:"stage"`
	Kind      model.Kind  `json:"kind"`
	Error     string      `json:"error"`
}

func newSuccessResponse(out model.Outcome) successResponse {
	res := successResponse{
		RequestID:   out.RequestID,
		Description: out.Description.Text,
		Model:       out.Description.ModelID,
		Audio:       out.Audio,
	}
	if out.AudioErr != nil {
		res.AudioError = out.AudioErr.Error()
	}
	return res
}

func errorCodeDefiner(err error) int {
	switch {
	// формат проверяем первым: при двух нарушениях сразу ответ 415
	case errors.Is(err, model.ErrUnsupportedFormat):
		return 415
	case errors.Is(err, model.ErrOversize):
		return 413
	case errors.Is(err, model.ErrCompressionExhausted),
		errors.Is(err, model.ErrCorruptImage):
		return 422
	case errors.Is(err, model.ErrUnauthorized):
		return 500
	case errors.Is(err, model.ErrAllModelsExhausted):
		return 502
	case errors.Is(err, model.ErrNetwork):
		return 503
	default:
		return 500
	}
}

func closeFileFlow(res io.ReadCloser) {
	if res == nil {
		return
	}
	if err := res.Close(); err != nil {
		log.Println("Handler failed to close fileflow:", err)
	}
}
