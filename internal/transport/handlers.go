// Package transport provides methods for processing requests from endpoints
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/UnendingLoop/percepto/internal/model"
	"github.com/UnendingLoop/percepto/internal/mwlogger"
	"github.com/wb-go/wbf/ginext"
)

// bodySlack covers multipart framing and the optional form fields.
const bodySlack = 1 << 20

type DescribeHandler struct {
	service   DescribeService
	maxUpload int64
}

type DescribeService interface {
	Run(ctx context.Context, data []byte, declaredFormat string) model.Outcome
}

// NewDescribeHandler - maxUpload is the Guard limit; bodies far above it are cut off before reading.
func NewDescribeHandler(svc DescribeService, maxUpload int64) *DescribeHandler {
	return &DescribeHandler{
		service:   svc,
		maxUpload: maxUpload,
	}
}

func (h DescribeHandler) SimplePinger(ctx *ginext.Context) {
	ctx.JSON(200, map[string]string{"message": "pong"})
}

func (h DescribeHandler) Describe(ctx *ginext.Context) {
	reqID := mwlogger.RequestIDFromContext(ctx.Request.Context())

	// до 2x лимита читаем целиком, чтобы Guard мог назвать реальный размер файла
	hardCap := 2*h.maxUpload + bodySlack
	ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, hardCap)

	imageFile, imageHeader, err := ctx.Request.FormFile("image")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			ctx.JSON(413, failureResponse{
				RequestID: reqID,
				Stage:     model.StageGuard,
				Kind:      model.KindOversize,
				Error: fmt.Sprintf("file too large: maximum size allowed is %s, your upload is over %s",
					model.SizeText(h.maxUpload), model.SizeText(hardCap)),
			})
			return
		}
		ctx.JSON(400, map[string]string{"request_id": reqID, "error": "image is required"})
		return
	}
	defer closeFileFlow(imageFile)

	data, err := io.ReadAll(imageFile)
	if err != nil {
		ctx.JSON(400, map[string]string{"request_id": reqID, "error": "failed to read uploaded image"})
		return
	}

	format := declaredFormat(ctx.PostForm("format"), imageHeader)

	// передаем в сервис
	out := h.service.Run(ctx.Request.Context(), data, format)
	if out.Failure != nil {
		ctx.JSON(errorCodeDefiner(out.Failure.Err), failureResponse{
			RequestID: out.RequestID,
			Stage:     out.Failure.Stage,
			Kind:      out.Failure.Kind,
			Error:     out.Failure.Reason,
		})
		return
	}

	ctx.JSON(200, newSuccessResponse(out))
}

// declaredFormat prefers the explicit field, then the file extension, then the part's Content-Type.
func declaredFormat(field string, header *multipart.FileHeader) string {
	if f := strings.TrimSpace(field); f != "" {
		return f
	}
	if header == nil {
		return ""
	}
	if ext := filepath.Ext(header.Filename); ext != "" {
		return ext
	}
	return header.Header.Get("Content-Type")
}
