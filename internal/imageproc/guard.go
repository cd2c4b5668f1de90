package imageproc

import (
	"errors"
	"fmt"

	"github.com/UnendingLoop/percepto/internal/model"
)

// Guard rejects out-of-policy uploads before any decoding happens.
type Guard struct {
	MaxBytes int64
}

func NewGuard(maxBytes int64) Guard {
	return Guard{MaxBytes: maxBytes}
}

// Validate checks size and declared format independently; when both are
// violated the returned error matches both sentinels.
func (g Guard) Validate(data []byte, declaredFormat string) (model.UploadedImage, error) {
	size := int64(len(data))
	var errs []error

	format, ok := model.ParseFormat(declaredFormat)
	if !ok || !model.SupportedFormats[format] {
		errs = append(errs, &model.Error{
			Kind: model.KindUnsupportedFormat,
			Msg:  fmt.Sprintf("format %q is not supported, use PNG, JPG, JPEG, BMP or WEBP", declaredFormat),
		})
	}

	switch {
	case size == 0:
		errs = append(errs, &model.Error{
			Kind: model.KindCorruptImage,
			Msg:  "the uploaded file is empty",
		})
	case size > g.MaxBytes:
		errs = append(errs, &model.Error{
			Kind:  model.KindOversize,
			Msg:   fmt.Sprintf("file too large: maximum size allowed is %s, your file is %s", model.SizeText(g.MaxBytes), model.SizeText(size)),
			Size:  size,
			Limit: g.MaxBytes,
		})
	}

	switch len(errs) {
	case 0:
		return model.UploadedImage{Data: data, Size: size, Format: format}, nil
	case 1:
		return model.UploadedImage{}, errs[0]
	default:
		return model.UploadedImage{}, errors.Join(errs...)
	}
}
