package imageproc

import (
	"bytes"
	"fmt"
	"image"

	"github.com/UnendingLoop/percepto/internal/model"
)

const DefaultMaxDimension = 1920

// step is one rung of the size-reduction ladder: an optional tighter bound on
// the longest side (0 keeps the current size) and the JPEG quality to try.
type step struct {
	maxDim  int
	quality int
}

// ladder is monotonic: every rung is never larger than the previous one.
var ladder = []step{
	{0, 85},
	{0, 70},
	{0, 50},
	{0, 30},
	{1280, 50},
	{960, 50},
	{640, 50},
	{480, 30},
}

// Compressor re-encodes images until they fit the vision model's payload limit.
type Compressor struct {
	MaxDimension int
}

func NewCompressor(maxDimension int) *Compressor {
	if maxDimension <= 0 {
		maxDimension = DefaultMaxDimension
	}
	return &Compressor{MaxDimension: maxDimension}
}

// Compress returns img unchanged when it already fits target in a format the
// vision model accepts; otherwise it walks the ladder and returns the first
// JPEG at or under target. Oversized output is never returned.
func (c *Compressor) Compress(img model.UploadedImage, target int64) (model.ProcessedImage, error) {
	if int64(len(img.Data)) <= target && model.NativeFormats[img.Format] {
		cfg, _, err := image.DecodeConfig(bytes.NewReader(img.Data))
		if err == nil {
			return model.ProcessedImage{
				Data:     img.Data,
				MIMEType: model.GetMIMEType[img.Format],
				Width:    cfg.Width,
				Height:   cfg.Height,
			}, nil
		}
		return model.ProcessedImage{}, corrupt(err)
	}

	src, err := decode(img.Data)
	if err != nil {
		return model.ProcessedImage{}, corrupt(err)
	}
	current := fitWithin(flatten(src), c.MaxDimension)

	var last int
	for _, s := range ladder {
		current = fitWithin(current, s.maxDim)

		data, err := encodeJPEG(current, s.quality)
		if err != nil {
			return model.ProcessedImage{}, corrupt(err)
		}
		last = len(data)

		if int64(last) <= target {
			b := current.Bounds()
			return model.ProcessedImage{
				Data:      data,
				MIMEType:  model.JPEG,
				Width:     b.Dx(),
				Height:    b.Dy(),
				Reencoded: true,
			}, nil
		}
	}

	return model.ProcessedImage{}, &model.Error{
		Kind:  model.KindCompressionExhausted,
		Msg:   fmt.Sprintf("image could not be compressed below %s (smallest attempt was %s)", model.SizeText(target), model.SizeText(int64(last))),
		Size:  int64(last),
		Limit: target,
	}
}

func corrupt(err error) error {
	return &model.Error{
		Kind: model.KindCorruptImage,
		Msg:  "the image could not be read, the file may be damaged or mislabeled",
		Err:  err,
	}
}
