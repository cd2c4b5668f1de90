package imageproc

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// fitWithin downsizes img so that neither side exceeds maxDim, keeping the
// aspect ratio. Images already small enough are returned as is.
func fitWithin(img image.Image, maxDim int) image.Image {
	if maxDim <= 0 {
		return img
	}
	b := img.Bounds()
	if b.Dx() <= maxDim && b.Dy() <= maxDim {
		return img
	}
	return imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("encode jpeg at quality %d: %w", quality, err)
	}
	return buf.Bytes(), nil
}
