// Package imageproc provides upload validation and size-constrained re-encoding of images for the vision model.
package imageproc

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// decode reads any registered format and applies EXIF orientation.
func decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, errors.New("empty image payload")
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// flatten composites img over an opaque white background, so that transparent
// regions don't turn black when encoded as JPEG.
func flatten(img image.Image) image.Image {
	b := img.Bounds()
	bg := imaging.New(b.Dx(), b.Dy(), color.White)

	// само наложение:
	return imaging.Overlay(bg, img, image.Pt(0, 0), 1.0)
}
