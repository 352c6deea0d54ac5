package thumbnail

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/webp"
)

// DefaultJPEGQuality is used when a Generator is created with quality 0.
const DefaultJPEGQuality = 85

// ErrUnsupportedFormat indicates the source bytes are not a decodable image.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// Generator resizes images.
type Generator struct {
	quality int
}

// NewGenerator creates a Generator encoding JPEG output at quality (1-100).
func NewGenerator(quality int) *Generator {
	if quality <= 0 || quality > 100 {
		quality = DefaultJPEGQuality
	}
	return &Generator{quality: quality}
}

// Resize scales src to width, preserving the aspect ratio.
//
// Images are never upscaled: a source narrower than width is re-encoded at
// its own size. JPEG sources produce JPEG output; every other format is
// encoded as PNG.
func (g *Generator) Resize(src []byte, width int) ([]byte, error) {
	if width <= 0 {
		return nil, fmt.Errorf("invalid width %d", width)
	}

	img, isJPEG, err := decode(src)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()
	if srcW == 0 || srcH == 0 {
		return nil, fmt.Errorf("%w: empty image", ErrUnsupportedFormat)
	}

	dst := img
	if srcW > width {
		height := (srcH*width + srcW/2) / srcW
		if height < 1 {
			height = 1
		}
		scaled := image.NewRGBA(image.Rect(0, 0, width, height))
		draw.CatmullRom.Scale(scaled, scaled.Bounds(), img, bounds, draw.Over, nil)
		dst = scaled
	}

	var buf bytes.Buffer
	if isJPEG {
		if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: g.quality}); err != nil {
			return nil, fmt.Errorf("failed to encode JPEG: %w", err)
		}
	} else {
		if err := png.Encode(&buf, dst); err != nil {
			return nil, fmt.Errorf("failed to encode PNG: %w", err)
		}
	}
	return buf.Bytes(), nil
}

// decode detects the format from the content, not the file name.
func decode(src []byte) (img image.Image, isJPEG bool, err error) {
	mtype := mimetype.Detect(src)
	r := bytes.NewReader(src)

	switch {
	case mtype.Is("image/jpeg"):
		img, err = jpeg.Decode(r)
		isJPEG = true
	case mtype.Is("image/png"):
		img, err = png.Decode(r)
	case mtype.Is("image/gif"):
		img, err = gif.Decode(r)
	case mtype.Is("image/webp"):
		img, err = webp.Decode(r)
	case mtype.Is("image/bmp"):
		img, err = bmp.Decode(r)
	default:
		return nil, false, fmt.Errorf("%w: %s", ErrUnsupportedFormat, mtype.String())
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to decode %s: %w", mtype.String(), err)
	}
	return img, isJPEG, nil
}
