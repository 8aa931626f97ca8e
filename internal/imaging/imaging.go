// Package imaging normalizes uploaded images before they are stored.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"

	"golang.org/x/image/draw"
)

const ContentType = "image/jpeg"

// DefaultMaxPixels applies when Options.MaxPixels is unset.
const DefaultMaxPixels = 40_000_000

var (
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrTooManyPixels     = errors.New("image dimensions too large")
)

type Options struct {
	MaxWidth int
	Quality  int
	// MaxPixels caps width*height as declared in the header, checked before
	// the pixel data is decoded.
	MaxPixels int
}

type Result struct {
	Data   []byte
	Width  int
	Height int
	Format string
}

// Compress decodes a jpeg, png or gif, scales it down to MaxWidth keeping the
// aspect ratio and re-encodes it as JPEG.
func Compress(src io.Reader, opts Options) (Result, error) {
	raw, err := io.ReadAll(src)
	if err != nil {
		return Result{}, fmt.Errorf("read image: %w", err)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return Result{}, ErrUnsupportedFormat
		}
		return Result{}, fmt.Errorf("decode image header: %w", err)
	}
	limit := opts.MaxPixels
	if limit <= 0 {
		limit = DefaultMaxPixels
	}
	if int64(cfg.Width)*int64(cfg.Height) > int64(limit) {
		return Result{}, fmt.Errorf("%w: %dx%d", ErrTooManyPixels, cfg.Width, cfg.Height)
	}

	img, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return Result{}, ErrUnsupportedFormat
		}
		return Result{}, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return Result{}, fmt.Errorf("decode image: empty %dx%d image", w, h)
	}

	if opts.MaxWidth > 0 && w > opts.MaxWidth {
		newH := max(1, h*opts.MaxWidth/w)
		dst := image.NewRGBA(image.Rect(0, 0, opts.MaxWidth, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
		w, h = opts.MaxWidth, newH
	}

	quality := opts.Quality
	if quality <= 0 || quality > 100 {
		quality = jpeg.DefaultQuality
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return Result{}, fmt.Errorf("encode jpeg: %w", err)
	}

	return Result{Data: buf.Bytes(), Width: w, Height: h, Format: format}, nil
}
