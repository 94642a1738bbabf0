// Package imageproc normalizes raster images before they are packaged
// into an output book.
package imageproc

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"strings"

	"github.com/disintegration/imaging"
)

const (
	defaultJPEGQuality = 85
	defaultMaxPixels   = 100 * 1000 * 1000 // decode guard, 100 megapixels
)

// Options bounds the normalized output.
type Options struct {
	MaxWidth    int
	MaxHeight   int
	JPEGQuality int
	MaxPixels   int
}

// Result holds normalized image data. Warning is set when the input passed
// through untouched (undecodable, animated, or too large to decode); Data
// is usable either way.
type Result struct {
	Data     []byte
	MIMEType string
	Width    int
	Height   int
	Warning  string
}

// Normalize scales an image into the configured bounds, re-encoding as
// JPEG unless transparency must be preserved. Inputs already within
// bounds, animated GIFs, and undecodable data pass through untouched.
func Normalize(data []byte, mimeType string, opts Options) Result {
	out := Result{Data: data, MIMEType: mimeType}
	if opts.JPEGQuality <= 0 {
		opts.JPEGQuality = defaultJPEGQuality
	}
	if opts.MaxPixels <= 0 {
		opts.MaxPixels = defaultMaxPixels
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err == nil {
		out.Width = cfg.Width
		out.Height = cfg.Height
		if uint64(cfg.Width)*uint64(cfg.Height) > uint64(opts.MaxPixels) {
			out.Warning = fmt.Sprintf("image too large to decode: %dx%d", cfg.Width, cfg.Height)
			return out
		}
	}

	// Re-encoding an animated GIF would keep only the first frame.
	if strings.EqualFold(mimeType, "image/gif") && isAnimatedGIF(data) {
		return out
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		out.Warning = fmt.Sprintf("image decode failed: %v", err)
		return out
	}

	bounds := img.Bounds()
	maxW := opts.MaxWidth
	if maxW <= 0 {
		maxW = bounds.Dx()
	}
	maxH := opts.MaxHeight
	if maxH <= 0 {
		maxH = bounds.Dy()
	}
	if bounds.Dx() <= maxW && bounds.Dy() <= maxH {
		return out
	}

	fitted := imaging.Fit(img, maxW, maxH, imaging.Lanczos)

	var buf bytes.Buffer
	if strings.EqualFold(mimeType, "image/png") && hasAlpha(fitted) {
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		if err := enc.Encode(&buf, fitted); err != nil {
			out.Warning = fmt.Sprintf("png encode failed: %v", err)
			return out
		}
		out.MIMEType = "image/png"
	} else {
		if err := jpeg.Encode(&buf, fitted, &jpeg.Options{Quality: opts.JPEGQuality}); err != nil {
			out.Warning = fmt.Sprintf("jpeg encode failed: %v", err)
			return out
		}
		out.MIMEType = "image/jpeg"
	}

	out.Data = buf.Bytes()
	out.Width = fitted.Bounds().Dx()
	out.Height = fitted.Bounds().Dy()
	return out
}

func isAnimatedGIF(data []byte) bool {
	g, err := gif.DecodeAll(bytes.NewReader(data))
	return err == nil && len(g.Image) > 1
}

func hasAlpha(img image.Image) bool {
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a < 0xFFFF {
				return true
			}
		}
	}
	return false
}
