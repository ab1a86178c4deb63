package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"log/slog"
	"math"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// MaxDimension is the largest width or height forwarded to a recognizer
const MaxDimension = 4000

// MaxPixels caps width*height of any image that is decoded. Headers are
// cheap to forge, so a small file can declare enormous dimensions.
const MaxPixels = 0x3FFF * 0x3FFF

const jpegQuality = 90

// ErrTooManyPixels is returned for images whose declared size exceeds MaxPixels
var ErrTooManyPixels = errors.New("input image exceeds pixel limit")

// Dimensions returns the pixel size and format name of an encoded image
// without decoding its pixels.
func Dimensions(data []byte) (int, int, string, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, "", err
	}
	return cfg.Width, cfg.Height, format, nil
}

// FitWithin scales width and height down so both fit inside max while keeping
// the aspect ratio. Sizes already within bounds are returned as is.
func FitWithin(width, height, max int) (int, int) {
	if width <= max && height <= max {
		return width, height
	}

	scale := math.Min(float64(max)/float64(width), float64(max)/float64(height))
	w := clamp(int(math.Round(float64(width)*scale)), 1, max)
	h := clamp(int(math.Round(float64(height)*scale)), 1, max)
	return w, h
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Normalize downsizes images larger than MaxDimension on either side. Images
// within bounds are returned unchanged, as the very same slice. The input is
// never modified.
func Normalize(data []byte) ([]byte, error) {
	width, height, format, err := Dimensions(data)
	if err != nil {
		return nil, fmt.Errorf("failed to read image dimensions: %w", err)
	}
	if int64(width)*int64(height) > MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrTooManyPixels, width, height)
	}

	targetW, targetH := FitWithin(width, height, MaxDimension)
	if targetW == width && targetH == height {
		return data, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	dst := image.NewRGBA(image.Rect(0, 0, targetW, targetH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)

	var buf bytes.Buffer
	switch format {
	case "jpeg":
		err = jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality})
	case "gif":
		err = gif.Encode(&buf, dst, nil)
	default:
		// png, and webp which has no encoder in x/image
		err = png.Encode(&buf, dst)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode resized %s image: %w", format, err)
	}

	slog.Info("Image resized",
		"format", format,
		"from", fmt.Sprintf("%dx%d", width, height),
		"to", fmt.Sprintf("%dx%d", targetW, targetH),
		"bytes", buf.Len(),
	)
	return buf.Bytes(), nil
}
