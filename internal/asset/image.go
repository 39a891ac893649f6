package asset

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif" // decoders for DecodeConfig
	_ "image/jpeg"
	"image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Image is a decoded asset ready for the PDF writer.
type Image struct {
	Key string
	// Type is the gofpdf image type: "PNG", "JPG" or "GIF".
	Type   string
	Data   []byte
	Width  int
	Height int
}

// AspectRatio returns height/width, or 1 for degenerate images.
func (img *Image) AspectRatio() float64 {
	if img == nil || img.Width <= 0 || img.Height <= 0 {
		return 1
	}
	return float64(img.Height) / float64(img.Width)
}

// Normalize inspects data and returns an Image the PDF writer can embed.
// PNG, JPEG and GIF pass through; BMP, TIFF and WebP are re-encoded as PNG.
func Normalize(key string, data []byte) (*Image, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}

	img := &Image{Key: key, Width: cfg.Width, Height: cfg.Height}
	switch format {
	case "png":
		img.Type, img.Data = "PNG", data
	case "jpeg":
		img.Type, img.Data = "JPG", data
	case "gif":
		img.Type, img.Data = "GIF", data
	default:
		decoded, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decode %s (%s): %w", key, format, err)
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, decoded); err != nil {
			return nil, fmt.Errorf("re-encode %s: %w", key, err)
		}
		img.Type, img.Data = "PNG", buf.Bytes()
	}
	return img, nil
}
