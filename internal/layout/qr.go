package layout

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"

	"govdoc/internal/asset"
)

// qrPixels is the raster size of generated QR codes.
const qrPixels = 256

// QRImage encodes content as a PNG QR code.
func QRImage(content string) (*asset.Image, error) {
	code, err := qr.Encode(content, qr.M, qr.Auto)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	code, err = barcode.Scale(code, qrPixels, qrPixels)
	if err != nil {
		return nil, fmt.Errorf("scale qr: %w", err)
	}

	// Scaled codes are 16-bit gray, which gofpdf cannot embed.
	gray := image.NewGray(code.Bounds())
	draw.Draw(gray, gray.Bounds(), code, code.Bounds().Min, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, gray); err != nil {
		return nil, fmt.Errorf("encode qr png: %w", err)
	}
	return &asset.Image{
		Key:    "qr",
		Type:   "PNG",
		Data:   buf.Bytes(),
		Width:  qrPixels,
		Height: qrPixels,
	}, nil
}
