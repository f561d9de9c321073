package export

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// oversample is how many device pixels per point an embedded image keeps
// before it is downscaled.
const oversample = 2

// embeddableImage returns bytes the PDF engine can embed and their fpdf type
// name. JPEG passes through untouched; every other format is decoded,
// downscaled when far larger than the target box, and re-encoded as PNG.
func embeddableImage(img ImageBlock) ([]byte, string, error) {
	if img.Format == "jpeg" {
		return img.Data, "JPG", nil
	}

	src, _, err := image.Decode(bytes.NewReader(img.Data))
	if err != nil {
		return nil, "", fmt.Errorf("decode %q: %w", img.Name, err)
	}

	src = fitImage(src, int(img.Width*oversample), int(img.Height*oversample))

	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		return nil, "", fmt.Errorf("encode %q: %w", img.Name, err)
	}
	return buf.Bytes(), "PNG", nil
}

// fitImage scales src down so it fits within maxW x maxH. Smaller images and
// non-positive bounds return src unchanged.
func fitImage(src image.Image, maxW, maxH int) image.Image {
	b := src.Bounds()
	if maxW <= 0 || maxH <= 0 || (b.Dx() <= maxW && b.Dy() <= maxH) {
		return src
	}
	dst := image.NewRGBA(image.Rect(0, 0, min(b.Dx(), maxW), min(b.Dy(), maxH)))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}
