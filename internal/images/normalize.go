package images

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"log/slog"
	"os"

	"github.com/lehigh-university-libraries/pagestitch/internal/models"
)

// Flatten converts img to an opaque RGB raster anchored at the origin.
// The alpha channel is dropped rather than blended, so colour values are
// kept as stored and every pixel ends up fully opaque.
func Flatten(img image.Image) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))

	switch src := img.(type) {
	case *image.NRGBA:
		for y := 0; y < b.Dy(); y++ {
			srcRow := src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):]
			dstRow := dst.Pix[dst.PixOffset(0, y):]
			for x := 0; x < b.Dx(); x++ {
				i := x * 4
				dstRow[i] = srcRow[i]
				dstRow[i+1] = srcRow[i+1]
				dstRow[i+2] = srcRow[i+2]
				dstRow[i+3] = 0xff
			}
		}
		return dst
	case interface{ Opaque() bool }:
		if src.Opaque() {
			draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
			return dst
		}
	}

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			dst.SetRGBA(x-b.Min.X, y-b.Min.Y, color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff})
		}
	}
	return dst
}

// EncodePNG writes img as a PNG with the given compression level
func EncodePNG(w io.Writer, img image.Image, level png.CompressionLevel) error {
	enc := &png.Encoder{CompressionLevel: level}
	return enc.Encode(w, img)
}

// SaveNormalizedPNG decodes raw image data, flattens it to RGB and saves it
// as a best-compression PNG at path.
func SaveNormalizedPNG(raw []byte, path string) (models.ImageDescriptor, error) {
	img, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return models.ImageDescriptor{}, fmt.Errorf("failed to decode image data: %w", err)
	}

	var buf bytes.Buffer
	if err := EncodePNG(&buf, Flatten(img), png.BestCompression); err != nil {
		return models.ImageDescriptor{}, fmt.Errorf("failed to encode png: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return models.ImageDescriptor{}, fmt.Errorf("failed to write image file: %w", err)
	}

	b := img.Bounds()
	slog.Debug("Normalized image saved", "path", path, "format", format, "width", b.Dx(), "height", b.Dy(), "bytes", buf.Len())

	return models.ImageDescriptor{
		Path:     path,
		ByteSize: int64(buf.Len()),
		Width:    b.Dx(),
		Height:   b.Dy(),
	}, nil
}
