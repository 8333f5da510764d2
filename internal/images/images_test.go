package images

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
}

func solid(w, h int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestFlatten(t *testing.T) {
	t.Run("drops alpha from NRGBA", func(t *testing.T) {
		src := solid(3, 2, color.NRGBA{R: 10, G: 20, B: 30, A: 0})
		out := Flatten(src)
		assert.Equal(t, image.Rect(0, 0, 3, 2), out.Bounds())
		assert.True(t, out.Opaque())
		assert.Equal(t, color.RGBA{R: 10, G: 20, B: 30, A: 255}, out.RGBAAt(2, 1))
	})

	t.Run("copies opaque images unchanged", func(t *testing.T) {
		src := image.NewRGBA(image.Rect(0, 0, 2, 2))
		src.SetRGBA(1, 1, color.RGBA{R: 200, G: 100, B: 50, A: 255})
		for _, p := range []image.Point{{0, 0}, {1, 0}, {0, 1}} {
			src.SetRGBA(p.X, p.Y, color.RGBA{A: 255})
		}
		out := Flatten(src)
		assert.Equal(t, color.RGBA{R: 200, G: 100, B: 50, A: 255}, out.RGBAAt(1, 1))
	})

	t.Run("translates sub-images to the origin", func(t *testing.T) {
		src := solid(4, 4, color.NRGBA{A: 255})
		src.Set(3, 3, color.NRGBA{R: 255, A: 128})
		sub := src.SubImage(image.Rect(2, 2, 4, 4))
		out := Flatten(sub)
		assert.Equal(t, image.Rect(0, 0, 2, 2), out.Bounds())
		assert.Equal(t, color.RGBA{R: 255, A: 255}, out.RGBAAt(1, 1))
	})

	t.Run("palette with transparent entry", func(t *testing.T) {
		palette := color.Palette{color.NRGBA{R: 1, G: 2, B: 3, A: 0}, color.NRGBA{R: 9, G: 9, B: 9, A: 255}}
		src := image.NewPaletted(image.Rect(0, 0, 2, 1), palette)
		src.SetColorIndex(1, 0, 1)
		out := Flatten(src)
		assert.Equal(t, color.RGBA{R: 1, G: 2, B: 3, A: 255}, out.RGBAAt(0, 0))
		assert.Equal(t, color.RGBA{R: 9, G: 9, B: 9, A: 255}, out.RGBAAt(1, 0))
	})
}

func TestSaveNormalizedPNG(t *testing.T) {
	var raw bytes.Buffer
	require.NoError(t, png.Encode(&raw, solid(7, 5, color.NRGBA{R: 40, G: 50, B: 60, A: 10})))

	path := filepath.Join(t.TempDir(), PageFilename(1))
	desc, err := SaveNormalizedPNG(raw.Bytes(), path)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, path, desc.Path)
	assert.Equal(t, info.Size(), desc.ByteSize)
	assert.Equal(t, 7, desc.Width)
	assert.Equal(t, 5, desc.Height)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	r, g, b, a := img.At(3, 3).RGBA()
	assert.Equal(t, []uint32{40, 50, 60, 255}, []uint32{r >> 8, g >> 8, b >> 8, a >> 8})
}

func TestSaveNormalizedPNGRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page_1.png")
	_, err := SaveNormalizedPNG([]byte("not an image"), path)
	require.Error(t, err)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestScan(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []int{10, 2, 1} {
		writePNG(t, filepath.Join(dir, PageFilename(n)), solid(n, 3, color.NRGBA{A: 255}))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "page_3.png"), []byte("corrupt"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "page_x.png"), []byte("skip"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "page_4.png"), 0755))

	descs, err := Scan(dir)
	require.NoError(t, err)
	require.Len(t, descs, 4)

	var names []string
	for _, d := range descs {
		names = append(names, filepath.Base(d.Path))
	}
	assert.Equal(t, []string{"page_1.png", "page_2.png", "page_3.png", "page_10.png"}, names)

	assert.Equal(t, 10, descs[3].Width)
	assert.Equal(t, 3, descs[3].Height)
	assert.Equal(t, 0, descs[2].Width)
	assert.Equal(t, int64(len("corrupt")), descs[2].ByteSize)
}

func TestScanMissingDir(t *testing.T) {
	_, err := Scan(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestDescribe(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.png")
	writePNG(t, path, solid(4, 9, color.NRGBA{A: 255}))

	desc, err := Describe(path)
	require.NoError(t, err)
	info, _ := os.Stat(path)
	assert.Equal(t, info.Size(), desc.ByteSize)
	assert.Equal(t, 4, desc.Width)
	assert.Equal(t, 9, desc.Height)
}
