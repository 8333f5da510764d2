// Package stitcher composites batches of saved images into single tall PNGs.
//
// Members are stacked top to bottom, flush left, with no gaps. The canvas is
// as wide as the widest member and as tall as all members together; the
// area to the right of narrower members stays black. Each composite is
// written atomically, so a failed batch never leaves a partial file behind.
package stitcher

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/lehigh-university-libraries/pagestitch/internal/images"
	"github.com/lehigh-university-libraries/pagestitch/internal/models"
)

// ErrInvalidOptions is returned by New for unusable options
var ErrInvalidOptions = errors.New("invalid stitcher options")

// DecodeError reports a batch member that could not be loaded
type DecodeError struct {
	Batch int
	Path  string
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("batch %d: failed to decode %s: %v", e.Batch, e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// WriteError reports a composite that could not be written
type WriteError struct {
	Batch int
	Path  string
	Err   error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("batch %d: failed to write %s: %v", e.Batch, e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Options configures a Stitcher
type Options struct {
	OutputDir string
	Prefix    string
	// CompressionLevel defaults to png.BestCompression when zero.
	CompressionLevel png.CompressionLevel
}

// Stitcher writes composites for batches into one output directory
type Stitcher struct {
	outputDir string
	prefix    string
	level     png.CompressionLevel
}

// New validates opts and creates the output directory if needed
func New(opts Options) (*Stitcher, error) {
	prefix := strings.TrimSpace(opts.Prefix)
	if prefix == "" {
		return nil, fmt.Errorf("%w: filename prefix is required", ErrInvalidOptions)
	}
	if strings.ContainsAny(prefix, `/\`) {
		return nil, fmt.Errorf("%w: filename prefix %q must not contain path separators", ErrInvalidOptions, prefix)
	}
	if strings.TrimSpace(opts.OutputDir) == "" {
		return nil, fmt.Errorf("%w: output directory is required", ErrInvalidOptions)
	}
	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("%w: failed to create output directory: %v", ErrInvalidOptions, err)
	}
	if err := checkWritable(opts.OutputDir); err != nil {
		return nil, fmt.Errorf("%w: output directory %s is not writable: %v", ErrInvalidOptions, opts.OutputDir, err)
	}

	level := opts.CompressionLevel
	if level == png.DefaultCompression {
		level = png.BestCompression
	}

	return &Stitcher{
		outputDir: opts.OutputDir,
		prefix:    prefix,
		level:     level,
	}, nil
}

// checkWritable creates and removes a scratch file in dir
func checkWritable(dir string) error {
	f, err := os.CreateTemp(dir, ".write-check-*")
	if err != nil {
		return err
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}

// Path returns the destination of the composite for a 1-based batch index
func (s *Stitcher) Path(index int) string {
	return filepath.Join(s.outputDir, fmt.Sprintf("%s_%d.png", s.prefix, index))
}

// OutputDir returns the directory composites are written to
func (s *Stitcher) OutputDir() string {
	return s.outputDir
}

// Compose stacks the batch members vertically and writes the result to dest
func (s *Stitcher) Compose(batch models.Batch, dest string) (models.CompositeResult, error) {
	if len(batch.Images) == 0 {
		return models.CompositeResult{}, &DecodeError{Batch: batch.Index, Path: dest, Err: errors.New("batch has no images")}
	}

	members := make([]*image.RGBA, 0, len(batch.Images))
	width, height := 0, 0
	for _, desc := range batch.Images {
		img, err := loadImage(desc.Path)
		if err != nil {
			return models.CompositeResult{}, &DecodeError{Batch: batch.Index, Path: desc.Path, Err: err}
		}
		b := img.Bounds()
		if err := validateCanvas(max(width, b.Dx()), height, b.Dy()); err != nil {
			return models.CompositeResult{}, &DecodeError{Batch: batch.Index, Path: desc.Path, Err: err}
		}
		width = max(width, b.Dx())
		height += b.Dy()
		members = append(members, img)
	}

	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	// Black, fully opaque background.
	draw.Draw(canvas, canvas.Bounds(), image.Black, image.Point{}, draw.Src)

	y := 0
	for _, img := range members {
		b := img.Bounds()
		draw.Draw(canvas, image.Rect(0, y, b.Dx(), y+b.Dy()), img, b.Min, draw.Src)
		y += b.Dy()
	}
	members = nil // release decoded sources before encoding

	size, err := s.writeAtomic(canvas, dest)
	if err != nil {
		return models.CompositeResult{}, &WriteError{Batch: batch.Index, Path: dest, Err: err}
	}

	return models.CompositeResult{
		Batch:    batch.Index,
		Path:     dest,
		ByteSize: size,
		Width:    width,
		Height:   height,
	}, nil
}

func loadImage(path string) (*image.RGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(bufio.NewReader(f))
	if err != nil {
		return nil, err
	}
	return images.Flatten(img), nil
}

// validateCanvas rejects canvases whose RGBA buffer would not be addressable
func validateCanvas(width, height, addHeight int) error {
	if addHeight > math.MaxInt32-height {
		return fmt.Errorf("canvas height exceeds limit (%d + %d)", height, addHeight)
	}
	total := int64(height + addHeight)
	if width > 0 && total > math.MaxInt/(4*int64(width)) {
		return fmt.Errorf("canvas of %d x %d pixels is too large", width, total)
	}
	return nil
}

// writeAtomic encodes img into a temp file next to dest and renames it into
// place, returning the size of the written file.
func (s *Stitcher) writeAtomic(img image.Image, dest string) (int64, error) {
	dir := filepath.Dir(dest)
	tmp, err := os.CreateTemp(dir, ".tmp-*.png")
	if err != nil {
		return 0, err
	}
	tmpPath := tmp.Name()

	cleanup := func(err error) (int64, error) {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return 0, err
	}

	bw := bufio.NewWriterSize(tmp, 64*1024)
	if err := images.EncodePNG(bw, img, s.level); err != nil {
		return cleanup(err)
	}
	if err := bw.Flush(); err != nil {
		return cleanup(err)
	}
	if err := tmp.Sync(); err != nil {
		return cleanup(err)
	}
	if err := tmp.Chmod(0644); err != nil {
		return cleanup(err)
	}
	info, err := tmp.Stat()
	if err != nil {
		return cleanup(err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return 0, err
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		_ = os.Remove(tmpPath)
		return 0, err
	}
	return info.Size(), nil
}
