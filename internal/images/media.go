package images

import (
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/lehigh-university-libraries/pagestitch/internal/models"
)

var pagePattern = regexp.MustCompile(`^page_(\d+)\.png$`)

// PageFilename returns the media filename for the n-th captured image
func PageFilename(n int) string {
	return fmt.Sprintf("page_%d.png", n)
}

// Describe builds a descriptor from a saved image file
func Describe(path string) (models.ImageDescriptor, error) {
	info, err := os.Stat(path)
	if err != nil {
		return models.ImageDescriptor{}, fmt.Errorf("failed to stat image: %w", err)
	}

	width, height, err := getImageDimensions(path)
	if err != nil {
		return models.ImageDescriptor{}, fmt.Errorf("failed to read image dimensions for %s: %w", path, err)
	}

	return models.ImageDescriptor{
		Path:     path,
		ByteSize: info.Size(),
		Width:    width,
		Height:   height,
	}, nil
}

// Scan lists the page_<n>.png files in a media directory ordered by n.
// Files whose dimensions cannot be read are kept with zero width and height
// so the batch that contains them fails when it is stitched.
func Scan(dir string) ([]models.ImageDescriptor, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read media directory: %w", err)
	}

	type page struct {
		n    int
		name string
	}
	var pages []page
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m := pagePattern.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		pages = append(pages, page{n: n, name: entry.Name()})
	}

	// Numeric order, so page_10 follows page_9.
	sort.Slice(pages, func(i, j int) bool { return pages[i].n < pages[j].n })

	descriptors := make([]models.ImageDescriptor, 0, len(pages))
	for _, p := range pages {
		path := filepath.Join(dir, p.name)
		desc, err := Describe(path)
		if err != nil {
			info, statErr := os.Stat(path)
			if statErr != nil {
				return nil, fmt.Errorf("failed to stat %s: %w", path, statErr)
			}
			slog.Warn("Failed to get image dimensions", "path", path, "error", err)
			desc = models.ImageDescriptor{Path: path, ByteSize: info.Size()}
		}
		descriptors = append(descriptors, desc)
	}

	slog.Debug("Scanned media directory", "dir", dir, "images", len(descriptors))
	return descriptors, nil
}

func getImageDimensions(imagePath string) (int, int, error) {
	file, err := os.Open(imagePath)
	if err != nil {
		return 0, 0, err
	}
	defer file.Close()

	img, _, err := image.DecodeConfig(file)
	if err != nil {
		return 0, 0, err
	}

	return img.Width, img.Height, nil
}
