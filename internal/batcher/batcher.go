// Package batcher partitions saved images into contiguous groups whose
// summed source file size stays within a byte limit.
//
// Partitioning is greedy and deterministic. A batch is closed as soon as the
// next image would push its running total strictly above the limit, so a
// batch that lands exactly on the limit stays open for one more evaluation.
// An image that is larger than the limit on its own is never dropped or
// split; it becomes a batch by itself. The limit therefore bounds source
// bytes, not the size of the encoded composite.
package batcher

import (
	"errors"
	"fmt"

	"github.com/lehigh-university-libraries/pagestitch/internal/models"
)

// ErrInvalidLimit is returned when the size limit is not positive
var ErrInvalidLimit = errors.New("size limit must be greater than zero")

// Partition splits images, in order, into batches bounded by limit bytes.
// Batches are numbered from 1. Empty input yields no batches and no error.
func Partition(images []models.ImageDescriptor, limit int64) ([]models.Batch, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidLimit, limit)
	}
	if len(images) == 0 {
		return nil, nil
	}

	var batches []models.Batch
	var current []models.ImageDescriptor
	var currentSize int64

	closeBatch := func() {
		batches = append(batches, models.Batch{
			Index:  len(batches) + 1,
			Images: current,
		})
	}

	for _, img := range images {
		if len(current) > 0 && currentSize+img.ByteSize > limit {
			closeBatch()
			current = []models.ImageDescriptor{img}
			currentSize = img.ByteSize
			continue
		}
		current = append(current, img)
		currentSize += img.ByteSize
	}

	if len(current) > 0 {
		closeBatch()
	}

	return batches, nil
}

// Flatten concatenates batch members back into a single ordered slice
func Flatten(batches []models.Batch) []models.ImageDescriptor {
	var out []models.ImageDescriptor
	for _, b := range batches {
		out = append(out, b.Images...)
	}
	return out
}
