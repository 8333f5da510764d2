package batcher

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/lehigh-university-libraries/pagestitch/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func descriptors(sizes ...int64) []models.ImageDescriptor {
	out := make([]models.ImageDescriptor, len(sizes))
	for i, size := range sizes {
		out[i] = models.ImageDescriptor{
			Path:     fmt.Sprintf("media/page_%d.png", i+1),
			ByteSize: size,
			Width:    100,
			Height:   50,
		}
	}
	return out
}

func sizesOf(batches []models.Batch) [][]int64 {
	out := make([][]int64, len(batches))
	for i, b := range batches {
		for _, img := range b.Images {
			out[i] = append(out[i], img.ByteSize)
		}
	}
	return out
}

func TestPartition(t *testing.T) {
	tests := []struct {
		name     string
		sizes    []int64
		limit    int64
		expected [][]int64
	}{
		{
			name:     "greedy scenario",
			sizes:    []int64{400, 400, 400, 900, 100},
			limit:    1000,
			expected: [][]int64{{400, 400}, {400}, {900, 100}},
		},
		{
			name:     "exact limit keeps batch open",
			sizes:    []int64{500, 500, 1},
			limit:    1000,
			expected: [][]int64{{500, 500}, {1}},
		},
		{
			name:     "single oversized image",
			sizes:    []int64{5000},
			limit:    1000,
			expected: [][]int64{{5000}},
		},
		{
			name:     "oversized image between small ones",
			sizes:    []int64{100, 5000, 100},
			limit:    1000,
			expected: [][]int64{{100}, {5000}, {100}},
		},
		{
			name:     "everything fits",
			sizes:    []int64{1, 2, 3, 4},
			limit:    1000,
			expected: [][]int64{{1, 2, 3, 4}},
		},
		{
			name:     "zero byte images never close a batch",
			sizes:    []int64{1000, 0, 0},
			limit:    1000,
			expected: [][]int64{{1000, 0, 0}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			batches, err := Partition(descriptors(tt.sizes...), tt.limit)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, sizesOf(batches))
			for i, b := range batches {
				assert.Equal(t, i+1, b.Index)
			}
		})
	}
}

func TestPartitionEmpty(t *testing.T) {
	batches, err := Partition(nil, 1000)
	require.NoError(t, err)
	assert.Empty(t, batches)

	batches, err = Partition([]models.ImageDescriptor{}, 1000)
	require.NoError(t, err)
	assert.Empty(t, batches)
}

func TestPartitionInvalidLimit(t *testing.T) {
	for _, limit := range []int64{0, -1} {
		_, err := Partition(descriptors(1, 2), limit)
		assert.ErrorIs(t, err, ErrInvalidLimit)
	}
}

func TestPartitionProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 200; round++ {
		n := rng.Intn(40)
		limit := int64(rng.Intn(2000) + 1)
		sizes := make([]int64, n)
		for i := range sizes {
			sizes[i] = int64(rng.Intn(2500))
		}
		input := descriptors(sizes...)

		batches, err := Partition(input, limit)
		require.NoError(t, err)

		// No loss, duplication or reordering.
		flat := Flatten(batches)
		require.Len(t, flat, len(input))
		for i := range input {
			assert.Equal(t, input[i], flat[i])
		}

		for _, b := range batches {
			require.NotEmpty(t, b.Images)
			if len(b.Images) == 1 {
				continue
			}
			var running int64
			for _, img := range b.Images {
				running += img.ByteSize
				assert.LessOrEqual(t, running, limit, "batch %d exceeds limit", b.Index)
			}
		}

		again, err := Partition(input, limit)
		require.NoError(t, err)
		assert.Equal(t, batches, again)
	}
}

func TestBatchSourceBytes(t *testing.T) {
	batches, err := Partition(descriptors(400, 400, 400, 900, 100), 1000)
	require.NoError(t, err)
	require.Len(t, batches, 3)

	assert.Equal(t, int64(800), batches[0].SourceBytes())
	assert.Equal(t, int64(400), batches[1].SourceBytes())
	assert.Equal(t, int64(1000), batches[2].SourceBytes())
	assert.Equal(t, []string{"media/page_4.png", "media/page_5.png"}, batches[2].Paths())
}
