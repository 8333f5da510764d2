package models

import "time"

// ImageDescriptor describes one source image already saved to disk
type ImageDescriptor struct {
	Path     string `json:"path" yaml:"path"`
	ByteSize int64  `json:"byte_size" yaml:"byte_size"`
	Width    int    `json:"width" yaml:"width"`
	Height   int    `json:"height" yaml:"height"`
}

// Batch is a contiguous run of descriptors destined for one composite.
// Index is 1-based and matches the composite filename.
type Batch struct {
	Index  int               `json:"index" yaml:"index"`
	Images []ImageDescriptor `json:"images" yaml:"images"`
}

// SourceBytes returns the summed on-disk size of the batch members
func (b Batch) SourceBytes() int64 {
	var total int64
	for _, img := range b.Images {
		total += img.ByteSize
	}
	return total
}

// Paths returns the member paths in batch order
func (b Batch) Paths() []string {
	paths := make([]string, len(b.Images))
	for i, img := range b.Images {
		paths[i] = img.Path
	}
	return paths
}

// CompositeResult reports one written composite image
type CompositeResult struct {
	Batch    int    `json:"batch" yaml:"batch"`
	Path     string `json:"path" yaml:"path"`
	ByteSize int64  `json:"byte_size" yaml:"byte_size"`
	Width    int    `json:"width" yaml:"width"`
	Height   int    `json:"height" yaml:"height"`
}

// BatchFailure records a batch that produced no composite
type BatchFailure struct {
	Batch int    `json:"batch" yaml:"batch"`
	Path  string `json:"path" yaml:"path"` // offending member or destination
	Err   error  `json:"-" yaml:"-"`
	Error string `json:"error" yaml:"error"`
}

// RunReport summarizes a pipeline run
type RunReport struct {
	RunID          string            `json:"run_id" yaml:"run_id"`
	Source         string            `json:"source,omitempty" yaml:"source,omitempty"` // page URL or media directory
	StartedAt      time.Time         `json:"started_at" yaml:"started_at"`
	FinishedAt     time.Time         `json:"finished_at" yaml:"finished_at"`
	SizeLimitBytes int64             `json:"size_limit_bytes" yaml:"size_limit_bytes"`
	OutputDir      string            `json:"output_directory" yaml:"output_directory"`
	Prefix         string            `json:"filename_prefix" yaml:"filename_prefix"`
	Images         []ImageDescriptor `json:"images" yaml:"images"`
	Composites     []CompositeResult `json:"composites" yaml:"composites"`
	Failures       []BatchFailure    `json:"failures,omitempty" yaml:"failures,omitempty"`
}

// TotalCompositeBytes sums the sizes of all written composites
func (r *RunReport) TotalCompositeBytes() int64 {
	var total int64
	for _, c := range r.Composites {
		total += c.ByteSize
	}
	return total
}
