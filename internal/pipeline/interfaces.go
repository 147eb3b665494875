package pipeline

import (
	"context"
	"errors"
	"image"

	"zebrafish-isolator/internal/models"
	"zebrafish-isolator/internal/processing/chain"
	"zebrafish-isolator/internal/processing/locate"
)

var (
	// ErrFileNotFound wraps every failure to find an input image
	ErrFileNotFound = errors.New("image file not found")
	// ErrDecode wraps every failure to decode an input image
	ErrDecode = errors.New("image decode failed")
)

// ImageLoader reads grayscale inputs
type ImageLoader interface {
	LoadFromPath(path string) (*models.ImageData, error)
	LoadFromBytes(data []byte, name string) (*models.ImageData, error)
}

// Backend builds the subtract/threshold/erode steps for one frame
type Backend interface {
	Name() string
	Steps(background *image.Gray, params models.ProcessingParameters) ([]chain.ProcessingStep, error)
}

// Viewer shows a stage and blocks until the user dismisses it. Marker, when
// non-nil, is the tracked point to highlight.
type Viewer interface {
	Show(ctx context.Context, stage string, img *image.Gray, marker *image.Point) error
	Close() error
}

// Result holds every intermediate grid of a run
type Result struct {
	Background *models.ImageData
	Frame      *models.ImageData
	Foreground *image.Gray
	Threshold  *image.Gray
	Erosion    *image.Gray
	Location   locate.Location
	Stats      []StageStats
}
