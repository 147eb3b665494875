package models

import (
	"errors"
	"fmt"
	"image"
)

// ErrShapeMismatch is returned when two grids that must be combined
// elementwise have different dimensions.
var ErrShapeMismatch = errors.New("shape mismatch")

// ImageData represents a decoded single-channel image with its source metadata
type ImageData struct {
	Name   string
	Path   string
	Format string
	Gray   *image.Gray
}

func (d *ImageData) Width() int {
	return d.Gray.Bounds().Dx()
}

func (d *ImageData) Height() int {
	return d.Gray.Bounds().Dy()
}

// ShapeError reports the two shapes that failed to match
type ShapeError struct {
	Operation string
	Left      image.Point
	Right     image.Point
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("%s: %v: %dx%d vs %dx%d", e.Operation, ErrShapeMismatch,
		e.Left.X, e.Left.Y, e.Right.X, e.Right.Y)
}

func (e *ShapeError) Unwrap() error {
	return ErrShapeMismatch
}

// ValidateSameShape checks that a and b have identical width and height.
// Origins may differ.
func ValidateSameShape(a, b *image.Gray, operation string) error {
	if a == nil || b == nil {
		return fmt.Errorf("%s: nil image", operation)
	}

	sa, sb := a.Bounds().Size(), b.Bounds().Size()
	if sa != sb {
		return &ShapeError{Operation: operation, Left: sa, Right: sb}
	}
	return nil
}

// ValidateGray rejects nil and empty grids
func ValidateGray(img *image.Gray, operation string) error {
	if img == nil {
		return fmt.Errorf("%s: nil image", operation)
	}
	if img.Bounds().Empty() {
		return fmt.Errorf("%s: empty image %v", operation, img.Bounds())
	}
	return nil
}
