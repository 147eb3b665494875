// Package processing wires the pure-Go subtract, threshold and erode steps
// into a chain.
package processing

import (
	"fmt"
	"image"

	"zebrafish-isolator/internal/models"
	"zebrafish-isolator/internal/processing/chain"
	"zebrafish-isolator/internal/processing/filters"
	"zebrafish-isolator/internal/processing/threshold"
)

type NativeBackend struct{}

func NewNativeBackend() *NativeBackend {
	return &NativeBackend{}
}

func (n *NativeBackend) Name() string {
	return "native"
}

func (n *NativeBackend) Steps(background *image.Gray, params models.ProcessingParameters) ([]chain.ProcessingStep, error) {
	if err := models.ValidateGray(background, "background"); err != nil {
		return nil, err
	}

	kernel, err := filters.NewRectKernel(params.KernelSize)
	if err != nil {
		return nil, fmt.Errorf("structuring element: %w", err)
	}

	return []chain.ProcessingStep{
		filters.NewSubtractStep(background),
		threshold.NewBinaryStep(params.Threshold, params.MaxValue),
		filters.NewErodeStep(kernel, params.Border),
	}, nil
}
