package models

import (
	"fmt"
	"strings"
)

// BorderPolicy decides what the eroder sees outside the image
type BorderPolicy string

const (
	// BorderZero treats out-of-bounds cells as background, so edge pixels erode.
	BorderZero BorderPolicy = "zero"
	// BorderReplicate copies the nearest edge pixel outward.
	BorderReplicate BorderPolicy = "replicate"
	// BorderIgnore leaves out-of-bounds cells out of the neighbourhood.
	// This is what OpenCV's erode does by default.
	BorderIgnore BorderPolicy = "ignore"
)

func ParseBorderPolicy(s string) (BorderPolicy, error) {
	switch p := BorderPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case BorderZero, BorderReplicate, BorderIgnore:
		return p, nil
	case "":
		return BorderZero, nil
	default:
		return "", fmt.Errorf("unknown border policy %q", s)
	}
}

const (
	DefaultThreshold  = 25
	DefaultMaxValue   = 255
	DefaultKernelSize = 3
)

// ProcessingParameters holds the tunables of the subtract/threshold/erode
// pipeline.
type ProcessingParameters struct {
	Threshold  uint8
	MaxValue   uint8
	KernelSize int
	Border     BorderPolicy
}

func DefaultProcessingParameters() ProcessingParameters {
	return ProcessingParameters{
		Threshold:  DefaultThreshold,
		MaxValue:   DefaultMaxValue,
		KernelSize: DefaultKernelSize,
		Border:     BorderZero,
	}
}

func (p ProcessingParameters) Validate() error {
	if p.KernelSize < 1 || p.KernelSize%2 == 0 {
		return fmt.Errorf("kernel size must be a positive odd number, got %d", p.KernelSize)
	}
	if p.MaxValue == 0 {
		return fmt.Errorf("max value must be non-zero")
	}
	if _, err := ParseBorderPolicy(string(p.Border)); err != nil {
		return err
	}
	return nil
}

// ToMap flattens the parameters for structured logging
func (p ProcessingParameters) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"threshold":   p.Threshold,
		"max_value":   p.MaxValue,
		"kernel_size": p.KernelSize,
		"border":      string(p.Border),
	}
}
