package threshold

import (
	"context"
	"image"

	"zebrafish-isolator/internal/models"
)

// Binary maps every pixel strictly above cutoff to maxValue and everything
// else to 0.
func Binary(src *image.Gray, cutoff, maxValue uint8) (*image.Gray, error) {
	if err := models.ValidateGray(src, "threshold"); err != nil {
		return nil, err
	}

	b := src.Bounds()
	dst := image.NewGray(b)
	w := b.Dx()

	for y := b.Min.Y; y < b.Max.Y; y++ {
		sr := src.Pix[src.PixOffset(b.Min.X, y):][:w]
		dr := dst.Pix[dst.PixOffset(b.Min.X, y):][:w]
		for x, v := range sr {
			if v > cutoff {
				dr[x] = maxValue
			}
		}
	}

	return dst, nil
}

// BinaryStep applies Binary with fixed parameters.
type BinaryStep struct {
	cutoff   uint8
	maxValue uint8
}

func NewBinaryStep(cutoff, maxValue uint8) *BinaryStep {
	return &BinaryStep{cutoff: cutoff, maxValue: maxValue}
}

func (t *BinaryStep) Name() string {
	return "threshold"
}

func (t *BinaryStep) Apply(ctx context.Context, input *image.Gray) (*image.Gray, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	return Binary(input, t.cutoff, t.maxValue)
}
