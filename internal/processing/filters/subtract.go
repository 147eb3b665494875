package filters

import (
	"context"
	"image"

	"zebrafish-isolator/internal/models"
)

// Subtract computes dst = max(a - b, 0) pixel by pixel. a and b must have the
// same width and height; the result takes a's bounds.
func Subtract(a, b *image.Gray) (*image.Gray, error) {
	if err := models.ValidateSameShape(a, b, "subtract"); err != nil {
		return nil, err
	}

	ab, bb := a.Bounds(), b.Bounds()
	dst := image.NewGray(ab)
	w, h := ab.Dx(), ab.Dy()

	for y := 0; y < h; y++ {
		ar := a.Pix[a.PixOffset(ab.Min.X, ab.Min.Y+y):][:w]
		br := b.Pix[b.PixOffset(bb.Min.X, bb.Min.Y+y):][:w]
		dr := dst.Pix[dst.PixOffset(ab.Min.X, ab.Min.Y+y):][:w]
		for x := range dr {
			if ar[x] > br[x] {
				dr[x] = ar[x] - br[x]
			}
		}
	}

	return dst, nil
}

// SubtractStep subtracts each input frame from a fixed background.
type SubtractStep struct {
	background *image.Gray
}

func NewSubtractStep(background *image.Gray) *SubtractStep {
	return &SubtractStep{background: background}
}

func (s *SubtractStep) Name() string {
	return "foreground"
}

func (s *SubtractStep) Apply(ctx context.Context, input *image.Gray) (*image.Gray, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	return Subtract(s.background, input)
}
