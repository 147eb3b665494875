package opencv

import (
	"context"
	"fmt"
	"image"
	"image/color"

	"zebrafish-isolator/internal/models"
	"zebrafish-isolator/internal/processing/chain"

	"gocv.io/x/gocv"
)

// Backend builds gocv-backed steps with the same semantics as the native
// ones, border policy included.
type Backend struct{}

func NewBackend() *Backend {
	return &Backend{}
}

func (b *Backend) Name() string {
	return "opencv"
}

func (b *Backend) Steps(background *image.Gray, params models.ProcessingParameters) ([]chain.ProcessingStep, error) {
	if err := models.ValidateGray(background, "background"); err != nil {
		return nil, err
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	return []chain.ProcessingStep{
		&subtractStep{background: background},
		&thresholdStep{cutoff: params.Threshold, maxValue: params.MaxValue},
		&erodeStep{size: params.KernelSize, border: params.Border},
	}, nil
}

// matFunc runs op on a Mat copy of input and converts the result back
func matFunc(ctx context.Context, input *image.Gray, op func(src gocv.Mat, dst *gocv.Mat) error) (*image.Gray, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	src, err := GrayToMat(input)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	dst := gocv.NewMat()
	defer dst.Close()

	if err := op(src, &dst); err != nil {
		return nil, err
	}
	return MatToGray(dst)
}

type subtractStep struct {
	background *image.Gray
}

func (s *subtractStep) Name() string {
	return "foreground"
}

func (s *subtractStep) Apply(ctx context.Context, input *image.Gray) (*image.Gray, error) {
	if err := models.ValidateSameShape(s.background, input, "subtract"); err != nil {
		return nil, err
	}

	return matFunc(ctx, input, func(frame gocv.Mat, dst *gocv.Mat) error {
		bg, err := GrayToMat(s.background)
		if err != nil {
			return err
		}
		defer bg.Close()

		// cv::subtract saturates for 8-bit Mats
		gocv.Subtract(bg, frame, dst)
		return nil
	})
}

type thresholdStep struct {
	cutoff   uint8
	maxValue uint8
}

func (t *thresholdStep) Name() string {
	return "threshold"
}

func (t *thresholdStep) Apply(ctx context.Context, input *image.Gray) (*image.Gray, error) {
	return matFunc(ctx, input, func(src gocv.Mat, dst *gocv.Mat) error {
		gocv.Threshold(src, dst, float32(t.cutoff), float32(t.maxValue), gocv.ThresholdBinary)
		return nil
	})
}

type erodeStep struct {
	size   int
	border models.BorderPolicy
}

func (e *erodeStep) Name() string {
	return "erosion"
}

func (e *erodeStep) Apply(ctx context.Context, input *image.Gray) (*image.Gray, error) {
	return matFunc(ctx, input, func(src gocv.Mat, dst *gocv.Mat) error {
		kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(e.size, e.size))
		defer kernel.Close()

		var borderType gocv.BorderType
		switch e.border {
		case models.BorderIgnore:
			// erode's default border value never wins the minimum
			gocv.Erode(src, dst, kernel)
			return nil
		case models.BorderZero, "":
			borderType = gocv.BorderConstant
		case models.BorderReplicate:
			borderType = gocv.BorderReplicate
		default:
			return fmt.Errorf("erode: unknown border policy %q", e.border)
		}

		r := e.size / 2
		padded := gocv.NewMat()
		defer padded.Close()
		gocv.CopyMakeBorder(src, &padded, r, r, r, r, borderType, color.RGBA{})

		eroded := gocv.NewMat()
		defer eroded.Close()
		gocv.Erode(padded, &eroded, kernel)

		region := eroded.Region(image.Rect(r, r, r+src.Cols(), r+src.Rows()))
		defer region.Close()
		region.CopyTo(dst)
		return nil
	})
}
