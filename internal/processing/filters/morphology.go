package filters

import (
	"context"
	"fmt"
	"image"

	"zebrafish-isolator/internal/models"

	"github.com/disintegration/gift"
	"golang.org/x/image/draw"
)

// Kernel is a rectangular all-ones structuring element anchored at its centre.
type Kernel struct {
	Size int
}

func NewRectKernel(size int) (Kernel, error) {
	if size < 1 || size%2 == 0 {
		return Kernel{}, fmt.Errorf("kernel size must be a positive odd number, got %d", size)
	}
	return Kernel{Size: size}, nil
}

func (k Kernel) Radius() int {
	return k.Size / 2
}

func (k Kernel) Anchor() image.Point {
	return image.Pt(k.Radius(), k.Radius())
}

// Erode runs one pass of grayscale erosion: every output pixel is the minimum
// of the kernel neighbourhood. On a {0, 255} mask a pixel stays 255 only when
// its whole neighbourhood is 255.
func Erode(src *image.Gray, kernel Kernel, border models.BorderPolicy) (*image.Gray, error) {
	if err := models.ValidateGray(src, "erode"); err != nil {
		return nil, err
	}
	if kernel.Size < 1 || kernel.Size%2 == 0 {
		return nil, fmt.Errorf("erode: invalid kernel size %d", kernel.Size)
	}
	if border == "" {
		border = models.BorderZero
	}

	switch border {
	case models.BorderReplicate:
		return minimum(src, kernel), nil
	case models.BorderZero:
		r := kernel.Radius()
		eroded := minimum(padZero(src, r), kernel)
		dst := image.NewGray(src.Bounds())
		draw.Draw(dst, dst.Bounds(), eroded, image.Pt(r, r), draw.Src)
		return dst, nil
	case models.BorderIgnore:
		return erodeInBounds(src, kernel), nil
	default:
		return nil, fmt.Errorf("erode: unknown border policy %q", border)
	}
}

// minimum applies gift's rank filter, which replicates edge pixels. The
// result has the same bounds as src.
func minimum(src *image.Gray, kernel Kernel) *image.Gray {
	g := gift.New(gift.Minimum(kernel.Size, false))
	dst := image.NewGray(g.Bounds(src.Bounds()))
	g.Draw(dst, src)
	dst.Rect = src.Bounds()
	return dst
}

// padZero surrounds src with r rows and columns of zeros, origin at (0,0).
func padZero(src *image.Gray, r int) *image.Gray {
	b := src.Bounds()
	padded := image.NewGray(image.Rect(0, 0, b.Dx()+2*r, b.Dy()+2*r))
	draw.Draw(padded, image.Rect(r, r, r+b.Dx(), r+b.Dy()), src, b.Min, draw.Src)
	return padded
}

// erodeInBounds takes the minimum over the part of the neighbourhood that
// lies inside the image, so pixels beyond the edge never count.
func erodeInBounds(src *image.Gray, kernel Kernel) *image.Gray {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	r := kernel.Radius()
	dst := image.NewGray(b)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			m := uint8(255)
		neighbourhood:
			for sy := max(y-r, 0); sy <= min(y+r, h-1); sy++ {
				for sx := max(x-r, 0); sx <= min(x+r, w-1); sx++ {
					if v := src.Pix[src.PixOffset(b.Min.X+sx, b.Min.Y+sy)]; v < m {
						m = v
						if m == 0 {
							break neighbourhood
						}
					}
				}
			}
			dst.Pix[dst.PixOffset(b.Min.X+x, b.Min.Y+y)] = m
		}
	}

	return dst
}

type ErodeStep struct {
	kernel Kernel
	border models.BorderPolicy
}

func NewErodeStep(kernel Kernel, border models.BorderPolicy) *ErodeStep {
	return &ErodeStep{kernel: kernel, border: border}
}

func (e *ErodeStep) Name() string {
	return "erosion"
}

func (e *ErodeStep) Apply(ctx context.Context, input *image.Gray) (*image.Gray, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	return Erode(input, e.kernel, e.border)
}
