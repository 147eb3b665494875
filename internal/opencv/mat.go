// Package opencv runs the subtract, threshold and erode stages through gocv
// and shows stages in native OpenCV windows.
package opencv

import (
	"fmt"
	"image"

	"zebrafish-isolator/internal/models"

	"gocv.io/x/gocv"
)

// GrayToMat copies img into a new CV_8UC1 Mat. The caller owns the Mat.
func GrayToMat(img *image.Gray) (gocv.Mat, error) {
	if err := models.ValidateGray(img, "gray to Mat conversion"); err != nil {
		return gocv.NewMat(), err
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	data := make([]byte, w*h)
	for y := 0; y < h; y++ {
		copy(data[y*w:(y+1)*w], img.Pix[img.PixOffset(b.Min.X, b.Min.Y+y):])
	}

	mat, err := gocv.NewMatFromBytes(h, w, gocv.MatTypeCV8UC1, data)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("Mat creation failed: %w", err)
	}
	return mat, nil
}

// MatToGray copies a single channel 8-bit Mat into a new image anchored at
// the origin.
func MatToGray(mat gocv.Mat) (*image.Gray, error) {
	if mat.Empty() {
		return nil, fmt.Errorf("Mat is empty")
	}
	if mat.Type() != gocv.MatTypeCV8UC1 {
		return nil, fmt.Errorf("unsupported MatType %d, want CV_8UC1", int(mat.Type()))
	}

	src := mat
	if !mat.IsContinuous() {
		src = mat.Clone()
		defer src.Close()
	}

	rows, cols := src.Rows(), src.Cols()
	img := image.NewGray(image.Rect(0, 0, cols, rows))
	data := src.ToBytes()
	if len(data) < rows*cols {
		return nil, fmt.Errorf("Mat data too short: %d bytes for %dx%d", len(data), cols, rows)
	}
	copy(img.Pix, data[:rows*cols])
	return img, nil
}
