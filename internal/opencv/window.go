package opencv

import (
	"context"
	"fmt"
	"image"

	"zebrafish-isolator/internal/logger"
	"zebrafish-isolator/internal/render"

	"gocv.io/x/gocv"
)

const waitPollMillis = 50

// WindowViewer opens one OpenCV window per stage and destroys it once a key
// is pressed or the window is closed.
type WindowViewer struct {
	logger logger.Logger
}

func NewWindowViewer(log logger.Logger) *WindowViewer {
	return &WindowViewer{logger: log}
}

func (v *WindowViewer) Show(ctx context.Context, stage string, img *image.Gray, marker *image.Point) error {
	mat, err := GrayToMat(render.Annotate(img, stage, marker))
	if err != nil {
		return fmt.Errorf("failed to prepare %s for display: %w", stage, err)
	}
	defer mat.Close()

	window := gocv.NewWindow(stage)
	defer window.Close()

	window.IMShow(mat)
	v.logger.Info("WindowViewer", "press any key to continue", map[string]interface{}{
		"stage": stage,
	})

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if key := window.WaitKey(waitPollMillis); key >= 0 {
			v.logger.Debug("WindowViewer", "stage dismissed", map[string]interface{}{
				"stage": stage,
				"key":   key,
			})
			return nil
		}
		if !window.IsOpen() {
			return nil
		}
	}
}

func (v *WindowViewer) Close() error {
	return nil
}
