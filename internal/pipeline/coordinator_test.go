package pipeline

import (
	"context"
	"errors"
	"image"
	"path/filepath"
	"testing"

	"zebrafish-isolator/internal/logger"
	"zebrafish-isolator/internal/models"
	"zebrafish-isolator/internal/processing"
	"zebrafish-isolator/internal/timing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type shownStage struct {
	stage  string
	img    *image.Gray
	marker *image.Point
}

type recordingViewer struct {
	shown  []shownStage
	failOn string
}

func (v *recordingViewer) Show(_ context.Context, stage string, img *image.Gray, marker *image.Point) error {
	if stage == v.failOn {
		return errors.New("window closed")
	}
	v.shown = append(v.shown, shownStage{stage: stage, img: img, marker: marker})
	return nil
}

func (v *recordingViewer) Close() error { return nil }

func constGray(w, h int, v uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = v
	}
	return img
}

func writeInputs(t *testing.T, background, frame *image.Gray) string {
	t.Helper()
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "background.png"), background)
	writePNG(t, filepath.Join(dir, "fish01.png"), frame)
	return dir
}

func newJob(dir string) Job {
	return Job{
		Directory:      dir,
		BackgroundFile: "background.png",
		FrameFile:      "fish01.png",
		Parameters:     models.DefaultProcessingParameters(),
	}
}

func newCoordinator(viewer Viewer) *Coordinator {
	return NewCoordinator(NewImageLoader(logger.Nop()), processing.NewNativeBackend(), viewer, logger.Nop(), timing.NewTracker())
}

func TestCoordinatorFindsFish(t *testing.T) {
	background := constGray(20, 16, 180)
	frame := constGray(20, 16, 180)
	// a dark 5x4 fish on a bright background
	for y := 6; y < 10; y++ {
		for x := 8; x < 13; x++ {
			frame.Pix[frame.PixOffset(x, y)] = 40
		}
	}
	// sensor noise that erosion has to remove
	frame.Pix[frame.PixOffset(2, 2)] = 100

	viewer := &recordingViewer{}
	tracker := timing.NewTracker()
	c := NewCoordinator(NewImageLoader(logger.Nop()), processing.NewNativeBackend(), viewer, logger.Nop(), tracker)

	result, err := c.Run(context.Background(), newJob(writeInputs(t, background, frame)))
	require.NoError(t, err)

	require.Len(t, viewer.shown, 4)
	assert.Equal(t, StageBackground, viewer.shown[0].stage)
	assert.Equal(t, StageForeground, viewer.shown[1].stage)
	assert.Equal(t, StageThreshold, viewer.shown[2].stage)
	assert.Equal(t, StageErosion, viewer.shown[3].stage)

	assert.Equal(t, uint8(140), result.Foreground.GrayAt(10, 8).Y)
	assert.Equal(t, uint8(80), result.Foreground.GrayAt(2, 2).Y)
	assert.Equal(t, uint8(255), result.Threshold.GrayAt(2, 2).Y)
	assert.Equal(t, uint8(0), result.Erosion.GrayAt(2, 2).Y)

	require.True(t, result.Location.Found)
	assert.Equal(t, image.Pt(9, 7), result.Location.Point)
	assert.Equal(t, 6, result.Location.Count)
	require.NotNil(t, viewer.shown[3].marker)
	assert.Equal(t, image.Pt(9, 7), *viewer.shown[3].marker)

	require.Len(t, result.Stats, 4)
	assert.Equal(t, 6, result.Stats[3].NonZero)

	assert.ElementsMatch(t, []string{"load_background", "load_frame", "foreground", "threshold", "erosion"}, tracker.Operations())
}

func TestCoordinatorIdenticalFrames(t *testing.T) {
	img := constGray(8, 8, 120)
	result, err := newCoordinator(nil).Run(context.Background(), newJob(writeInputs(t, img, img)))
	require.NoError(t, err)

	for _, grid := range []*image.Gray{result.Foreground, result.Threshold, result.Erosion} {
		for _, v := range grid.Pix {
			assert.Equal(t, uint8(0), v)
		}
	}
	assert.False(t, result.Location.Found)
}

func TestCoordinatorShapeMismatch(t *testing.T) {
	viewer := &recordingViewer{}
	dir := writeInputs(t, constGray(8, 8, 0), constGray(8, 9, 0))

	_, err := newCoordinator(viewer).Run(context.Background(), newJob(dir))
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrShapeMismatch)
	assert.Len(t, viewer.shown, 1, "only the background is shown before the mismatch")
}

func TestCoordinatorMissingFrame(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "background.png"), constGray(4, 4, 0))

	_, err := newCoordinator(nil).Run(context.Background(), newJob(dir))
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestCoordinatorViewerAbort(t *testing.T) {
	viewer := &recordingViewer{failOn: StageThreshold}
	dir := writeInputs(t, constGray(6, 6, 100), constGray(6, 6, 50))

	_, err := newCoordinator(viewer).Run(context.Background(), newJob(dir))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "display threshold")
	assert.Len(t, viewer.shown, 2)
}

func TestCoordinatorInvalidParameters(t *testing.T) {
	job := newJob(t.TempDir())
	job.Parameters.KernelSize = 4

	_, err := newCoordinator(nil).Run(context.Background(), job)
	assert.Error(t, err)
}

func TestCoordinatorCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dir := writeInputs(t, constGray(4, 4, 0), constGray(4, 4, 0))
	_, err := newCoordinator(nil).Run(ctx, newJob(dir))
	assert.ErrorIs(t, err, context.Canceled)
}
