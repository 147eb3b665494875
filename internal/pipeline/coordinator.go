package pipeline

import (
	"context"
	"fmt"
	"image"
	"path/filepath"

	"zebrafish-isolator/internal/logger"
	"zebrafish-isolator/internal/models"
	"zebrafish-isolator/internal/processing/chain"
	"zebrafish-isolator/internal/processing/locate"
	"zebrafish-isolator/internal/timing"
)

const (
	StageBackground = "background"
	StageForeground = "foreground"
	StageThreshold  = "threshold"
	StageErosion    = "erosion"
)

// Job names the two input images and the parameters to process them with
type Job struct {
	Directory      string
	BackgroundFile string
	FrameFile      string
	Parameters     models.ProcessingParameters
}

// Coordinator runs load, subtract, threshold, erode and locate in order,
// handing every displayable stage to the viewer.
type Coordinator struct {
	loader  ImageLoader
	backend Backend
	viewer  Viewer
	logger  logger.Logger
	tracker *timing.Tracker
}

func NewCoordinator(loader ImageLoader, backend Backend, viewer Viewer, log logger.Logger, tracker *timing.Tracker) *Coordinator {
	if tracker == nil {
		tracker = timing.NewTracker()
	}
	return &Coordinator{
		loader:  loader,
		backend: backend,
		viewer:  viewer,
		logger:  log,
		tracker: tracker,
	}
}

func (c *Coordinator) Run(ctx context.Context, job Job) (*Result, error) {
	if err := job.Parameters.Validate(); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}

	c.logger.Info("Coordinator", "starting run", map[string]interface{}{
		"directory":  job.Directory,
		"background": job.BackgroundFile,
		"frame":      job.FrameFile,
		"backend":    c.backend.Name(),
		"parameters": job.Parameters.ToMap(),
	})

	result := &Result{}

	background, err := c.load(ctx, "load_background", filepath.Join(job.Directory, job.BackgroundFile))
	if err != nil {
		return nil, err
	}
	result.Background = background
	result.Stats = append(result.Stats, c.recordStats(StageBackground, background.Gray))

	if err := c.show(ctx, StageBackground, background.Gray, nil); err != nil {
		return nil, err
	}

	frame, err := c.load(ctx, "load_frame", filepath.Join(job.Directory, job.FrameFile))
	if err != nil {
		return nil, err
	}
	result.Frame = frame

	if err := models.ValidateSameShape(background.Gray, frame.Gray, "background subtraction"); err != nil {
		return nil, err
	}

	steps, err := c.backend.Steps(background.Gray, job.Parameters)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s pipeline: %w", c.backend.Name(), err)
	}

	timed := make([]chain.ProcessingStep, len(steps))
	for i, step := range steps {
		timed[i] = &timedStep{step: step, tracker: c.tracker}
	}

	_, err = chain.NewProcessingChain(timed).Execute(ctx, frame.Gray, func(ctx context.Context, stage string, output *image.Gray) error {
		result.Stats = append(result.Stats, c.recordStats(stage, output))

		var marker *image.Point
		switch stage {
		case StageForeground:
			result.Foreground = output
		case StageThreshold:
			result.Threshold = output
		case StageErosion:
			result.Erosion = output
			result.Location = locate.FindForeground(output)
			if result.Location.Found {
				p := result.Location.Point
				marker = &p
			}
		}

		return c.show(ctx, stage, output, marker)
	})
	if err != nil {
		return nil, err
	}

	c.logLocation(result.Location)
	c.logger.Info("Coordinator", "run completed", c.tracker.Summary())

	return result, nil
}

func (c *Coordinator) load(ctx context.Context, operation, path string) (*models.ImageData, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	tctx := c.tracker.StartTiming(ctx, operation)
	defer c.tracker.EndTiming(tctx)

	return c.loader.LoadFromPath(path)
}

func (c *Coordinator) show(ctx context.Context, stage string, img *image.Gray, marker *image.Point) error {
	if c.viewer == nil {
		return nil
	}
	if err := c.viewer.Show(ctx, stage, img, marker); err != nil {
		return fmt.Errorf("display %s: %w", stage, err)
	}
	return nil
}

func (c *Coordinator) recordStats(stage string, img *image.Gray) StageStats {
	stats := CalculateStageStats(stage, img)
	c.logger.Debug("Coordinator", "stage complete", stats.ToMap())
	return stats
}

func (c *Coordinator) logLocation(loc locate.Location) {
	if !loc.Found {
		c.logger.Warning("Coordinator", "no foreground left after erosion", nil)
		return
	}

	c.logger.Info("Coordinator", "foreground located", map[string]interface{}{
		"x":          loc.Point.X,
		"y":          loc.Point.Y,
		"pixels":     loc.Count,
		"centroid_x": loc.Centroid.X,
		"centroid_y": loc.Centroid.Y,
		"bounds":     loc.Bounds.String(),
	})
}

type timedStep struct {
	step    chain.ProcessingStep
	tracker *timing.Tracker
}

func (t *timedStep) Name() string {
	return t.step.Name()
}

func (t *timedStep) Apply(ctx context.Context, input *image.Gray) (*image.Gray, error) {
	tctx := t.tracker.StartTiming(ctx, t.step.Name())
	defer t.tracker.EndTiming(tctx)

	return t.step.Apply(ctx, input)
}
