package gui

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"zebrafish-isolator/internal/logger"
	"zebrafish-isolator/internal/render"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

const (
	ImageAreaWidth  = 640
	ImageAreaHeight = 480
)

// ErrWindowClosed is returned from Show when the user closes the window
// instead of pressing a key.
var ErrWindowClosed = errors.New("viewer window closed")

// FyneViewer shows each stage in a single window; any typed key advances.
type FyneViewer struct {
	window    fyne.Window
	image     *canvas.Image
	status    *widget.Label
	keys      chan *fyne.KeyEvent
	closed    chan struct{}
	closeOnce sync.Once
	logger    logger.Logger
}

func NewFyneViewer(app fyne.App, log logger.Logger) *FyneViewer {
	v := &FyneViewer{
		window: app.NewWindow("zebrafish-isolator"),
		keys:   make(chan *fyne.KeyEvent, 1),
		closed: make(chan struct{}),
		logger: log,
	}

	v.image = canvas.NewImageFromImage(nil)
	v.image.FillMode = canvas.ImageFillContain
	v.image.ScaleMode = canvas.ImageScalePixels
	v.image.SetMinSize(fyne.NewSize(ImageAreaWidth, ImageAreaHeight))

	v.status = widget.NewLabel("Loading...")

	v.window.SetContent(container.NewBorder(v.status, nil, nil, nil, v.image))
	v.window.Resize(fyne.NewSize(ImageAreaWidth, ImageAreaHeight+40))
	v.window.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
		select {
		case v.keys <- ev:
		default:
		}
	})
	v.window.SetOnClosed(func() {
		v.closeOnce.Do(func() { close(v.closed) })
	})

	return v
}

func (v *FyneViewer) Window() fyne.Window {
	return v.window
}

func (v *FyneViewer) Show(ctx context.Context, stage string, img *image.Gray, marker *image.Point) error {
	annotated := render.Annotate(img, stage, marker)

	select {
	case <-v.closed:
		return ErrWindowClosed
	default:
	}

	// drop keys typed before this stage appeared
	select {
	case <-v.keys:
	default:
	}

	fyne.Do(func() {
		v.image.Image = annotated
		v.image.Refresh()
		v.status.SetText(fmt.Sprintf("%s (%dx%d): press any key to continue", stage,
			annotated.Bounds().Dx(), annotated.Bounds().Dy()))
		v.window.SetTitle(stage)
		v.window.Show()
	})

	select {
	case ev := <-v.keys:
		v.logger.Debug("FyneViewer", "stage dismissed", map[string]interface{}{
			"stage": stage,
			"key":   string(ev.Name),
		})
		return nil
	case <-v.closed:
		return ErrWindowClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (v *FyneViewer) Close() error {
	select {
	case <-v.closed:
		return nil
	default:
	}

	fyne.Do(func() {
		v.window.Close()
	})
	return nil
}
