package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"zebrafish-isolator/internal/config"
	"zebrafish-isolator/internal/gui"
	"zebrafish-isolator/internal/logger"
	"zebrafish-isolator/internal/opencv"
	"zebrafish-isolator/internal/pipeline"
	"zebrafish-isolator/internal/processing"
	"zebrafish-isolator/internal/timing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"github.com/spf13/pflag"
)

const (
	AppName    = "zebrafish-isolator"
	AppID      = "org.zebrafish.isolator"
	AppVersion = "1.0.0"
)

// Application bundles what a single run needs
type Application struct {
	config      *config.Config
	logger      logger.Logger
	coordinator *pipeline.Coordinator
	viewer      pipeline.Viewer
	fyneApp     fyne.App
}

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load(filepath.Base(os.Args[0]), os.Args[1:], os.Stderr)
	if errors.Is(err, pflag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", AppName, err)
		return 2
	}

	fmt.Printf("Images Path: %s\n", cfg.Directory)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	application, err := NewApplication(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: initialization failed: %v\n", AppName, err)
		return 1
	}

	setupGracefulShutdown(application, cancel)

	if err := application.Run(ctx); err != nil {
		application.logger.Error("Application", err, map[string]interface{}{
			"directory": cfg.Directory,
		})
		return 1
	}
	return 0
}

func NewApplication(cfg *config.Config) (*Application, error) {
	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	appLogger := logger.NewConsoleLogger(level)

	appLogger.Info("Application", "starting", map[string]interface{}{
		"version":     AppVersion,
		"go_version":  runtime.Version(),
		"config_file": cfg.ConfigFile,
		"backend":     cfg.Backend,
		"display":     cfg.Display,
	})

	var backend pipeline.Backend
	switch cfg.Backend {
	case config.BackendOpenCV:
		backend = opencv.NewBackend()
	default:
		backend = processing.NewNativeBackend()
	}

	application := &Application{
		config: cfg,
		logger: appLogger,
	}

	switch cfg.Display {
	case config.DisplayOpenCV:
		application.viewer = opencv.NewWindowViewer(appLogger)
	case config.DisplayFyne:
		application.fyneApp = app.NewWithID(AppID)
		application.viewer = gui.NewFyneViewer(application.fyneApp, appLogger)
	}

	application.coordinator = pipeline.NewCoordinator(
		pipeline.NewImageLoader(appLogger),
		backend,
		application.viewer,
		appLogger,
		timing.NewTracker(),
	)

	return application, nil
}

// Run processes the configured directory once. With the fyne display the
// pipeline runs on a goroutine because the Fyne event loop owns the main one.
func (a *Application) Run(ctx context.Context) error {
	if a.fyneApp == nil {
		err := a.process(ctx)
		if a.viewer != nil {
			a.viewer.Close()
		}
		return err
	}

	fv := a.viewer.(*gui.FyneViewer)
	fv.Window().Show()

	done := make(chan error, 1)
	go func() {
		done <- a.process(ctx)
		fv.Close()
		fyne.Do(a.fyneApp.Quit)
	}()

	a.fyneApp.Run()

	// if the user closed the window the pipeline ends with ErrWindowClosed
	return <-done
}

func (a *Application) process(ctx context.Context) error {
	params, err := a.config.Parameters()
	if err != nil {
		return err
	}

	result, err := a.coordinator.Run(ctx, pipeline.Job{
		Directory:      a.config.Directory,
		BackgroundFile: a.config.BackgroundFile,
		FrameFile:      a.config.FrameFile,
		Parameters:     params,
	})
	if err != nil {
		return err
	}

	if result.Location.Found {
		fmt.Printf("Tracked point: x=%d y=%d (%d foreground pixels)\n",
			result.Location.Point.X, result.Location.Point.Y, result.Location.Count)
	} else {
		fmt.Println("Tracked point: none")
	}
	return nil
}

func setupGracefulShutdown(application *Application, cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		application.logger.Info("Application", "system signal received", map[string]interface{}{
			"signal": sig.String(),
		})
		cancel()
		if application.fyneApp != nil {
			fyne.Do(application.fyneApp.Quit)
		}
	}()
}
