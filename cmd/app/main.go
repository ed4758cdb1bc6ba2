// Image Tree - live tree of image transforms
// Author: Ervins Strauhmanis
// License: MIT
// Version: 3.0.0 - Reactive node tree

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/theme"
	"github.com/sirupsen/logrus"

	"image-tree/internal/config"
	"image-tree/internal/gui"
	"image-tree/internal/io"
	"image-tree/internal/kernels"
	"image-tree/internal/metrics"
	"image-tree/internal/pipeline"
)

const (
	AppName    = "Image Tree"
	AppID      = "com.strauhmanis.image-tree"
	AppVersion = "3.0.0"
)

func main() {
	configPath := flag.String("config", "", "TOML tree definition (default: built-in strawberry tree)")
	imagePath := flag.String("image", "", fmt.Sprintf("Source image (%s), overrides the config's source", strings.Join(io.SupportedFormats(), ", ")))
	debugMode := flag.Bool("debug", false, "Enable debug mode with verbose logging")
	watch := flag.Bool("watch", false, "Reload the source image when the file changes")
	poll := flag.Duration("poll", 0, "Node poll interval, overrides the config")
	refresh := flag.Duration("refresh", 0, "Display refresh interval, overrides the config")
	stats := flag.Duration("stats", 0, "Log a tree summary at this interval (0 disables)")
	saveDir := flag.String("save-dir", ".", "Directory for saved node outputs")
	list := flag.Bool("list-kernels", false, "List available kernels and exit")
	flag.Parse()

	if *list {
		if err := listKernels(os.Stdout); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	logger := initLogger(*debugMode)
	logger.WithFields(logrus.Fields{
		"version":    AppVersion,
		"debug_mode": *debugMode,
	}).Info("Starting Image Tree")

	cfg, err := loadConfig(*configPath, *imagePath)
	if err != nil {
		logger.WithError(err).Fatal("Invalid configuration")
	}
	if *poll > 0 {
		cfg.PollInterval = *poll
	}
	if *refresh > 0 {
		cfg.RefreshInterval = *refresh
	}

	loader := io.NewImageLoader(logger)
	load := loader.LoadImage
	if cfg.Grayscale {
		load = loader.LoadImageGrayscale
	}
	source, err := load(cfg.Source)
	if err != nil {
		logger.WithError(err).Fatal("Cannot load source image")
	}

	tree, err := pipeline.Build(cfg, source, logger)
	if err != nil {
		logger.WithError(err).Fatal("Cannot build processing tree")
	}
	defer tree.Close()
	logger.WithField("poll_interval", tree.PollInterval()).Info("Worker loops running")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *watch {
		w := io.NewSourceWatcher(cfg.Source, load, tree.Root().ReplaceSource, logger).
			WithRelease(kernels.MatOps.Release)
		go func() {
			if err := w.Run(ctx); err != nil {
				logger.WithError(err).Error("Source watcher stopped")
			}
		}()
	}
	if *stats > 0 {
		go metrics.NewReporter(tree, *stats, logger).Run(ctx)
	}

	myApp := app.NewWithID(AppID)
	myApp.SetIcon(theme.DocumentIcon())
	myApp.Settings().SetTheme(theme.DefaultTheme())

	viewer, err := gui.NewApplication(myApp, tree, gui.Options{
		Title:   AppName,
		Refresh: cfg.RefreshInterval,
		SaveDir: *saveDir,
	}, logger)
	if err != nil {
		logger.WithError(err).Fatal("Cannot create window")
	}
	viewer.ShowAndRun()

	logger.Info("Application shutting down gracefully")
}

func loadConfig(path, image string) (config.Config, error) {
	if path == "" {
		if image == "" {
			image = "strawberry.jpg"
		}
		return config.Default(image), nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	if image != "" {
		cfg.Source = image
	}
	return cfg, nil
}

// initLogger picks colored text output for debugging and JSON otherwise.
func initLogger(debugMode bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	if debugMode {
		logger.SetLevel(logrus.DebugLevel)
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   true,
		})
		logger.Debug("Debug logging enabled")
	} else {
		logger.SetLevel(logrus.InfoLevel)
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	return logger
}
