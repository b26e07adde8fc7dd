package main

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/soocke/cursorcast-go/app"
	"github.com/soocke/cursorcast-go/config"
	"github.com/soocke/cursorcast-go/domain/capture"
)

var version = "dev"

func main() {
	if err := newCLI().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newCLI() *cli.App {
	return &cli.App{
		Name:    "cursorcast",
		Usage:   "stream a pointer-centred desktop region as RGB565 frames",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Value: "config.json", Usage: "config file (.json, .yaml or .yml)"},
			&cli.BoolFlag{Name: "debug", Usage: "enable debug logging and runtime stats"},
		},
		DefaultCommand: "run",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "capture continuously until interrupted",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "preview-addr", Usage: "serve /frames and /snapshot.png on this address"},
					&cli.IntFlag{Name: "fps", Usage: "target frame rate (overrides frame_interval_ms)"},
				},
				Action: runCommand,
			},
			{
				Name:  "snapshot",
				Usage: "capture a single frame to an image file",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Value: "snapshot.png", Usage: "output path (.png or .bmp)"},
				},
				Action: snapshotCommand,
			},
		},
	}
}

// loadConfig reads the config file and applies command-line overrides.
func loadConfig(c *cli.Context) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, nil, err
	}
	if c.IsSet("debug") {
		cfg.Debug = c.Bool("debug")
	}
	if c.IsSet("preview-addr") {
		cfg.PreviewAddr = c.String("preview-addr")
	}
	if c.IsSet("fps") {
		cfg.SetFPS(c.Int("fps"))
	}
	level, _ := config.ParseLevel(cfg.LogLevel)
	if cfg.Debug {
		level = slog.LevelDebug
	}
	return cfg, NewLogger(level), nil
}

func runCommand(c *cli.Context) error {
	cfg, logger, err := loadConfig(c)
	if err != nil {
		return err
	}
	container, err := app.BuildContainer(cfg, logger, capture.NewBackend)
	if err != nil {
		return err
	}
	defer container.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return app.NewApp(container).Run(ctx)
}

func snapshotCommand(c *cli.Context) error {
	cfg, logger, err := loadConfig(c)
	if err != nil {
		return err
	}
	backend, err := capture.NewBackend()
	if err != nil {
		return err
	}
	if closer, ok := backend.(interface{ Close() error }); ok {
		defer closer.Close()
	}
	out := c.String("out")
	if err := app.Snapshot(backend, image.Pt(cfg.CanvasWidth, cfg.CanvasHeight), out, logger); err != nil {
		return err
	}
	logger.Info("snapshot written", "path", out)
	return nil
}
