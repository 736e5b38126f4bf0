// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Command xrlayers runs a composition layer scene against the in-process
// compositor, either headless for a number of frames or in a terminal
// monitor.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/urfave/cli"

	"github.com/gogpu/xrlayer"
	"github.com/gogpu/xrlayer/compositor"
	"github.com/gogpu/xrlayer/monitor"
	"github.com/gogpu/xrlayer/scenefile"
)

var sessionFlags = []cli.Flag{
	cli.StringFlag{
		Name:  "scene",
		Usage: "Path to the scene file",
	},
	cli.StringFlag{
		Name:  "config",
		Usage: "Path to a compositor config file (defaults are used when empty)",
	},
	cli.IntFlag{
		Name:  "max-layers",
		Usage: "Maximum active layers per type and frame (0 = unlimited)",
	},
	cli.Float64Flag{
		Name:  "yaw",
		Usage: "Head rotation per frame in degrees",
	},
	cli.StringFlag{
		Name:  "log-level",
		Usage: "Log level: debug, info, warn or error",
		Value: "info",
	},
}

func main() {
	app := cli.NewApp()
	app.Name = "xrlayers"
	app.Usage = "compose XR layer scenes"
	app.Version = "0.1.0"
	app.Commands = []cli.Command{
		{
			Name:      "run",
			Usage:     "Run a scene headless and log every frame",
			ArgsUsage: "[scene file]",
			Flags: append([]cli.Flag{
				cli.IntFlag{
					Name:  "frames",
					Usage: "Number of frames to run",
					Value: 3,
				},
			}, sessionFlags...),
			Action: runScene,
		},
		{
			Name:      "monitor",
			Usage:     "Show the composed frames in the terminal",
			ArgsUsage: "[scene file]",
			Flags: append([]cli.Flag{
				cli.BoolFlag{
					Name:  "watch",
					Usage: "Reload the scene when the file changes",
				},
				cli.DurationFlag{
					Name:  "interval",
					Usage: "Time between frames",
					Value: 100 * time.Millisecond,
				},
			}, sessionFlags...),
			Action: monitorScene,
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("xrlayers failed", "error", err)
		os.Exit(1)
	}
}

// setupLogging routes xrlayer logs to stderr at the given level.
func setupLogging(level string) error {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("bad log level %q: %w", level, err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
	slog.SetDefault(logger)
	xrlayer.SetLogger(logger)
	return nil
}

func scenePath(c *cli.Context) (string, error) {
	path := c.String("scene")
	if path == "" && c.NArg() > 0 {
		path = c.Args().Get(0)
	}
	if path == "" {
		return "", errors.New("no scene file provided")
	}
	return path, nil
}

// openSession loads the config and scene named by the flags.
func openSession(c *cli.Context) (*session, string, error) {
	path, err := scenePath(c)
	if err != nil {
		return nil, "", err
	}
	cfg := compositor.DefaultConfig()
	if p := c.String("config"); p != "" {
		if cfg, err = compositor.LoadConfig(p); err != nil {
			return nil, "", err
		}
	}
	scene, err := scenefile.Load(path)
	if err != nil {
		return nil, "", err
	}
	s, err := newSession(cfg, scene, c.Int("max-layers"))
	if err != nil {
		return nil, "", err
	}
	s.yaw = float32(c.Float64("yaw"))
	return s, path, nil
}

func runScene(c *cli.Context) error {
	if err := setupLogging(c.String("log-level")); err != nil {
		return err
	}
	frames := c.Int("frames")
	if frames <= 0 {
		return errors.New("--frames must be positive")
	}
	s, path, err := openSession(c)
	if err != nil {
		return err
	}
	defer s.close()

	slog.Info("xrlayers: running", "scene", path, "frames", frames)
	for range frames {
		f, err := s.step()
		if err != nil {
			return err
		}
		logFrame(f)
	}
	return nil
}

func logFrame(f compositor.Frame) {
	slog.Info("xrlayers: frame", "index", f.Index, "layers", len(f.Layers), "ids", f.IDs())
	for _, l := range f.Layers {
		slog.Debug("xrlayers: layer",
			"frame", f.Index,
			"id", l.ID,
			"order", l.Order,
			"type", l.Type,
			"swapchains", l.Swapchains,
			"width", l.Extent.Width,
			"height", l.Extent.Height)
	}
}

func monitorScene(c *cli.Context) error {
	// The terminal belongs to the monitor; only errors reach stderr.
	if err := setupLogging("error"); err != nil {
		return err
	}
	s, path, err := openSession(c)
	if err != nil {
		return err
	}
	defer s.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if c.Bool("watch") {
		go func() {
			if err := scenefile.Watch(ctx, path, s.reload); err != nil && !errors.Is(err, context.Canceled) {
				s.reload(nil, err)
			}
		}()
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()

	m := monitor.New(screen)
	next := func() (compositor.Frame, string) {
		f, err := s.step()
		return f, s.status(err)
	}
	err = m.Run(ctx, next, c.Duration("interval"))
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
