// seehuhn.de/go/offscreen - render, composite and capture offscreen frames
// Copyright (C) 2026  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Command playground renders a scene offscreen, shows it through the
// composite pass and sends captured frames to a Socket.IO server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"

	"seehuhn.de/go/offscreen"
	"seehuhn.de/go/offscreen/controls"
	"seehuhn.de/go/offscreen/host"
	"seehuhn.de/go/offscreen/host/window"
	"seehuhn.de/go/offscreen/scenes"
	"seehuhn.de/go/offscreen/transport"
)

type config struct {
	mode         string
	endpoint     string
	controls     string
	scene        string
	width        int
	height       int
	hz           int
	ticks        uint64
	captureAt    uint64
	keepRowOrder bool
	debug        bool
}

func main() {
	var cfg config
	flag.StringVar(&cfg.mode, "mode", "window", "Host: window, terminal or headless.")
	flag.StringVar(&cfg.endpoint, "endpoint", "http://localhost:5000", "Socket.IO server receiving captured frames.")
	flag.StringVar(&cfg.controls, "controls", "", "JSON file with control values, reloaded on change.")
	flag.StringVar(&cfg.scene, "scene", "playground", "Scene to render.")
	flag.IntVar(&cfg.width, "width", 800, "Viewport width in window and headless mode.")
	flag.IntVar(&cfg.height, "height", 600, "Viewport height in window and headless mode.")
	flag.IntVar(&cfg.hz, "hz", 60, "Tick rate.")
	flag.Uint64Var(&cfg.ticks, "ticks", 0, "Stop after N ticks in headless mode (0 = run forever).")
	flag.Uint64Var(&cfg.captureAt, "capture-at", 0, "Capture on tick N in headless mode (0 = never).")
	flag.BoolVar(&cfg.keepRowOrder, "keep-row-order", false, "Send frames in render target row order (bottom row first).")
	flag.BoolVar(&cfg.debug, "debug", false, "Enable debug logging.")
	flag.Parse()

	if err := run(cfg); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cfg config) error {
	level := slog.LevelInfo
	if cfg.debug {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	offscreen.SetLogger(log)

	mount, err := scenes.Lookup(cfg.scene)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var emitter offscreen.Emitter = transport.Discard
	dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	client, err := transport.Dial(dialCtx, cfg.endpoint, transport.WithLogger(log))
	cancel()
	if err != nil {
		log.Warn("not connected, captured frames are discarded", "endpoint", cfg.endpoint, "error", err)
	} else {
		defer client.Close()
		emitter = client
	}

	queue := offscreen.NewCaptureQueue()
	panel := controls.New(queue)
	if cfg.controls != "" {
		if _, err := panel.Reload(cfg.controls); err != nil {
			return err
		}
		go func() {
			if err := panel.Watch(ctx, cfg.controls, log); err != nil {
				log.Warn("controls not watched", "path", cfg.controls, "error", err)
			}
		}()
	}

	loop := offscreen.NewLoop(offscreen.LoopConfig{
		Emitter:  emitter,
		Queue:    queue,
		Capture:  offscreen.CaptureOptions{KeepRowOrder: cfg.keepRowOrder},
		Settings: panel.Settings,
	})
	defer loop.Close()
	loop.Mount(mount)
	app := host.App{Loop: loop, Panel: panel}

	switch cfg.mode {
	case "window":
		return window.Run(app, window.Config{Width: cfg.width, Height: cfg.height, TPS: cfg.hz})

	case "terminal":
		screen, err := tcell.NewScreen()
		if err != nil {
			return err
		}
		if err := screen.Init(); err != nil {
			return err
		}
		defer screen.Fini()
		return host.RunTerminal(ctx, screen, app, host.TerminalConfig{Hz: cfg.hz})

	case "headless":
		trigger := make(chan struct{}, 1)
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGUSR1)
		defer signal.Stop(sig)
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case <-sig:
					select {
					case trigger <- struct{}{}:
					default:
					}
				}
			}
		}()
		return host.RunHeadless(ctx, app, host.HeadlessConfig{
			Width:     cfg.width,
			Height:    cfg.height,
			Hz:        cfg.hz,
			Ticks:     cfg.ticks,
			CaptureAt: cfg.captureAt,
			Trigger:   trigger,
		})

	default:
		return fmt.Errorf("unknown mode %q", cfg.mode)
	}
}
