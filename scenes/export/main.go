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

// Command export renders every scene once and writes the captured frames
// as PNG files, for use as reference images.
package main

import (
	"errors"
	"flag"
	"fmt"
	"image/png"
	"os"
	"path/filepath"

	"seehuhn.de/go/offscreen"
	"seehuhn.de/go/offscreen/scenes"
)

// frameWriter receives the captured frame of a single scene.
type frameWriter struct {
	path string
}

func (w *frameWriter) Emit(event string, payload any) error {
	img, ok := payload.(offscreen.RenderedImage)
	if !ok || event != offscreen.RenderedImageEvent {
		return fmt.Errorf("unexpected event %q", event)
	}
	decoded, err := img.Data.Decode()
	if err != nil {
		return err
	}

	f, err := os.Create(w.path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, decoded); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func main() {
	outDir := flag.String("out", "testdata/scenes", "output directory")
	width := flag.Int("width", 640, "frame width")
	height := flag.Int("height", 480, "frame height")
	keepRows := flag.Bool("keep-row-order", false, "write rows in render target order")
	flag.Parse()

	if err := os.MkdirAll(*outDir, 0755); err != nil {
		panic(err)
	}

	names := scenes.Names()
	if flag.NArg() > 0 {
		names = flag.Args()
	}
	for _, name := range names {
		mount, err := scenes.Lookup(name)
		if err != nil {
			panic(err)
		}
		path := filepath.Join(*outDir, name+".png")
		if err := export(mount, path, *width, *height, *keepRows); err != nil {
			panic(fmt.Errorf("%s: %w", name, err))
		}
		fmt.Println(path)
	}
}

func export(mount offscreen.MountFunc, path string, width, height int, keepRows bool) error {
	// remove stale output so that a failed capture is noticed
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	queue := offscreen.NewCaptureQueue()
	loop := offscreen.NewLoop(offscreen.LoopConfig{
		Emitter: &frameWriter{path: path},
		Queue:   queue,
		Capture: offscreen.CaptureOptions{KeepRowOrder: keepRows},
	})
	defer loop.Close()
	loop.Mount(mount)

	queue.Request(offscreen.CaptureRequest{Source: "export"})
	if err := loop.Tick(width, height, nil); err != nil {
		return err
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("no frame captured: %w", err)
	}
	return nil
}
