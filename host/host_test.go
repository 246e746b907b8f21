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

package host

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/gogpu/gg"

	"seehuhn.de/go/offscreen"
	"seehuhn.de/go/offscreen/controls"
)

type countingEmitter struct {
	mu     sync.Mutex
	frames []offscreen.EncodedFrame
}

func (e *countingEmitter) Emit(event string, payload any) error {
	if p, ok := payload.(offscreen.RenderedImage); ok && event == offscreen.RenderedImageEvent {
		e.mu.Lock()
		e.frames = append(e.frames, p.Data)
		e.mu.Unlock()
	}
	return nil
}

func (e *countingEmitter) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.frames)
}

func testApp(em offscreen.Emitter) App {
	queue := offscreen.NewCaptureQueue()
	panel := controls.New(queue)
	loop := offscreen.NewLoop(offscreen.LoopConfig{
		Emitter:  em,
		Queue:    queue,
		Settings: panel.Settings,
	})
	loop.Mount(func(ready func(offscreen.Handle)) *offscreen.Scene {
		s := offscreen.NewScene()
		s.Add(&offscreen.Mesh{
			Geometry: offscreen.BoxGeometry(1, 1, 1),
			Material: offscreen.Material{Color: gg.Red},
		})
		ready(offscreen.Handle{Camera: offscreen.NewPerspectiveCamera(35, 0.1, 100, mgl64.Vec3{0, 0, 5})})
		return s
	})
	return App{Loop: loop, Panel: panel}
}

func TestHeadlessCaptureAt(t *testing.T) {
	em := &countingEmitter{}
	app := testApp(em)

	cfg := HeadlessConfig{Width: 32, Height: 24, Hz: 1000, Ticks: 5, CaptureAt: 3}
	if err := RunHeadless(context.Background(), app, cfg); err != nil {
		t.Fatal(err)
	}
	if n := em.count(); n != 1 {
		t.Fatalf("got %d captures", n)
	}
	img, err := em.frames[0].Decode()
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 32 || b.Dy() != 24 {
		t.Errorf("capture size %v", b)
	}
}

func TestHeadlessTrigger(t *testing.T) {
	em := &countingEmitter{}
	app := testApp(em)
	trigger := make(chan struct{}, 1)
	trigger <- struct{}{}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	go func() {
		for em.count() == 0 && ctx.Err() == nil {
			time.Sleep(5 * time.Millisecond)
		}
		cancel()
	}()

	cfg := HeadlessConfig{Width: 8, Height: 8, Hz: 200, Trigger: trigger, Composite: true}
	if err := RunHeadless(ctx, app, cfg); err != context.Canceled {
		t.Fatalf("unexpected result %v", err)
	}
	if n := em.count(); n != 1 {
		t.Errorf("got %d captures", n)
	}
}

func TestHeadlessInvalidConfig(t *testing.T) {
	app := testApp(nil)
	if err := RunHeadless(context.Background(), app, HeadlessConfig{Width: 0, Height: 10}); err == nil {
		t.Error("empty viewport accepted")
	}
}

func TestTerminal(t *testing.T) {
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatal(err)
	}
	defer screen.Fini()
	screen.SetSize(20, 10)

	em := &countingEmitter{}
	app := testApp(em)

	done := make(chan error, 1)
	go func() {
		done <- RunTerminal(context.Background(), screen, app, TerminalConfig{Hz: 200})
	}()

	screen.InjectKey(tcell.KeyRune, 'p', tcell.ModNone)
	screen.InjectKey(tcell.KeyRune, 's', tcell.ModNone)

	deadline := time.Now().Add(5 * time.Second)
	for em.count() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("no capture from the terminal host")
		}
		time.Sleep(5 * time.Millisecond)
	}

	screen.InjectKey(tcell.KeyRune, 'q', tcell.ModNone)
	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("terminal host did not quit")
	}

	if app.Panel.Values().PostProcessing {
		t.Error("p did not toggle post-processing")
	}
	if tgt := app.Loop.Target(); tgt == nil || tgt.Width != 20 || tgt.Height != 20 {
		t.Errorf("render target %+v, want 20x20", tgt)
	}
	cells, _, _ := screen.GetContents()
	if len(cells) == 0 || len(cells[0].Runes) == 0 || cells[0].Runes[0] != upperHalf {
		t.Error("half blocks not drawn")
	}
}
