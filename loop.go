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

package offscreen

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gogpu/gg"
)

// RenderedImageEvent is the event name under which captures are sent.
const RenderedImageEvent = "rendered_image"

// RenderedImage is the payload of a RenderedImageEvent.
type RenderedImage struct {
	Data EncodedFrame `json:"data"`
}

// Emitter sends named events to a listener. Emit must not block on the
// network; delivery is best effort.
type Emitter interface {
	Emit(event string, payload any) error
}

// Settings are the user-editable parameters read by the loop on every
// tick.
type Settings struct {
	PostProcessing bool
	Background     gg.RGBA
}

// DefaultSettings returns post-processing on and a black background.
func DefaultSettings() Settings {
	return Settings{PostProcessing: true, Background: gg.Black}
}

// LoopConfig collects the collaborators of a Loop.
type LoopConfig struct {
	// Scene is rendered into the offscreen target every tick.
	Scene *Scene

	// Emitter receives captured frames. Nil discards them.
	Emitter Emitter

	// Queue holds pending capture requests. If nil, a new queue is
	// created.
	Queue *CaptureQueue

	// Capture is passed to Capture for every request.
	Capture CaptureOptions

	// Settings is called once per tick. If nil, DefaultSettings is used.
	Settings func() Settings

	// Now replaces time.Now, for tests.
	Now func() time.Time
}

// Loop runs the per-frame pipeline: render the offscreen scene into the
// target, advance the time uniform, run a pending capture, and composite
// the target into the visible frame.
//
// Tick must be called from a single goroutine. Attach may be called from
// any goroutine.
type Loop struct {
	scene    *Scene
	emitter  Emitter
	queue    *CaptureQueue
	capture  CaptureOptions
	settings func() Settings
	now      func() time.Time

	start      time.Time
	alloc      Allocator
	renderer   *Renderer
	compositor Compositor
	background gg.RGBA

	mu     sync.Mutex
	handle *Handle
}

// NewLoop returns a loop for the given configuration. The clock starts
// now.
func NewLoop(cfg LoopConfig) *Loop {
	l := &Loop{
		scene:      cfg.Scene,
		emitter:    cfg.Emitter,
		queue:      cfg.Queue,
		capture:    cfg.Capture,
		settings:   cfg.Settings,
		now:        cfg.Now,
		renderer:   NewRenderer(),
		background: gg.Black,
	}
	if l.scene == nil {
		l.scene = NewScene()
	}
	if l.queue == nil {
		l.queue = NewCaptureQueue()
	}
	if l.settings == nil {
		l.settings = DefaultSettings
	}
	if l.now == nil {
		l.now = time.Now
	}
	l.start = l.now()
	return l
}

// Mount replaces the offscreen scene by the one built by m and detaches
// the current handle. It must not be called concurrently with Tick.
func (l *Loop) Mount(m MountFunc) {
	l.mu.Lock()
	l.handle = nil
	l.mu.Unlock()
	if s := m(l.Attach); s != nil {
		l.scene = s
	}
}

// Attach receives the handle of the mounted offscreen scene. Until it is
// called, ticks skip the offscreen render.
func (l *Loop) Attach(h Handle) {
	l.mu.Lock()
	l.handle = &h
	l.mu.Unlock()
}

// Camera returns the camera of the mounted scene, or nil before Attach.
func (l *Loop) Camera() *Camera {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.handle == nil {
		return nil
	}
	return l.handle.Camera
}

// Queue returns the loop's capture queue.
func (l *Loop) Queue() *CaptureQueue {
	return l.queue
}

// Target returns the current render target, or nil before the first tick.
func (l *Loop) Target() *Target {
	return l.alloc.Current()
}

// Uniforms returns the uniforms used by the last composite pass.
func (l *Loop) Uniforms() Uniforms {
	return l.compositor.Uniforms
}

// Tick runs one frame for a viewport of width×height pixels and
// composites the result into dst. dst may be nil, in which case the
// composite pass is skipped. A render target allocation failure aborts
// the frame with an error wrapping ErrAllocation; a missing camera or an
// unready capture does not.
func (l *Loop) Tick(width, height int, dst *gg.Pixmap) error {
	target, err := l.alloc.Ensure(width, height)
	if err != nil {
		return fmt.Errorf("offscreen: frame aborted: %w", err)
	}
	settings := l.settings()

	if cam := l.Camera(); cam != nil {
		l.scene.Update()
		if err := l.renderer.Render(l.scene, cam, target); err != nil {
			return err
		}
		l.scene.Background = settings.Background
		l.background = settings.Background
	}

	u := &l.compositor.Uniforms
	u.Time = l.now().Sub(l.start).Seconds()
	u.Texture = target
	u.PostProcessing = 0
	if settings.PostProcessing {
		u.PostProcessing = 1
	}

	if req, ok := l.queue.Take(); ok {
		l.runCapture(target, req)
	}

	if dst != nil {
		dst.Clear(l.background)
		l.compositor.Draw(dst)
	}
	return nil
}

// runCapture captures target and hands the frame to the emitter.
func (l *Loop) runCapture(target *Target, req CaptureRequest) {
	log := Logger().With("source", req.Source)

	frame, err := Capture(target, &l.capture)
	if errors.Is(err, ErrNotReady) {
		log.Debug("capture skipped, target not rendered yet")
		return
	} else if err != nil {
		log.Warn("capture failed", "error", err)
		return
	}

	if l.emitter == nil {
		log.Debug("capture discarded, no emitter")
		return
	}
	if err := l.emitter.Emit(RenderedImageEvent, RenderedImage{Data: frame}); err != nil {
		log.Warn("capture not sent", "error", err)
		return
	}
	log.Info("capture sent", "bytes", len(frame))
}

// Close releases the render target.
func (l *Loop) Close() {
	l.alloc.Release()
}
