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
	"image"
	"image/color"
	"strings"
	"sync"
	"testing"

	"github.com/gogpu/gg"
)

// gradientTarget returns a w×h target where the pixel in column x of
// framebuffer row y has red = x, green = y.
func gradientTarget(w, h int) *Target {
	t, _ := newTarget(w, h, 1)
	for y := range h {
		for x := range w {
			i := t.offset(x, y)
			t.Pix[i+0] = uint8(x)
			t.Pix[i+1] = uint8(y)
			t.Pix[i+2] = 7
			t.Pix[i+3] = 255
		}
	}
	t.markRendered()
	return t
}

func decodeFrame(t *testing.T, f EncodedFrame) image.Image {
	t.Helper()
	if !strings.HasPrefix(string(f), "data:image/png;base64,") {
		t.Fatalf("unexpected prefix: %.40s", f)
	}
	img, err := f.Decode()
	if err != nil {
		t.Fatal(err)
	}
	return img
}

func TestCaptureAllRed(t *testing.T) {
	tgt, _ := newTarget(64, 64, 1)
	tgt.Clear(gg.RGBA{R: 1, A: 1})

	f, err := Capture(tgt, nil)
	if err != nil {
		t.Fatal(err)
	}
	img := decodeFrame(t, f)
	if b := img.Bounds(); b.Dx() != 64 || b.Dy() != 64 {
		t.Fatalf("got size %v", b)
	}
	want := color.NRGBA{R: 255, A: 255}
	for y := range 64 {
		for x := range 64 {
			got := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			if got != want {
				t.Fatalf("pixel (%d,%d) = %v", x, y, got)
			}
		}
	}
}

func TestCaptureSize(t *testing.T) {
	for _, size := range [][2]int{{1, 1}, {7, 3}, {3, 7}, {100, 20}} {
		f, err := Capture(gradientTarget(size[0], size[1]), nil)
		if err != nil {
			t.Fatal(err)
		}
		b := decodeFrame(t, f).Bounds()
		if b.Dx() != size[0] || b.Dy() != size[1] {
			t.Errorf("%v: decoded %v", size, b)
		}
	}
}

func TestCaptureRowOrder(t *testing.T) {
	const w, h = 5, 4
	tgt := gradientTarget(w, h)

	upright := decodeFrame(t, mustCapture(t, tgt, nil))
	mirrored := decodeFrame(t, mustCapture(t, tgt, &CaptureOptions{KeepRowOrder: true}))

	for y := range h {
		for x := range w {
			_, g, _, _ := upright.At(x, y).RGBA()
			if int(g>>8) != h-1-y {
				t.Errorf("upright (%d,%d): green %d", x, y, g>>8)
			}
			r, g, _, _ := mirrored.At(x, y).RGBA()
			if int(r>>8) != x || int(g>>8) != y {
				t.Errorf("kept order (%d,%d): red %d green %d", x, y, r>>8, g>>8)
			}
		}
	}
}

func TestCaptureResize(t *testing.T) {
	tgt, _ := newTarget(16, 8, 1)
	tgt.Clear(gg.Blue)
	f := mustCapture(t, tgt, &CaptureOptions{Width: 4, Height: 2})
	img := decodeFrame(t, f)
	if b := img.Bounds(); b.Dx() != 4 || b.Dy() != 2 {
		t.Fatalf("got size %v", b)
	}
	r, g, b, a := img.At(1, 1).RGBA()
	if r != 0 || g != 0 || b != 0xffff || a != 0xffff {
		t.Errorf("got %d %d %d %d", r, g, b, a)
	}
}

func TestCaptureNotReady(t *testing.T) {
	var a Allocator
	tgt, _ := a.Ensure(8, 8)

	for _, target := range []*Target{nil, tgt} {
		_, err := Capture(target, nil)
		if !errors.Is(err, ErrNotReady) {
			t.Errorf("expected ErrNotReady, got %v", err)
		}
	}
}

func TestDecodeInvalid(t *testing.T) {
	for _, f := range []EncodedFrame{"", "data:image/jpeg;base64,AAAA", "data:image/png;base64,!!!"} {
		if _, err := f.Decode(); err == nil {
			t.Errorf("%q: decoded without error", f)
		}
	}
}

func TestCaptureQueueSingleSlot(t *testing.T) {
	q := NewCaptureQueue()
	if _, ok := q.Take(); ok {
		t.Fatal("empty queue returned a request")
	}
	if !q.Request(CaptureRequest{Source: "first"}) {
		t.Fatal("first request rejected")
	}
	if q.Request(CaptureRequest{Source: "second"}) {
		t.Error("second request accepted while pending")
	}
	if !q.Pending() {
		t.Error("request not pending")
	}

	r, ok := q.Take()
	if !ok || r.Source != "first" {
		t.Errorf("got %+v, %v", r, ok)
	}
	if _, ok := q.Take(); ok {
		t.Error("request delivered twice")
	}
	if !q.Request(CaptureRequest{}) {
		t.Error("request after Take rejected")
	}
}

func TestCaptureQueueConcurrent(t *testing.T) {
	q := NewCaptureQueue()
	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := 0
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if q.Request(CaptureRequest{}) {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if accepted != 1 {
		t.Errorf("%d requests accepted", accepted)
	}
}

func mustCapture(t *testing.T, tgt *Target, opts *CaptureOptions) EncodedFrame {
	t.Helper()
	f, err := Capture(tgt, opts)
	if err != nil {
		t.Fatal(err)
	}
	return f
}
