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
	"testing"

	"github.com/gogpu/gg"
)

func TestAllocatorReallocatesOnResize(t *testing.T) {
	var a Allocator

	t1, err := a.Ensure(32, 16)
	if err != nil {
		t.Fatal(err)
	}
	t2, err := a.Ensure(32, 16)
	if err != nil {
		t.Fatal(err)
	}
	if t1 != t2 {
		t.Error("same size must keep the target")
	}

	t3, err := a.Ensure(64, 48)
	if err != nil {
		t.Fatal(err)
	}
	if t3 == t1 {
		t.Fatal("resize must reallocate the target")
	}
	if t3.Width != 64 || t3.Height != 48 || len(t3.Pix) != 64*48*BytesPerPixel {
		t.Errorf("got %dx%d with %d bytes", t3.Width, t3.Height, len(t3.Pix))
	}
	if a.Current() != t3 {
		t.Error("Current does not return the new target")
	}

	a.Release()
	if a.Current() != nil {
		t.Error("Release kept the target")
	}
}

func TestAllocatorInvalidSize(t *testing.T) {
	var a Allocator
	for _, size := range [][2]int{{0, 10}, {10, 0}, {-1, 5}} {
		if _, err := a.Ensure(size[0], size[1]); !errors.Is(err, ErrAllocation) {
			t.Errorf("%v: expected ErrAllocation, got %v", size, err)
		}
	}
}

func TestTextureMetadata(t *testing.T) {
	var a Allocator
	tgt, _ := a.Ensure(4, 4)
	if _, ok := tgt.Texture(); ok {
		t.Error("fresh target reports texture metadata")
	}
	tgt.Clear(gg.Black)
	info, ok := tgt.Texture()
	if !ok || info.Width != 4 || info.Height != 4 {
		t.Errorf("got %+v, %v", info, ok)
	}

	var nilTarget *Target
	if _, ok := nilTarget.Texture(); ok {
		t.Error("nil target reports texture metadata")
	}
}

func TestReadPixels(t *testing.T) {
	tgt, _ := newTarget(3, 2, 1)
	for y := range 2 {
		for x := range 3 {
			tgt.Blend(x, y, gg.RGBA{R: float64(x) / 2, G: float64(y), B: 0, A: 1}, 1)
		}
	}

	buf := make([]uint8, 3*2*BytesPerPixel)
	if err := tgt.ReadPixels(0, 0, 3, 2, buf); err != nil {
		t.Fatal(err)
	}
	// bottom row first
	if buf[1] != 0 || buf[3*BytesPerPixel+1] != 255 {
		t.Errorf("unexpected row order: %v", buf)
	}
	if buf[2*BytesPerPixel] != 255 {
		t.Errorf("unexpected red at (2,0): %d", buf[2*BytesPerPixel])
	}

	if err := tgt.ReadPixels(0, 0, 3, 2, buf[:5]); !errors.Is(err, ErrFormat) {
		t.Errorf("short buffer: expected ErrFormat, got %v", err)
	}
	if err := tgt.ReadPixels(1, 0, 3, 2, buf); err == nil {
		t.Error("out of range rectangle accepted")
	}
}

func TestBlendCoverage(t *testing.T) {
	tgt, _ := newTarget(1, 1, 1)
	tgt.Clear(gg.Black)
	tgt.Blend(0, 0, gg.White, 0.5)
	got := tgt.Pix[0]
	if got < 127 || got > 128 {
		t.Errorf("half coverage of white over black: got %d", got)
	}
	if tgt.Pix[3] != 255 {
		t.Errorf("alpha changed to %d", tgt.Pix[3])
	}
}
