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

	"github.com/gogpu/gg"
)

var (
	// ErrAllocation is returned when a render target cannot be created.
	ErrAllocation = errors.New("offscreen: render target allocation failed")

	// ErrFormat is returned when a readback buffer does not match the
	// target's pixel format.
	ErrFormat = errors.New("offscreen: pixel format mismatch")
)

// BytesPerPixel is the size of one RGBA8 pixel.
const BytesPerPixel = 4

// Target is an offscreen color buffer. Pixels are RGBA with one unsigned
// byte per channel, not premultiplied. Rows are stored bottom-up: row 0
// is the bottom row of the rendered image, as in a GPU framebuffer.
type Target struct {
	Width  int
	Height int

	// Pix holds Height rows of Width*BytesPerPixel bytes each.
	Pix []uint8

	rendered   bool
	generation uint64
}

// TextureInfo describes the image bound to a target's color texture.
type TextureInfo struct {
	Width, Height int
	Generation    uint64
}

// newTarget allocates a cleared target of the given size.
func newTarget(width, height int, generation uint64) (*Target, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: invalid size %dx%d", ErrAllocation, width, height)
	}
	return &Target{
		Width:      width,
		Height:     height,
		Pix:        make([]uint8, width*height*BytesPerPixel),
		generation: generation,
	}, nil
}

// Texture returns the metadata of the image bound to the target's
// texture. The second return value is false until something has been
// rendered into the target.
func (t *Target) Texture() (TextureInfo, bool) {
	if t == nil || !t.rendered {
		return TextureInfo{}, false
	}
	return TextureInfo{Width: t.Width, Height: t.Height, Generation: t.generation}, true
}

// Clear fills the whole target with c and marks it as rendered.
func (t *Target) Clear(c gg.RGBA) {
	r, g, b, a := toBytes(c)
	for i := 0; i < len(t.Pix); i += BytesPerPixel {
		t.Pix[i+0] = r
		t.Pix[i+1] = g
		t.Pix[i+2] = b
		t.Pix[i+3] = a
	}
	t.rendered = true
}

// At returns the pixel in column x of row y, counted from the bottom.
func (t *Target) At(x, y int) gg.RGBA {
	i := t.offset(x, y)
	return gg.RGBA{
		R: float64(t.Pix[i+0]) / 255,
		G: float64(t.Pix[i+1]) / 255,
		B: float64(t.Pix[i+2]) / 255,
		A: float64(t.Pix[i+3]) / 255,
	}
}

// Blend composites c over the pixel at (x, y) with the given coverage.
func (t *Target) Blend(x, y int, c gg.RGBA, coverage float32) {
	i := t.offset(x, y)
	a := float64(coverage) * c.A
	if a <= 0 {
		return
	}
	if a >= 1 {
		t.Pix[i+0], t.Pix[i+1], t.Pix[i+2], t.Pix[i+3] = toBytes(c)
		return
	}
	mix := func(dst uint8, src float64) uint8 {
		return clampByte(float64(dst)/255*(1-a) + src*a)
	}
	t.Pix[i+0] = mix(t.Pix[i+0], c.R)
	t.Pix[i+1] = mix(t.Pix[i+1], c.G)
	t.Pix[i+2] = mix(t.Pix[i+2], c.B)
	t.Pix[i+3] = clampByte(float64(t.Pix[i+3])/255*(1-a) + a)
}

// ReadPixels copies the w×h rectangle with lower left corner (x, y) into
// buf, row by row from the bottom, like glReadPixels with RGBA and
// UNSIGNED_BYTE. buf must hold at least w*h*BytesPerPixel bytes.
func (t *Target) ReadPixels(x, y, w, h int, buf []uint8) error {
	if x < 0 || y < 0 || w < 0 || h < 0 || x+w > t.Width || y+h > t.Height {
		return fmt.Errorf("offscreen: readback rectangle %d,%d %dx%d outside %dx%d target",
			x, y, w, h, t.Width, t.Height)
	}
	rowBytes := w * BytesPerPixel
	if len(buf) < rowBytes*h {
		return fmt.Errorf("%w: buffer holds %d bytes, need %d", ErrFormat, len(buf), rowBytes*h)
	}
	for row := range h {
		src := t.offset(x, y+row)
		copy(buf[row*rowBytes:(row+1)*rowBytes], t.Pix[src:src+rowBytes])
	}
	return nil
}

func (t *Target) offset(x, y int) int {
	return (y*t.Width + x) * BytesPerPixel
}

// markRendered records that a render pass has written the target.
func (t *Target) markRendered() {
	t.rendered = true
}

// Allocator owns the render target of one viewport. The target's
// dimensions are fixed at creation, so a size change replaces it.
type Allocator struct {
	target     *Target
	generation uint64
}

// Ensure returns a target of the given size, reallocating it if the size
// differs from the current one. The returned error wraps ErrAllocation.
func (a *Allocator) Ensure(width, height int) (*Target, error) {
	if a.target != nil && a.target.Width == width && a.target.Height == height {
		return a.target, nil
	}
	t, err := newTarget(width, height, a.generation+1)
	if err != nil {
		return nil, err
	}
	a.generation++
	if a.target != nil {
		Logger().Debug("render target reallocated",
			"from", fmt.Sprintf("%dx%d", a.target.Width, a.target.Height),
			"to", fmt.Sprintf("%dx%d", width, height))
	}
	a.target = t
	return t, nil
}

// Current returns the current target, or nil if none is allocated.
func (a *Allocator) Current() *Target {
	return a.target
}

// Release destroys the current target.
func (a *Allocator) Release() {
	a.target = nil
}

func toBytes(c gg.RGBA) (r, g, b, a uint8) {
	return clampByte(c.R), clampByte(c.G), clampByte(c.B), clampByte(c.A)
}

// clampByte converts a channel value in [0, 1] to a byte, clamping
// values outside that range.
func clampByte(v float64) uint8 {
	switch {
	case v <= 0 || v != v:
		return 0
	case v >= 1:
		return 255
	}
	return uint8(v*255 + 0.5)
}
