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
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/gogpu/gg"
)

// solidTexture returns a rendered w×h target filled with c.
func solidTexture(w, h int, c gg.RGBA) *Target {
	t, _ := newTarget(w, h, 1)
	t.Clear(c)
	return t
}

func closeRGBA(a, b gg.RGBA, eps float64) bool {
	return math.Abs(a.R-b.R) <= eps && math.Abs(a.G-b.G) <= eps &&
		math.Abs(a.B-b.B) <= eps && math.Abs(a.A-b.A) <= eps
}

func TestFragmentPassThrough(t *testing.T) {
	base := gg.RGBA{R: 0.2, G: 0.4, B: 0.6, A: 0.5}
	u := &Uniforms{Texture: solidTexture(3, 3, base)}
	sampled := u.Sample(mgl64.Vec2{0.5, 0.5})

	for _, time := range []float64{0, 1.5, 1000} {
		u.Time = time
		for _, uv := range []mgl64.Vec2{{0, 0}, {0.5, 0.5}, {1, 1}, {0.13, 0.87}} {
			got := Fragment(u, uv)
			want := gg.RGBA{R: sampled.R, G: sampled.G, B: sampled.B, A: 1}
			if got != want {
				t.Errorf("t=%g uv=%v: got %v, want %v", time, uv, got, want)
			}
		}
	}
}

func TestFragmentPostProcessing(t *testing.T) {
	base := gg.RGBA{R: 0.2, G: 0.4, B: 0.6, A: 1}
	u := &Uniforms{Texture: solidTexture(1, 1, base), PostProcessing: 1}
	c := u.Sample(mgl64.Vec2{0.5, 0.5})

	dots := math.Sin(1000) * 0.1
	vignette := 0.6212857512468426 // smoothstep(0.3, 1, √½)

	cases := []struct {
		uv   mgl64.Vec2
		want gg.RGBA
	}{
		{
			uv:   mgl64.Vec2{0.5, 0.5},
			want: gg.RGBA{R: c.R + dots + 0.5, G: c.G + dots + 0.5, B: c.B + dots + 1, A: 1},
		},
		{
			uv:   mgl64.Vec2{0, 0},
			want: gg.RGBA{R: c.R - vignette, G: c.G - vignette, B: c.B - vignette + 1, A: 1},
		},
	}
	for _, tc := range cases {
		u.Time = 42 // no effect
		got := Fragment(u, tc.uv)
		if !closeRGBA(got, tc.want, 1e-9) {
			t.Errorf("uv=%v: got %v, want %v", tc.uv, got, tc.want)
		}
	}
}

func TestFragmentNotClamped(t *testing.T) {
	u := &Uniforms{Texture: solidTexture(1, 1, gg.White), PostProcessing: 1}
	got := Fragment(u, mgl64.Vec2{0.5, 0.5})
	if got.B <= 1 {
		t.Errorf("blue channel clamped: %v", got)
	}
}

func TestSampleBilinear(t *testing.T) {
	tgt, _ := newTarget(2, 1, 1)
	tgt.Blend(0, 0, gg.Black, 1)
	tgt.Blend(1, 0, gg.White, 1)
	tgt.markRendered()
	u := &Uniforms{Texture: tgt}

	cases := []struct {
		u    float64
		want float64
	}{
		{0, 0},     // clamp to edge
		{0.25, 0},  // first texel centre
		{0.5, 0.5}, // half way
		{0.75, 1},  // second texel centre
		{1, 1},     // clamp to edge
	}
	for _, tc := range cases {
		got := u.Sample(mgl64.Vec2{tc.u, 0.5})
		if math.Abs(got.R-tc.want) > 1e-9 {
			t.Errorf("u=%g: got %g, want %g", tc.u, got.R, tc.want)
		}
	}
}

func TestSampleUnrendered(t *testing.T) {
	tgt, _ := newTarget(2, 2, 1)
	for _, u := range []*Uniforms{{}, {Texture: tgt}} {
		if got := u.Sample(mgl64.Vec2{0.5, 0.5}); got != gg.Black {
			t.Errorf("got %v", got)
		}
	}
}

func TestCompositorDraw(t *testing.T) {
	// bottom row red, top row green
	tgt, _ := newTarget(1, 2, 1)
	tgt.Blend(0, 0, gg.Red, 1)
	tgt.Blend(0, 1, gg.Green, 1)
	tgt.markRendered()

	c := &Compositor{Uniforms: Uniforms{Texture: tgt}}
	dst := gg.NewPixmap(1, 2)
	c.Draw(dst)

	if got := dst.GetPixel(0, 0); got != gg.Green {
		t.Errorf("top row: got %v", got)
	}
	if got := dst.GetPixel(0, 1); got != gg.Red {
		t.Errorf("bottom row: got %v", got)
	}
	if c.Uniforms.Resolution != (mgl64.Vec2{1, 2}) {
		t.Errorf("resolution: %v", c.Uniforms.Resolution)
	}

	// post-processing saturates blue at the centre
	c.Uniforms.PostProcessing = 1
	big := gg.NewPixmap(4, 4)
	c.Draw(big)
	if got := big.GetPixel(2, 2); got.B != 1 {
		t.Errorf("blue not clamped to the display range: %v", got)
	}
}
