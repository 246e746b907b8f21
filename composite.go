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

	"github.com/go-gl/mathgl/mgl64"
	"github.com/gogpu/gg"
)

// Uniforms holds the inputs of the composite pass. They are updated once
// per frame and whenever the controls change.
type Uniforms struct {
	// Texture is the render target sampled by the composite pass.
	Texture *Target

	// Resolution is the size of the visible frame in pixels.
	Resolution mgl64.Vec2

	// Time is the elapsed time since the loop started, in seconds.
	Time float64

	// PostProcessing enables the post-processing effect when it is
	// non-zero.
	PostProcessing float64
}

// Sample returns the texture colour at uv using bilinear filtering with
// clamp-to-edge addressing. uv = (0, 0) is the bottom left corner of the
// texture. Missing or never rendered textures sample as black.
func (u *Uniforms) Sample(uv mgl64.Vec2) gg.RGBA {
	t := u.Texture
	if _, ok := t.Texture(); !ok {
		return gg.Black
	}

	// texel centres sit at half-integer coordinates
	fx := mgl64.Clamp(uv[0]*float64(t.Width)-0.5, 0, float64(t.Width-1))
	fy := mgl64.Clamp(uv[1]*float64(t.Height)-0.5, 0, float64(t.Height-1))
	x0, y0 := int(fx), int(fy)
	x1, y1 := min(x0+1, t.Width-1), min(y0+1, t.Height-1)
	ax, ay := fx-float64(x0), fy-float64(y0)

	bottom := t.At(x0, y0).Lerp(t.At(x1, y0), ax)
	top := t.At(x0, y1).Lerp(t.At(x1, y1), ax)
	return bottom.Lerp(top, ay)
}

// Fragment computes the colour of the composite pass at uv.
//
// With post-processing off the sampled colour is passed through.  With
// post-processing on, a static dot pattern, a vignette and a colour
// gradient are added.  The alpha channel is always 1.  The result is not
// clamped; channels may leave the range [0, 1].
func Fragment(u *Uniforms, uv mgl64.Vec2) gg.RGBA {
	col := u.Sample(uv)
	if u.PostProcessing == 0 {
		return gg.RGBA{R: col.R, G: col.G, B: col.B, A: 1}
	}

	dots := math.Sin((uv[0]+uv[1])*1000) * 0.1
	vignette := smoothstep(0.3, 1, uv.Sub(mgl64.Vec2{0.5, 0.5}).Len())
	shift := dots - vignette
	return gg.RGBA{
		R: col.R + shift + uv[0],
		G: col.G + shift + uv[1],
		B: col.B + shift + 1,
		A: 1,
	}
}

// smoothstep is the Hermite interpolation of GLSL.
func smoothstep(edge0, edge1, x float64) float64 {
	t := mgl64.Clamp((x-edge0)/(edge1-edge0), 0, 1)
	return t * t * (3 - 2*t)
}

// Compositor draws the full-screen quad of the composite pass.
type Compositor struct {
	Uniforms Uniforms
}

// Draw evaluates the fragment program for every pixel of dst. dst rows
// are top-down, so its first row samples the top of the texture.
// Colours are clamped to the displayable range when they are written.
func (c *Compositor) Draw(dst *gg.Pixmap) {
	w, h := dst.Width(), dst.Height()
	c.Uniforms.Resolution = mgl64.Vec2{float64(w), float64(h)}
	for y := range h {
		v := 1 - (float64(y)+0.5)/float64(h)
		for x := range w {
			u := (float64(x) + 0.5) / float64(w)
			dst.SetPixel(x, y, Fragment(&c.Uniforms, mgl64.Vec2{u, v}))
		}
	}
}
