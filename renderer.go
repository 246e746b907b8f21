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
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"
)

// Renderer draws scenes into render targets on the CPU.
//
// Triangles are transformed to clip space, clipped against the near and
// far planes and scan converted with the Rasteriser.  A pixel belongs to
// a triangle if the triangle covers at least half of it.  Hidden surfaces
// are removed with a per-pixel depth buffer, evaluated at pixel centres.
//
// A Renderer is not safe for concurrent use.
type Renderer struct {
	raster *Rasteriser
	depth  []float32

	clipA, clipB []mgl64.Vec4
	device       []vec.Vec2
}

// NewRenderer returns a Renderer ready for use.
func NewRenderer() *Renderer {
	return &Renderer{raster: NewRasteriser(rect.Rect{})}
}

// Render clears target to the scene's background colour and draws all
// meshes of the scene as seen through cam.
func (r *Renderer) Render(scene *Scene, cam *Camera, target *Target) error {
	if scene == nil || cam == nil || target == nil {
		return errors.New("offscreen: render needs a scene, a camera and a target")
	}

	w, h := target.Width, target.Height
	target.Clear(scene.Background)

	n := w * h
	if cap(r.depth) < n {
		r.depth = make([]float32, n)
	}
	r.depth = r.depth[:n]
	for i := range r.depth {
		r.depth[i] = math.MaxFloat32
	}

	r.raster.Reset(rect.Rect{LLx: 0, LLy: 0, URx: float64(w), URy: float64(h)})
	// NDC [-1, 1]² to device pixels, row 0 at the bottom
	r.raster.CTM = matrix.Matrix{float64(w) / 2, 0, 0, float64(h) / 2, float64(w) / 2, float64(h) / 2}

	viewProj := cam.Projection(float64(w) / float64(h)).Mul4(cam.View())
	for _, m := range scene.Meshes {
		r.drawMesh(scene, m, cam.Position, viewProj, target)
	}

	target.markRendered()
	return nil
}

func (r *Renderer) drawMesh(scene *Scene, m *Mesh, eye mgl64.Vec3, viewProj mgl64.Mat4, target *Target) {
	model := m.Model()
	mvp := viewProj.Mul4(model)

	for _, f := range m.Geometry.Faces {
		var world [3]mgl64.Vec3
		for i, idx := range f {
			world[i] = mgl64.TransformCoordinate(m.Geometry.Vertices[idx], model)
		}
		normal := world[1].Sub(world[0]).Cross(world[2].Sub(world[0]))
		if normal.Len() == 0 {
			continue
		}
		normal = normal.Normalize()

		if normal.Dot(eye.Sub(world[0])) <= 0 {
			if !m.Material.DoubleSided {
				continue
			}
			normal = normal.Mul(-1)
		}
		color := scene.shade(m.Material.Color, normal)

		r.clipA = r.clipA[:0]
		for _, idx := range f {
			r.clipA = append(r.clipA, mvp.Mul4x1(m.Geometry.Vertices[idx].Vec4(1)))
		}
		poly := r.clipPolygon()
		if len(poly) < 3 {
			continue
		}

		// perspective divide; NDC depth is affine in device coordinates
		r.device = r.device[:0]
		depth := make([]float64, len(poly))
		for i, p := range poly {
			r.device = append(r.device, vec.Vec2{X: p[0] / p[3], Y: p[1] / p[3]})
			depth[i] = p[2] / p[3]
		}
		plane, ok := r.depthPlane(depth)
		if !ok {
			continue
		}

		r.raster.FillPolygon(r.device, func(y, xMin int, coverage []float32) {
			row := y * target.Width
			py := float64(y) + 0.5
			for i, c := range coverage {
				if c < minCoverage {
					continue
				}
				x := xMin + i
				z := float32(plane[0]*(float64(x)+0.5) + plane[1]*py + plane[2])
				if z >= r.depth[row+x] {
					continue
				}
				r.depth[row+x] = z
				target.Blend(x, y, color, 1)
			}
		})
	}
}

const minCoverage = 0.5

// clipPolygon clips r.clipA against the near plane (z ≥ -w) and the far
// plane (z ≤ w) and returns the resulting polygon.
func (r *Renderer) clipPolygon() []mgl64.Vec4 {
	near := func(p mgl64.Vec4) float64 { return p[2] + p[3] }
	far := func(p mgl64.Vec4) float64 { return p[3] - p[2] }

	r.clipB = clipAgainst(r.clipB[:0], r.clipA, near)
	r.clipA = clipAgainst(r.clipA[:0], r.clipB, far)
	return r.clipA
}

// clipAgainst appends to dst the part of the polygon in with dist ≥ 0.
func clipAgainst(dst, in []mgl64.Vec4, dist func(mgl64.Vec4) float64) []mgl64.Vec4 {
	for i, cur := range in {
		prev := in[(i+len(in)-1)%len(in)]
		dc, dp := dist(cur), dist(prev)
		if (dc >= 0) != (dp >= 0) {
			t := dp / (dp - dc)
			dst = append(dst, prev.Add(cur.Sub(prev).Mul(t)))
		}
		if dc >= 0 {
			dst = append(dst, cur)
		}
	}
	return dst
}

// depthPlane returns coefficients (a, b, c) with z = a*x + b*y + c in
// device pixels, using the first three points of r.device.
func (r *Renderer) depthPlane(z []float64) ([3]float64, bool) {
	m := r.raster.CTM
	var p [3]vec.Vec2
	for i := range p {
		q := r.device[i]
		p[i] = vec.Vec2{X: m[0]*q.X + m[2]*q.Y + m[4], Y: m[1]*q.X + m[3]*q.Y + m[5]}
	}

	e1, e2 := p[1].Sub(p[0]), p[2].Sub(p[0])
	det := e1.X*e2.Y - e1.Y*e2.X
	if math.Abs(det) < 1e-12 {
		return [3]float64{}, false
	}
	dz1, dz2 := z[1]-z[0], z[2]-z[0]
	a := (dz1*e2.Y - dz2*e1.Y) / det
	b := (e1.X*dz2 - e2.X*dz1) / det
	c := z[0] - a*p[0].X - b*p[0].Y
	return [3]float64{a, b, c}, true
}
