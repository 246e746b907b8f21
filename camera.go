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
)

// Camera is a perspective camera looking from Position towards Target.
type Camera struct {
	FOV      float64 // vertical field of view in degrees
	Near     float64
	Far      float64
	Position mgl64.Vec3
	Target   mgl64.Vec3
	Up       mgl64.Vec3
}

// NewPerspectiveCamera returns a camera at pos looking at the origin.
func NewPerspectiveCamera(fov, near, far float64, pos mgl64.Vec3) *Camera {
	return &Camera{
		FOV:      fov,
		Near:     near,
		Far:      far,
		Position: pos,
		Up:       mgl64.Vec3{0, 1, 0},
	}
}

// View returns the world-to-camera transform.
func (c *Camera) View() mgl64.Mat4 {
	return mgl64.LookAtV(c.Position, c.Target, c.Up)
}

// Projection returns the camera-to-clip transform for the given aspect
// ratio (width / height).
func (c *Camera) Projection(aspect float64) mgl64.Mat4 {
	return mgl64.Perspective(mgl64.DegToRad(c.FOV), aspect, c.Near, c.Far)
}

// Orbit rotates the camera around its target. dAzimuth turns around the
// up axis, dPolar moves towards or away from the poles; both in radians.
// The polar angle stays strictly between the poles.
func (c *Camera) Orbit(dAzimuth, dPolar float64) {
	offset := c.Position.Sub(c.Target)
	radius := offset.Len()
	if radius == 0 {
		return
	}

	azimuth := math.Atan2(offset.X(), offset.Z())
	polar := math.Acos(mgl64.Clamp(offset.Y()/radius, -1, 1))

	azimuth += dAzimuth
	polar = mgl64.Clamp(polar+dPolar, minPolar, math.Pi-minPolar)

	sp := math.Sin(polar)
	c.Position = c.Target.Add(mgl64.Vec3{
		radius * sp * math.Sin(azimuth),
		radius * math.Cos(polar),
		radius * sp * math.Cos(azimuth),
	})
}

// Zoom scales the distance between camera and target by factor.
// The distance never drops below the near plane.
func (c *Camera) Zoom(factor float64) {
	if factor <= 0 {
		return
	}
	offset := c.Position.Sub(c.Target)
	if offset.Len() == 0 {
		return
	}
	dist := max(offset.Len()*factor, 2*c.Near)
	c.Position = c.Target.Add(offset.Normalize().Mul(dist))
}

// minPolar keeps orbiting cameras away from the degenerate view
// direction parallel to Up.
const minPolar = 1e-3
