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
	"github.com/go-gl/mathgl/mgl64"
	"github.com/gogpu/gg"
)

// Scene is a detached scene graph root. Its contents are only ever
// rendered into a Target; they never appear on screen directly.
type Scene struct {
	Background gg.RGBA
	Meshes     []*Mesh

	Ambient     AmbientLight
	Directional []DirectionalLight
}

// AmbientLight lights every face equally.
type AmbientLight struct {
	Color     gg.RGBA
	Intensity float64
}

// DirectionalLight shines from Direction towards the origin.
type DirectionalLight struct {
	Direction mgl64.Vec3 // points from the scene towards the light
	Color     gg.RGBA
	Intensity float64
}

// Handle is the capability a mounted scene hands to its host. The host
// must not render the scene before it has received a Handle.
type Handle struct {
	Camera *Camera
}

// MountFunc builds a scene. The scene's handle is passed to ready once
// the scene is set up; this may happen after MountFunc has returned.
type MountFunc func(ready func(Handle)) *Scene

// NewScene returns an empty scene with a black background and a white
// ambient light of intensity 1.
func NewScene() *Scene {
	return &Scene{
		Background: gg.Black,
		Ambient:    AmbientLight{Color: gg.White, Intensity: 1},
	}
}

// Add appends meshes to the scene.
func (s *Scene) Add(meshes ...*Mesh) {
	s.Meshes = append(s.Meshes, meshes...)
}

// Find returns the first mesh with the given name, or nil.
func (s *Scene) Find(name string) *Mesh {
	for _, m := range s.Meshes {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// Update advances the scene's animation by one frame.
func (s *Scene) Update() {
	for _, m := range s.Meshes {
		m.Rotation = m.Rotation.Add(m.Spin)
	}
}

// shade returns the flat-shaded colour of a face with world-space normal n.
func (s *Scene) shade(base gg.RGBA, n mgl64.Vec3) gg.RGBA {
	r := s.Ambient.Color.R * s.Ambient.Intensity
	g := s.Ambient.Color.G * s.Ambient.Intensity
	b := s.Ambient.Color.B * s.Ambient.Intensity
	for _, l := range s.Directional {
		lambert := n.Dot(l.Direction.Normalize())
		if lambert <= 0 {
			continue
		}
		r += l.Color.R * l.Intensity * lambert
		g += l.Color.G * l.Intensity * lambert
		b += l.Color.B * l.Intensity * lambert
	}
	return gg.RGBA{R: base.R * r, G: base.G * g, B: base.B * b, A: base.A}
}
