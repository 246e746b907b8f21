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

// Package scenes contains ready-made offscreen scenes.
package scenes

import (
	"fmt"
	"maps"
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/gogpu/gg"

	"seehuhn.de/go/offscreen"
)

// All contains all scenes by name.
var All = map[string]offscreen.MountFunc{
	"playground": Playground,
	"cube":       Cube,
	"home":       Home,
	"empty":      Empty,
}

// Names returns the scene names in sorted order.
func Names() []string {
	return slices.Sorted(maps.Keys(All))
}

// Lookup returns the scene with the given name.
func Lookup(name string) (offscreen.MountFunc, error) {
	m, ok := All[name]
	if !ok {
		return nil, fmt.Errorf("unknown scene %q (have %v)", name, Names())
	}
	return m, nil
}

// Playground is the default scene: a green icosahedron and a spinning
// red box above a large brown floor.
func Playground(ready func(offscreen.Handle)) *offscreen.Scene {
	s := offscreen.NewScene()
	s.Add(
		&offscreen.Mesh{
			Name:     "icosahedron",
			Geometry: offscreen.IcosahedronGeometry(0.8, 2),
			Material: offscreen.Material{Color: gg.RGB(0, 1, 0)},
			Position: mgl64.Vec3{-1, 0.5, 0},
		},
		&offscreen.Mesh{
			Name:     "box",
			Geometry: offscreen.BoxGeometry(1, 1, 1),
			Material: offscreen.Material{Color: gg.RGB(1, 0, 0)},
			Position: mgl64.Vec3{1, 1, 0},
			Spin:     mgl64.Vec3{0.01, 0, 0.01},
		},
		&offscreen.Mesh{
			Name:     "floor",
			Geometry: offscreen.PlaneGeometry(100, 100),
			Material: offscreen.Material{Color: gg.Hex("#a52a2a"), DoubleSided: true},
			Rotation: mgl64.Vec3{-math.Pi / 2, 0, 0},
		},
	)

	ready(offscreen.Handle{
		Camera: offscreen.NewPerspectiveCamera(35, 0.001, 2000, mgl64.Vec3{0, 0, 10}),
	})
	return s
}

// Cube is a unit blue cube lit from the upper right.
func Cube(ready func(offscreen.Handle)) *offscreen.Scene {
	return litBox(ready, "cube", gg.RGB(0, 0, 1))
}

// Home is a unit orange cube lit from the upper right.
func Home(ready func(offscreen.Handle)) *offscreen.Scene {
	return litBox(ready, "box", gg.Hex("#ffa500"))
}

func litBox(ready func(offscreen.Handle), name string, col gg.RGBA) *offscreen.Scene {
	s := offscreen.NewScene()
	s.Ambient.Intensity = 0.4
	s.Directional = append(s.Directional, offscreen.DirectionalLight{
		Direction: mgl64.Vec3{10, 10, 10},
		Color:     gg.White,
		Intensity: 0.8,
	})
	s.Add(&offscreen.Mesh{
		Name:     name,
		Geometry: offscreen.BoxGeometry(1, 1, 1),
		Material: offscreen.Material{Color: col},
	})

	ready(offscreen.Handle{
		Camera: offscreen.NewPerspectiveCamera(75, 0.1, 1000, mgl64.Vec3{0, 0, 5}),
	})
	return s
}

// Empty has no meshes. Frames show the background colour only.
func Empty(ready func(offscreen.Handle)) *offscreen.Scene {
	s := offscreen.NewScene()
	ready(offscreen.Handle{
		Camera: offscreen.NewPerspectiveCamera(50, 0.1, 100, mgl64.Vec3{0, 0, 5}),
	})
	return s
}
