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

// Geometry is an indexed triangle list. Faces are wound counter-clockwise
// when seen from the front.
type Geometry struct {
	Vertices []mgl64.Vec3
	Faces    [][3]int
}

// Material describes how a mesh is shaded.
type Material struct {
	Color gg.RGBA

	// DoubleSided disables back-face culling.
	DoubleSided bool
}

// Mesh is a piece of geometry placed in a scene.
type Mesh struct {
	Name     string
	Geometry Geometry
	Material Material

	Position mgl64.Vec3
	Rotation mgl64.Vec3 // Euler angles in radians, applied in XYZ order

	// Spin is added to Rotation on every scene update.
	Spin mgl64.Vec3
}

// Model returns the mesh's local-to-world transform.
func (m *Mesh) Model() mgl64.Mat4 {
	r := m.Rotation
	rot := mgl64.HomogRotate3DX(r[0]).
		Mul4(mgl64.HomogRotate3DY(r[1])).
		Mul4(mgl64.HomogRotate3DZ(r[2]))
	return mgl64.Translate3D(m.Position[0], m.Position[1], m.Position[2]).Mul4(rot)
}

// BoxGeometry returns an axis-aligned box centred on the origin.
func BoxGeometry(width, height, depth float64) Geometry {
	x, y, z := width/2, height/2, depth/2
	g := Geometry{
		Vertices: []mgl64.Vec3{
			{-x, -y, -z}, {x, -y, -z}, {x, y, -z}, {-x, y, -z},
			{-x, -y, z}, {x, -y, z}, {x, y, z}, {-x, y, z},
		},
	}
	quads := [][4]int{
		{4, 5, 6, 7}, // +z
		{1, 0, 3, 2}, // -z
		{5, 1, 2, 6}, // +x
		{0, 4, 7, 3}, // -x
		{7, 6, 2, 3}, // +y
		{0, 1, 5, 4}, // -y
	}
	for _, q := range quads {
		g.Faces = append(g.Faces, [3]int{q[0], q[1], q[2]}, [3]int{q[0], q[2], q[3]})
	}
	return g
}

// PlaneGeometry returns a width×height rectangle in the XY plane,
// facing +z.
func PlaneGeometry(width, height float64) Geometry {
	x, y := width/2, height/2
	return Geometry{
		Vertices: []mgl64.Vec3{{-x, -y, 0}, {x, -y, 0}, {x, y, 0}, {-x, y, 0}},
		Faces:    [][3]int{{0, 1, 2}, {0, 2, 3}},
	}
}

// IcosahedronGeometry returns an icosahedron of the given radius. Each
// face is split into (detail+1)² triangles whose vertices are pushed out
// to the sphere, so large detail values approach a sphere.
func IcosahedronGeometry(radius float64, detail int) Geometry {
	t := (1 + math.Sqrt(5)) / 2
	base := []mgl64.Vec3{
		{-1, t, 0}, {1, t, 0}, {-1, -t, 0}, {1, -t, 0},
		{0, -1, t}, {0, 1, t}, {0, -1, -t}, {0, 1, -t},
		{t, 0, -1}, {t, 0, 1}, {-t, 0, -1}, {-t, 0, 1},
	}
	faces := [][3]int{
		{0, 11, 5}, {0, 5, 1}, {0, 1, 7}, {0, 7, 10}, {0, 10, 11},
		{1, 5, 9}, {5, 11, 4}, {11, 10, 2}, {10, 7, 6}, {7, 1, 8},
		{3, 9, 4}, {3, 4, 2}, {3, 2, 6}, {3, 6, 8}, {3, 8, 9},
		{4, 9, 5}, {2, 4, 11}, {6, 2, 10}, {8, 6, 7}, {9, 8, 1},
	}

	n := max(detail, 0) + 1
	var g Geometry
	for _, f := range faces {
		a, b, c := base[f[0]], base[f[1]], base[f[2]]

		// grid[i][j] is the point a + i/n (b-a) + j/n (c-a) with i+j <= n
		grid := make([][]int, n+1)
		for i := 0; i <= n; i++ {
			grid[i] = make([]int, n+1-i)
			for j := 0; j <= n-i; j++ {
				p := a.Add(b.Sub(a).Mul(float64(i) / float64(n))).Add(c.Sub(a).Mul(float64(j) / float64(n)))
				grid[i][j] = len(g.Vertices)
				g.Vertices = append(g.Vertices, p.Normalize().Mul(radius))
			}
		}
		for i := 0; i < n; i++ {
			for j := 0; j < n-i; j++ {
				g.Faces = append(g.Faces, [3]int{grid[i][j], grid[i+1][j], grid[i][j+1]})
				if j < n-i-1 {
					g.Faces = append(g.Faces, [3]int{grid[i+1][j], grid[i+1][j+1], grid[i][j+1]})
				}
			}
		}
	}
	return g
}
