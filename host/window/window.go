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

// Package window shows the composite in a desktop window.
//
// Dragging with the left mouse button orbits the camera, the wheel zooms.
// Space or S sends the render target, P toggles post-processing, Esc quits.
package window

import (
	"math"

	"github.com/gogpu/gg"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"seehuhn.de/go/offscreen/host"
)

// Config sets up the window.
type Config struct {
	Width, Height int
	Title         string
	TPS           int
}

// Run opens the window and blocks until it is closed.
func Run(app host.App, cfg Config) error {
	if cfg.Width <= 0 {
		cfg.Width = 800
	}
	if cfg.Height <= 0 {
		cfg.Height = 600
	}
	if cfg.Title == "" {
		cfg.Title = "offscreen playground"
	}
	if cfg.TPS > 0 {
		ebiten.SetTPS(cfg.TPS)
	}
	ebiten.SetWindowSize(cfg.Width, cfg.Height)
	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	return ebiten.RunGame(&game{app: app})
}

type game struct {
	app host.App

	width, height int
	pix           *gg.Pixmap

	dragging     bool
	lastX, lastY int
}

func (g *game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) || inpututil.IsKeyJustPressed(ebiten.KeyS) {
		g.app.Panel.SendTarget("window")
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		g.app.Panel.TogglePostProcessing()
	}
	g.handleMouse()

	if g.width <= 0 || g.height <= 0 {
		return nil
	}
	if g.pix == nil || g.pix.Width() != g.width || g.pix.Height() != g.height {
		g.pix = gg.NewPixmap(g.width, g.height)
	}
	return g.app.Loop.Tick(g.width, g.height, g.pix)
}

func (g *game) handleMouse() {
	cam := g.app.Loop.Camera()
	if cam == nil || g.height <= 0 {
		return
	}

	x, y := ebiten.CursorPosition()
	if ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		if g.dragging {
			h := float64(g.height)
			cam.Orbit(-2*math.Pi*float64(x-g.lastX)/h, -2*math.Pi*float64(y-g.lastY)/h)
		}
		g.dragging = true
		g.lastX, g.lastY = x, y
	} else {
		g.dragging = false
	}

	if _, dy := ebiten.Wheel(); dy != 0 {
		cam.Zoom(math.Pow(0.9, dy))
	}
}

func (g *game) Draw(screen *ebiten.Image) {
	b := screen.Bounds()
	if g.pix == nil || g.pix.Width() != b.Dx() || g.pix.Height() != b.Dy() {
		return
	}
	screen.WritePixels(g.pix.Data())
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.width, g.height = outsideWidth, outsideHeight
	return outsideWidth, outsideHeight
}
