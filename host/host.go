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

// Package host drives the frame loop from a terminal or from a timer.
//
// A host supplies the tick, the viewport size and the user actions; the
// desktop window host lives in the window subpackage.
package host

import (
	"github.com/gogpu/gg"

	"seehuhn.de/go/offscreen"
	"seehuhn.de/go/offscreen/controls"
)

// App is what a host drives.
type App struct {
	Loop  *offscreen.Loop
	Panel *controls.Panel
}

// frame keeps a visible frame buffer matching the viewport size.
type frame struct {
	pix *gg.Pixmap
}

// ensure returns a pixmap of the given size, reallocating on change.
func (f *frame) ensure(width, height int) *gg.Pixmap {
	if f.pix == nil || f.pix.Width() != width || f.pix.Height() != height {
		f.pix = gg.NewPixmap(width, height)
	}
	return f.pix
}
