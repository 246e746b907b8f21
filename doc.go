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

// Package offscreen renders a 3D scene into an offscreen render target,
// composites the target onto a visible frame, and captures it as a PNG
// data URI.
//
// A [Loop] ties the pieces together. On every tick it renders the mounted
// [Scene] into a [Target] with a [Renderer], advances the time uniform,
// runs at most one pending capture from the [CaptureQueue], and draws the
// target through the [Compositor]. Captured frames are handed to an
// [Emitter], normally the Socket.IO client in the transport package.
//
// Targets store rows bottom-up. [Capture] flips them to the usual
// top-down image order unless [CaptureOptions.KeepRowOrder] is set.
package offscreen
