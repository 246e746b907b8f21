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
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/gogpu/gg"
	"golang.org/x/image/draw"
)

// ErrNotReady is returned when a capture is attempted before the target
// has been rendered.
var ErrNotReady = errors.New("offscreen: render target not ready")

// dataURIPrefix starts every encoded frame.
const dataURIPrefix = "data:image/png;base64,"

// EncodedFrame is a PNG image encoded as a base64 data URI.
type EncodedFrame string

// Decode returns the image contained in f.
func (f EncodedFrame) Decode() (image.Image, error) {
	s, ok := strings.CutPrefix(string(f), dataURIPrefix)
	if !ok {
		return nil, errors.New("offscreen: not a PNG data URI")
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("offscreen: decode frame: %w", err)
	}
	return png.Decode(bytes.NewReader(data))
}

// CaptureOptions controls how a target is turned into an EncodedFrame.
type CaptureOptions struct {
	// KeepRowOrder copies framebuffer rows to the image unchanged, so
	// that the captured image is upside down.  By default rows are
	// flipped and the image is upright.
	KeepRowOrder bool

	// Width and Height, if both positive, resample the captured image to
	// this size before encoding.
	Width, Height int
}

// Capture reads back the pixels of target and encodes them as a PNG data
// URI. If the target has never been rendered, ErrNotReady is returned.
func Capture(target *Target, opts *CaptureOptions) (EncodedFrame, error) {
	if opts == nil {
		opts = &CaptureOptions{}
	}

	info, ok := target.Texture()
	if !ok || info.Width <= 0 || info.Height <= 0 {
		return "", ErrNotReady
	}
	w, h := info.Width, info.Height

	buf := make([]uint8, w*h*BytesPerPixel)
	if err := target.ReadPixels(0, 0, w, h, buf); err != nil {
		return "", err
	}

	surface := gg.NewPixmap(w, h)
	for row := range h {
		y := h - 1 - row
		if opts.KeepRowOrder {
			y = row
		}
		line := buf[row*w*BytesPerPixel : (row+1)*w*BytesPerPixel]
		for x := range w {
			p := line[x*BytesPerPixel:]
			a := p[3]
			surface.SetPixelPremul(x, y, premul(p[0], a), premul(p[1], a), premul(p[2], a), a)
		}
	}

	if opts.Width > 0 && opts.Height > 0 && (opts.Width != w || opts.Height != h) {
		scaled := image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height))
		draw.CatmullRom.Scale(scaled, scaled.Bounds(), surface, surface.Bounds(), draw.Src, nil)
		surface = gg.FromImage(scaled)
	}

	var out bytes.Buffer
	out.WriteString(dataURIPrefix)
	enc := base64.NewEncoder(base64.StdEncoding, &out)
	if err := surface.EncodePNG(enc); err != nil {
		return "", fmt.Errorf("offscreen: encode capture: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return EncodedFrame(out.String()), nil
}

// premul multiplies the straight colour channel c by alpha a.
func premul(c, a uint8) uint8 {
	if a == 255 {
		return c
	}
	return uint8((uint32(c)*uint32(a) + 127) / 255)
}
