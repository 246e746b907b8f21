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

package host

import (
	"context"
	"fmt"
	"time"

	"github.com/gogpu/gg"
)

// HeadlessConfig controls the timer driven host.
type HeadlessConfig struct {
	Width, Height int
	Hz            int

	// Ticks stops the host after this many frames. Zero runs until the
	// context is cancelled.
	Ticks uint64

	// CaptureAt requests a capture on this frame (counted from 1).
	// Zero disables it.
	CaptureAt uint64

	// Trigger requests a capture for every value received.
	Trigger <-chan struct{}

	// Composite enables the composite pass into an in-memory frame.
	Composite bool
}

// RunHeadless ticks the loop at a fixed rate without any visible output.
func RunHeadless(ctx context.Context, app App, cfg HeadlessConfig) error {
	if cfg.Hz <= 0 {
		cfg.Hz = 60
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return fmt.Errorf("host: invalid headless viewport %dx%d", cfg.Width, cfg.Height)
	}
	d := time.Second / time.Duration(cfg.Hz)
	if d <= 0 {
		return fmt.Errorf("host: invalid headless hz: %d", cfg.Hz)
	}
	t := time.NewTicker(d)
	defer t.Stop()

	var f frame
	var tick uint64
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-cfg.Trigger:
			app.Panel.SendTarget("signal")
		case <-t.C:
			tick++
			if tick == cfg.CaptureAt {
				app.Panel.SendTarget(fmt.Sprintf("tick %d", tick))
			}

			var dst *gg.Pixmap
			if cfg.Composite {
				dst = f.ensure(cfg.Width, cfg.Height)
			}
			if err := app.Loop.Tick(cfg.Width, cfg.Height, dst); err != nil {
				return err
			}
			if cfg.Ticks > 0 && tick >= cfg.Ticks {
				return nil
			}
		}
	}
}
