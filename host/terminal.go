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

	"github.com/gdamore/tcell/v2"
	"github.com/gogpu/gg"
)

// upperHalf shows the top pixel of a cell in the foreground colour and
// the bottom pixel in the background colour.
const upperHalf = '▀'

// TerminalConfig controls the terminal host.
type TerminalConfig struct {
	Hz int
}

// RunTerminal shows the composite in screen, two pixels per character
// cell, until the user quits or ctx is cancelled.
//
// Keys: s sends the render target, p toggles post-processing, q or Esc
// quits. The caller owns screen and must call Fini after RunTerminal
// returns.
func RunTerminal(ctx context.Context, screen tcell.Screen, app App, cfg TerminalConfig) error {
	if cfg.Hz <= 0 {
		cfg.Hz = 30
	}
	d := time.Second / time.Duration(cfg.Hz)
	if d <= 0 {
		return fmt.Errorf("host: invalid terminal hz: %d", cfg.Hz)
	}

	events := make(chan tcell.Event, 16)
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-stop:
				return
			}
		}
	}()

	ticker := time.NewTicker(d)
	defer ticker.Stop()

	var f frame
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				switch {
				case ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC:
					return nil
				case ev.Key() != tcell.KeyRune:
				case ev.Rune() == 'q':
					return nil
				case ev.Rune() == 's':
					app.Panel.SendTarget("terminal")
				case ev.Rune() == 'p':
					app.Panel.TogglePostProcessing()
				}
			case *tcell.EventResize:
				screen.Sync()
			}

		case <-ticker.C:
			cols, rows := screen.Size()
			if cols <= 0 || rows <= 0 {
				continue
			}
			dst := f.ensure(cols, 2*rows)
			if err := app.Loop.Tick(cols, 2*rows, dst); err != nil {
				return err
			}
			drawHalfBlocks(screen, dst)
			screen.Show()
		}
	}
}

// drawHalfBlocks copies pix to the screen, one cell per two rows.
func drawHalfBlocks(screen tcell.Screen, pix *gg.Pixmap) {
	for row := range pix.Height() / 2 {
		for x := range pix.Width() {
			top := termColor(pix.GetPixel(x, 2*row))
			bottom := termColor(pix.GetPixel(x, 2*row+1))
			style := tcell.StyleDefault.Foreground(top).Background(bottom)
			screen.SetContent(x, row, upperHalf, nil, style)
		}
	}
}

func termColor(c gg.RGBA) tcell.Color {
	channel := func(v float64) int32 {
		return int32(min(max(v, 0), 1)*255 + 0.5)
	}
	return tcell.NewRGBColor(channel(c.R), channel(c.G), channel(c.B))
}
