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

// Package controls holds the user-editable parameters of the playground.
//
// Values can be changed by the hosts (key presses), loaded from a JSON
// file, and reloaded whenever that file changes.
package controls

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/gogpu/gg"

	"seehuhn.de/go/offscreen"
)

// Values are the parameters shown in the controls panel.
type Values struct {
	PostProcessing bool   `json:"postprocessing"`
	BgColor        string `json:"bgColor"`

	// TestColor and Number are shown in the panel but not used by the
	// rendering pipeline.
	TestColor string  `json:"testColor"`
	Number    float64 `json:"number"`
}

// Defaults returns the initial values of the panel.
func Defaults() Values {
	return Values{
		PostProcessing: true,
		BgColor:        "#000000",
		TestColor:      "#000000",
		Number:         3,
	}
}

// Validate checks that the colour fields parse.
func (v Values) Validate() error {
	if _, err := gg.ParseHex(v.BgColor); err != nil {
		return fmt.Errorf("bgColor: %w", err)
	}
	if _, err := gg.ParseHex(v.TestColor); err != nil {
		return fmt.Errorf("testColor: %w", err)
	}
	return nil
}

// Load reads values from a JSON file. Fields missing from the file keep
// their default values.
func Load(path string) (Values, error) {
	v := Defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		return v, err
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("%s: %w", path, err)
	}
	if err := v.Validate(); err != nil {
		return v, fmt.Errorf("%s: %w", path, err)
	}
	return v, nil
}

// Panel is the live set of values. It is safe for concurrent use.
type Panel struct {
	queue *offscreen.CaptureQueue

	mu     sync.RWMutex
	values Values
	bg     gg.RGBA
}

// New returns a panel with default values. The sendTarget action puts
// requests into queue.
func New(queue *offscreen.CaptureQueue) *Panel {
	return &Panel{queue: queue, values: Defaults(), bg: gg.Black}
}

// Values returns the current values.
func (p *Panel) Values() Values {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.values
}

// Set replaces all values. Invalid values are rejected and leave the
// panel unchanged.
func (p *Panel) Set(v Values) error {
	if err := v.Validate(); err != nil {
		return err
	}
	bg, _ := gg.ParseHex(v.BgColor)

	p.mu.Lock()
	p.values = v
	p.bg = bg
	p.mu.Unlock()
	return nil
}

// TogglePostProcessing flips the post-processing switch and returns the
// new state.
func (p *Panel) TogglePostProcessing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.values.PostProcessing = !p.values.PostProcessing
	return p.values.PostProcessing
}

// SendTarget is the panel's action button: it requests one capture. It
// reports false if a capture was already pending.
func (p *Panel) SendTarget(source string) bool {
	offscreen.Logger().Debug("sendTarget", "source", source, "number", p.Values().Number)
	return p.queue.Request(offscreen.CaptureRequest{Source: source})
}

// Settings returns the values consumed by the frame loop.
func (p *Panel) Settings() offscreen.Settings {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return offscreen.Settings{
		PostProcessing: p.values.PostProcessing,
		Background:     p.bg,
	}
}

// Reload loads the JSON file at path into the panel. On error the panel
// keeps its previous values.
func (p *Panel) Reload(path string) (Values, error) {
	v, err := Load(path)
	if err != nil {
		return v, err
	}
	if err := p.Set(v); err != nil {
		return v, fmt.Errorf("%s: %w", path, err)
	}
	return v, nil
}

// Watch reloads the panel from the JSON file at path whenever the file is
// written or created, until ctx is cancelled. The file is loaded once
// before watching starts. Reload errors are logged and keep the previous
// values.
func (p *Panel) Watch(ctx context.Context, path string, log *slog.Logger) error {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	path = filepath.Clean(path)

	if _, err := p.Reload(path); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// watch the directory to see the file being replaced
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path || !(event.Op.Has(fsnotify.Write) || event.Op.Has(fsnotify.Create)) {
				continue
			}
			v, err := p.Reload(path)
			if err != nil {
				log.Warn("controls not reloaded", "path", path, "error", err)
				continue
			}
			log.Info("controls reloaded", "path", path,
				"postprocessing", v.PostProcessing, "bgColor", v.BgColor)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("watch error", "path", path, "error", err)
		}
	}
}
