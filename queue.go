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

// CaptureRequest asks the frame loop to capture the render target on its
// next tick.
type CaptureRequest struct {
	// Source names what triggered the request, for logging.
	Source string
}

// CaptureQueue holds at most one pending capture request. Requests made
// while one is pending are dropped. It is safe for concurrent use.
type CaptureQueue struct {
	slot chan CaptureRequest
}

// NewCaptureQueue returns an empty queue.
func NewCaptureQueue() *CaptureQueue {
	return &CaptureQueue{slot: make(chan CaptureRequest, 1)}
}

// Request schedules a capture. It reports false if a request was already
// pending, in which case r is discarded.
func (q *CaptureQueue) Request(r CaptureRequest) bool {
	select {
	case q.slot <- r:
		return true
	default:
		Logger().Debug("capture request dropped", "source", r.Source)
		return false
	}
}

// Take removes and returns the pending request, if any.
func (q *CaptureQueue) Take() (CaptureRequest, bool) {
	select {
	case r := <-q.slot:
		return r, true
	default:
		return CaptureRequest{}, false
	}
}

// Pending reports whether a request is waiting.
func (q *CaptureQueue) Pending() bool {
	return len(q.slot) > 0
}
