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

// Package transport sends captured frames to a Socket.IO listener.
//
// Only the parts of the Socket.IO protocol (revision 5, over Engine.IO
// version 4) needed for fire-and-forget event emission are implemented:
// the WebSocket transport, the default namespace, heartbeats and EVENT
// packets.  Acknowledgements, binary attachments and reconnection are
// not supported.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var (
	// ErrClosed is returned by Emit after Close has been called or the
	// connection has been lost.
	ErrClosed = errors.New("transport: connection closed")

	// ErrBusy is returned by Emit when the send queue is full.
	ErrBusy = errors.New("transport: send queue full")
)

// Engine.IO packet types
const (
	eioOpen    = '0'
	eioClose   = '1'
	eioPing    = '2'
	eioPong    = '3'
	eioMessage = '4'
)

// Socket.IO packet types, carried inside Engine.IO messages
const (
	sioConnect      = '0'
	sioDisconnect   = '1'
	sioEvent        = '2'
	sioConnectError = '4'
)

const handshakeTimeout = 10 * time.Second

// handshake is the payload of the Engine.IO open packet.
type handshake struct {
	SID          string `json:"sid"`
	PingInterval int    `json:"pingInterval"` // ms
	PingTimeout  int    `json:"pingTimeout"`  // ms
	MaxPayload   int    `json:"maxPayload"`
}

// Client is a connection to the default namespace of a Socket.IO server.
// All methods are safe for concurrent use.
type Client struct {
	conn *websocket.Conn
	log  *slog.Logger
	hs   handshake

	send chan []byte
	done chan struct{}
	dead chan struct{}

	closeOnce sync.Once
	deadOnce  sync.Once
	writerWG  sync.WaitGroup
}

// Option configures Dial.
type Option func(*options)

type options struct {
	log       *slog.Logger
	dialer    *websocket.Dialer
	queueSize int
}

// WithLogger sets the logger for connection events.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithDialer replaces websocket.DefaultDialer.
func WithDialer(d *websocket.Dialer) Option {
	return func(o *options) { o.dialer = d }
}

// WithQueueSize sets how many emitted events may wait for the writer.
func WithQueueSize(n int) Option {
	return func(o *options) { o.queueSize = max(n, 1) }
}

// Dial connects to the Socket.IO server at endpoint, for example
// "http://localhost:5000", and joins the default namespace.
func Dial(ctx context.Context, endpoint string, opts ...Option) (*Client, error) {
	o := options{
		log:       slog.New(slog.DiscardHandler),
		dialer:    websocket.DefaultDialer,
		queueSize: 4,
	}
	for _, opt := range opts {
		opt(&o)
	}

	wsURL, err := socketURL(endpoint)
	if err != nil {
		return nil, err
	}
	conn, _, err := o.dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("transport: dial %s: %w", endpoint, err)
	}

	c := &Client{
		conn: conn,
		log:  o.log.With("endpoint", endpoint),
		send: make(chan []byte, o.queueSize),
		done: make(chan struct{}),
		dead: make(chan struct{}),
	}
	if err := c.open(ctx); err != nil {
		conn.Close()
		return nil, err
	}

	c.writerWG.Add(1)
	go c.writeLoop()
	go c.readLoop()
	c.log.Info("connected", "sid", c.hs.SID)
	return c, nil
}

// socketURL turns an http(s) or ws(s) endpoint into the Engine.IO
// WebSocket URL.
func socketURL(endpoint string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("transport: invalid endpoint: %w", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("transport: unsupported scheme %q", u.Scheme)
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = "/socket.io/"
	}
	q := u.Query()
	q.Set("EIO", "4")
	q.Set("transport", "websocket")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// open performs the Engine.IO handshake and the namespace connection.
func (c *Client) open(ctx context.Context) error {
	deadline := time.Now().Add(handshakeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	c.conn.SetReadDeadline(deadline)
	c.conn.SetWriteDeadline(deadline)
	defer c.conn.SetWriteDeadline(time.Time{})

	msg, err := c.readText()
	if err != nil {
		return fmt.Errorf("transport: handshake: %w", err)
	}
	if len(msg) == 0 || msg[0] != eioOpen {
		return fmt.Errorf("transport: handshake: unexpected packet %q", msg)
	}
	if err := json.Unmarshal(msg[1:], &c.hs); err != nil {
		return fmt.Errorf("transport: handshake: %w", err)
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, []byte{eioMessage, sioConnect}); err != nil {
		return fmt.Errorf("transport: namespace connect: %w", err)
	}
	for {
		msg, err := c.readText()
		if err != nil {
			return fmt.Errorf("transport: namespace connect: %w", err)
		}
		switch {
		case len(msg) >= 2 && msg[0] == eioMessage && msg[1] == sioConnect:
			c.armReadDeadline()
			return nil
		case len(msg) >= 2 && msg[0] == eioMessage && msg[1] == sioConnectError:
			return fmt.Errorf("transport: namespace connect refused: %s", msg[2:])
		case len(msg) == 1 && msg[0] == eioPing:
			if err := c.conn.WriteMessage(websocket.TextMessage, []byte{eioPong}); err != nil {
				return err
			}
		}
	}
}

func (c *Client) readText() ([]byte, error) {
	for {
		typ, msg, err := c.conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		if typ == websocket.TextMessage {
			return msg, nil
		}
	}
}

// armReadDeadline expects the next server ping within one heartbeat.
func (c *Client) armReadDeadline() {
	if c.hs.PingInterval <= 0 {
		c.conn.SetReadDeadline(time.Time{})
		return
	}
	wait := time.Duration(c.hs.PingInterval+c.hs.PingTimeout) * time.Millisecond
	c.conn.SetReadDeadline(time.Now().Add(wait))
}

// readLoop answers heartbeats and watches for the server closing the
// connection. Incoming events are ignored.
func (c *Client) readLoop() {
	defer c.markDead()
	for {
		msg, err := c.readText()
		if err != nil {
			select {
			case <-c.done:
			default:
				c.log.Warn("connection lost", "error", err)
			}
			return
		}
		c.armReadDeadline()

		switch {
		case len(msg) == 1 && msg[0] == eioPing:
			select {
			case c.send <- []byte{eioPong}:
			default:
				c.log.Debug("pong dropped, send queue full")
			}
		case len(msg) >= 1 && msg[0] == eioClose:
			c.log.Info("server closed the connection")
			return
		case len(msg) >= 2 && msg[0] == eioMessage && msg[1] == sioDisconnect:
			c.log.Info("server disconnected the namespace")
			return
		}
	}
}

// writeLoop is the only goroutine writing to the connection.
func (c *Client) writeLoop() {
	defer c.writerWG.Done()
	for {
		select {
		case pkt := <-c.send:
			if err := c.conn.WriteMessage(websocket.TextMessage, pkt); err != nil {
				c.log.Warn("write failed", "error", err)
				c.markDead()
				return
			}
		case <-c.dead:
			return
		case <-c.done:
			deadline := time.Now().Add(time.Second)
			c.conn.SetWriteDeadline(deadline)
			c.conn.WriteMessage(websocket.TextMessage, []byte{eioMessage, sioDisconnect})
			c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
			return
		}
	}
}

func (c *Client) markDead() {
	c.deadOnce.Do(func() { close(c.dead) })
}

// Emit queues an EVENT packet with the given name and payload and returns
// without waiting for it to be written.  Nothing is retried: if the queue
// is full the event is dropped and ErrBusy is returned.
//
// Packets larger than the maxPayload announced by the server are still
// sent, with a warning.  Servers usually answer them by closing the
// connection, after which Emit returns ErrClosed.  Large frames can be
// kept below the limit by setting a smaller capture size with
// offscreen.CaptureOptions.
func (c *Client) Emit(event string, payload any) error {
	select {
	case <-c.done:
		return ErrClosed
	case <-c.dead:
		return ErrClosed
	default:
	}

	body, err := json.Marshal([]any{event, payload})
	if err != nil {
		return fmt.Errorf("transport: encode %s: %w", event, err)
	}
	pkt := make([]byte, 0, len(body)+2)
	pkt = append(pkt, eioMessage, sioEvent)
	pkt = append(pkt, body...)
	if c.hs.MaxPayload > 0 && len(pkt) > c.hs.MaxPayload {
		c.log.Warn("packet exceeds the server's maxPayload, reduce the capture size",
			"event", event, "bytes", len(pkt), "maxPayload", c.hs.MaxPayload)
	}

	select {
	case c.send <- pkt:
		return nil
	default:
		return ErrBusy
	}
}

// Close leaves the namespace and closes the connection. Events still in
// the send queue are discarded.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		c.writerWG.Wait()
		err = c.conn.Close()
		c.log.Info("disconnected")
	})
	return err
}

// Discard drops every event. It stands in for a Client when no listener
// is configured.
var Discard discard

type discard struct{}

// Emit implements the Emitter interface of the frame loop.
func (discard) Emit(string, any) error { return nil }
