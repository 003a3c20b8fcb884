// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Peregrine Robotics

// Package board owns the TurboPi expansion board: the serial (or
// simulated) link, frame fan-out to subscribers, and the public device
// facade used by the UI layer.
//
// Each driver runs in its own goroutine and owns its state; callers of
// the public API only enqueue work and never block on device I/O.
package board

import (
	"errors"
	"sync"
	"time"

	"github.com/peregrine-robotics/turbopi/internal/log"
	"github.com/peregrine-robotics/turbopi/pkg/rrc"
)

// ErrTransportClosed is returned when reading from a closed link
var ErrTransportClosed = errors.New("board: transport closed")

// outboundDepth bounds the send queue. Actuator commands are
// fire-and-forget; when the queue is full the oldest intent has already
// been superseded, so new frames are dropped with a warning instead of
// blocking the caller.
const outboundDepth = 128

// Conn manages the link to the expansion board. Whether a physical
// device is present is determined once at construction; hot-plug is not
// supported. Without a device the Conn runs in simulated mode: sends
// are discarded, subscriptions never fire, nothing errors.
type Conn struct {
	transport Transport // nil in simulated mode
	dec       *rrc.Decoder

	mu   sync.Mutex
	subs map[rrc.FunctionCode][]chan<- *rrc.Frame

	out     chan []byte
	done    chan struct{}
	wg      sync.WaitGroup
	started bool
	closed  bool
}

// NewConn creates a connection manager over the given transport.
// Call Start after registering subscribers.
func NewConn(t Transport) *Conn {
	return &Conn{
		transport: t,
		dec:       rrc.NewDecoder(),
		subs:      make(map[rrc.FunctionCode][]chan<- *rrc.Frame),
		out:       make(chan []byte, outboundDepth),
		done:      make(chan struct{}),
	}
}

// NewSimulated creates a connection manager with no physical device.
func NewSimulated() *Conn {
	return NewConn(nil)
}

// Open opens the board link, preferring a websocket bridge URL over a
// local serial device, and falling back to simulated mode when neither
// is reachable. A missing board is a normal development condition, not
// an error.
func Open(device string, baudRate int, wsURL string) *Conn {
	if wsURL != "" {
		t, err := OpenWebSocket(wsURL)
		if err == nil {
			log.Info("board link up", "transport", "websocket", "url", wsURL)
			return NewConn(t)
		}
		log.Warn("websocket bridge unreachable, falling back to simulated mode", "error", err)
		return NewSimulated()
	}

	t, err := OpenSerial(device, baudRate)
	if err != nil {
		log.Warn("expansion board not found, running in simulated mode", "device", device, "error", err)
		return NewSimulated()
	}
	log.Info("board link up", "transport", "serial", "device", device, "baud", baudRate)
	return NewConn(t)
}

// Connected reports whether a physical transport is attached
func (c *Conn) Connected() bool {
	return c.transport != nil
}

// Subscribe registers a channel to receive every inbound frame with the
// given function code. Registration order determines delivery order.
// Subscribers are registered at startup, before Start.
func (c *Conn) Subscribe(function rrc.FunctionCode, ch chan<- *rrc.Frame) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subs[function] = append(c.subs[function], ch)
}

// Start launches the reader and writer loops. No-op in simulated mode.
func (c *Conn) Start() {
	if c.transport == nil || c.started {
		return
	}
	c.started = true

	c.wg.Add(2)
	go c.readLoop()
	go c.writeLoop()
}

// Send queues a wire-format frame for transmission. Never blocks and
// never errors: in simulated mode the frame is discarded, and transport
// faults are absorbed by the writer loop.
func (c *Conn) Send(frame []byte) {
	if c.transport == nil {
		log.Debug("simulated send", "bytes", len(frame))
		return
	}

	select {
	case c.out <- frame:
	case <-c.done:
	default:
		log.Warn("outbound queue full, dropping frame", "bytes", len(frame))
	}
}

// Close shuts down the loops, closes the transport and closes all
// subscriber channels so driver goroutines can exit.
func (c *Conn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	close(c.done)

	var err error
	if c.transport != nil {
		err = c.transport.Close()
	}
	c.wg.Wait()

	// A channel may be subscribed to several function codes; close each
	// one exactly once.
	c.mu.Lock()
	seen := make(map[chan<- *rrc.Frame]bool)
	for _, chans := range c.subs {
		for _, ch := range chans {
			if !seen[ch] {
				seen[ch] = true
				close(ch)
			}
		}
	}
	c.subs = make(map[rrc.FunctionCode][]chan<- *rrc.Frame)
	c.mu.Unlock()

	return err
}

// readLoop drains the transport, feeds the decoder and dispatches
// completed frames. Read errors are logged and retried; the link stays
// up through transient faults like momentary undervoltage.
func (c *Conn) readLoop() {
	defer c.wg.Done()

	buf := make([]byte, 256)
	for {
		n, err := c.transport.Read(buf)
		if err != nil {
			select {
			case <-c.done:
				return
			default:
			}
			log.Warn("board read error", "error", err)
			// Momentary undervoltage shows up as read errors; back off
			// instead of spinning, the link stays degraded not dead.
			select {
			case <-time.After(100 * time.Millisecond):
			case <-c.done:
				return
			}
			continue
		}
		if n == 0 {
			continue
		}

		for _, frame := range c.dec.Feed(buf[:n]) {
			c.dispatch(frame)
		}
	}
}

// dispatch fans a frame out to its subscribers in registration order.
// Sends are non-blocking: a stalled subscriber loses frames rather than
// stalling the reader.
func (c *Conn) dispatch(frame *rrc.Frame) {
	c.mu.Lock()
	chans := c.subs[frame.Function()]
	c.mu.Unlock()

	for _, ch := range chans {
		select {
		case ch <- frame:
		default:
			log.Debug("subscriber backlogged, frame dropped", "function", frame.Function())
		}
	}
}

// writeLoop serializes outbound frames in submission order.
func (c *Conn) writeLoop() {
	defer c.wg.Done()

	for {
		select {
		case frame := <-c.out:
			if _, err := c.transport.Write(frame); err != nil {
				log.Warn("board write error", "error", err)
			}
		case <-c.done:
			return
		}
	}
}

// ChecksumErrors reports the number of corrupt frames skipped so far
func (c *Conn) ChecksumErrors() uint64 {
	return c.dec.ChecksumErrors()
}

// BytesDropped reports the number of inbound bytes discarded during
// resynchronization
func (c *Conn) BytesDropped() uint64 {
	return c.dec.BytesDropped()
}
