// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Peregrine Robotics

// Package telemetry aggregates voltage readings and activity events
// into fixed-interval rolling windows with a bounded history.
//
// A single goroutine owns all state; producers and queries talk to it
// over channels, so activity flips arriving mid-roll-over can never
// tear a window.
package telemetry

import (
	"time"

	"github.com/peregrine-robotics/turbopi/internal/log"
)

// Snapshot is the externally visible aggregator state.
type Snapshot struct {
	VoltageMV     int     `json:"voltage_mv"`
	HasVoltage    bool    `json:"has_voltage"`
	CameraOn      bool    `json:"camera_on"`
	MotorsOn      bool    `json:"motors_on"`
	MotorSpeed    int     `json:"motor_speed"`
	CurrentDrawMA int     `json:"current_draw_ma"`
	History       []Entry `json:"history"`
}

// Config holds the aggregator's timing knobs.
type Config struct {
	// WindowInterval is the roll-over period for history entries.
	WindowInterval time.Duration
	// IdleTimeout retires the motor span when no command arrives.
	IdleTimeout time.Duration
	// IdleCheckInterval is how often the idle timeout is evaluated.
	IdleCheckInterval time.Duration
	// Retention caps the history length; oldest entries are evicted.
	Retention int
}

func (c Config) withDefaults() Config {
	if c.WindowInterval <= 0 {
		c.WindowInterval = time.Minute
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = 2 * time.Second
	}
	if c.IdleCheckInterval <= 0 {
		c.IdleCheckInterval = 250 * time.Millisecond
	}
	if c.Retention <= 0 {
		c.Retention = 120
	}
	return c
}

type eventKind int

const (
	evVoltage eventKind = iota
	evMotor
	evCamera
)

type event struct {
	kind  eventKind
	value int
	on    bool
}

// Aggregator consumes voltage and activity events and maintains the
// rolling windows. Create with New, then Start.
type Aggregator struct {
	cfg Config

	events  chan event
	snapReq chan chan Snapshot
	subReq  chan chan<- Snapshot
	done    chan struct{}
	stopped chan struct{}
}

// New creates an aggregator. Zero-valued config fields get defaults.
func New(cfg Config) *Aggregator {
	return &Aggregator{
		cfg:     cfg.withDefaults(),
		events:  make(chan event, 256),
		snapReq: make(chan chan Snapshot),
		subReq:  make(chan chan<- Snapshot),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// Start launches the aggregator goroutine.
func (a *Aggregator) Start() {
	go a.run()
}

// NoteVoltage records a battery reading in millivolts. Never blocks.
func (a *Aggregator) NoteVoltage(mv int) {
	a.send(event{kind: evVoltage, value: mv})
}

// NoteMotor records a motor command at the given speed; zero is a stop.
// Never blocks.
func (a *Aggregator) NoteMotor(speed int) {
	a.send(event{kind: evMotor, value: speed})
}

// NoteCamera records the camera turning on or off. Never blocks.
func (a *Aggregator) NoteCamera(on bool) {
	a.send(event{kind: evCamera, on: on})
}

func (a *Aggregator) send(ev event) {
	select {
	case a.events <- ev:
	case <-a.done:
	default:
		log.Debug("telemetry event queue full, event dropped")
	}
}

// Snapshot returns the current aggregator state. Returns the zero
// snapshot after Close.
func (a *Aggregator) Snapshot() Snapshot {
	reply := make(chan Snapshot, 1)
	select {
	case a.snapReq <- reply:
		return <-reply
	case <-a.done:
		return Snapshot{}
	}
}

// Subscribe registers a channel that receives a snapshot after every
// window roll-over. Delivery is non-blocking; a slow subscriber misses
// snapshots rather than stalling the aggregator.
func (a *Aggregator) Subscribe(ch chan<- Snapshot) {
	select {
	case a.subReq <- ch:
	case <-a.done:
	}
}

// Close stops the aggregator and waits for its goroutine to exit.
func (a *Aggregator) Close() {
	select {
	case <-a.done:
		return
	default:
	}
	close(a.done)
	<-a.stopped
}

func (a *Aggregator) run() {
	defer close(a.stopped)

	tr := newTracker(time.Now(), a.cfg.Retention, a.cfg.IdleTimeout)
	var subs []chan<- Snapshot

	windowTick := time.NewTicker(a.cfg.WindowInterval)
	defer windowTick.Stop()
	idleTick := time.NewTicker(a.cfg.IdleCheckInterval)
	defer idleTick.Stop()

	for {
		select {
		case ev := <-a.events:
			now := time.Now()
			switch ev.kind {
			case evVoltage:
				tr.noteVoltage(ev.value, now)
			case evMotor:
				tr.noteMotor(ev.value, now)
			case evCamera:
				tr.noteCamera(ev.on, now)
			}

		case <-windowTick.C:
			if entry, ok := tr.closeWindow(time.Now()); ok {
				log.Debug("telemetry window closed",
					"avg_mv", entry.AvgVoltageMV,
					"motor_pct", entry.MotorPct,
					"camera_pct", entry.CameraPct)
				snap := tr.snapshot()
				for _, ch := range subs {
					select {
					case ch <- snap:
					default:
					}
				}
			}

		case <-idleTick.C:
			if tr.checkIdle(time.Now()) {
				log.Debug("motor activity retired by idle timeout")
			}

		case reply := <-a.snapReq:
			reply <- tr.snapshot()

		case ch := <-a.subReq:
			subs = append(subs, ch)

		case <-a.done:
			return
		}
	}
}
