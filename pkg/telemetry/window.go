// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Peregrine Robotics

package telemetry

import (
	"math"
	"time"
)

// Entry is one closed telemetry window: average pack voltage and the
// share of wall-clock time each consumer was active.
type Entry struct {
	Timestamp    time.Time `json:"timestamp"`
	AvgVoltageMV int       `json:"avg_voltage_mv"`
	MotorPct     int       `json:"motor_pct"`
	CameraPct    int       `json:"camera_pct"`
}

// Power model constants in milliamps. Motor draw is interpolated
// linearly between the idle-speed baseline and the full-speed ceiling.
const (
	baseDrawMA      = 450
	cameraDrawMA    = 280
	motorIdleDrawMA = 150
	motorFullDrawMA = 1200
)

// CurrentDrawMA estimates the instantaneous current draw for a given
// activity state.
func CurrentDrawMA(cameraOn, motorsOn bool, motorSpeed int) int {
	draw := baseDrawMA
	if cameraOn {
		draw += cameraDrawMA
	}
	if motorsOn {
		if motorSpeed < 0 {
			motorSpeed = 0
		}
		if motorSpeed > 100 {
			motorSpeed = 100
		}
		draw += motorIdleDrawMA + (motorFullDrawMA-motorIdleDrawMA)*motorSpeed/100
	}
	return draw
}

// window accumulates samples and activity durations between roll-overs.
type window struct {
	start        time.Time
	voltages     []int
	motorActive  time.Duration
	cameraActive time.Duration
}

// activity is the live consumer state mutated by events and read at
// roll-over and by the idle check.
type activity struct {
	cameraOn     bool
	motorsOn     bool
	motorSpeed   int
	motorSince   time.Time
	cameraSince  time.Time
	lastMotorCmd time.Time
}

// tracker holds all aggregator state. It is deliberately clock-free:
// every mutation takes the current instant as a parameter, which keeps
// the window math deterministic under test. Only the aggregator
// goroutine touches a tracker.
type tracker struct {
	win         window
	act         activity
	history     []Entry
	retention   int
	idleTimeout time.Duration
	lastVoltage int
	hasVoltage  bool
}

func newTracker(now time.Time, retention int, idleTimeout time.Duration) *tracker {
	return &tracker{
		win:         window{start: now},
		retention:   retention,
		idleTimeout: idleTimeout,
	}
}

func (t *tracker) noteVoltage(mv int, now time.Time) {
	t.win.voltages = append(t.win.voltages, mv)
	t.lastVoltage = mv
	t.hasVoltage = true
}

// noteMotor records a motor command. Speed zero is an explicit stop;
// any positive speed opens (or continues) an active span.
func (t *tracker) noteMotor(speed int, now time.Time) {
	t.act.lastMotorCmd = now
	if speed <= 0 {
		t.stopMotors(now)
		return
	}
	if !t.act.motorsOn {
		t.act.motorsOn = true
		t.act.motorSince = now
	}
	t.act.motorSpeed = speed
}

// stopMotors folds the in-progress active span into the current window.
// Idempotent: a second call without an intervening start is a no-op, so
// repeated idle checks cannot double count.
func (t *tracker) stopMotors(now time.Time) {
	if !t.act.motorsOn {
		return
	}
	t.win.motorActive += now.Sub(t.act.motorSince)
	t.act.motorsOn = false
	t.act.motorSpeed = 0
}

func (t *tracker) noteCamera(on bool, now time.Time) {
	if on == t.act.cameraOn {
		return
	}
	if on {
		t.act.cameraOn = true
		t.act.cameraSince = now
	} else {
		t.win.cameraActive += now.Sub(t.act.cameraSince)
		t.act.cameraOn = false
	}
}

// checkIdle retires the motor span when no command has been seen for
// the idle timeout. Motor stop is not always explicit: a dropped
// connection or a crashed UI must not leave an activity span open
// forever. Returns true when a span was retired.
func (t *tracker) checkIdle(now time.Time) bool {
	if !t.act.motorsOn {
		return false
	}
	if now.Sub(t.act.lastMotorCmd) <= t.idleTimeout {
		return false
	}
	t.stopMotors(now)
	return true
}

// closeWindow rolls the current window over. Any still-ongoing activity
// span is finalized up to the close instant and restarted in the new
// window. An entry is produced only when at least one voltage sample
// accumulated.
func (t *tracker) closeWindow(now time.Time) (Entry, bool) {
	if t.act.motorsOn {
		t.win.motorActive += now.Sub(t.act.motorSince)
		t.act.motorSince = now
	}
	if t.act.cameraOn {
		t.win.cameraActive += now.Sub(t.act.cameraSince)
		t.act.cameraSince = now
	}

	duration := now.Sub(t.win.start)
	closed := t.win
	t.win = window{start: now}

	if len(closed.voltages) == 0 || duration <= 0 {
		return Entry{}, false
	}

	sum := 0
	for _, mv := range closed.voltages {
		sum += mv
	}

	entry := Entry{
		Timestamp:    now,
		AvgVoltageMV: sum / len(closed.voltages),
		MotorPct:     activePct(closed.motorActive, duration),
		CameraPct:    activePct(closed.cameraActive, duration),
	}

	t.history = append([]Entry{entry}, t.history...)
	if len(t.history) > t.retention {
		t.history = t.history[:t.retention]
	}
	return entry, true
}

func activePct(active, total time.Duration) int {
	pct := int(math.Round(100 * float64(active) / float64(total)))
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// snapshot captures the externally visible state.
func (t *tracker) snapshot() Snapshot {
	history := make([]Entry, len(t.history))
	copy(history, t.history)
	return Snapshot{
		VoltageMV:     t.lastVoltage,
		HasVoltage:    t.hasVoltage,
		CameraOn:      t.act.cameraOn,
		MotorsOn:      t.act.motorsOn,
		MotorSpeed:    t.act.motorSpeed,
		CurrentDrawMA: CurrentDrawMA(t.act.cameraOn, t.act.motorsOn, t.act.motorSpeed),
		History:       history,
	}
}
