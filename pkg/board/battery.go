// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Peregrine Robotics

package board

import (
	"errors"
	"sync"

	"github.com/peregrine-robotics/turbopi/pkg/rrc"
)

// ErrNoData is returned when no battery report has arrived yet
var ErrNoData = errors.New("board: no battery data yet")

// 2S lithium pack: 6.0V empty, 8.4V full.
const (
	batteryEmptyMV = 6000
	batteryFullMV  = 8400
)

// Battery tracks the most recent voltage report from the board's
// periodic SYS frames. Queries never wait for a report.
type Battery struct {
	mu        sync.RWMutex
	mv        int
	ok        bool
	onVoltage func(millivolts int)

	ch chan *rrc.Frame
}

// SetOnVoltage installs a hook invoked from the monitor goroutine for
// every battery report (telemetry hookup). The hook must not block.
func (b *Battery) SetOnVoltage(fn func(millivolts int)) {
	b.mu.Lock()
	b.onVoltage = fn
	b.mu.Unlock()
}

// NewBattery creates a battery monitor subscribed to the connection's
// SYS frames. Call Start after the hook is configured.
func NewBattery(conn *Conn) *Battery {
	b := &Battery{ch: make(chan *rrc.Frame, 16)}
	conn.Subscribe(rrc.FuncSys, b.ch)
	return b
}

// Start launches the monitor goroutine. It exits when the connection
// closes its subscriber channels.
func (b *Battery) Start() {
	go func() {
		for frame := range b.ch {
			mv, ok := frame.BatteryMillivolts()
			if !ok {
				// Unknown SYS sub-message, not an error.
				continue
			}
			b.mu.Lock()
			b.mv = mv
			b.ok = true
			hook := b.onVoltage
			b.mu.Unlock()

			if hook != nil {
				hook(mv)
			}
		}
	}()
}

// Voltage returns the most recent reading in millivolts, or ErrNoData
// if no report has arrived.
func (b *Battery) Voltage() (int, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.ok {
		return 0, ErrNoData
	}
	return b.mv, nil
}

// Percent returns the estimated charge percentage, mapping the pack's
// voltage range linearly onto 0-100.
func (b *Battery) Percent() (int, error) {
	mv, err := b.Voltage()
	if err != nil {
		return 0, err
	}
	return BatteryPercent(mv), nil
}

// BatteryPercent maps a pack voltage in millivolts to a charge
// percentage: 6000mV is empty, 8400mV is full, linear in between.
func BatteryPercent(mv int) int {
	pct := (mv - batteryEmptyMV) * 100 / (batteryFullMV - batteryEmptyMV)
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}
