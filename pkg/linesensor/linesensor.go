// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Peregrine Robotics

// Package linesensor drives the four-channel infrared line follower
// over I2C.
package linesensor

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/peregrine-robotics/turbopi/internal/log"
)

const (
	addr     = 0x78
	regState = 0x01
)

// Channels is the number of infrared detectors on the module.
const Channels = 4

// Reading holds one sample. Index 0 is the leftmost detector when the
// robot is viewed from above facing forward. True means the detector
// sees the line.
type Reading [Channels]bool

// OnLine reports whether any detector sees the line.
func (r Reading) OnLine() bool {
	for _, b := range r {
		if b {
			return true
		}
	}
	return false
}

func (r Reading) String() string {
	buf := make([]byte, Channels)
	for i, b := range r {
		if b {
			buf[i] = '1'
		} else {
			buf[i] = '0'
		}
	}
	return string(buf)
}

type busDev interface {
	Tx(w, r []byte) error
}

// Sensor reads the line follower. When no I2C bus is available the
// driver runs simulated and every read reports no line.
type Sensor struct {
	mu  sync.Mutex
	dev busDev
	bus i2c.BusCloser
}

// New opens the first available I2C bus and binds the sensor.
func New() *Sensor {
	s := &Sensor{}

	if _, err := host.Init(); err != nil {
		log.Warn("line sensor running simulated, host init failed", "error", err)
		return s
	}
	bus, err := i2creg.Open("")
	if err != nil {
		log.Warn("line sensor running simulated, no i2c bus", "error", err)
		return s
	}
	s.bus = bus
	s.dev = &i2c.Dev{Addr: addr, Bus: bus}
	return s
}

func newWithDev(dev busDev) *Sensor {
	return &Sensor{dev: dev}
}

// Simulated reports whether the driver has no hardware behind it.
func (s *Sensor) Simulated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dev == nil
}

// Read samples all four detectors. Bit 0 of the state register is the
// leftmost detector.
func (s *Sensor) Read() (Reading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var r Reading
	if s.dev == nil {
		return r, nil
	}

	buf := make([]byte, 1)
	if err := s.dev.Tx([]byte{regState}, buf); err != nil {
		return r, fmt.Errorf("linesensor: reading state: %w", err)
	}
	for i := 0; i < Channels; i++ {
		r[i] = buf[0]&(1<<i) != 0
	}
	return r, nil
}

// Close releases the I2C bus.
func (s *Sensor) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dev = nil
	if s.bus != nil {
		err := s.bus.Close()
		s.bus = nil
		return err
	}
	return nil
}
