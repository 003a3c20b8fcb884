// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Peregrine Robotics

// Package sonar drives the I2C ultrasonic ranger. The module also
// carries two RGB LEDs addressed through the same register file.
package sonar

import (
	"encoding/binary"
	"fmt"
	"sync"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/peregrine-robotics/turbopi/internal/log"
	"github.com/peregrine-robotics/turbopi/pkg/board"
)

// Register map of the ranger module.
const (
	addr = 0x77

	regDistanceLow = 0x00 // u16 little-endian, millimeters
	regRGBMode     = 0x02
	regPixel0      = 0x03 // R, G, B in consecutive registers
	regPixel1      = 0x06
	regBreathing   = 0x09 // per-channel cycle times, two pixels
)

// MaxDistanceMM caps readings; the sensor reports garbage past this.
const MaxDistanceMM = 5000

// RGB LED modes.
const (
	ModeStatic    = 0
	ModeBreathing = 1
)

// busDev is the slice of the I2C device API this driver needs.
type busDev interface {
	Tx(w, r []byte) error
}

// Sonar reads distances and sets the module's RGB LEDs. When the I2C
// bus cannot be opened the driver runs simulated: writes succeed
// silently and reads return the maximum distance.
type Sonar struct {
	mu   sync.Mutex
	dev  busDev
	bus  i2c.BusCloser
	leds *board.LEDStore
}

// New opens the first available I2C bus and binds the ranger. A nil
// LED store is allowed; pixel writes then skip the cache update.
func New(leds *board.LEDStore) *Sonar {
	s := &Sonar{leds: leds}

	if _, err := host.Init(); err != nil {
		log.Warn("sonar running simulated, host init failed", "error", err)
		return s
	}
	bus, err := i2creg.Open("")
	if err != nil {
		log.Warn("sonar running simulated, no i2c bus", "error", err)
		return s
	}
	s.bus = bus
	s.dev = &i2c.Dev{Addr: addr, Bus: bus}
	return s
}

// newWithDev binds an existing device, for tests.
func newWithDev(dev busDev, leds *board.LEDStore) *Sonar {
	return &Sonar{dev: dev, leds: leds}
}

// Simulated reports whether the driver has no hardware behind it.
func (s *Sonar) Simulated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dev == nil
}

// Distance returns the ranged distance in millimeters, capped at
// MaxDistanceMM. Simulated mode always returns the cap.
func (s *Sonar) Distance() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dev == nil {
		return MaxDistanceMM, nil
	}

	buf := make([]byte, 2)
	if err := s.dev.Tx([]byte{regDistanceLow}, buf); err != nil {
		return 0, fmt.Errorf("sonar: reading distance: %w", err)
	}
	mm := int(binary.LittleEndian.Uint16(buf))
	if mm > MaxDistanceMM {
		mm = MaxDistanceMM
	}
	return mm, nil
}

// SetPixel sets one of the two RGB LEDs. Index is 0 or 1. The module
// is switched to static mode first so the color sticks.
func (s *Sonar) SetPixel(index int, c board.Color) error {
	if index < 0 || index > 1 {
		return fmt.Errorf("sonar: pixel index %d out of range", index)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dev != nil {
		if err := s.dev.Tx([]byte{regRGBMode, ModeStatic}, nil); err != nil {
			return fmt.Errorf("sonar: setting static mode: %w", err)
		}
		base := byte(regPixel0)
		if index == 1 {
			base = regPixel1
		}
		if err := s.dev.Tx([]byte{base, c.R, c.G, c.B}, nil); err != nil {
			return fmt.Errorf("sonar: writing pixel %d: %w", index, err)
		}
	}

	if s.leds != nil {
		led := board.LEDSonarLeft
		if index == 1 {
			led = board.LEDSonarRight
		}
		s.leds.Set(led, c)
	}
	return nil
}

// SetBreathing switches both pixels into breathing mode with the given
// per-channel cycle times in milliseconds. A cycle of zero disables
// that channel.
func (s *Sonar) SetBreathing(rCycleMS, gCycleMS, bCycleMS int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dev == nil {
		return nil
	}

	if err := s.dev.Tx([]byte{regRGBMode, ModeBreathing}, nil); err != nil {
		return fmt.Errorf("sonar: setting breathing mode: %w", err)
	}
	// Cycle times are stored in 100ms units, one byte per channel,
	// pixel 0 then pixel 1.
	r, g, b := byte(rCycleMS/100), byte(gCycleMS/100), byte(bCycleMS/100)
	if err := s.dev.Tx([]byte{regBreathing, r, g, b, r, g, b}, nil); err != nil {
		return fmt.Errorf("sonar: writing breathing cycles: %w", err)
	}
	return nil
}

// Close releases the I2C bus.
func (s *Sonar) Close() error {
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
