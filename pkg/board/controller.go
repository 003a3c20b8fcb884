// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Peregrine Robotics

package board

import (
	"fmt"
	"math"

	"github.com/peregrine-robotics/turbopi/pkg/rrc"
)

// PWM servo pulse limits in microseconds. Out-of-range pulses are
// rejected rather than clamped: a clamped value could still command a
// dangerous gimbal angle if the caller's range tables are wrong.
const (
	ServoPulseMin = 500
	ServoPulseMax = 2500
)

// The gimbal carries two PWM servos on board headers 1 and 2.
const pwmServoCount = 2

// Controller is the public device facade combining kinematics and the
// connection manager. Every command is fire-and-forget: the protocol
// has no acknowledgments for actuator frames, so nothing here waits on
// the board.
type Controller struct {
	conn    *Conn
	battery *Battery
	leds    *LEDStore

	// OnMotion, when set, is invoked for every drive/stop command with
	// the commanded direction and speed (telemetry hookup). Must not
	// block: it runs on the caller's goroutine.
	OnMotion func(direction string, speed int)
}

// NewController creates the device facade over an open connection.
func NewController(conn *Conn) *Controller {
	c := &Controller{
		conn:    conn,
		battery: NewBattery(conn),
		leds:    NewLEDStore(),
	}
	c.battery.Start()
	return c
}

// Conn exposes the underlying connection manager
func (c *Controller) Conn() *Conn {
	return c.conn
}

// Battery exposes the battery monitor
func (c *Controller) Battery() *Battery {
	return c.battery
}

// LEDs exposes the last-known-color cache
func (c *Controller) LEDs() *LEDStore {
	return c.leds
}

// Connected reports whether a physical board is attached
func (c *Controller) Connected() bool {
	return c.conn.Connected()
}

// Drive moves the chassis in a named direction at the given speed
// (0-100). Both driving modes share VelocityToDuties; there is no
// per-direction wheel math to drift out of sync.
func (c *Controller) Drive(dir Direction, speed int) error {
	if speed < 0 || speed > 100 {
		return fmt.Errorf("speed %d out of range [0, 100]", speed)
	}
	vx, vy, omega, err := dir.Velocity(float64(speed))
	if err != nil {
		return err
	}

	c.conn.Send(rrc.MotorDutyFrame(VelocityToDuties(vx, vy, omega)))
	c.emitMotion(string(dir), speed)
	return nil
}

// DriveVector moves the chassis with an explicit velocity triple, each
// component in [-100, 100].
func (c *Controller) DriveVector(vx, vy, omega float64) error {
	for _, v := range [3]float64{vx, vy, omega} {
		if v < -100 || v > 100 {
			return fmt.Errorf("velocity component %.1f out of range [-100, 100]", v)
		}
	}

	c.conn.Send(rrc.MotorDutyFrame(VelocityToDuties(vx, vy, omega)))
	speed := int(math.Max(math.Abs(vx), math.Max(math.Abs(vy), math.Abs(omega))))
	c.emitMotion("vector", speed)
	return nil
}

// Stop halts all four wheels.
func (c *Controller) Stop() {
	c.conn.Send(rrc.MotorDutyFrame([4]float64{0, 0, 0, 0}))
	c.emitMotion("stop", 0)
}

func (c *Controller) emitMotion(direction string, speed int) {
	if c.OnMotion != nil {
		c.OnMotion(direction, speed)
	}
}

// SetLED sets one of the board's RGB pixels and records the color in
// the cache. Channel values outside 0-255 are rejected at the boundary
// before any frame is built.
func (c *Controller) SetLED(id LED, r, g, b int) error {
	if id != LEDBoardLeft && id != LEDBoardRight {
		return fmt.Errorf("LED %s is not driven by the expansion board", id)
	}
	for _, v := range [3]int{r, g, b} {
		if v < 0 || v > 255 {
			return fmt.Errorf("color channel %d out of range [0, 255]", v)
		}
	}

	frame, err := rrc.RGBFrame([]rrc.RGBPixel{{
		Index: uint8(id-LEDBoardLeft) + 1,
		R:     uint8(r), G: uint8(g), B: uint8(b),
	}})
	if err != nil {
		return err
	}
	c.conn.Send(frame)
	c.leds.Set(id, Color{R: uint8(r), G: uint8(g), B: uint8(b)})
	return nil
}

// SetServo moves a gimbal servo to the given pulse width over
// durationMS milliseconds.
func (c *Controller) SetServo(id int, pulseUS int, durationMS int) error {
	if id < 1 || id > pwmServoCount {
		return fmt.Errorf("servo id %d out of range [1, %d]", id, pwmServoCount)
	}
	if pulseUS < ServoPulseMin || pulseUS > ServoPulseMax {
		return fmt.Errorf("pulse %dus out of range [%d, %d]", pulseUS, ServoPulseMin, ServoPulseMax)
	}
	if durationMS < 0 || durationMS > math.MaxUint16 {
		return fmt.Errorf("duration %dms out of range", durationMS)
	}

	frame, err := rrc.PWMServoFrame(uint16(durationMS), []rrc.ServoPosition{
		{ID: uint8(id), Pulse: uint16(pulseUS)},
	})
	if err != nil {
		return err
	}
	c.conn.Send(frame)
	return nil
}

// Beep sounds the buzzer at freqHz for durationMS milliseconds.
func (c *Controller) Beep(freqHz, durationMS int) error {
	if freqHz <= 0 || freqHz > math.MaxUint16 {
		return fmt.Errorf("frequency %dHz out of range", freqHz)
	}
	if durationMS <= 0 || durationMS > math.MaxUint16 {
		return fmt.Errorf("duration %dms out of range", durationMS)
	}

	c.conn.Send(rrc.BuzzerFrame(uint16(freqHz), uint16(durationMS), 0, 1))
	return nil
}

// Close shuts down the connection and all its subscriber drivers.
func (c *Controller) Close() error {
	return c.conn.Close()
}
