// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Peregrine Robotics

package rrc

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Encode builds a complete wire-format frame for the given function code
// and payload. Returns the bytes ready for transmission.
func Encode(function FunctionCode, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayloadSize {
		return nil, fmt.Errorf("payload too large: %d bytes (max %d)", len(payload), MaxPayloadSize)
	}

	buf := make([]byte, 0, headerSize+len(payload)+1)
	buf = append(buf, MagicFirst, MagicSecond, byte(function), byte(len(payload)))
	buf = append(buf, payload...)

	// Checksum covers function, length and payload, not the magic.
	return append(buf, Checksum(buf[2:])), nil
}

// mustEncode is for builders whose payload size is bounded by construction.
func mustEncode(function FunctionCode, payload []byte) []byte {
	buf, err := Encode(function, payload)
	if err != nil {
		panic(fmt.Sprintf("rrc: encode error: %v", err))
	}
	return buf
}

// ServoPosition pairs a servo identifier with a target pulse width in
// microseconds.
type ServoPosition struct {
	ID    uint8
	Pulse uint16
}

// RGBPixel pairs a 1-based pixel index with a color.
type RGBPixel struct {
	Index   uint8
	R, G, B uint8
}

// MotorDutyFrame builds a motor frame commanding all four wheel duties.
// Wheel order follows the board connectors M1..M4; duties are signed
// percentages encoded as little-endian float32.
func MotorDutyFrame(duties [4]float64) []byte {
	payload := make([]byte, 0, 2+4*5)
	payload = append(payload, motorSubDuty, byte(len(duties)))
	for i, d := range duties {
		payload = append(payload, byte(i))
		payload = binary.LittleEndian.AppendUint32(payload, math.Float32bits(float32(d)))
	}
	return mustEncode(FuncMotor, payload)
}

// servoPayload builds the shared servo position payload:
// duration in milliseconds, position count, then (id, pulse) pairs.
func servoPayload(durationMS uint16, positions []ServoPosition) []byte {
	payload := make([]byte, 0, 3+3*len(positions))
	payload = binary.LittleEndian.AppendUint16(payload, durationMS)
	payload = append(payload, byte(len(positions)))
	for _, p := range positions {
		payload = append(payload, p.ID)
		payload = binary.LittleEndian.AppendUint16(payload, p.Pulse)
	}
	return payload
}

// PWMServoFrame builds a PWM servo frame moving the given servos to
// their target pulses over durationMS milliseconds.
func PWMServoFrame(durationMS uint16, positions []ServoPosition) ([]byte, error) {
	if len(positions) == 0 {
		return nil, fmt.Errorf("no servo positions")
	}
	return Encode(FuncPWMServo, servoPayload(durationMS, positions))
}

// BusServoFrame builds a serial-bus servo frame with the same position
// payload layout as PWMServoFrame.
func BusServoFrame(durationMS uint16, positions []ServoPosition) ([]byte, error) {
	if len(positions) == 0 {
		return nil, fmt.Errorf("no servo positions")
	}
	return Encode(FuncBusServo, servoPayload(durationMS, positions))
}

// RGBFrame builds an RGB frame setting the board pixels. Pixel indices
// are 1-based on the API and 0-based on the wire.
func RGBFrame(pixels []RGBPixel) ([]byte, error) {
	if len(pixels) == 0 {
		return nil, fmt.Errorf("no pixels")
	}
	payload := make([]byte, 0, 1+4*len(pixels))
	payload = append(payload, byte(len(pixels)))
	for _, p := range pixels {
		if p.Index == 0 {
			return nil, fmt.Errorf("pixel index is 1-based, got 0")
		}
		payload = append(payload, p.Index-1, p.R, p.G, p.B)
	}
	return Encode(FuncRGB, payload)
}

// BuzzerFrame builds a buzzer frame: tone frequency, on time, off time
// and repeat count. A zero off time makes the firmware hold the tone
// forever, so it is unconditionally raised to 1ms here.
func BuzzerFrame(freqHz, onMS, offMS, repeat uint16) []byte {
	if offMS == 0 {
		offMS = 1
	}
	payload := make([]byte, 0, 8)
	payload = binary.LittleEndian.AppendUint16(payload, freqHz)
	payload = binary.LittleEndian.AppendUint16(payload, onMS)
	payload = binary.LittleEndian.AppendUint16(payload, offMS)
	payload = binary.LittleEndian.AppendUint16(payload, repeat)
	return mustEncode(FuncBuzzer, payload)
}

// LEDFrame builds a blink pattern frame for the board status LED.
func LEDFrame(ledID uint8, onMS, offMS, repeat uint16) []byte {
	payload := make([]byte, 0, 7)
	payload = append(payload, ledID)
	payload = binary.LittleEndian.AppendUint16(payload, onMS)
	payload = binary.LittleEndian.AppendUint16(payload, offMS)
	payload = binary.LittleEndian.AppendUint16(payload, repeat)
	return mustEncode(FuncLED, payload)
}
