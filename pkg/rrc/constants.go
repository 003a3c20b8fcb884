// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Peregrine Robotics

// Package rrc implements the TurboPi expansion-board serial protocol.
//
// Frames are length-prefixed binary messages multiplexed over a single
// serial link. There is no end delimiter and no byte stuffing; the only
// framing is a fixed two-byte magic prefix, so the decoder has to
// resynchronize by scanning when the stream is corrupted.
//
// Wire format:
//
//	0xAA 0x55 <function:u8> <len:u8> <payload:len bytes> <checksum:u8>
//
// The checksum is CRC-8 (Dallas/Maxim) over function, length and payload.
package rrc

// Protocol framing bytes
const (
	MagicFirst  = 0xAA
	MagicSecond = 0x55
)

// Frame size limits. headerSize counts magic, function and length bytes;
// the checksum byte follows the payload.
const (
	MaxPayloadSize = 255
	headerSize     = 4
)

// FunctionCode identifies which board subsystem a frame addresses.
type FunctionCode uint8

// Function codes, fixed by the board firmware.
const (
	FuncSys FunctionCode = iota
	FuncLED
	FuncBuzzer
	FuncMotor
	FuncPWMServo
	FuncBusServo
	FuncKey
	FuncIMU
	FuncGamepad
	FuncReceiver
	FuncDisplay
	FuncRGB
)

// String returns the function code's firmware name.
func (f FunctionCode) String() string {
	switch f {
	case FuncSys:
		return "SYS"
	case FuncLED:
		return "LED"
	case FuncBuzzer:
		return "BUZZER"
	case FuncMotor:
		return "MOTOR"
	case FuncPWMServo:
		return "PWM_SERVO"
	case FuncBusServo:
		return "BUS_SERVO"
	case FuncKey:
		return "KEY"
	case FuncIMU:
		return "IMU"
	case FuncGamepad:
		return "GAMEPAD"
	case FuncReceiver:
		return "RECEIVER"
	case FuncDisplay:
		return "DISPLAY"
	case FuncRGB:
		return "RGB"
	default:
		return "UNKNOWN"
	}
}

// SYS sub-message identifiers (first payload byte of a FuncSys frame).
const (
	SysBatteryReport = 0x04
)

// Motor sub-command identifier. The firmware multiplexes several motor
// operations on FuncMotor; 0x05 is per-wheel duty control.
const (
	motorSubDuty = 0x05
)
