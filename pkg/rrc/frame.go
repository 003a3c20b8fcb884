// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Peregrine Robotics

package rrc

import "time"

// Frame represents a decoded board protocol frame
type Frame struct {
	function  FunctionCode
	payload   []byte
	timestamp time.Time
}

// NewFrame creates a new frame with the given fields
func NewFrame(function FunctionCode, payload []byte) *Frame {
	return &Frame{
		function:  function,
		payload:   payload,
		timestamp: time.Now(),
	}
}

// Function returns the frame's function code
func (f *Frame) Function() FunctionCode {
	return f.function
}

// Payload returns the frame's payload bytes
func (f *Frame) Payload() []byte {
	return f.payload
}

// Timestamp returns the frame's decode timestamp
func (f *Frame) Timestamp() time.Time {
	return f.timestamp
}

// BatteryMillivolts extracts the battery voltage from a SYS frame.
// Returns false if the frame is not a battery report; unknown SYS
// sub-messages are expected from the firmware and are not errors.
func (f *Frame) BatteryMillivolts() (int, bool) {
	if f.function != FuncSys {
		return 0, false
	}
	if len(f.payload) < 3 || f.payload[0] != SysBatteryReport {
		return 0, false
	}
	mv := int(f.payload[1]) | int(f.payload[2])<<8
	return mv, true
}
