// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Peregrine Robotics

package rrc

import (
	"encoding/binary"
	"fmt"
	"math"
)

// FormatFrame renders a frame in human-readable form for the capture
// and debug commands.
func FormatFrame(f *Frame) string {
	timestamp := f.Timestamp().Format("15:04:05.000")
	result := fmt.Sprintf("[%s] %s (0x%02X) len=%d\n", timestamp, f.Function(), uint8(f.Function()), len(f.Payload()))

	if len(f.Payload()) > 0 {
		result += formatPayload(f)
	}
	return result
}

func formatPayload(f *Frame) string {
	payload := f.Payload()

	switch f.Function() {
	case FuncSys:
		if mv, ok := f.BatteryMillivolts(); ok {
			return fmt.Sprintf("  Battery: %d mV (%.2f V)\n", mv, float64(mv)/1000.0)
		}
		return fmt.Sprintf("  Sys sub-message: 0x%02X\n", payload[0])

	case FuncMotor:
		if len(payload) >= 2 && payload[0] == motorSubDuty {
			count := int(payload[1])
			result := fmt.Sprintf("  Motor duty (%d wheels)\n", count)
			offset := 2
			for i := 0; i < count && offset+5 <= len(payload); i++ {
				idx := payload[offset]
				duty := math.Float32frombits(binary.LittleEndian.Uint32(payload[offset+1 : offset+5]))
				result += fmt.Sprintf("    M%d: %.1f%%\n", idx+1, duty)
				offset += 5
			}
			return result
		}

	case FuncBuzzer:
		if len(payload) >= 8 {
			freq := binary.LittleEndian.Uint16(payload[0:2])
			on := binary.LittleEndian.Uint16(payload[2:4])
			off := binary.LittleEndian.Uint16(payload[4:6])
			repeat := binary.LittleEndian.Uint16(payload[6:8])
			return fmt.Sprintf("  Buzzer: %d Hz, on %d ms, off %d ms, x%d\n", freq, on, off, repeat)
		}

	case FuncPWMServo, FuncBusServo:
		if len(payload) >= 3 {
			duration := binary.LittleEndian.Uint16(payload[0:2])
			count := int(payload[2])
			result := fmt.Sprintf("  Servo move: %d ms, %d servos\n", duration, count)
			offset := 3
			for i := 0; i < count && offset+3 <= len(payload); i++ {
				id := payload[offset]
				pulse := binary.LittleEndian.Uint16(payload[offset+1 : offset+3])
				result += fmt.Sprintf("    Servo %d: %d us\n", id, pulse)
				offset += 3
			}
			return result
		}

	case FuncRGB:
		if len(payload) >= 1 {
			count := int(payload[0])
			result := fmt.Sprintf("  RGB: %d pixels\n", count)
			offset := 1
			for i := 0; i < count && offset+4 <= len(payload); i++ {
				result += fmt.Sprintf("    Pixel %d: #%02X%02X%02X\n",
					payload[offset]+1, payload[offset+1], payload[offset+2], payload[offset+3])
				offset += 4
			}
			return result
		}

	case FuncKey:
		if len(payload) >= 2 {
			return fmt.Sprintf("  Key %d event 0x%02X\n", payload[0], payload[1])
		}
	}

	// Default: hex dump
	result := "  Payload: "
	for i, b := range payload {
		if i > 0 && i%16 == 0 {
			result += "\n           "
		}
		result += fmt.Sprintf("%02X ", b)
	}
	return result + "\n"
}
