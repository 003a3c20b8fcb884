// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Peregrine Robotics

package rrc

import (
	"bytes"
	"testing"
)

// FuzzDecoder feeds arbitrary bytes through the decoder and checks the
// structural invariants: decoding terminates, every returned frame
// re-encodes to a checksum-valid wire image, and byte-at-a-time feeding
// produces the same frames as a single chunk.
func FuzzDecoder(f *testing.F) {
	valid, _ := Encode(FuncSys, []byte{SysBatteryReport, 0x20, 0x1C})
	f.Add(valid)
	f.Add([]byte{})
	f.Add([]byte{MagicFirst})
	f.Add([]byte{MagicFirst, MagicSecond, 0xFF, 0xFF})
	f.Add(bytes.Repeat([]byte{MagicFirst, MagicSecond}, 64))
	f.Add(append(append([]byte{0x00, MagicFirst}, valid...), valid...))

	f.Fuzz(func(t *testing.T, data []byte) {
		whole := NewDecoder()
		frames := whole.Feed(data)

		for _, fr := range frames {
			if len(fr.Payload()) > MaxPayloadSize {
				t.Fatalf("frame payload exceeds limit: %d", len(fr.Payload()))
			}
			wire, err := Encode(fr.Function(), fr.Payload())
			if err != nil {
				t.Fatalf("decoded frame does not re-encode: %v", err)
			}
			_, _, result := DecodeOne(wire)
			if result != DecodeOK {
				t.Fatalf("re-encoded frame does not decode: %d", result)
			}
		}

		bytewise := NewDecoder()
		var count int
		for i := range data {
			count += len(bytewise.Feed(data[i : i+1]))
		}
		if count != len(frames) {
			t.Errorf("chunking changed frame count: %d vs %d", count, len(frames))
		}
	})
}
