// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Peregrine Robotics

package linesensor

import (
	"errors"
	"testing"
)

type fakeDev struct {
	state byte
	err   error
}

func (f *fakeDev) Tx(w, r []byte) error {
	if f.err != nil {
		return f.err
	}
	if len(w) != 1 || w[0] != regState || len(r) != 1 {
		return errors.New("unexpected transaction")
	}
	r[0] = f.state
	return nil
}

func TestRead(t *testing.T) {
	tests := []struct {
		name     string
		state    byte
		expected Reading
	}{
		{"clear", 0x00, Reading{false, false, false, false}},
		{"leftmost only", 0x01, Reading{true, false, false, false}},
		{"rightmost only", 0x08, Reading{false, false, false, true}},
		{"centered", 0x06, Reading{false, true, true, false}},
		{"all on", 0x0F, Reading{true, true, true, true}},
		{"high bits ignored", 0xF5, Reading{true, false, true, false}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newWithDev(&fakeDev{state: tt.state})
			got, err := s.Read()
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestRead_BusErrorPropagates(t *testing.T) {
	s := newWithDev(&fakeDev{err: errors.New("i2c timeout")})
	if _, err := s.Read(); err == nil {
		t.Error("expected error from failing bus")
	}
}

func TestReading_Helpers(t *testing.T) {
	r := Reading{false, true, true, false}
	if !r.OnLine() {
		t.Error("expected on line")
	}
	if r.String() != "0110" {
		t.Errorf("expected 0110, got %s", r.String())
	}

	var clear Reading
	if clear.OnLine() {
		t.Error("clear reading must not report a line")
	}
}

func TestSimulated(t *testing.T) {
	s := newWithDev(nil)
	if !s.Simulated() {
		t.Error("nil device must report simulated")
	}
	r, err := s.Read()
	if err != nil {
		t.Fatal(err)
	}
	if r.OnLine() {
		t.Error("simulated read must report no line")
	}
}
