// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Peregrine Robotics

package board

import (
	"encoding/binary"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/peregrine-robotics/turbopi/pkg/rrc"
)

// fakeTransport is an in-memory board link for tests. Inbound chunks
// are pushed through a channel; outbound writes are captured.
type fakeTransport struct {
	inbound chan []byte
	closed  chan struct{}

	mu     sync.Mutex
	writes [][]byte

	closeOnce sync.Once
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		inbound: make(chan []byte, 16),
		closed:  make(chan struct{}),
	}
}

func (f *fakeTransport) Read(p []byte) (int, error) {
	select {
	case chunk := <-f.inbound:
		return copy(p, chunk), nil
	case <-f.closed:
		return 0, ErrTransportClosed
	}
}

func (f *fakeTransport) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	buf := make([]byte, len(p))
	copy(buf, p)
	f.writes = append(f.writes, buf)
	return len(p), nil
}

func (f *fakeTransport) Close() error {
	f.closeOnce.Do(func() { close(f.closed) })
	return nil
}

// waitWrites blocks until n writes are captured or the timeout expires.
func (f *fakeTransport) waitWrites(t *testing.T, n int) [][]byte {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		f.mu.Lock()
		if len(f.writes) >= n {
			out := make([][]byte, len(f.writes))
			copy(out, f.writes)
			f.mu.Unlock()
			return out
		}
		f.mu.Unlock()
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d writes", n)
	return nil
}

func TestConn_DispatchesFramesToSubscribers(t *testing.T) {
	ft := newFakeTransport()
	conn := NewConn(ft)
	defer conn.Close()

	sysCh := make(chan *rrc.Frame, 4)
	keyCh := make(chan *rrc.Frame, 4)
	conn.Subscribe(rrc.FuncSys, sysCh)
	conn.Subscribe(rrc.FuncKey, keyCh)
	conn.Start()

	battery, _ := rrc.Encode(rrc.FuncSys, []byte{rrc.SysBatteryReport, 0x20, 0x1C})
	key, _ := rrc.Encode(rrc.FuncKey, []byte{1, 0x20})
	ft.inbound <- append(append([]byte{}, battery...), key...)

	select {
	case f := <-sysCh:
		if mv, ok := f.BatteryMillivolts(); !ok || mv != 7200 {
			t.Errorf("expected 7200mV battery frame, got %d", mv)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("sys frame not delivered")
	}

	select {
	case f := <-keyCh:
		if f.Function() != rrc.FuncKey {
			t.Errorf("expected key frame, got %v", f.Function())
		}
	case <-time.After(2 * time.Second):
		t.Fatal("key frame not delivered")
	}
}

func TestConn_ResynchronizesAfterCorruption(t *testing.T) {
	ft := newFakeTransport()
	conn := NewConn(ft)
	defer conn.Close()

	sysCh := make(chan *rrc.Frame, 4)
	conn.Subscribe(rrc.FuncSys, sysCh)
	conn.Start()

	good, _ := rrc.Encode(rrc.FuncSys, []byte{rrc.SysBatteryReport, 0xD0, 0x20})
	bad := append([]byte{}, good...)
	bad[len(bad)-2] ^= 0xFF // corrupt a payload byte

	ft.inbound <- append(bad, good...)

	select {
	case f := <-sysCh:
		if mv, _ := f.BatteryMillivolts(); mv != 8400 {
			t.Errorf("expected the clean 8400mV frame, got %d", mv)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("clean frame not delivered after corruption")
	}

	select {
	case <-sysCh:
		t.Fatal("corrupt frame was delivered")
	default:
	}
}

func TestConn_CountersReadableWhileLinkActive(t *testing.T) {
	ft := newFakeTransport()
	conn := NewConn(ft)
	defer conn.Close()
	conn.Start()

	good, _ := rrc.Encode(rrc.FuncSys, []byte{rrc.SysBatteryReport, 0xD0, 0x20})
	bad := append([]byte{}, good...)
	bad[len(bad)-2] ^= 0xFF

	const rounds = 50
	go func() {
		for i := 0; i < rounds; i++ {
			ft.inbound <- append(append([]byte{}, bad...), good...)
		}
	}()

	// Poll the counters from this goroutine while the read loop is
	// decoding; under the race detector this flushes out unsynchronized
	// counter access.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if conn.ChecksumErrors() >= rounds && conn.BytesDropped() > 0 {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("expected %d checksum errors, got %d", rounds, conn.ChecksumErrors())
}

func TestConn_SendPreservesOrder(t *testing.T) {
	ft := newFakeTransport()
	conn := NewConn(ft)
	defer conn.Close()
	conn.Start()

	for speed := 1; speed <= 5; speed++ {
		conn.Send(rrc.MotorDutyFrame([4]float64{float64(speed), 0, 0, 0}))
	}

	writes := ft.waitWrites(t, 5)
	for i, w := range writes[:5] {
		duty := math.Float32frombits(binary.LittleEndian.Uint32(w[7:11]))
		if int(duty) != i+1 {
			t.Errorf("write %d: expected M1 duty %d, got %.1f", i, i+1, duty)
		}
	}
}

func TestConn_SimulatedMode(t *testing.T) {
	conn := NewSimulated()
	defer conn.Close()

	if conn.Connected() {
		t.Error("simulated connection must not report connected")
	}

	ch := make(chan *rrc.Frame, 1)
	conn.Subscribe(rrc.FuncSys, ch)
	conn.Start()

	// Sends are accepted and discarded; nothing errors, nothing fires.
	conn.Send(rrc.BuzzerFrame(1900, 100, 100, 1))
	conn.Send(rrc.MotorDutyFrame([4]float64{50, 50, -50, -50}))

	select {
	case <-ch:
		t.Error("subscription fired in simulated mode")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestConn_CloseClosesSubscriberChannels(t *testing.T) {
	ft := newFakeTransport()
	conn := NewConn(ft)

	ch := make(chan *rrc.Frame, 1)
	conn.Subscribe(rrc.FuncSys, ch)
	conn.Start()

	if err := conn.Close(); err != nil {
		t.Fatalf("close error: %v", err)
	}

	select {
	case _, open := <-ch:
		if open {
			t.Error("expected subscriber channel to be closed")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber channel not closed")
	}
}

func TestBattery_NoDataBeforeFirstReport(t *testing.T) {
	conn := NewSimulated()
	defer conn.Close()

	b := NewBattery(conn)
	b.Start()

	if _, err := b.Voltage(); err != ErrNoData {
		t.Errorf("expected ErrNoData, got %v", err)
	}
}

func TestBattery_TracksReports(t *testing.T) {
	ft := newFakeTransport()
	conn := NewConn(ft)
	defer conn.Close()

	b := NewBattery(conn)
	got := make(chan int, 4)
	b.SetOnVoltage(func(mv int) { got <- mv })
	b.Start()
	conn.Start()

	frame, _ := rrc.Encode(rrc.FuncSys, []byte{rrc.SysBatteryReport, 0x20, 0x1C})
	ft.inbound <- frame

	select {
	case mv := <-got:
		if mv != 7200 {
			t.Errorf("hook: expected 7200, got %d", mv)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("voltage hook not invoked")
	}

	if mv, err := b.Voltage(); err != nil || mv != 7200 {
		t.Errorf("expected 7200mV, got %d (%v)", mv, err)
	}
	if pct, err := b.Percent(); err != nil || pct != 50 {
		t.Errorf("expected 50%%, got %d (%v)", pct, err)
	}
}

func TestBattery_IgnoresUnknownSubMessages(t *testing.T) {
	ft := newFakeTransport()
	conn := NewConn(ft)
	defer conn.Close()

	b := NewBattery(conn)
	b.Start()
	conn.Start()

	frame, _ := rrc.Encode(rrc.FuncSys, []byte{0x01, 0xFF, 0xFF})
	ft.inbound <- frame

	time.Sleep(50 * time.Millisecond)
	if _, err := b.Voltage(); err != ErrNoData {
		t.Errorf("unknown sub-message must not produce a reading, got %v", err)
	}
}

func TestBatteryPercent_LiteralPoints(t *testing.T) {
	tests := []struct {
		mv, pct int
	}{
		{8400, 100},
		{6000, 0},
		{7200, 50},
		{9000, 100}, // clamped
		{5000, 0},   // clamped
	}
	for _, tt := range tests {
		if got := BatteryPercent(tt.mv); got != tt.pct {
			t.Errorf("BatteryPercent(%d): expected %d, got %d", tt.mv, tt.pct, got)
		}
	}
}
