// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Peregrine Robotics

package rrc

import "sync/atomic"

// DecodeResult reports the outcome of a decode attempt
type DecodeResult int

const (
	// DecodeOK means a complete, checksum-valid frame was extracted
	DecodeOK DecodeResult = iota
	// DecodeIncomplete means the buffer holds no complete frame yet;
	// the returned remainder must be retained until more bytes arrive
	DecodeIncomplete
	// DecodeChecksumError means a framed message failed its checksum.
	// The caller must skip one byte and retry so that a single corrupt
	// byte cannot permanently desynchronize the stream.
	DecodeChecksumError
)

// DecodeOne scans buf for the first complete frame.
//
// Leading bytes that cannot start a frame are dropped, which guarantees
// forward progress on garbage input. On DecodeOK the remainder starts
// after the consumed frame; on DecodeIncomplete it starts at the first
// possible frame boundary; on DecodeChecksumError it still starts at
// the corrupt frame's magic so the caller controls the resync skip.
func DecodeOne(buf []byte) (*Frame, []byte, DecodeResult) {
	for {
		// Scan for the magic prefix, dropping one byte per iteration.
		if len(buf) >= 1 && buf[0] != MagicFirst {
			buf = buf[1:]
			continue
		}
		if len(buf) >= 2 && buf[1] != MagicSecond {
			buf = buf[1:]
			continue
		}
		if len(buf) < headerSize {
			return nil, buf, DecodeIncomplete
		}

		function := FunctionCode(buf[2])
		length := int(buf[3])
		total := headerSize + length + 1
		if len(buf) < total {
			return nil, buf, DecodeIncomplete
		}

		if Checksum(buf[2:headerSize+length]) != buf[total-1] {
			return nil, buf, DecodeChecksumError
		}

		payload := make([]byte, length)
		copy(payload, buf[headerSize:headerSize+length])
		return NewFrame(function, payload), buf[total:], DecodeOK
	}
}

// Decoder accumulates inbound bytes and extracts frames as they
// complete. It owns its buffer; callers only feed chunks. Feed must be
// called from a single goroutine; the counter accessors are safe from
// any goroutine while feeding continues.
type Decoder struct {
	buf []byte

	framesDecoded  atomic.Uint64
	checksumErrors atomic.Uint64
	bytesDropped   atomic.Uint64
}

// NewDecoder creates a new protocol decoder
func NewDecoder() *Decoder {
	return &Decoder{buf: make([]byte, 0, 512)}
}

// Feed appends a chunk of received bytes and returns every frame that
// completed. Corrupt frames are counted, skipped one byte at a time and
// never returned.
func (d *Decoder) Feed(chunk []byte) []*Frame {
	d.buf = append(d.buf, chunk...)

	var frames []*Frame
	for {
		before := len(d.buf)
		frame, rest, result := DecodeOne(d.buf)
		switch result {
		case DecodeOK:
			frames = append(frames, frame)
			d.framesDecoded.Add(1)
			// Anything scanned past before the frame's magic was garbage.
			consumed := headerSize + len(frame.Payload()) + 1
			d.bytesDropped.Add(uint64(before - len(rest) - consumed))
			d.retain(rest)
		case DecodeChecksumError:
			d.checksumErrors.Add(1)
			// Garbage before the corrupt magic, plus the resync skip.
			d.bytesDropped.Add(uint64(before - len(rest) + 1))
			d.retain(rest[1:])
		case DecodeIncomplete:
			d.bytesDropped.Add(uint64(before - len(rest)))
			d.retain(rest)
			return frames
		}
	}
}

// retain compacts the remainder into the owned buffer so that slices
// handed out earlier are never aliased by the next Feed.
func (d *Decoder) retain(rest []byte) {
	d.buf = append(d.buf[:0], rest...)
}

// Pending returns the number of buffered bytes awaiting more input
func (d *Decoder) Pending() int {
	return len(d.buf)
}

// FramesDecoded returns the count of successfully decoded frames
func (d *Decoder) FramesDecoded() uint64 {
	return d.framesDecoded.Load()
}

// ChecksumErrors returns the count of checksum failures seen
func (d *Decoder) ChecksumErrors() uint64 {
	return d.checksumErrors.Load()
}

// BytesDropped returns the count of bytes discarded during
// resynchronization, garbage scanned past included
func (d *Decoder) BytesDropped() uint64 {
	return d.bytesDropped.Load()
}
