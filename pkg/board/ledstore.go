// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Peregrine Robotics

package board

import "sync"

// LED identifies one of the robot's four indicator pixels.
type LED int

// LED identities. The first two sit on the expansion board, the other
// two on the sonar module.
const (
	LEDBoardLeft LED = iota
	LEDBoardRight
	LEDSonarLeft
	LEDSonarRight
)

// String returns the LED's name
func (l LED) String() string {
	switch l {
	case LEDBoardLeft:
		return "board-left"
	case LEDBoardRight:
		return "board-right"
	case LEDSonarLeft:
		return "sonar-left"
	case LEDSonarRight:
		return "sonar-right"
	default:
		return "unknown"
	}
}

// Color is an RGB triple.
type Color struct {
	R, G, B uint8
}

// LEDStore caches the last color written to each indicator so the UI
// can repaint state after a reconnect. Mutations flow only through the
// device facade and the sonar driver.
type LEDStore struct {
	mu     sync.RWMutex
	colors map[LED]Color
}

// NewLEDStore creates an empty LED color cache
func NewLEDStore() *LEDStore {
	return &LEDStore{colors: make(map[LED]Color)}
}

// Set records the last-known color for an LED
func (s *LEDStore) Set(id LED, c Color) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.colors[id] = c
}

// Get returns the last-known color for an LED
func (s *LEDStore) Get(id LED) (Color, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.colors[id]
	return c, ok
}

// All returns a copy of the whole cache
func (s *LEDStore) All() map[LED]Color {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[LED]Color, len(s.colors))
	for k, v := range s.colors {
		out[k] = v
	}
	return out
}
