// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Peregrine Robotics

package board

import (
	"fmt"
	"math"
)

// Mecanum inverse kinematics.
//
// Wheel order follows the board connectors: M1 front-left, M2
// rear-left, M3 front-right, M4 rear-right. The right-side motors are
// mounted mirrored, so their duty signs are inverted in the relation
// below. This is a physical mounting assumption: earlier chassis
// revisions shipped with strafe and rotation signs flipped, so verify
// against the actual wheel wiring before trusting a new build.
//
// Inputs: vx forward, vy strafe-right, omega clockwise rotation, each
// nominally in [-100, 100].

// Direction is a named drive direction accepted by the facade.
type Direction string

// Named directions. Each maps to a canonical (vx, vy, omega) triple;
// there is deliberately no per-direction wheel formula.
const (
	DirForward       Direction = "forward"
	DirBackward      Direction = "backward"
	DirStrafeLeft    Direction = "strafe-left"
	DirStrafeRight   Direction = "strafe-right"
	DirRotateLeft    Direction = "rotate-left"
	DirRotateRight   Direction = "rotate-right"
	DirForwardLeft   Direction = "forward-left"
	DirForwardRight  Direction = "forward-right"
	DirBackwardLeft  Direction = "backward-left"
	DirBackwardRight Direction = "backward-right"
)

// Velocity maps the direction to its canonical velocity triple at the
// given magnitude.
func (d Direction) Velocity(speed float64) (vx, vy, omega float64, err error) {
	switch d {
	case DirForward:
		return speed, 0, 0, nil
	case DirBackward:
		return -speed, 0, 0, nil
	case DirStrafeLeft:
		return 0, -speed, 0, nil
	case DirStrafeRight:
		return 0, speed, 0, nil
	case DirRotateLeft:
		return 0, 0, -speed, nil
	case DirRotateRight:
		return 0, 0, speed, nil
	case DirForwardLeft:
		return speed, -speed, 0, nil
	case DirForwardRight:
		return speed, speed, 0, nil
	case DirBackwardLeft:
		return -speed, -speed, 0, nil
	case DirBackwardRight:
		return -speed, speed, 0, nil
	default:
		return 0, 0, 0, fmt.Errorf("unknown direction %q", string(d))
	}
}

// VelocityToDuties converts a planar velocity command into four wheel
// duties. If any raw duty exceeds 100 in magnitude, all four are scaled
// uniformly so the largest lands at 100: clipping wheels independently
// would distort the commanded heading, scaling only sacrifices
// magnitude.
func VelocityToDuties(vx, vy, omega float64) [4]float64 {
	duties := [4]float64{
		vx - vy - omega,    // M1 front-left
		vx + vy - omega,    // M2 rear-left
		-(vx + vy + omega), // M3 front-right (mirrored)
		-(vx - vy + omega), // M4 rear-right (mirrored)
	}

	maxAbs := 0.0
	for _, d := range duties {
		if a := math.Abs(d); a > maxAbs {
			maxAbs = a
		}
	}
	if maxAbs > 100 {
		scale := 100 / maxAbs
		for i := range duties {
			duties[i] *= scale
		}
	}
	return duties
}
