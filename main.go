// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Peregrine Robotics
//
// turbopi - hardware control daemon and CLI for the TurboPi mecanum robot.
//
// Owns the expansion-board serial link, the I2C sensors, the indicator
// LEDs and the camera streaming subprocess, and exposes them through a
// single in-process API plus a set of maintenance subcommands.

package main

import (
	"os"

	"github.com/peregrine-robotics/turbopi/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
