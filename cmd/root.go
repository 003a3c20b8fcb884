// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Peregrine Robotics

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/peregrine-robotics/turbopi/internal/config"
	"github.com/peregrine-robotics/turbopi/internal/log"
	"github.com/peregrine-robotics/turbopi/pkg/board"
)

var (
	// Board link flags
	serialDevice string
	baudRate     int
	bridgeURL    string

	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "turbopi",
	Short: "TurboPi hardware control daemon and CLI",
	Long: `turbopi - control daemon for the TurboPi mecanum-wheel robot.

Drives the expansion board over its serial link (motors, servos, buzzer,
RGB LEDs, battery reports), the I2C sonar and line-follower modules, and
the camera streaming subprocess.

Connection modes:
  Serial:    --device /dev/ttyAMA0 [--baud 1000000]   (default)
  WebSocket: --url ws://host/board                    (serial-over-ws bridge)

When no board is reachable every command still works in simulated mode,
so the full CLI can be exercised on a development machine.`,
	Version: "1.2.0",
}

func init() {
	cobra.OnInitialize(func() {
		config.Load()
		if logLevel == "" {
			logLevel = config.LogLevel()
		}
		log.Init(logLevel)
	})

	rootCmd.PersistentFlags().StringVarP(&serialDevice, "device", "d", config.DefaultSerialDevice, "Board serial device")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", config.DefaultBaudRate, "Baud rate (serial only)")
	rootCmd.PersistentFlags().StringVarP(&bridgeURL, "url", "u", "", "Serial-over-websocket bridge URL (ws:// or wss://)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
}

// openController opens the board link and wraps it in the device
// facade. Falls back to simulated mode when no board is reachable.
func openController() *board.Controller {
	url := bridgeURL
	if url == "" {
		url = config.BridgeURL()
	}
	conn := board.Open(serialDevice, baudRate, url)
	ctrl := board.NewController(conn)
	conn.Start()
	return ctrl
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
