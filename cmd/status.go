// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Peregrine Robotics

package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/peregrine-robotics/turbopi/pkg/board"
	"github.com/peregrine-robotics/turbopi/pkg/linesensor"
	"github.com/peregrine-robotics/turbopi/pkg/sonar"
)

var statusWait time.Duration

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show connection, battery and sensor state",
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().DurationVar(&statusWait, "wait", 2*time.Second, "How long to wait for a battery report")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctrl := openController()
	defer ctrl.Close()

	if ctrl.Connected() {
		fmt.Println("Board:    connected")
	} else {
		fmt.Println("Board:    simulated (no hardware)")
	}

	// The board pushes a battery report every 500ms or so; wait for one.
	mv, err := ctrl.Battery().Voltage()
	deadline := time.Now().Add(statusWait)
	for err != nil && ctrl.Connected() && time.Now().Before(deadline) {
		time.Sleep(100 * time.Millisecond)
		mv, err = ctrl.Battery().Voltage()
	}
	if err != nil {
		fmt.Println("Battery:  no report")
	} else {
		fmt.Printf("Battery:  %dmV (%d%%)\n", mv, board.BatteryPercent(mv))
	}

	son := sonar.New(ctrl.LEDs())
	defer son.Close()
	if son.Simulated() {
		fmt.Println("Sonar:    simulated")
	} else if mm, err := son.Distance(); err != nil {
		fmt.Printf("Sonar:    read error: %v\n", err)
	} else {
		fmt.Printf("Sonar:    %dmm\n", mm)
	}

	line := linesensor.New()
	defer line.Close()
	if line.Simulated() {
		fmt.Println("Line:     simulated")
	} else if r, err := line.Read(); err != nil {
		fmt.Printf("Line:     read error: %v\n", err)
	} else {
		fmt.Printf("Line:     %s (on line: %v)\n", r, r.OnLine())
	}

	if n := ctrl.Conn().ChecksumErrors(); n > 0 {
		fmt.Printf("Link:     %d corrupt frames skipped, %d bytes dropped\n",
			n, ctrl.Conn().BytesDropped())
	}
	return nil
}
