// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Peregrine Robotics

package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/peregrine-robotics/turbopi/pkg/board"
)

var (
	driveSpeed int
	driveFor   time.Duration
	driveVX    float64
	driveVY    float64
	driveOmega float64
)

var driveCmd = &cobra.Command{
	Use:   "drive [direction]",
	Short: "Drive the chassis in a named direction or with a velocity vector",
	Long: `Drive the chassis for a fixed duration, then stop.

Named directions:
  forward, backward, strafe-left, strafe-right, forward-left,
  forward-right, backward-left, backward-right, rotate-left, rotate-right

With no direction argument, the --vx/--vy/--omega flags give an explicit
velocity vector (each component -100 to 100).

Examples:
  turbopi drive forward --speed 60 --for 2s
  turbopi drive rotate-left --speed 40
  turbopi drive --vx 50 --vy 50 --omega 0 --for 1s`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDrive,
}

func init() {
	driveCmd.Flags().IntVarP(&driveSpeed, "speed", "s", 60, "Speed for named directions (0-100)")
	driveCmd.Flags().DurationVar(&driveFor, "for", 2*time.Second, "How long to drive before stopping")
	driveCmd.Flags().Float64Var(&driveVX, "vx", 0, "Forward velocity component (-100 to 100)")
	driveCmd.Flags().Float64Var(&driveVY, "vy", 0, "Rightward strafe velocity component (-100 to 100)")
	driveCmd.Flags().Float64Var(&driveOmega, "omega", 0, "Clockwise rotation component (-100 to 100)")
	rootCmd.AddCommand(driveCmd)
}

func runDrive(cmd *cobra.Command, args []string) error {
	ctrl := openController()
	defer ctrl.Close()

	if len(args) == 1 {
		dir := board.Direction(args[0])
		if err := ctrl.Drive(dir, driveSpeed); err != nil {
			return err
		}
		fmt.Printf("Driving %s at speed %d for %s\n", dir, driveSpeed, driveFor)
	} else {
		if err := ctrl.DriveVector(driveVX, driveVY, driveOmega); err != nil {
			return err
		}
		fmt.Printf("Driving vx=%.0f vy=%.0f omega=%.0f for %s\n", driveVX, driveVY, driveOmega, driveFor)
	}

	time.Sleep(driveFor)
	ctrl.Stop()
	fmt.Println("Stopped")

	// Give the writer loop a moment to flush the stop frame.
	time.Sleep(50 * time.Millisecond)
	return nil
}
