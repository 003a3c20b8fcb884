// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Peregrine Robotics

package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

var servoDuration time.Duration

var servoCmd = &cobra.Command{
	Use:   "servo <id> <pulse>",
	Short: "Move a gimbal PWM servo",
	Long: `Move one of the two camera-gimbal servos to a pulse width.

The servo id is 1 (pan) or 2 (tilt); the pulse width is 500-2500
microseconds, 1500 being center.

Example:
  turbopi servo 1 1500 --duration 500ms`,
	Args: cobra.ExactArgs(2),
	RunE: runServo,
}

func init() {
	servoCmd.Flags().DurationVar(&servoDuration, "duration", 200*time.Millisecond, "Travel time for the move")
	rootCmd.AddCommand(servoCmd)
}

func runServo(cmd *cobra.Command, args []string) error {
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("servo id %q is not a number", args[0])
	}
	pulse, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("pulse %q is not a number", args[1])
	}

	ctrl := openController()
	defer ctrl.Close()

	if err := ctrl.SetServo(id, pulse, int(servoDuration.Milliseconds())); err != nil {
		return err
	}
	fmt.Printf("Servo %d moving to %dus over %s\n", id, pulse, servoDuration)

	time.Sleep(servoDuration + 50*time.Millisecond)
	return nil
}
