// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Peregrine Robotics

package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/peregrine-robotics/turbopi/pkg/board"
	"github.com/peregrine-robotics/turbopi/pkg/sonar"
)

var ledCmd = &cobra.Command{
	Use:   "led <target> <r> <g> <b>",
	Short: "Set an RGB indicator color",
	Long: `Set one of the robot's four RGB indicators.

Targets:
  board-left, board-right   expansion board pixels (serial link)
  sonar-left, sonar-right   sonar module pixels (I2C)

Example:
  turbopi led board-left 0 255 0`,
	Args: cobra.ExactArgs(4),
	RunE: runLED,
}

func init() {
	rootCmd.AddCommand(ledCmd)
}

func parseLEDTarget(s string) (board.LED, error) {
	for _, id := range []board.LED{
		board.LEDBoardLeft, board.LEDBoardRight,
		board.LEDSonarLeft, board.LEDSonarRight,
	} {
		if id.String() == s {
			return id, nil
		}
	}
	return 0, fmt.Errorf("unknown LED %q", s)
}

func runLED(cmd *cobra.Command, args []string) error {
	id, err := parseLEDTarget(args[0])
	if err != nil {
		return err
	}
	var rgb [3]int
	for i, arg := range args[1:] {
		v, err := strconv.Atoi(arg)
		if err != nil || v < 0 || v > 255 {
			return fmt.Errorf("color channel %q must be 0-255", arg)
		}
		rgb[i] = v
	}

	switch id {
	case board.LEDBoardLeft, board.LEDBoardRight:
		ctrl := openController()
		defer ctrl.Close()
		if err := ctrl.SetLED(id, rgb[0], rgb[1], rgb[2]); err != nil {
			return err
		}
		// Let the writer loop flush before the link closes.
		time.Sleep(50 * time.Millisecond)

	case board.LEDSonarLeft, board.LEDSonarRight:
		son := sonar.New(nil)
		defer son.Close()
		index := 0
		if id == board.LEDSonarRight {
			index = 1
		}
		c := board.Color{R: uint8(rgb[0]), G: uint8(rgb[1]), B: uint8(rgb[2])}
		if err := son.SetPixel(index, c); err != nil {
			return err
		}
	}

	fmt.Printf("%s set to (%d, %d, %d)\n", id, rgb[0], rgb[1], rgb[2])
	return nil
}
