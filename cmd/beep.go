// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Peregrine Robotics

package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	beepFreq int
	beepFor  time.Duration
)

var beepCmd = &cobra.Command{
	Use:   "beep",
	Short: "Sound the buzzer",
	RunE:  runBeep,
}

func init() {
	beepCmd.Flags().IntVarP(&beepFreq, "freq", "f", 1900, "Frequency in Hz")
	beepCmd.Flags().DurationVar(&beepFor, "for", 500*time.Millisecond, "Beep duration")
	rootCmd.AddCommand(beepCmd)
}

func runBeep(cmd *cobra.Command, args []string) error {
	ctrl := openController()
	defer ctrl.Close()

	if err := ctrl.Beep(beepFreq, int(beepFor.Milliseconds())); err != nil {
		return err
	}
	fmt.Printf("Beeping at %dHz for %s\n", beepFreq, beepFor)

	// Keep the link open until the board has finished sounding.
	time.Sleep(beepFor + 50*time.Millisecond)
	return nil
}
