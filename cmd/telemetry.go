// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Peregrine Robotics

package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/peregrine-robotics/turbopi/pkg/telemetry"
)

var telemetryInterval time.Duration

var telemetryCmd = &cobra.Command{
	Use:   "telemetry",
	Short: "Run the telemetry aggregator and print window snapshots",
	Long: `Attach the telemetry aggregator to the board link and print a JSON
snapshot after every window roll-over. Battery reports feed the voltage
averages; drive commands issued through this process feed the motor
activity share.`,
	RunE: runTelemetry,
}

func init() {
	telemetryCmd.Flags().DurationVar(&telemetryInterval, "interval", time.Minute, "Window roll-over interval")
	rootCmd.AddCommand(telemetryCmd)
}

func runTelemetry(cmd *cobra.Command, args []string) error {
	ctrl := openController()
	defer ctrl.Close()

	agg := telemetry.New(telemetry.Config{WindowInterval: telemetryInterval})
	defer agg.Close()

	// Battery reports and motion commands feed the aggregator.
	ctrl.Battery().SetOnVoltage(func(mv int) { agg.NoteVoltage(mv) })
	ctrl.OnMotion = func(direction string, speed int) { agg.NoteMotor(speed) }

	snaps := make(chan telemetry.Snapshot, 4)
	agg.Subscribe(snaps)
	agg.Start()

	fmt.Printf("Telemetry running, window %s. Press Ctrl+C to exit.\n", telemetryInterval)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	enc := json.NewEncoder(os.Stdout)
	for {
		select {
		case snap := <-snaps:
			if err := enc.Encode(snap); err != nil {
				return err
			}
		case <-sig:
			return nil
		}
	}
}
