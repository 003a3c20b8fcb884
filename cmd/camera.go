// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Peregrine Robotics

package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/peregrine-robotics/turbopi/internal/httpc"
	"github.com/peregrine-robotics/turbopi/pkg/camera"
)

var (
	cameraWidth  int
	cameraHeight int
	cameraPort   int
)

var cameraCmd = &cobra.Command{
	Use:   "camera",
	Short: "Manage the MJPEG streaming subprocess",
}

var cameraStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the stream and keep it running until interrupted",
	RunE:  runCameraStart,
}

var cameraStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check whether a stream is currently healthy",
	RunE:  runCameraStatus,
}

var cameraStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Kill any running streamer process",
	Run: func(cmd *cobra.Command, args []string) {
		// The streamer may have been started by another invocation, so
		// this goes straight for the process sweep.
		c := camera.New(cameraConfig())
		c.Sweep()
		fmt.Println("Streamer processes swept")
	},
}

func init() {
	cameraCmd.PersistentFlags().IntVar(&cameraPort, "port", 0, "Stream HTTP port")
	cameraStartCmd.Flags().IntVar(&cameraWidth, "width", 0, "Capture width")
	cameraStartCmd.Flags().IntVar(&cameraHeight, "height", 0, "Capture height")
	cameraCmd.AddCommand(cameraStartCmd, cameraStatusCmd, cameraStopCmd)
	rootCmd.AddCommand(cameraCmd)
}

func cameraConfig() camera.Config {
	return camera.Config{
		Port:   cameraPort,
		Width:  cameraWidth,
		Height: cameraHeight,
	}
}

func runCameraStart(cmd *cobra.Command, args []string) error {
	c := camera.New(cameraConfig())
	defer c.Close()

	if err := c.Start(); err != nil {
		return err
	}
	fmt.Printf("Camera %s\n", c.State())
	if c.State() == camera.Streaming {
		fmt.Printf("Stream:   %s\n", c.StreamURL())
		fmt.Printf("Snapshot: %s\n", c.SnapshotURL())
	}
	fmt.Println("Press Ctrl+C to stop")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	return nil
}

func runCameraStatus(cmd *cobra.Command, args []string) error {
	c := camera.New(cameraConfig())

	resp, err := httpc.Get(c.StreamURL()[:len(c.StreamURL())-len("/stream")] + "/status")
	if err != nil {
		fmt.Println("Camera: not streaming")
		return nil
	}
	resp.Body.Close()
	if resp.StatusCode == 200 {
		fmt.Printf("Camera: streaming at %s\n", c.StreamURL())
	} else {
		fmt.Printf("Camera: unhealthy (status %d)\n", resp.StatusCode)
	}
	return nil
}
