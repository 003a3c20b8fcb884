// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Peregrine Robotics

// Package camera manages the MJPEG streaming subprocess. The stream
// itself is served by a Python script over HTTP; this package owns the
// process lifecycle and health checking.
package camera

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"syscall"
	"time"

	"github.com/peregrine-robotics/turbopi/internal/config"
	"github.com/peregrine-robotics/turbopi/internal/httpc"
	"github.com/peregrine-robotics/turbopi/internal/log"
)

// State describes the camera lifecycle.
type State int

const (
	// Stopped means no streamer process is running.
	Stopped State = iota
	// Starting means the process was spawned but has not passed a
	// health check yet.
	Starting
	// Streaming means the health endpoint answered.
	Streaming
	// Simulated means no camera device exists; Start succeeds but
	// serves nothing.
	Simulated
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Starting:
		return "starting"
	case Streaming:
		return "streaming"
	case Simulated:
		return "simulated"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ErrStartTimeout is returned when the streamer process never passes
// its health check. The process is killed before this is returned.
var ErrStartTimeout = errors.New("camera: stream did not become healthy")

const (
	healthRetries  = 20
	healthInterval = 250 * time.Millisecond
	stopGrace      = 2 * time.Second
)

// Config holds the streamer subprocess parameters. Zero values are
// filled from the environment-backed defaults.
type Config struct {
	Port   int
	Width  int
	Height int
	Device string
	Script string
}

func (c Config) withDefaults() Config {
	if c.Port == 0 {
		c.Port = config.CameraPort()
	}
	if c.Width == 0 || c.Height == 0 {
		c.Width, c.Height = config.CameraSize()
	}
	if c.Device == "" {
		c.Device = config.CameraDevice()
	}
	if c.Script == "" {
		c.Script = config.CameraScript()
	}
	return c
}

// Camera controls the streaming subprocess. Methods are not safe for
// concurrent use; callers serialize access, typically through the
// device facade.
type Camera struct {
	cfg   Config
	state State
	cmd   *exec.Cmd
}

// New creates a camera controller in the Stopped state.
func New(cfg Config) *Camera {
	return &Camera{cfg: cfg.withDefaults()}
}

// State returns the current lifecycle state.
func (c *Camera) State() State {
	return c.state
}

// StreamURL returns the MJPEG stream endpoint.
func (c *Camera) StreamURL() string {
	return fmt.Sprintf("http://127.0.0.1:%d/stream", c.cfg.Port)
}

// SnapshotURL returns the single-frame capture endpoint.
func (c *Camera) SnapshotURL() string {
	return fmt.Sprintf("http://127.0.0.1:%d/snapshot", c.cfg.Port)
}

// Start spawns the streamer and waits for it to answer health checks.
// Already streaming is a no-op. When the camera device node does not
// exist the camera enters the Simulated state and Start still succeeds.
func (c *Camera) Start() error {
	if c.state == Streaming || c.state == Simulated {
		return nil
	}

	if _, err := os.Stat(c.cfg.Device); err != nil {
		log.Warn("camera device missing, running simulated", "device", c.cfg.Device)
		c.state = Simulated
		return nil
	}

	// A streamer left over from a crashed run would hold the port.
	killStrays()

	cmd := exec.Command("python3", c.cfg.Script,
		"--port", strconv.Itoa(c.cfg.Port),
		"--width", strconv.Itoa(c.cfg.Width),
		"--height", strconv.Itoa(c.cfg.Height),
	)
	cmd.Stdout = nil
	cmd.Stderr = nil
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("camera: spawning streamer: %w", err)
	}
	c.cmd = cmd
	c.state = Starting
	log.Info("camera streamer spawned", "pid", cmd.Process.Pid, "port", c.cfg.Port)

	if err := c.awaitHealthy(); err != nil {
		c.kill()
		c.state = Stopped
		return err
	}

	c.state = Streaming
	log.Info("camera streaming", "url", c.StreamURL())
	return nil
}

func (c *Camera) awaitHealthy() error {
	url := fmt.Sprintf("http://127.0.0.1:%d/status", c.cfg.Port)
	for i := 0; i < healthRetries; i++ {
		time.Sleep(healthInterval)
		resp, err := httpc.Get(url)
		if err != nil {
			continue
		}
		resp.Body.Close()
		if resp.StatusCode == 200 {
			return nil
		}
	}
	return ErrStartTimeout
}

// Stop terminates the streamer. Stopping a camera that never started
// is a no-op.
func (c *Camera) Stop() {
	switch c.state {
	case Stopped:
		return
	case Simulated:
		c.state = Stopped
		return
	}

	if c.cmd != nil && c.cmd.Process != nil {
		pid := c.cmd.Process.Pid
		_ = c.cmd.Process.Signal(syscall.SIGTERM)

		done := make(chan struct{})
		go func() {
			_ = c.cmd.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(stopGrace):
			log.Warn("camera streamer ignored SIGTERM, killing", "pid", pid)
			_ = c.cmd.Process.Kill()
			<-done
		}
	}
	c.cmd = nil

	// Belt and braces: the script forks a capture worker on some
	// OpenCV builds, and an orphan keeps /dev/video0 busy.
	killStrays()
	c.state = Stopped
	log.Info("camera stopped")
}

// Close guarantees the streamer is torn down.
func (c *Camera) Close() {
	c.Stop()
}

// Sweep kills streamer processes regardless of lifecycle state,
// including ones spawned by other invocations that this Camera never
// owned. Stop only tears down a stream it started; the stop subcommand
// needs this stronger form.
func (c *Camera) Sweep() {
	if c.state == Streaming || c.state == Starting {
		c.Stop()
		return
	}
	killStrays()
	c.state = Stopped
}

func (c *Camera) kill() {
	if c.cmd != nil && c.cmd.Process != nil {
		_ = c.cmd.Process.Kill()
		_ = c.cmd.Wait()
	}
	c.cmd = nil
	killStrays()
}

// killStrays is a variable so tests can observe the sweep without
// signalling real processes.
var killStrays = func() {
	_ = exec.Command("pkill", "-f", "camera_stream.py").Run()
}
