// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Peregrine Robotics

// Package config provides environment-backed configuration for the
// turbopi daemon. An optional .env file is loaded once at startup;
// command-line flags take precedence over everything here.
package config

import (
	"os"
	"strconv"
	"sync"

	"github.com/joho/godotenv"
)

var loadOnce sync.Once

// Load reads the optional .env file. Missing files are fine; the
// defaults below and the real environment still apply.
func Load() {
	loadOnce.Do(func() {
		_ = godotenv.Load()
	})
}

// Board link defaults. The expansion board UART runs at 1Mbaud.
const (
	DefaultSerialDevice = "/dev/ttyAMA0"
	DefaultBaudRate     = 1000000
)

// Camera subprocess defaults, matching the streaming script's flags.
const (
	DefaultCameraPort   = 5000
	DefaultCameraWidth  = 640
	DefaultCameraHeight = 480
	DefaultCameraDevice = "/dev/video0"
	DefaultCameraScript = "/opt/turbopi/camera_stream.py"
)

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// SerialDevice returns the board serial device path.
func SerialDevice() string {
	return envStr("TURBOPI_SERIAL", DefaultSerialDevice)
}

// BaudRate returns the board serial baud rate.
func BaudRate() int {
	return envInt("TURBOPI_BAUD", DefaultBaudRate)
}

// BridgeURL returns the serial-over-websocket bridge URL, empty when
// the local serial link should be used.
func BridgeURL() string {
	return envStr("TURBOPI_BRIDGE_URL", "")
}

// LogLevel returns the configured log level.
func LogLevel() string {
	return envStr("TURBOPI_LOG_LEVEL", "info")
}

// CameraPort returns the camera stream HTTP port.
func CameraPort() int {
	return envInt("TURBOPI_CAMERA_PORT", DefaultCameraPort)
}

// CameraSize returns the camera capture resolution.
func CameraSize() (width, height int) {
	return envInt("TURBOPI_CAMERA_WIDTH", DefaultCameraWidth),
		envInt("TURBOPI_CAMERA_HEIGHT", DefaultCameraHeight)
}

// CameraDevice returns the camera device node checked before spawning
// the streamer.
func CameraDevice() string {
	return envStr("TURBOPI_CAMERA_DEVICE", DefaultCameraDevice)
}

// CameraScript returns the path of the streaming subprocess script.
func CameraScript() string {
	return envStr("TURBOPI_CAMERA_SCRIPT", DefaultCameraScript)
}
