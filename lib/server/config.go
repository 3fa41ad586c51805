// Copyright 2026 The Wsmgr Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hyprshell/wsmgr/lib/hypr"
)

// Config is the server's optional configuration file. All fields have
// working defaults; a flag given on the command line beats the file.
// There is no config file discovery; the file is read only when
// --config names it explicitly.
type Config struct {
	// SocketName is the daemon's listen socket file name inside the
	// compositor instance's runtime directory.
	SocketName string `yaml:"socket_name"`

	// DispatchSocketName is the compositor control socket file name
	// inside the same directory.
	DispatchSocketName string `yaml:"dispatch_socket_name"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		SocketName:         hypr.ServerSocketName,
		DispatchSocketName: hypr.DispatchSocketName,
		LogLevel:           "info",
	}
}

// LoadConfig reads a config file and overlays it on the defaults.
// Unknown keys are errors: a typoed key silently doing nothing is
// worse than a failed start.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	var file Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil {
		return Config{}, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if file.SocketName != "" {
		config.SocketName = file.SocketName
	}
	if file.DispatchSocketName != "" {
		config.DispatchSocketName = file.DispatchSocketName
	}
	if file.LogLevel != "" {
		config.LogLevel = file.LogLevel
	}

	if _, err := config.SlogLevel(); err != nil {
		return Config{}, err
	}
	return config, nil
}

// SlogLevel converts the configured log level name to a slog.Level.
func (c Config) SlogLevel() (slog.Level, error) {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level %q (expected debug, info, warn, or error)", c.LogLevel)
	}
}
