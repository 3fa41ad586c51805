// Copyright 2026 The Wsmgr Authors
// SPDX-License-Identifier: Apache-2.0

// Package hypr covers the daemon's two contact points with Hyprland:
// deriving the per-instance runtime directory that holds both sockets,
// and batching dispatch commands for the compositor's control socket.
package hypr

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// InstanceEnv names the environment variable carrying the
	// compositor instance signature. Hyprland sets it for every
	// process started inside a session.
	InstanceEnv = "HYPRLAND_INSTANCE_SIGNATURE"

	// ServerSocketName is the daemon's listen socket file inside the
	// instance runtime directory.
	ServerSocketName = "ws-mgr.sock"

	// DispatchSocketName is Hyprland's own control socket file.
	DispatchSocketName = ".socket.sock"
)

// RuntimeDir derives the per-instance runtime directory from the
// environment: $XDG_RUNTIME_DIR/hypr/<instance signature>, falling
// back to /run/user/<uid> when XDG_RUNTIME_DIR is unset. A missing
// instance signature is a startup error: the daemon only makes sense
// inside a running Hyprland session.
func RuntimeDir() (string, error) {
	instance := os.Getenv(InstanceEnv)
	if instance == "" {
		return "", fmt.Errorf("%s is not set: expected to be started in the context of a running Hyprland instance", InstanceEnv)
	}

	base := os.Getenv("XDG_RUNTIME_DIR")
	if base == "" {
		base = fmt.Sprintf("/run/user/%d", os.Getuid())
	}

	return filepath.Join(base, "hypr", instance), nil
}

// ServerSocketPath returns the daemon's listen socket path for a
// runtime directory.
//
//	ServerSocketPath("/run/user/1000/hypr/abc") → "/run/user/1000/hypr/abc/ws-mgr.sock"
func ServerSocketPath(runtimeDir string) string {
	return filepath.Join(runtimeDir, ServerSocketName)
}

// DispatchSocketPath returns the compositor control socket path for a
// runtime directory.
//
//	DispatchSocketPath("/run/user/1000/hypr/abc") → "/run/user/1000/hypr/abc/.socket.sock"
func DispatchSocketPath(runtimeDir string) string {
	return filepath.Join(runtimeDir, DispatchSocketName)
}

// maxSocketPath is the usable sun_path length for unix sockets (108
// bytes including the trailing NUL).
const maxSocketPath = 107

// ValidateSocketPath checks a socket path against the sun_path limit.
// Instance signatures are hashes of bounded length, so this only
// trips on unusual XDG_RUNTIME_DIR values, but the bind error the
// kernel gives for an over-long path is cryptic, and this one is not.
func ValidateSocketPath(path string) error {
	if len(path) > maxSocketPath {
		return fmt.Errorf("socket path %q is %d bytes, exceeding the unix socket limit of %d", path, len(path), maxSocketPath)
	}
	return nil
}
