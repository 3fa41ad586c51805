// Copyright 2026 The Wsmgr Authors
// SPDX-License-Identifier: Apache-2.0

package hypr

import (
	"strings"
	"testing"
)

func TestRuntimeDir(t *testing.T) {
	t.Setenv(InstanceEnv, "abc123")
	t.Setenv("XDG_RUNTIME_DIR", "/run/user/1000")

	dir, err := RuntimeDir()
	if err != nil {
		t.Fatalf("RuntimeDir: %v", err)
	}
	if dir != "/run/user/1000/hypr/abc123" {
		t.Errorf("RuntimeDir = %q, want %q", dir, "/run/user/1000/hypr/abc123")
	}
}

func TestRuntimeDirMissingInstance(t *testing.T) {
	t.Setenv(InstanceEnv, "")
	t.Setenv("XDG_RUNTIME_DIR", "/run/user/1000")

	if _, err := RuntimeDir(); err == nil {
		t.Fatal("RuntimeDir without instance signature: want error")
	}
}

func TestRuntimeDirFallback(t *testing.T) {
	t.Setenv(InstanceEnv, "abc123")
	t.Setenv("XDG_RUNTIME_DIR", "")

	dir, err := RuntimeDir()
	if err != nil {
		t.Fatalf("RuntimeDir: %v", err)
	}
	if !strings.HasPrefix(dir, "/run/user/") || !strings.HasSuffix(dir, "/hypr/abc123") {
		t.Errorf("RuntimeDir = %q, want /run/user/<uid>/hypr/abc123", dir)
	}
}

func TestSocketPaths(t *testing.T) {
	dir := "/run/user/1000/hypr/abc123"
	if got, want := ServerSocketPath(dir), dir+"/ws-mgr.sock"; got != want {
		t.Errorf("ServerSocketPath = %q, want %q", got, want)
	}
	if got, want := DispatchSocketPath(dir), dir+"/.socket.sock"; got != want {
		t.Errorf("DispatchSocketPath = %q, want %q", got, want)
	}
}

func TestValidateSocketPath(t *testing.T) {
	if err := ValidateSocketPath("/run/user/1000/hypr/abc/ws-mgr.sock"); err != nil {
		t.Errorf("ValidateSocketPath(short) = %v, want nil", err)
	}
	long := "/" + strings.Repeat("x", 120) + "/ws-mgr.sock"
	if err := ValidateSocketPath(long); err == nil {
		t.Error("ValidateSocketPath(long): want error")
	}
}
