// Copyright 2026 The Wsmgr Authors
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"fmt"
	"io"

	"github.com/hyprshell/wsmgr/lib/registry"
)

// WriteSnapshotText renders a read snapshot as text lines, one entry
// per line:
//
//	workspace <name>
//	register <n> <name>
//
// Workspace lines come first in no particular order; register lines
// follow in ascending register order. Like the CBOR encoding, this
// consumes the snapshot sequences directly: it must run while the
// registry view is live, and it can run at most once per snapshot.
func WriteSnapshotText(w io.Writer, snap registry.Snapshot) error {
	err := snap.Workspaces.Each(func(name string, _ registry.Settings) error {
		_, err := fmt.Fprintf(w, "workspace %s\n", name)
		return err
	})
	if err != nil {
		return err
	}
	return snap.Registers.Each(func(register uint8, name string) error {
		_, err := fmt.Fprintf(w, "register %d %s\n", register, name)
		return err
	})
}
