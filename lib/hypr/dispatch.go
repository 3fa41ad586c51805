// Copyright 2026 The Wsmgr Authors
// SPDX-License-Identifier: Apache-2.0

package hypr

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
)

// batchMarker opens every batch. Hyprland treats a message starting
// with this token as a batch of semicolon-terminated statements.
const batchMarker = "[[BATCH]]"

// Batch accumulates dispatch commands for one client connection and
// flushes them to the compositor control socket as a single write.
// Batching makes the client-visible flush the unit of atomicity as
// seen by the compositor: several register operations issued
// back-to-back arrive in one message instead of one round-trip each.
//
// A Batch is private to its owning connection and not safe for
// concurrent use.
type Batch struct {
	socketPath string
	buffer     bytes.Buffer
}

// NewBatch returns an empty batch that flushes to the compositor
// control socket at socketPath.
func NewBatch(socketPath string) *Batch {
	batch := &Batch{socketPath: socketPath}
	batch.buffer.WriteString(batchMarker)
	return batch
}

// GoTo appends a directive switching the active workspace.
func (b *Batch) GoTo(workspace string) {
	fmt.Fprintf(&b.buffer, "/dispatch workspace %s;", workspace)
}

// MoveTo appends a directive moving the current window to a workspace
// without switching to it.
func (b *Batch) MoveTo(workspace string) {
	fmt.Fprintf(&b.buffer, "/dispatch movetoworkspacesilent %s;", workspace)
}

// Pending reports whether the batch holds any directives beyond the
// opening marker.
func (b *Batch) Pending() bool {
	return b.buffer.Len() > len(batchMarker)
}

// String returns the current batch contents, marker included.
func (b *Batch) String() string {
	return b.buffer.String()
}

// Flush sends the accumulated batch to the compositor in one write
// and resets the buffer back to the marker. An empty batch is a no-op
// with no I/O. When reply is non-nil, the compositor's response is
// copied into it after the write; the buffer is reset as soon as the
// write succeeds, so a failed reply read does not resend directives.
func (b *Batch) Flush(ctx context.Context, reply io.Writer) error {
	if !b.Pending() {
		return nil
	}

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "unix", b.socketPath)
	if err != nil {
		return fmt.Errorf("dialing compositor socket %s: %w", b.socketPath, err)
	}
	defer conn.Close()

	if _, err := conn.Write(b.buffer.Bytes()); err != nil {
		return fmt.Errorf("writing dispatch batch: %w", err)
	}
	b.buffer.Truncate(len(batchMarker))

	if reply == nil {
		return nil
	}

	// Half-close so the compositor sees EOF and replies; then drain
	// its response until it closes its side.
	if unixConn, ok := conn.(*net.UnixConn); ok {
		if err := unixConn.CloseWrite(); err != nil {
			return fmt.Errorf("closing write side of compositor socket: %w", err)
		}
	}
	if _, err := io.Copy(reply, conn); err != nil {
		return fmt.Errorf("reading compositor reply: %w", err)
	}
	return nil
}
