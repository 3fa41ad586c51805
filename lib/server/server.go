// Copyright 2026 The Wsmgr Authors
// SPDX-License-Identifier: Apache-2.0

// Package server implements the daemon's connection handling: the
// listen socket, the accept loop, and the per-connection control loop
// that decodes requests, drives the registry and the dispatch batch,
// and writes replies.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"

	"github.com/hyprshell/wsmgr/lib/hypr"
	"github.com/hyprshell/wsmgr/lib/registry"
)

// Server handles client connections against one shared registry. The
// registry carries its own lock; everything else here is immutable
// after construction, so connection goroutines share the Server
// without further synchronization. Each connection owns a private
// dispatch batch.
type Server struct {
	table          *registry.Registry
	dispatchSocket string
	logger         *slog.Logger
}

// New returns a server flushing dispatch batches to the compositor
// control socket at dispatchSocketPath.
func New(table *registry.Registry, dispatchSocketPath string, logger *slog.Logger) *Server {
	return &Server{
		table:          table,
		dispatchSocket: dispatchSocketPath,
		logger:         logger,
	}
}

// Listen creates the unix listen socket, removing any stale socket
// file from a previous run. Unlink failures other than not-found, and
// bind failures, are returned to the caller and are fatal to startup.
func Listen(socketPath string) (net.Listener, error) {
	if err := hypr.ValidateSocketPath(socketPath); err != nil {
		return nil, err
	}

	socketDir := filepath.Dir(socketPath)
	if err := os.MkdirAll(socketDir, 0755); err != nil {
		return nil, fmt.Errorf("creating socket directory %s: %w", socketDir, err)
	}

	if err := os.Remove(socketPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("removing stale socket %s: %w", socketPath, err)
	}

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", socketPath, err)
	}
	return listener, nil
}

// Serve accepts connections until the listener is closed or ctx is
// cancelled. Each connection is handled in its own goroutine; there
// is no worker-pool bound.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			s.logger.Error("accept error", "error", err)
			continue
		}
		go s.handleConnection(ctx, conn)
	}
}
