// Copyright 2026 The Wsmgr Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"

	"github.com/hyprshell/wsmgr/lib/codec"
	"github.com/hyprshell/wsmgr/lib/hypr"
	"github.com/hyprshell/wsmgr/lib/protocol"
	"github.com/hyprshell/wsmgr/lib/registry"
)

// handleConnection runs one client's control loop: read a message,
// dispatch it, reply on the same connection, repeat until the peer
// closes its write side, then perform the final implicit flush.
//
// The wire shape is sniffed from the first byte: CBOR map headers
// start at 0xa0 and above, text commands start with printable ASCII.
// A connection keeps its shape for its lifetime.
func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	logger := s.logger.With("peer", describePeer(conn))
	logger.Info("client connected")

	reader := bufio.NewReader(conn)
	first, err := reader.Peek(1)
	if err != nil {
		// Peer connected and closed without sending anything; there
		// is nothing to flush.
		if !errors.Is(err, io.EOF) {
			logger.Error("reading first byte", "error", err)
		}
		logger.Info("client disconnected")
		return
	}

	batch := hypr.NewBatch(s.dispatchSocket)

	if first[0] >= 0x80 {
		err = s.serveCBOR(ctx, conn, reader, batch, logger)
	} else {
		err = s.serveText(ctx, conn, reader, batch, logger)
	}
	if err != nil {
		// Transport errors are not recovered; the connection's task
		// ends here.
		logger.Error("connection failed", "error", err)
	}
	logger.Info("client disconnected")
}

// serveText is the line-oriented control loop. Decode and domain
// errors are reported as text on the same connection and never
// terminate the loop; only transport errors do.
func (s *Server) serveText(ctx context.Context, conn net.Conn, reader *bufio.Reader, batch *hypr.Batch, logger *slog.Logger) error {
	for {
		line, readErr := reader.ReadString('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return fmt.Errorf("reading command: %w", readErr)
		}

		line = strings.TrimSuffix(line, "\n")
		if line != "" {
			if err := s.handleTextLine(ctx, conn, batch, line, logger); err != nil {
				return err
			}
		}

		if readErr != nil {
			break
		}
	}

	// Peer closed its write side: flush any buffered dispatches and
	// relay the compositor's reply as the last bytes sent.
	if err := batch.Flush(ctx, conn); err != nil {
		return fmt.Errorf("final flush: %w", err)
	}
	return nil
}

// handleTextLine processes one text command. The returned error is a
// transport failure; decode and domain errors have already been
// written to the client.
func (s *Server) handleTextLine(ctx context.Context, conn net.Conn, batch *hypr.Batch, line string, logger *slog.Logger) error {
	request, err := protocol.ParseLine(line)
	if err != nil {
		logger.Info("rejected command", "error", err)
		return writeErrorText(conn, err)
	}
	// Doubled separators produce empty tokens that parse as empty
	// names; both wire shapes reject those the same way.
	if err := request.Validate(); err != nil {
		logger.Info("rejected command", "error", err)
		return writeErrorText(conn, err)
	}

	switch request.Op {
	case protocol.OpCreate:
		if err := s.table.Create(request.Name); err != nil {
			return writeErrorText(conn, err)
		}
	case protocol.OpDelete:
		if err := s.table.Delete(request.Name); err != nil {
			return writeErrorText(conn, err)
		}
	case protocol.OpBind:
		s.table.Bind(request.Name, request.Register)
	case protocol.OpUnbind:
		s.table.Unbind(request.Register)

	case protocol.OpGoto, protocol.OpMoveto:
		name, err := s.table.Resolve(request.Register)
		if err != nil {
			return writeErrorText(conn, err)
		}
		if request.Op == protocol.OpGoto {
			batch.GoTo(name)
		} else {
			batch.MoveTo(name)
		}

	case protocol.OpRead:
		err := s.table.View(viewFilter(request.Filter), func(snap registry.Snapshot) error {
			return protocol.WriteSnapshotText(conn, snap)
		})
		if err != nil {
			if isDomainError(err) {
				return writeErrorText(conn, err)
			}
			return fmt.Errorf("writing snapshot: %w", err)
		}

	case protocol.OpFlush:
		// A flush failure means the compositor socket is unreachable
		// or broken: a transport error, not a per-message one.
		if err := batch.Flush(ctx, conn); err != nil {
			return err
		}
	}
	return nil
}

// serveCBOR is the structured control loop. Every request gets a
// response envelope. A malformed CBOR item loses the stream framing,
// so unlike text mode a decode failure ends the connection after an
// error response; requests that decode but fail validation or hit
// domain errors are answered and the loop continues.
func (s *Server) serveCBOR(ctx context.Context, conn net.Conn, reader *bufio.Reader, batch *hypr.Batch, logger *slog.Logger) error {
	decoder := codec.NewDecoder(reader)
	encoder := codec.NewEncoder(conn)

	for {
		var request protocol.Request
		if err := decoder.Decode(&request); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			logger.Info("rejected request", "error", err)
			if encodeErr := encoder.Encode(protocol.ErrorResponse(fmt.Errorf("invalid request: %w", err))); encodeErr != nil {
				return fmt.Errorf("writing error response: %w", encodeErr)
			}
			return fmt.Errorf("decoding request: %w", err)
		}

		if err := s.handleStructured(ctx, encoder, batch, request, logger); err != nil {
			return err
		}
	}

	// Final implicit flush; the compositor reply rides in the last
	// response envelope.
	if !batch.Pending() {
		return nil
	}
	var reply bytes.Buffer
	if err := batch.Flush(ctx, &reply); err != nil {
		return fmt.Errorf("final flush: %w", err)
	}
	if err := encoder.Encode(protocol.Response{OK: true, Reply: reply.String()}); err != nil {
		return fmt.Errorf("writing final flush response: %w", err)
	}
	return nil
}

// handleStructured processes one structured request. The returned
// error is a transport failure; everything else has been answered
// with a response envelope.
func (s *Server) handleStructured(ctx context.Context, encoder *codec.Encoder, batch *hypr.Batch, request protocol.Request, logger *slog.Logger) error {
	if err := request.Validate(); err != nil {
		logger.Info("rejected request", "error", err)
		return encodeResult(encoder, err)
	}

	switch request.Op {
	case protocol.OpCreate:
		return encodeResult(encoder, s.table.Create(request.Name))
	case protocol.OpDelete:
		return encodeResult(encoder, s.table.Delete(request.Name))
	case protocol.OpBind:
		s.table.Bind(request.Name, request.Register)
		return encodeResult(encoder, nil)
	case protocol.OpUnbind:
		s.table.Unbind(request.Register)
		return encodeResult(encoder, nil)

	case protocol.OpGoto, protocol.OpMoveto:
		name, err := s.table.Resolve(request.Register)
		if err != nil {
			return encodeResult(encoder, err)
		}
		if request.Op == protocol.OpGoto {
			batch.GoTo(name)
		} else {
			batch.MoveTo(name)
		}
		return encodeResult(encoder, nil)

	case protocol.OpRead:
		err := s.table.View(viewFilter(request.Filter), func(snap registry.Snapshot) error {
			return encoder.Encode(protocol.SnapshotResponse(snap))
		})
		if err != nil {
			if isDomainError(err) {
				return encodeResult(encoder, err)
			}
			return fmt.Errorf("writing snapshot: %w", err)
		}
		return nil

	case protocol.OpFlush:
		var reply bytes.Buffer
		if err := batch.Flush(ctx, &reply); err != nil {
			return err
		}
		return encoder.Encode(protocol.Response{OK: true, Reply: reply.String()})

	default:
		// Validate has already rejected unknown operations.
		return encodeResult(encoder, fmt.Errorf("invalid operation %q", request.Op))
	}
}

// encodeResult writes the response envelope for an operation without
// output: OK on nil, the error text otherwise.
func encodeResult(encoder *codec.Encoder, err error) error {
	if err != nil {
		return encoder.Encode(protocol.ErrorResponse(err))
	}
	return encoder.Encode(protocol.Response{OK: true})
}

// writeErrorText reports a recoverable error on the text connection.
// The returned error is the write failure, if any.
func writeErrorText(conn net.Conn, cause error) error {
	if _, err := fmt.Fprintf(conn, "%s\n", cause.Error()); err != nil {
		return fmt.Errorf("writing error reply: %w", err)
	}
	return nil
}

// viewFilter maps a wire filter to a registry filter.
func viewFilter(filter *protocol.Filter) registry.Filter {
	switch {
	case filter == nil:
		return registry.All()
	case filter.ByRegister:
		return registry.ByRegister(filter.Register)
	default:
		return registry.ByName(filter.Name)
	}
}

// isDomainError reports whether err is a per-message registry error
// rather than a transport failure.
func isDomainError(err error) bool {
	return errors.Is(err, registry.ErrNameInUse) ||
		errors.Is(err, registry.ErrUnknownWorkspace) ||
		errors.Is(err, registry.ErrUnboundRegister)
}
