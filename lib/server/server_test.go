// Copyright 2026 The Wsmgr Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hyprshell/wsmgr/lib/registry"
	"github.com/hyprshell/wsmgr/lib/testutil"
)

// testServer starts a server plus a fake compositor in a socket
// directory and returns the server socket path and the channel of
// messages the compositor received.
func testServer(t *testing.T, compositorReply string) (socketPath string, received <-chan string) {
	t.Helper()
	dir := testutil.SocketDir(t)
	socketPath = filepath.Join(dir, "ws-mgr.sock")
	dispatchPath := filepath.Join(dir, ".socket.sock")

	received = fakeCompositor(t, dispatchPath, compositorReply)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := New(registry.New(), dispatchPath, logger)

	listener, err := Listen(socketPath)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	t.Cleanup(func() { listener.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = srv.Serve(ctx, listener)
	}()
	t.Cleanup(func() {
		listener.Close()
		testutil.RequireClosed(t, done, 5*time.Second, "serve loop exit")
	})

	return socketPath, received
}

// fakeCompositor accepts connections, reads each to EOF, replies, and
// reports received messages on the returned channel.
func fakeCompositor(t *testing.T, socketPath, reply string) <-chan string {
	t.Helper()
	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		t.Fatalf("compositor listen: %v", err)
	}
	t.Cleanup(func() { listener.Close() })

	received := make(chan string, 8)
	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			data, _ := io.ReadAll(conn)
			received <- string(data)
			if reply != "" {
				conn.Write([]byte(reply))
			}
			conn.Close()
		}
	}()
	return received
}

func dialText(t *testing.T, socketPath string) (*net.UnixConn, *bufio.Reader) {
	t.Helper()
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		t.Fatalf("dialing server: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn.(*net.UnixConn), bufio.NewReader(conn)
}

func send(t *testing.T, conn net.Conn, line string) {
	t.Helper()
	if _, err := conn.Write([]byte(line + "\n")); err != nil {
		t.Fatalf("writing %q: %v", line, err)
	}
}

func readLine(t *testing.T, reader *bufio.Reader) string {
	t.Helper()
	line, err := reader.ReadString('\n')
	if err != nil {
		t.Fatalf("reading reply: %v", err)
	}
	return strings.TrimSuffix(line, "\n")
}

func TestTextGotoFlushScenario(t *testing.T) {
	socketPath, received := testServer(t, "ok\n")
	conn, reader := dialText(t, socketPath)

	send(t, conn, "create web")
	send(t, conn, "bind web 3")
	send(t, conn, "goto 3")
	send(t, conn, "flush")

	message := testutil.RequireReceive(t, received, 5*time.Second, "compositor message")
	if message != "[[BATCH]]/dispatch workspace web;" {
		t.Errorf("compositor received %q, want %q", message, "[[BATCH]]/dispatch workspace web;")
	}

	// The compositor reply is relayed on the same connection.
	if reply := readLine(t, reader); reply != "ok" {
		t.Errorf("flush reply = %q, want %q", reply, "ok")
	}
}

func TestTextBatchedDispatches(t *testing.T) {
	socketPath, received := testServer(t, "ok")
	conn, _ := dialText(t, socketPath)

	send(t, conn, "bind web 1")
	send(t, conn, "bind code 2")
	send(t, conn, "goto 1")
	send(t, conn, "moveto 2")
	send(t, conn, "flush")

	message := testutil.RequireReceive(t, received, 5*time.Second, "compositor message")
	want := "[[BATCH]]/dispatch workspace web;/dispatch movetoworkspacesilent code;"
	if message != want {
		t.Errorf("compositor received %q, want %q", message, want)
	}
}

func TestTextErrorKeepsConnectionOpen(t *testing.T) {
	socketPath, _ := testServer(t, "")
	conn, reader := dialText(t, socketPath)

	send(t, conn, "frobnicate")
	if reply := readLine(t, reader); !strings.Contains(reply, `invalid command "frobnicate"`) {
		t.Errorf("reply = %q, want invalid command error", reply)
	}

	// The connection is still usable after a bad message.
	send(t, conn, "create web")
	send(t, conn, "read")
	if reply := readLine(t, reader); reply != "workspace web" {
		t.Errorf("read reply = %q, want %q", reply, "workspace web")
	}
}

func TestTextRejectsEmptyNames(t *testing.T) {
	socketPath, _ := testServer(t, "")
	conn, reader := dialText(t, socketPath)

	// A doubled separator parses as an empty name token; the request
	// is rejected before it reaches the table, matching the
	// structured shape's validation.
	send(t, conn, "bind  5")
	if reply := readLine(t, reader); !strings.Contains(reply, "workspace name must not be empty") {
		t.Errorf("bind reply = %q, want empty-name rejection", reply)
	}
	send(t, conn, "create  ")
	if reply := readLine(t, reader); !strings.Contains(reply, "workspace name must not be empty") {
		t.Errorf("create reply = %q, want empty-name rejection", reply)
	}

	// Register 5 was never bound and no workspace was created.
	send(t, conn, "goto 5")
	if reply := readLine(t, reader); !strings.Contains(reply, "register not bound") {
		t.Errorf("goto reply = %q, want unbound register", reply)
	}
	send(t, conn, "create web")
	send(t, conn, "read")
	if reply := readLine(t, reader); reply != "workspace web" {
		t.Errorf("read reply = %q, want only the web workspace", reply)
	}
}

func TestTextDomainError(t *testing.T) {
	socketPath, _ := testServer(t, "")
	conn, reader := dialText(t, socketPath)

	send(t, conn, "create web")
	send(t, conn, "create web")
	if reply := readLine(t, reader); !strings.Contains(reply, "name already in use") {
		t.Errorf("reply = %q, want name-in-use error", reply)
	}
}

func TestTextGotoUnbound(t *testing.T) {
	socketPath, received := testServer(t, "")
	conn, reader := dialText(t, socketPath)

	send(t, conn, "goto 9")
	if reply := readLine(t, reader); !strings.Contains(reply, "register not bound") {
		t.Errorf("reply = %q, want unbound-register error", reply)
	}

	// No directive was queued: a flush after the failure is a no-op.
	send(t, conn, "flush")
	conn.CloseWrite()
	select {
	case message := <-received:
		t.Errorf("compositor received %q, want nothing", message)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestTextParseErrorShowsUsage(t *testing.T) {
	socketPath, _ := testServer(t, "")
	conn, reader := dialText(t, socketPath)

	send(t, conn, "bind web")
	if reply := readLine(t, reader); !strings.Contains(reply, "bind <name: str> <register: u8>") {
		t.Errorf("reply = %q, want usage string", reply)
	}
	// The detail line follows the usage line.
	if reply := readLine(t, reader); !strings.Contains(reply, "missing input") {
		t.Errorf("detail = %q, want missing-input message", reply)
	}
}

func TestTextReadSnapshot(t *testing.T) {
	socketPath, _ := testServer(t, "")
	conn, reader := dialText(t, socketPath)

	send(t, conn, "create web")
	send(t, conn, "bind web 3")
	send(t, conn, "bind web 7")
	send(t, conn, "bind scratch 1")
	send(t, conn, "read web")

	if reply := readLine(t, reader); reply != "workspace web" {
		t.Errorf("line = %q, want %q", reply, "workspace web")
	}
	if reply := readLine(t, reader); reply != "register 3 web" {
		t.Errorf("line = %q, want %q", reply, "register 3 web")
	}
	if reply := readLine(t, reader); reply != "register 7 web" {
		t.Errorf("line = %q, want %q", reply, "register 7 web")
	}
}

func TestTextReadByRegisterDangling(t *testing.T) {
	socketPath, _ := testServer(t, "")
	conn, reader := dialText(t, socketPath)

	send(t, conn, "bind code 5")
	send(t, conn, "read 5")
	if reply := readLine(t, reader); reply != "register 5 code" {
		t.Errorf("reply = %q, want dangling register listed without a workspace", reply)
	}
}

func TestImplicitFlushOnDisconnect(t *testing.T) {
	socketPath, received := testServer(t, "dispatched")
	conn, _ := dialText(t, socketPath)

	send(t, conn, "create web")
	send(t, conn, "bind web 3")
	send(t, conn, "goto 3")
	if err := conn.CloseWrite(); err != nil {
		t.Fatalf("CloseWrite: %v", err)
	}

	message := testutil.RequireReceive(t, received, 5*time.Second, "compositor message")
	if message != "[[BATCH]]/dispatch workspace web;" {
		t.Errorf("compositor received %q", message)
	}

	// The compositor reply is the last data on the connection.
	data, err := io.ReadAll(conn)
	if err != nil {
		t.Fatalf("reading trailing reply: %v", err)
	}
	if string(data) != "dispatched" {
		t.Errorf("trailing bytes = %q, want %q", data, "dispatched")
	}
}

func TestRegistrySharedAcrossConnections(t *testing.T) {
	socketPath, _ := testServer(t, "")

	first, _ := dialText(t, socketPath)
	send(t, first, "create shared")
	send(t, first, "bind shared 4")
	first.CloseWrite()
	if _, err := io.ReadAll(first); err != nil {
		t.Fatalf("draining first connection: %v", err)
	}

	second, reader := dialText(t, socketPath)
	send(t, second, "read 4")
	if reply := readLine(t, reader); reply != "workspace shared" {
		t.Errorf("reply = %q, want %q", reply, "workspace shared")
	}
}

func TestListenRemovesStaleSocket(t *testing.T) {
	dir := testutil.SocketDir(t)
	socketPath := filepath.Join(dir, "ws-mgr.sock")

	// A leftover socket file from a crashed run.
	if err := os.WriteFile(socketPath, nil, 0600); err != nil {
		t.Fatalf("creating stale file: %v", err)
	}

	listener, err := Listen(socketPath)
	if err != nil {
		t.Fatalf("Listen over stale socket: %v", err)
	}
	listener.Close()
}

func TestListenRejectsOverlongPath(t *testing.T) {
	long := "/tmp/" + strings.Repeat("x", 120) + "/ws-mgr.sock"
	if _, err := Listen(long); err == nil {
		t.Error("Listen with over-long path: want error")
	}
}
