// Copyright 2026 The Wsmgr Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"fmt"
	"net"

	"golang.org/x/sys/unix"
)

// describePeer identifies a connected client for log output. Unix
// sockets carry the peer's credentials (SO_PEERCRED), which are far
// more useful than the empty address an unnamed client socket has.
func describePeer(conn net.Conn) string {
	unixConn, ok := conn.(*net.UnixConn)
	if !ok {
		return conn.RemoteAddr().String()
	}

	raw, err := unixConn.SyscallConn()
	if err != nil {
		return "unix"
	}

	var credentials *unix.Ucred
	var credentialsErr error
	controlErr := raw.Control(func(fd uintptr) {
		credentials, credentialsErr = unix.GetsockoptUcred(int(fd), unix.SOL_SOCKET, unix.SO_PEERCRED)
	})
	if controlErr != nil || credentialsErr != nil || credentials == nil {
		return "unix"
	}

	return fmt.Sprintf("pid=%d uid=%d", credentials.Pid, credentials.Uid)
}
