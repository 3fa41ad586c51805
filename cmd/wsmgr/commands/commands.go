// Copyright 2026 The Wsmgr Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the wsmgr CLI command tree: the serve
// command running the daemon, and the one-shot client commands that
// compositor keybinds invoke against it.
package commands

import (
	"github.com/hyprshell/wsmgr/cmd/wsmgr/cli"
)

// Root builds and returns the complete wsmgr command tree.
func Root() *cli.Command {
	return &cli.Command{
		Name: "wsmgr",
		Description: `wsmgr: named workspace registers for Hyprland.

Keep a registry of workspace names and bind them to numbered registers
(0-255), then jump to or move windows onto workspaces by register from
compositor keybinds. The serve command runs the daemon; the other
commands are one-shot clients that talk to it over its unix socket.`,
		Subcommands: []*cli.Command{
			serveCommand(),
			createCommand(),
			deleteCommand(),
			bindCommand(),
			unbindCommand(),
			gotoCommand(),
			movetoCommand(),
			readCommand(),
			flushCommand(),
		},
	}
}
