// Copyright 2026 The Wsmgr Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/hyprshell/wsmgr/cmd/wsmgr/cli"
	"github.com/hyprshell/wsmgr/lib/codec"
	"github.com/hyprshell/wsmgr/lib/hypr"
	"github.com/hyprshell/wsmgr/lib/protocol"
)

// clientCommand builds a one-shot client command for a single daemon
// operation. The positional arguments are parsed with the same
// signature the daemon's text protocol uses, so the CLI and the wire
// protocol agree on argument shapes and usage strings.
func clientCommand(op, summary, usage string, examples []cli.Example) *cli.Command {
	var socketPath string

	return &cli.Command{
		Name:    op,
		Summary: summary,
		Usage:   usage,
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet(op, pflag.ContinueOnError)
			flagSet.StringVar(&socketPath, "socket", "", "daemon socket path (default: derived from HYPRLAND_INSTANCE_SIGNATURE)")
			return flagSet
		},
		Examples: examples,
		Run: func(ctx context.Context, args []string) error {
			line := strings.TrimSpace(op + " " + strings.Join(args, " "))
			request, err := protocol.ParseLine(line)
			if err != nil {
				return err
			}
			return runRequest(ctx, socketPath, request)
		},
	}
}

func createCommand() *cli.Command {
	return clientCommand("create", "Create a named workspace",
		"wsmgr create <name>", []cli.Example{
			{Description: "Create a workspace called web", Command: "wsmgr create web"},
		})
}

func deleteCommand() *cli.Command {
	return clientCommand("delete", "Delete a named workspace",
		"wsmgr delete <name>", []cli.Example{
			{Description: "Delete the web workspace", Command: "wsmgr delete web"},
		})
}

func bindCommand() *cli.Command {
	return clientCommand("bind", "Bind a workspace name to a register",
		"wsmgr bind <name> <register>", []cli.Example{
			{Description: "Bind web to register 3", Command: "wsmgr bind web 3"},
		})
}

func unbindCommand() *cli.Command {
	return clientCommand("unbind", "Clear a register",
		"wsmgr unbind <register>", []cli.Example{
			{Description: "Clear register 3", Command: "wsmgr unbind 3"},
		})
}

func gotoCommand() *cli.Command {
	return clientCommand("goto", "Switch to the workspace bound to a register",
		"wsmgr goto <register>", []cli.Example{
			{Description: "Switch to whatever is bound to register 3", Command: "wsmgr goto 3"},
		})
}

func movetoCommand() *cli.Command {
	return clientCommand("moveto", "Move the focused window to the workspace bound to a register",
		"wsmgr moveto <register>", []cli.Example{
			{Description: "Send the focused window to register 3's workspace", Command: "wsmgr moveto 3"},
		})
}

func readCommand() *cli.Command {
	return clientCommand("read", "List workspaces and register bindings",
		"wsmgr read [name-or-register]", []cli.Example{
			{Description: "List everything", Command: "wsmgr read"},
			{Description: "Show one workspace and its registers", Command: "wsmgr read web"},
			{Description: "Show one register", Command: "wsmgr read 3"},
		})
}

func flushCommand() *cli.Command {
	return clientCommand("flush", "Send buffered dispatches to the compositor",
		"wsmgr flush", nil)
}

// runRequest performs one request against the daemon: connect, send,
// half-close, then drain responses until the daemon closes. The final
// implicit flush on the daemon side rides in the drained responses, so
// goto and moveto need no explicit flush here.
func runRequest(ctx context.Context, socketPath string, request protocol.Request) error {
	if socketPath == "" {
		runtimeDir, err := hypr.RuntimeDir()
		if err != nil {
			return err
		}
		socketPath = hypr.ServerSocketPath(runtimeDir)
	}

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "unix", socketPath)
	if err != nil {
		return fmt.Errorf("connecting to daemon: %w (is 'wsmgr serve' running?)", err)
	}
	defer conn.Close()

	encoder := codec.NewEncoder(conn)
	if err := encoder.Encode(request); err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	if err := conn.(*net.UnixConn).CloseWrite(); err != nil {
		return fmt.Errorf("closing write side: %w", err)
	}

	failed := false
	decoder := codec.NewDecoder(conn)
	for {
		var response protocol.Response
		if err := decoder.Decode(&response); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return fmt.Errorf("reading response: %w", err)
		}

		if !response.OK {
			fmt.Fprintln(os.Stderr, response.Error)
			failed = true
			continue
		}
		if response.Workspaces != nil || response.Registers != nil {
			printSnapshot(os.Stdout, response)
		}
		if response.Reply != "" {
			fmt.Println(response.Reply)
		}
	}

	if failed {
		return &cli.ExitError{Code: 1}
	}
	return nil
}

// printSnapshot renders a read response: aligned columns on a
// terminal, the plain text protocol lines when piped.
func printSnapshot(w *os.File, response protocol.Response) {
	var names []string
	if response.Workspaces != nil {
		for name := range response.Workspaces.Entries {
			names = append(names, name)
		}
		sort.Strings(names)
	}

	var registers []int
	if response.Registers != nil {
		for register := range response.Registers.Entries {
			registers = append(registers, int(register))
		}
		sort.Ints(registers)
	}

	if !term.IsTerminal(int(w.Fd())) {
		for _, name := range names {
			fmt.Fprintf(w, "workspace %s\n", name)
		}
		for _, register := range registers {
			fmt.Fprintf(w, "register %d %s\n", register, response.Registers.Entries[uint8(register)])
		}
		return
	}

	tw := tabwriter.NewWriter(w, 2, 0, 3, ' ', 0)
	for _, name := range names {
		fmt.Fprintf(tw, "workspace\t%s\t\n", name)
	}
	for _, register := range registers {
		fmt.Fprintf(tw, "register\t%d\t%s\n", register, response.Registers.Entries[uint8(register)])
	}
	tw.Flush()
}
