// Copyright 2026 The Wsmgr Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/hyprshell/wsmgr/cmd/wsmgr/commands"
)

func main() {
	if err := run(); err != nil {
		// Client commands that have already written their own output
		// return an ExitError with the desired exit code. Don't print
		// a redundant "error:" line for those.
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(coder.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	return commands.Root().Execute(context.Background(), os.Args[1:])
}
