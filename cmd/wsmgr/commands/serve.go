// Copyright 2026 The Wsmgr Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/hyprshell/wsmgr/cmd/wsmgr/cli"
	"github.com/hyprshell/wsmgr/lib/hypr"
	"github.com/hyprshell/wsmgr/lib/registry"
	"github.com/hyprshell/wsmgr/lib/server"
)

func serveCommand() *cli.Command {
	var (
		configPath         string
		socketName         string
		dispatchSocketName string
		logLevel           string
		flagSet            *pflag.FlagSet
	)

	return &cli.Command{
		Name:    "serve",
		Summary: "Run the workspace register daemon",
		Description: `Run the daemon inside a Hyprland session.

The listen socket and the compositor control socket both live in the
instance runtime directory derived from HYPRLAND_INSTANCE_SIGNATURE.
Settings come from built-in defaults, overridden by the --config file
if given, overridden by explicit flags.`,
		Usage: "wsmgr serve [flags]",
		Examples: []cli.Example{
			{
				Description: "Run with defaults (from a Hyprland exec-once line)",
				Command:     "wsmgr serve",
			},
			{
				Description: "Run with a config file and debug logging",
				Command:     "wsmgr serve --config ~/.config/wsmgr/config.yaml --log-level debug",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet = pflag.NewFlagSet("serve", pflag.ContinueOnError)
			flagSet.StringVar(&configPath, "config", "", "path to a YAML config file")
			flagSet.StringVar(&socketName, "socket-name", "", "listen socket file name inside the runtime directory")
			flagSet.StringVar(&dispatchSocketName, "dispatch-socket-name", "", "compositor control socket file name")
			flagSet.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, or error")
			return flagSet
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("serve takes no positional arguments, got %q", args[0])
			}

			config := server.DefaultConfig()
			if configPath != "" {
				loaded, err := server.LoadConfig(configPath)
				if err != nil {
					return err
				}
				config = loaded
			}
			if flagSet.Changed("socket-name") {
				config.SocketName = socketName
			}
			if flagSet.Changed("dispatch-socket-name") {
				config.DispatchSocketName = dispatchSocketName
			}
			if flagSet.Changed("log-level") {
				config.LogLevel = logLevel
			}

			level, err := config.SlogLevel()
			if err != nil {
				return err
			}

			return runServer(ctx, config, level)
		},
	}
}

// runServer resolves the socket paths, starts the listener, and serves
// until the context is cancelled by SIGINT or SIGTERM.
func runServer(ctx context.Context, config server.Config, level slog.Level) error {
	runtimeDir, err := hypr.RuntimeDir()
	if err != nil {
		return err
	}
	socketPath := filepath.Join(runtimeDir, config.SocketName)
	dispatchPath := filepath.Join(runtimeDir, config.DispatchSocketName)

	// The daemon always logs JSON: it runs under the compositor or a
	// systemd unit, never on a terminal.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	srv := server.New(registry.New(), dispatchPath, logger)

	listener, err := server.Listen(socketPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Closing the listener unblocks the accept loop.
	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	logger.Info("daemon started",
		"socket", socketPath,
		"dispatch_socket", dispatchPath,
		"log_level", config.LogLevel)

	err = srv.Serve(ctx, listener)
	logger.Info("daemon stopped")
	return err
}
