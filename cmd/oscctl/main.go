/*
 * FloofOS - Fast Line-rate Offload On Fabric Operating System
 * Copyright (C) 2025 FloofOS Networks <dev@floofos.io>
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, either version 3 of the License.
 */

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/floof-os/osc-cli/internal/audit"
	"github.com/floof-os/osc-cli/internal/commands"
	"github.com/floof-os/osc-cli/internal/config"
	"github.com/floof-os/osc-cli/internal/credential"
	"github.com/floof-os/osc-cli/internal/shell"
	"github.com/floof-os/osc-cli/internal/system"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:          "oscctl",
		Short:        "Open Security Controller appliance shell",
		Version:      version,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			return runShell(cmd.Context(), cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $XDG_CONFIG_HOME/oscctl/oscctl.yaml or /etc/oscctl/oscctl.yaml)")

	cmd.AddCommand(newKeygenCmd(&cfgFile))
	cmd.AddCommand(newVersionCmd())
	return cmd
}

// consoleReader reads passwords through whichever console the shell ends
// up using. The console is created after the command tree, which needs the
// escalator first; until then the terminal is read directly.
type consoleReader struct {
	console  shell.Console
	fallback credential.PasswordReader
}

func newConsoleReader(out io.Writer) *consoleReader {
	return &consoleReader{fallback: credential.TerminalPasswordReader{Out: out}}
}

func (r *consoleReader) ReadPassword(prompt string) (string, error) {
	if r.console != nil {
		return r.console.ReadPassword(prompt)
	}
	return r.fallback.ReadPassword(prompt)
}

func runShell(ctx context.Context, cfg *config.Config, stdout, stderr io.Writer) error {
	logger, err := audit.Open(audit.Options{File: cfg.Audit.File, Verbose: cfg.Audit.Verbose, Stderr: stderr})
	if err != nil {
		color.New(color.FgYellow).Fprintf(stderr, "Warning: Could not initialize audit log: %v\n", err)
		logger = audit.Discard()
	}
	defer logger.Close()

	logger.Info("session start", "version", version)
	defer logger.Info("session end")

	runner := system.NewExecRunner()

	services, err := system.NewServiceController(ctx, cfg.Service.Manager, runner, cfg.Sudo, stdout)
	if err != nil {
		return err
	}
	if closer, ok := services.(io.Closer); ok {
		defer closer.Close()
	}

	record, err := credential.NewStore(cfg.Credential.Record).Load()
	if err != nil {
		logger.Warn("credential record unreadable", "path", cfg.Credential.Record, "error", err)
		record = nil
	}

	reader := newConsoleReader(stdout)
	escalator := credential.NewEscalator(record, reader, func(ctx context.Context) error {
		return runner.Run(ctx, cfg.Sudo, "/bin/bash")
	}, logger.Logger)

	pager := system.NewPager()
	pager.Out = stdout

	deps := &commands.Deps{
		Context:    ctx,
		Runner:     runner,
		Services:   services,
		Files:      system.NewSudoFileEditor(runner, cfg.Sudo),
		Pager:      pager,
		Escalator:  escalator,
		Settings:   cfg,
		Logger:     logger.Logger,
		Hostname:   system.Hostname,
		Paths:      commands.PathsFromConfig(cfg),
		Controller: cfg.Service.Controller,
		Sudo:       cfg.Sudo,
		Version:    version,
	}

	if proc, err := system.NewProcReader(""); err != nil {
		logger.Warn("procfs unavailable", "error", err)
	} else {
		deps.Proc = proc
		deps.Dashboard = (&system.Dashboard{Proc: proc}).Run
	}

	historyFile := cfg.Console.HistoryFile
	if historyFile == "" {
		historyFile = shell.DefaultHistoryFile()
	}
	deps.History = shell.NewHistory(historyFile, cfg.Console.HistoryLimit)

	root := commands.Build(deps)

	console, err := shell.NewConsole(cfg.Console.Editor, root)
	if err != nil {
		return err
	}
	reader.console = console

	return shell.New(root, shell.Options{
		Console:  console,
		History:  deps.History,
		Hostname: system.Hostname,
		Logger:   logger.Logger,
		Out:      stdout,
	}).Run(ctx)
}

func newKeygenCmd(cfgFile *string) *cobra.Command {
	var (
		recordPath   string
		removeConfig bool
	)

	cmd := &cobra.Command{
		Use:   "keygen [config-dir]",
		Short: "Provision the credential record that gates enable",
		Long: `Reads ` + credential.ConfigFileName + ` from config-dir, derives the master
key from its password and writes the credential record. Without a key
config no record is written and enable stays disabled.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if recordPath == "" {
				cfg, err := config.Load(*cfgFile)
				if err != nil {
					return err
				}
				recordPath = cfg.Credential.Record
			}

			configPath := ""
			if len(args) == 1 {
				configPath = filepath.Join(args[0], credential.ConfigFileName)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Generating osc cli key with file %s\n", configPath)

			if configPath == "" {
				return nil
			}

			rec, err := credential.Generate(credential.NewStore(recordPath), configPath)
			if err != nil {
				return err
			}
			if rec == nil {
				color.New(color.FgYellow).Fprintf(cmd.OutOrStdout(), "No key config at %s, enable stays disabled\n", configPath)
				return nil
			}

			if removeConfig {
				if err := os.Remove(configPath); err != nil {
					return fmt.Errorf("failed to remove %s: %w", configPath, err)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&recordPath, "record", "", "credential record to write (default from config)")
	cmd.Flags().BoolVar(&removeConfig, "remove-config", false, "delete the key config once the record is written")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the oscctl version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "oscctl %s\n", version)
		},
	}
}
