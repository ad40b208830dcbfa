/*
 * FloofOS - Fast Line-rate Offload On Fabric Operating System
 * Copyright (C) 2025 FloofOS Networks <dev@floofos.io>
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, either version 3 of the License.
 */

package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
)

type Options struct {
	Console Console
	History *History
	// Hostname is consulted before every prompt.
	Hostname func() string
	Logger   *slog.Logger
	Out      io.Writer
	// Exit ends the process after a terminating signal. Defaults to os.Exit.
	Exit func(code int)
}

type Shell struct {
	root     *Node
	console  Console
	history  *History
	hostname func() string
	logger   *slog.Logger
	out      io.Writer
	exit     func(code int)

	closeOnce sync.Once
	closeErr  error
}

func New(root *Node, opts Options) *Shell {
	s := &Shell{
		root:     root,
		console:  opts.Console,
		history:  opts.History,
		hostname: opts.Hostname,
		logger:   opts.Logger,
		out:      opts.Out,
		exit:     opts.Exit,
	}
	if s.history == nil {
		s.history = NewHistory("", 0)
	}
	if s.hostname == nil {
		s.hostname = func() string { return "" }
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if s.out == nil {
		s.out = os.Stdout
	}
	if s.exit == nil {
		s.exit = os.Exit
	}
	return s
}

func (s *Shell) prompt() string {
	host := s.hostname()
	if host == "" {
		host = "osc"
	}
	return host + "> "
}

// Run reads and dispatches lines until the exit command, EOF or a
// terminating signal. History is flushed on every one of those paths.
func (s *Shell) Run(ctx context.Context) error {
	if err := s.history.Load(); err != nil {
		s.logger.Warn("history not loaded", "error", err)
	}
	for _, line := range s.history.Entries() {
		s.console.AppendHistory(line)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigChan)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go s.handleSignals(ctx, sigChan)

	s.logger.Info("session started")

	for {
		input, err := s.console.Prompt(s.prompt())
		switch {
		case errors.Is(err, ErrInterrupted):
			fmt.Fprintln(s.out)
			continue
		case errors.Is(err, io.EOF):
			fmt.Fprintln(s.out)
			s.logger.Info("session ended", "reason", "eof")
			s.Close()
			return nil
		case err != nil:
			s.logger.Warn("prompt failed", "error", err)
			if rerr := s.console.Reset(); rerr != nil {
				s.Close()
				return fmt.Errorf("console unusable: %w", rerr)
			}
			continue
		}

		if s.Execute(input) == Terminate {
			s.logger.Info("session ended", "reason", "exit")
			s.Close()
			return nil
		}
	}
}

// Execute runs one input line against the tree.
func (s *Shell) Execute(input string) Result {
	input = strings.TrimSpace(input)
	if input == "" {
		return Continue
	}

	s.history.Add(input)
	s.console.AppendHistory(input)
	s.logger.Info("command", "line", input)

	if partial, ok := splitHelpSuffix(input); ok {
		_, names := s.root.completeAt(partial)
		if len(names) == 0 {
			fmt.Fprintf(s.out, "No commands match %q\n", strings.TrimSpace(partial))
			return Continue
		}
		fmt.Fprint(s.out, FormatColumns(names, 80))
		return Continue
	}

	return s.root.Dispatch(s.out, input)
}

// handleSignals ignores interrupts at the prompt and ends the session on
// SIGTERM or SIGHUP.
func (s *Shell) handleSignals(ctx context.Context, sigChan <-chan os.Signal) {
	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-sigChan:
			if sig == os.Interrupt {
				continue
			}
			s.logger.Info("session ended", "reason", "signal", "signal", sig.String())
			s.Close()
			code := 1
			if ssig, ok := sig.(syscall.Signal); ok {
				code = 128 + int(ssig)
			}
			s.exit(code)
			return
		}
	}
}

// Close flushes history and releases the console. Only the first call has
// any effect.
func (s *Shell) Close() error {
	s.closeOnce.Do(func() {
		if err := s.history.Save(); err != nil {
			s.logger.Warn("history not saved", "error", err)
			s.closeErr = err
		}
		if err := s.console.Close(); err != nil && s.closeErr == nil {
			s.closeErr = err
		}
	})
	return s.closeErr
}
