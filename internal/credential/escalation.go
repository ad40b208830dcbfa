/*
 * FloofOS - Fast Line-rate Offload On Fabric Operating System
 * Copyright (C) 2025 FloofOS Networks <dev@floofos.io>
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, either version 3 of the License.
 */

package credential

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"syscall"

	"github.com/fatih/color"
	"golang.org/x/term"
)

type State int

const (
	Locked State = iota
	AwaitingPassword
	Granted
	Denied
)

func (s State) String() string {
	switch s {
	case Locked:
		return "locked"
	case AwaitingPassword:
		return "awaiting-password"
	case Granted:
		return "granted"
	case Denied:
		return "denied"
	default:
		return "unknown"
	}
}

// PasswordReader reads a line from the user without echoing it.
type PasswordReader interface {
	ReadPassword(prompt string) (string, error)
}

// TerminalPasswordReader reads from the controlling terminal on stdin.
type TerminalPasswordReader struct {
	Out io.Writer
}

func (t TerminalPasswordReader) ReadPassword(prompt string) (string, error) {
	out := t.Out
	if out == nil {
		out = os.Stdout
	}

	fd := int(syscall.Stdin)
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("stdin is not a terminal")
	}

	fmt.Fprint(out, prompt)
	password, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(password), nil
}

// Spawner starts the privileged shell and blocks until it exits.
type Spawner func(ctx context.Context) error

// Escalator gates the privileged shell behind the loaded record. A nil
// record keeps it Locked for the life of the process.
type Escalator struct {
	record *Record
	reader PasswordReader
	spawn  Spawner
	logger *slog.Logger
}

func NewEscalator(record *Record, reader PasswordReader, spawn Spawner, logger *slog.Logger) *Escalator {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Escalator{
		record: record,
		reader: reader,
		spawn:  spawn,
		logger: logger,
	}
}

func (e *Escalator) Locked() bool {
	return e.record == nil
}

// Request runs one escalation attempt and returns the state it ended in:
// Denied or Granted. Granted is returned after the privileged shell exits.
func (e *Escalator) Request(ctx context.Context, out io.Writer) State {
	if e.Locked() {
		color.New(color.FgYellow).Fprintln(out, "Login disabled")
		e.logger.Warn("escalation refused", "reason", Locked.String())
		return Denied
	}

	state := AwaitingPassword
	password, err := e.reader.ReadPassword("Password:")
	if err != nil {
		e.logger.Warn("escalation aborted", "state", state.String(), "error", err)
		color.New(color.FgRed).Fprintln(out, "Invalid password")
		return Denied
	}

	if !e.record.Verify(e.record.Derive(password)) {
		e.logger.Warn("escalation denied", "reason", "invalid password")
		color.New(color.FgRed).Fprintln(out, "Invalid password")
		return Denied
	}

	e.logger.Info("escalation granted")
	if e.spawn != nil {
		if err := e.spawn(ctx); err != nil {
			e.logger.Error("privileged shell failed", "error", err)
		}
	}
	e.logger.Info("privileged shell exited")

	return Granted
}
