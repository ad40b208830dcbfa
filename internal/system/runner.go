/*
 * FloofOS - Fast Line-rate Offload On Fabric Operating System
 * Copyright (C) 2025 FloofOS Networks <dev@floofos.io>
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, either version 3 of the License.
 */

// Package system wraps the operating system facilities the shell drives:
// external commands, service managers, configuration files, the terminal
// pager and /proc.
package system

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
)

// Runner executes external programs.
type Runner interface {
	// Run attaches the program to the terminal and waits for it to exit.
	Run(ctx context.Context, name string, args ...string) error
	// Output captures the program's standard output.
	Output(ctx context.Context, name string, args ...string) (string, error)
}

type ExecRunner struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

func NewExecRunner() *ExecRunner {
	return &ExecRunner{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = r.Stdin
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s failed: %w", name, err)
	}
	return nil
}

// Output leaves stdin and stderr on the terminal so prompting programs
// such as tzselect still work.
func (r *ExecRunner) Output(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = r.Stdin
	cmd.Stderr = r.Stderr

	output, err := cmd.Output()
	if err != nil {
		return string(output), fmt.Errorf("%s failed: %w", name, err)
	}
	return string(output), nil
}

// Hostname returns the kernel hostname, falling back to /etc/hostname.
func Hostname() string {
	if name, err := os.Hostname(); err == nil && name != "" {
		return name
	}
	if data, err := os.ReadFile("/etc/hostname"); err == nil {
		return trimLine(string(data))
	}
	return ""
}
