/*
 * FloofOS - Fast Line-rate Offload On Fabric Operating System
 * Copyright (C) 2025 FloofOS Networks <dev@floofos.io>
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, either version 3 of the License.
 */

package system

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

// FileEditor rewrites line oriented configuration files such as
// resolv.conf or ifcfg-eth0.
type FileEditor interface {
	// Apply drops every line of path matching drop, then writes head, the
	// surviving lines and tail back in that order.
	Apply(path string, drop *regexp.Regexp, head, tail []string) error
}

// SudoFileEditor stages the new content in a temporary file and moves it
// over the target with sudo, carrying the target's mode and ownership.
type SudoFileEditor struct {
	Runner Runner
	Sudo   string
	// TempDir holds staged files. Empty means os.TempDir.
	TempDir string
}

func NewSudoFileEditor(runner Runner, sudo string) *SudoFileEditor {
	if sudo == "" {
		sudo = DefaultSudo
	}
	return &SudoFileEditor{Runner: runner, Sudo: sudo}
}

func (e *SudoFileEditor) Apply(path string, drop *regexp.Regexp, head, tail []string) error {
	existing, exists, err := readLines(path)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(e.TempDir, "oscctl-edit-*")
	if err != nil {
		return fmt.Errorf("failed to stage %s: %w", path, err)
	}

	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to stage %s: %w", path, err)
	}

	w := bufio.NewWriter(tmp)
	for _, line := range RewriteLines(existing, drop, head, tail) {
		fmt.Fprintln(w, line)
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to stage %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to stage %s: %w", path, err)
	}

	ctx := context.Background()
	if exists {
		if err := e.Runner.Run(ctx, e.Sudo, "/bin/chmod", "--reference="+path, tmp.Name()); err != nil {
			os.Remove(tmp.Name())
			return err
		}
		if err := e.Runner.Run(ctx, e.Sudo, "/bin/chown", "--reference="+path, tmp.Name()); err != nil {
			os.Remove(tmp.Name())
			return err
		}
	}

	if err := e.Runner.Run(ctx, e.Sudo, "/bin/mv", tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return nil
}

// RewriteLines is the pure part of FileEditor.Apply.
func RewriteLines(existing []string, drop *regexp.Regexp, head, tail []string) []string {
	out := make([]string, 0, len(head)+len(existing)+len(tail))
	out = append(out, head...)
	for _, line := range existing {
		if drop != nil && drop.MatchString(line) {
			continue
		}
		out = append(out, line)
	}
	return append(out, tail...)
}

func readLines(path string) ([]string, bool, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read %s: %w", path, err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, true, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return lines, true, nil
}

// FilterFile writes the capture groups of every line of path matching re,
// one matching line per output line.
func FilterFile(out io.Writer, path string, re *regexp.Regexp) error {
	lines, _, err := readLines(path)
	if err != nil {
		return err
	}

	for _, line := range lines {
		m := re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		fmt.Fprintln(out, strings.Join(m[1:], " "))
	}
	return nil
}

// CatFile copies path to out.
func CatFile(out io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	defer f.Close()

	if _, err := io.Copy(out, f); err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	return nil
}

func trimLine(s string) string {
	return strings.TrimSpace(strings.SplitN(s, "\n", 2)[0])
}
