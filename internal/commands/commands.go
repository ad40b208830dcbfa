/*
 * FloofOS - Fast Line-rate Offload On Fabric Operating System
 * Copyright (C) 2025 FloofOS Networks <dev@floofos.io>
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, either version 3 of the License.
 */

// Package commands declares the appliance command tree: server control,
// network and time settings, status views and privileged escalation.
package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/fatih/color"
	"github.com/floof-os/osc-cli/internal/config"
	"github.com/floof-os/osc-cli/internal/credential"
	"github.com/floof-os/osc-cli/internal/shell"
	"github.com/floof-os/osc-cli/internal/system"
)

// Paths locates the files the commands read and rewrite.
type Paths struct {
	Resolv        string
	Network       string
	Interface     string
	NTP           string
	StepTickers   string
	ControllerLog string
	Meminfo       string
}

func PathsFromConfig(cfg *config.Config) Paths {
	return Paths{
		Resolv:        cfg.Network.Resolv,
		Network:       cfg.Network.Network,
		Interface:     cfg.Network.Interface,
		NTP:           cfg.Network.NTP,
		StepTickers:   cfg.Network.StepTickers,
		ControllerLog: cfg.Service.Log,
		Meminfo:       "/proc/meminfo",
	}
}

// Pager shows long output a screen at a time.
type Pager interface {
	Page(output string)
}

// SnapshotSource reports memory, load and uptime figures.
type SnapshotSource interface {
	Snapshot() (system.Snapshot, error)
}

const defaultController = "securityBroker"

// Deps carries everything the command handlers call into.
type Deps struct {
	Context   context.Context
	Runner    system.Runner
	Services  system.ServiceController
	Files     system.FileEditor
	Pager     Pager
	Escalator *credential.Escalator
	History   *shell.History
	Settings  *config.Config
	Logger    *slog.Logger
	Proc      SnapshotSource
	// Dashboard runs the full screen system view. When nil the view
	// reports itself unavailable.
	Dashboard func(ctx context.Context) error
	Hostname  func() string

	Paths      Paths
	Controller string
	Sudo       string
	Version    string
}

type commands struct {
	*Deps
}

// Build returns the root of the command tree.
func Build(d *Deps) *shell.Node {
	c := &commands{Deps: d}
	if c.Context == nil {
		c.Context = context.Background()
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if c.Sudo == "" {
		c.Sudo = system.DefaultSudo
	}
	if c.Hostname == nil {
		c.Hostname = system.Hostname
	}
	if c.Controller == "" {
		c.Controller = defaultController
	}
	if c.Escalator == nil {
		c.Escalator = credential.NewEscalator(nil, nil, nil, c.Logger)
	}

	return shell.NewNode().
		Leaf("clear", "Clear the screen", c.clear).
		Leaf("debug", "Debug Host Connection", c.debug).
		Leaf("enable", "", c.enable).
		Exit("exit", "Exit CLI").
		Leaf("history", "Display history of commands", c.history).
		Leaf("ping", "<host>:Send echo messages", c.probe("/bin/ping", "-c", "5")).
		Leaf("ping6", "<host>:Send echo messages IPV6", c.probe("/bin/ping6", "-c", "5")).
		Leaf("reset", "Reboot the system", c.sudo("reboot")).
		Child("server", "Open Security Controller Server Control", c.buildServer).
		Child("set", "Set system information", c.buildSet).
		Child("show", "Show running system information", c.buildShow).
		Leaf("shutdown", "Shutdown the system", c.sudo("halt")).
		Leaf("traceroute", "<host>:Traceroute to host", c.probe("/bin/traceroute")).
		Leaf("traceroute6", "<host>:Traceroute to host IPV6", c.probe("/bin/traceroute6"))
}

// run starts an external program on the terminal. Failures are the
// program's to report; they only reach the audit log.
func (c *commands) run(name string, args ...string) {
	if err := c.Runner.Run(c.Context, name, args...); err != nil {
		c.Logger.Warn("command failed", "program", name, "error", err)
	}
}

func (c *commands) sudo(args ...string) shell.Handler {
	return func(out io.Writer, _ string) {
		c.run(c.Sudo, args...)
	}
}

func (c *commands) program(name string, args ...string) shell.Handler {
	return func(out io.Writer, _ string) {
		c.run(name, args...)
	}
}

// probe runs a network diagnostic against the host named by args.
func (c *commands) probe(name string, args ...string) shell.Handler {
	return func(out io.Writer, host string) {
		if host == "" {
			color.New(color.FgRed).Fprintln(out, "Error: Missing destination address")
			return
		}
		c.run(name, append(append([]string{}, args...), host)...)
	}
}

func (c *commands) control(name string, action system.Action) {
	if err := c.Services.Control(c.Context, name, action); err != nil {
		c.Logger.Warn("service control failed", "service", name, "action", string(action), "error", err)
	}
}

func (c *commands) errorf(out io.Writer, format string, args ...any) {
	color.New(color.FgRed).Fprintf(out, format+"\n", args...)
}

// edit applies one file rewrite and records it. It reports whether the
// change was made.
func (c *commands) edit(out io.Writer, path string, drop *regexp.Regexp, head, tail []string) bool {
	if err := c.Files.Apply(path, drop, head, tail); err != nil {
		c.errorf(out, "Error: could not update %s: %v", path, err)
		c.Logger.Error("config change failed", "file", path, "error", err)
		return false
	}
	c.Logger.Info("config changed", "file", path, "lines", strings.Join(append(append([]string{}, head...), tail...), "; "))
	return true
}

func (c *commands) clear(out io.Writer, _ string) {
	fmt.Fprint(out, "\033[2J\033[H")
}

var gatewayLine = regexp.MustCompile(`^GATEWAY=(.*)`)

// debug checks that the configured gateway answers.
func (c *commands) debug(out io.Writer, _ string) {
	var gw strings.Builder
	if err := system.FilterFile(&gw, c.Paths.Network, gatewayLine); err != nil {
		c.errorf(out, "Error: %v", err)
		return
	}

	gateway := strings.TrimSpace(gw.String())
	if gateway == "" {
		fmt.Fprintln(out, "No gateway configured")
		return
	}
	if i := strings.IndexByte(gateway, '\n'); i >= 0 {
		gateway = gateway[:i]
	}

	fmt.Fprintf(out, "Gateway: %s\n", gateway)
	c.run("/bin/ping", "-c", "3", gateway)
}

func (c *commands) enable(out io.Writer, _ string) {
	c.Escalator.Request(c.Context, out)
}

func (c *commands) history(out io.Writer, _ string) {
	if c.History == nil {
		return
	}
	for _, line := range c.History.Entries() {
		fmt.Fprintln(out, line)
	}
}
