/*
 * FloofOS - Fast Line-rate Offload On Fabric Operating System
 * Copyright (C) 2025 FloofOS Networks <dev@floofos.io>
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, either version 3 of the License.
 */

package commands

import (
	"fmt"
	"io"
	"regexp"

	"github.com/fatih/color"
	"github.com/floof-os/osc-cli/internal/config"
	"github.com/floof-os/osc-cli/internal/shell"
	"github.com/floof-os/osc-cli/internal/system"
)

var (
	nameserverLine = regexp.MustCompile(`^nameserver (.*)`)
	domainLine     = regexp.MustCompile(`^domain (.*)`)
	ntpServerLine  = regexp.MustCompile(`^\s*server (.*)`)
)

func (c *commands) buildShow(n *shell.Node) {
	n.Leaf("arp", "Show arp table", c.program("/sbin/arp", "-n")).
		Leaf("clock", "Show Clock", c.clock).
		Leaf("filesystems", "Show filesystems", c.program("/bin/df", "-H")).
		Child("log", "Show Open Security Controller logs", c.buildShowLog).
		Child("network", "Show Network", c.buildShowNetwork).
		Child("process", "Show system processes", func(n *shell.Node) {
			n.Leaf("monitor", "Monitor processes", c.program("/usr/bin/top", "-s")).
				OnEmpty(c.program("/bin/ps", "aux"))
		}).
		Leaf("settings", "Show shell settings", c.showSettings).
		Child("system", "Show system information", c.buildShowSystem).
		Leaf("timesync", "Show VMWare timesync status", c.program("vmware-toolbox-cmd", "timesync", "status")).
		Leaf("version", "Show version", c.showVersion).
		Leaf("vmware", "Show VMWare status", c.program("/usr/bin/vmware-checkvm"))
}

func (c *commands) buildShowLog(n *shell.Node) {
	n.Leaf("follow", "Follow Open Security Controller logs", c.sudo("/usr/bin/tail", "-f", c.Paths.ControllerLog)).
		Leaf("last", "<NUM>:Show last NUM log records", c.showLogLast).
		Leaf("reverse", "Show Open Security Controller log last record first", c.pageLog("/usr/bin/tac")).
		OnEmpty(c.pageLog("/bin/cat"))
}

func (c *commands) buildShowNetwork(n *shell.Node) {
	n.Leaf("dns", "Show DNS servers", c.filter(c.Paths.Resolv, nameserverLine)).
		Leaf("domain", "Show DNS domain name", c.filter(c.Paths.Resolv, domainLine)).
		Leaf("hostname", "Show Hostname", c.showHostname).
		Leaf("ip", "Show network IP", c.program("/sbin/ip", "addr")).
		Leaf("ntp", "Show NTP Server(s)", c.filter(c.Paths.NTP, ntpServerLine)).
		Leaf("route", "Show network routing", c.program("/sbin/ip", "route"))
}

func (c *commands) buildShowSystem(n *shell.Node) {
	n.Leaf("dashboard", "Show live system dashboard", c.showDashboard).
		Leaf("memory", "Show system memory usage", c.showMemory).
		Leaf("summary", "Show memory, load and uptime", c.showSummary).
		Leaf("uptime", "Show system uptime", c.program("/usr/bin/uptime"))
}

func (c *commands) clock(out io.Writer, _ string) {
	fmt.Fprint(out, "Local time: ")
	c.run("/bin/date")
	fmt.Fprint(out, "UTC   time: ")
	c.run("/bin/date", "-u")
}

func (c *commands) filter(path string, re *regexp.Regexp) shell.Handler {
	return func(out io.Writer, _ string) {
		if err := system.FilterFile(out, path, re); err != nil {
			c.errorf(out, "Error: %v", err)
		}
	}
}

func (c *commands) showHostname(out io.Writer, _ string) {
	fmt.Fprintln(out, c.Hostname())
}

func (c *commands) showLogLast(out io.Writer, args string) {
	if !validate(out, []string{args}, "Not a number %s", numberPattern) {
		return
	}
	c.run(c.Sudo, "/usr/bin/tail", "-n", args, c.Paths.ControllerLog)
}

// pageLog reads the controller log through reader and pages it.
func (c *commands) pageLog(reader string) shell.Handler {
	return func(out io.Writer, _ string) {
		text, err := c.Runner.Output(c.Context, c.Sudo, reader, c.Paths.ControllerLog)
		if err != nil {
			c.Logger.Warn("command failed", "program", reader, "error", err)
			return
		}
		c.Pager.Page(text)
	}
}

func (c *commands) showMemory(out io.Writer, _ string) {
	if err := system.CatFile(out, c.Paths.Meminfo); err != nil {
		c.errorf(out, "Error: %v", err)
	}
}

func (c *commands) showSummary(out io.Writer, _ string) {
	if c.Proc == nil {
		color.New(color.FgYellow).Fprintln(out, "System summary unavailable")
		return
	}
	snap, err := c.Proc.Snapshot()
	if err != nil {
		c.errorf(out, "Error: %v", err)
		return
	}
	fmt.Fprintln(out, snap.Summary())
}

func (c *commands) showDashboard(out io.Writer, _ string) {
	if c.Dashboard == nil {
		color.New(color.FgYellow).Fprintln(out, "Dashboard unavailable")
		return
	}
	if err := c.Dashboard(c.Context); err != nil {
		c.errorf(out, "Error: %v", err)
	}
}

func (c *commands) showSettings(out io.Writer, _ string) {
	if c.Settings == nil {
		return
	}
	text, err := config.Render(c.Settings)
	if err != nil {
		c.errorf(out, "Error: %v", err)
		return
	}
	fmt.Fprint(out, text)
}

func (c *commands) showVersion(out io.Writer, _ string) {
	fmt.Fprintf(out, "oscctl %s\n", c.Version)
	c.run(c.Sudo, "/bin/bash", "-c", "cd /opt/vmidc/bin/; bash ./vmidc.sh --version")
}
