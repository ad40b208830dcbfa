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
	"path/filepath"
	"regexp"
	"strings"

	"github.com/floof-os/osc-cli/internal/shell"
	"github.com/floof-os/osc-cli/internal/system"
)

const zoneinfoDir = "/usr/share/zoneinfo"

var (
	dropDomain     = regexp.MustCompile(`^domain\b`)
	dropNameserver = regexp.MustCompile(`^nameserver\b`)
	dropGateway    = regexp.MustCompile(`^GATEWAY=`)
	dropHostname   = regexp.MustCompile(`^HOSTNAME=`)
	dropDHCPHost   = regexp.MustCompile(`^DHCP_HOSTNAME=`)
	dropAddressing = regexp.MustCompile(`^(IPADDR|NETMASK|BROADCAST|NETWORK|BOOTPROTO|ONBOOT)=`)
	dropNTPServer  = regexp.MustCompile(`^server `)
	dropAll        = regexp.MustCompile(`.*`)
)

func (c *commands) buildSet(n *shell.Node) {
	n.Child("network", "Set Network", c.buildSetNetwork).
		Leaf("passwd", "Set password", c.program("/usr/bin/passwd")).
		Leaf("time", "MMDDhhmmCCYY[.ss]:Set Time", c.setTime).
		Child("timesync", "Control VMWare timesync", func(n *shell.Node) {
			n.Leaf("disabled", "Disable VMWare timesync", c.sudo("vmware-toolbox-cmd", "timesync", "disable")).
				Leaf("enabled", "Enable VMWare timesync", c.sudo("vmware-toolbox-cmd", "timesync", "enable"))
		}).
		Leaf("timezone", "Set TimeZone", c.setTimezone)
}

func (c *commands) buildSetNetwork(n *shell.Node) {
	n.Leaf("dns", "<IP> [<IP> ...]:Set DNS servers", c.setDNS).
		Leaf("domain", "<domainname>:Set DNS domain name", c.setDomain).
		Leaf("gateway", "<IP>:Set Network Gateway", c.setGateway).
		Leaf("hostname", "<hostname>:Set Hostname", c.setHostname).
		Leaf("ip", "<IP/CIDR> | dhcp:Set Network IP", c.setIP).
		Leaf("ntp", "<IP> [<IP> ...]:Set NTP Server(s)", c.setNTP)
}

func (c *commands) setDomain(out io.Writer, args string) {
	if !validate(out, []string{args}, "Illegal domain name %s", domainPattern) {
		return
	}

	var head []string
	if args != "" {
		head = []string{"domain " + args}
	}
	c.edit(out, c.Paths.Resolv, dropDomain, head, nil)
}

func (c *commands) setDNS(out io.Writer, args string) {
	servers := strings.Fields(args)
	if !validate(out, servers, "Illegal IP Address %s", ipPattern) {
		return
	}
	c.edit(out, c.Paths.Resolv, dropNameserver, nil, prefixed("nameserver ", servers))
}

func (c *commands) setGateway(out io.Writer, args string) {
	if !validate(out, []string{args}, "Illegal IP Address %s", ipPattern) {
		return
	}
	if c.edit(out, c.Paths.Network, dropGateway, []string{"GATEWAY=" + args}, nil) {
		c.control("network", system.ActionRestart)
	}
}

func (c *commands) setIP(out io.Writer, args string) {
	if !validate(out, []string{args}, "Illegal IP Address/CIDR %s", ipCIDRPattern) {
		return
	}

	settings := []string{"ONBOOT=yes"}
	if args == "dhcp" {
		if !c.edit(out, c.Paths.Network, dropGateway, nil, nil) {
			return
		}
		settings = append(settings, "BOOTPROTO=dhcp")
	} else {
		calc, err := c.Runner.Output(c.Context, "/bin/ipcalc", "-4bmn", args)
		if err != nil {
			c.errorf(out, "Error: %v", err)
			return
		}
		for _, line := range strings.Split(calc, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				settings = append(settings, line)
			}
		}
		ip, _, _ := strings.Cut(args, "/")
		settings = append(settings, "IPADDR="+ip, "BOOTPROTO=static")
	}

	if c.edit(out, c.Paths.Interface, dropAddressing, nil, settings) {
		c.control("network", system.ActionRestart)
	}
}

func (c *commands) setHostname(out io.Writer, args string) {
	if !validate(out, []string{args}, "Illegal hostname Address %s", hostnamePattern) {
		return
	}

	if !c.edit(out, c.Paths.Network, dropHostname, []string{"HOSTNAME=" + args}, nil) {
		return
	}
	if !c.edit(out, c.Paths.Interface, dropDHCPHost, []string{"DHCP_HOSTNAME=" + args}, nil) {
		return
	}
	c.control("network", system.ActionRestart)
	c.run(c.Sudo, "/bin/hostname", args)
}

func (c *commands) setNTP(out io.Writer, args string) {
	servers := strings.Fields(args)
	if !validate(out, servers, "Illegal ntp server %s", ipPattern, ntpHostPattern) {
		return
	}

	if !c.edit(out, c.Paths.NTP, dropNTPServer, nil, prefixed("server ", servers)) {
		return
	}
	if !c.edit(out, c.Paths.StepTickers, dropAll, nil, servers) {
		return
	}

	c.control("ntpd", system.ActionStop)
	if len(servers) == 0 {
		c.control("ntpd", system.ActionDisable)
		c.control("ntpdate", system.ActionDisable)
		return
	}
	c.control("ntpdate", system.ActionStart)
	c.control("ntpd", system.ActionStart)
	c.control("ntpd", system.ActionEnable)
	c.control("ntpdate", system.ActionEnable)
}

func (c *commands) setTime(out io.Writer, args string) {
	if !validate(out, []string{args}, "Illegal date/time %s", timePattern) {
		return
	}
	c.Logger.Info("clock set", "value", args)
	c.run(c.Sudo, "/bin/date", args)
	c.clock(out, "")
}

func (c *commands) setTimezone(out io.Writer, _ string) {
	selected, err := c.Runner.Output(c.Context, "/usr/bin/tzselect")
	if err != nil {
		c.Logger.Warn("command failed", "program", "tzselect", "error", err)
		return
	}

	zone := strings.TrimSpace(selected)
	fmt.Fprintln(out, zone)

	path := filepath.Join(zoneinfoDir, zone)
	if zone == "" || !strings.HasPrefix(path, zoneinfoDir+string(filepath.Separator)) {
		c.errorf(out, "Illegal time zone %s", zone)
		return
	}

	c.Logger.Info("config changed", "file", "/etc/localtime", "zone", zone)
	c.run(c.Sudo, "/bin/ln", "-sf", path, "/etc/localtime")
}

func prefixed(prefix string, values []string) []string {
	lines := make([]string, len(values))
	for i, v := range values {
		lines[i] = prefix + v
	}
	return lines
}
