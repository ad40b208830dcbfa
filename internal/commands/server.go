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
	"io"

	"github.com/floof-os/osc-cli/internal/shell"
	"github.com/floof-os/osc-cli/internal/system"
)

func (c *commands) buildServer(n *shell.Node) {
	n.Leaf("restart", "Restart Open Security Controller server", c.server(system.ActionRestart)).
		Leaf("start", "Start Open Security Controller server", c.server(system.ActionStart)).
		Leaf("status", "Show Open Security Controller server Status", c.server(system.ActionStatus)).
		Leaf("stop", "Stop Open Security Controller server", c.server(system.ActionStop))
}

func (c *commands) server(action system.Action) shell.Handler {
	return func(out io.Writer, _ string) {
		c.Logger.Info("server control", "service", c.Controller, "action", string(action))
		c.control(c.Controller, action)
	}
}
