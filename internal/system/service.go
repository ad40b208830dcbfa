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
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/coreos/go-systemd/v22/dbus"
)

const DefaultSudo = "/usr/bin/sudo"

type Action string

const (
	ActionStart   Action = "start"
	ActionStop    Action = "stop"
	ActionRestart Action = "restart"
	ActionStatus  Action = "status"
	ActionEnable  Action = "enable"
	ActionDisable Action = "disable"
)

// ServiceController drives the init system.
type ServiceController interface {
	Control(ctx context.Context, name string, action Action) error
}

const (
	ManagerSysV    = "sysv"
	ManagerSystemd = "systemd"
)

// NewServiceController returns the controller for manager. Status output
// from the systemd controller is written to out.
func NewServiceController(ctx context.Context, manager string, runner Runner, sudo string, out io.Writer) (ServiceController, error) {
	switch manager {
	case "", ManagerSysV:
		return NewSysVController(runner, sudo), nil
	case ManagerSystemd:
		return NewSystemdController(ctx, out)
	default:
		return nil, fmt.Errorf("unknown service manager %q", manager)
	}
}

// SysVController runs /sbin/service and /sbin/chkconfig through sudo.
type SysVController struct {
	Runner Runner
	Sudo   string
}

func NewSysVController(runner Runner, sudo string) *SysVController {
	if sudo == "" {
		sudo = DefaultSudo
	}
	return &SysVController{Runner: runner, Sudo: sudo}
}

func (c *SysVController) Control(ctx context.Context, name string, action Action) error {
	switch action {
	case ActionStart, ActionStop, ActionRestart, ActionStatus:
		return c.Runner.Run(ctx, c.Sudo, "/sbin/service", name, string(action))
	case ActionEnable:
		if err := c.Runner.Run(ctx, c.Sudo, "/sbin/chkconfig", "--add", name); err != nil {
			return err
		}
		return c.Runner.Run(ctx, c.Sudo, "/sbin/chkconfig", "--level", "2345", name, "on")
	case ActionDisable:
		if err := c.Runner.Run(ctx, c.Sudo, "/sbin/chkconfig", "--level", "2345", name, "off"); err != nil {
			return err
		}
		return c.Runner.Run(ctx, c.Sudo, "/sbin/chkconfig", "--del", name)
	default:
		return fmt.Errorf("unsupported service action %q", action)
	}
}

// systemdConn is the subset of *dbus.Conn the controller uses.
type systemdConn interface {
	StartUnitContext(ctx context.Context, name, mode string, ch chan<- string) (int, error)
	StopUnitContext(ctx context.Context, name, mode string, ch chan<- string) (int, error)
	RestartUnitContext(ctx context.Context, name, mode string, ch chan<- string) (int, error)
	EnableUnitFilesContext(ctx context.Context, files []string, runtime, force bool) (bool, []dbus.EnableUnitFileChange, error)
	DisableUnitFilesContext(ctx context.Context, files []string, runtime bool) ([]dbus.DisableUnitFileChange, error)
	ListUnitsByNamesContext(ctx context.Context, units []string) ([]dbus.UnitStatus, error)
	ReloadContext(ctx context.Context) error
	Close()
}

// SystemdController talks to systemd over the system D-Bus.
type SystemdController struct {
	conn systemdConn
	out  io.Writer
}

func NewSystemdController(ctx context.Context, out io.Writer) (*SystemdController, error) {
	conn, err := dbus.NewSystemConnectionContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to systemd: %w", err)
	}
	return &SystemdController{conn: conn, out: out}, nil
}

var _ io.Closer = (*SystemdController)(nil)

// Close releases the D-Bus connection.
func (c *SystemdController) Close() error {
	c.conn.Close()
	return nil
}

func unitName(name string) string {
	if strings.Contains(name, ".") {
		return name
	}
	return name + ".service"
}

func (c *SystemdController) Control(ctx context.Context, name string, action Action) error {
	unit := unitName(name)

	switch action {
	case ActionStart:
		return c.waitJob(ctx, unit, action, c.conn.StartUnitContext)
	case ActionStop:
		return c.waitJob(ctx, unit, action, c.conn.StopUnitContext)
	case ActionRestart:
		return c.waitJob(ctx, unit, action, c.conn.RestartUnitContext)
	case ActionStatus:
		return c.status(ctx, unit)
	case ActionEnable:
		if _, _, err := c.conn.EnableUnitFilesContext(ctx, []string{unit}, false, true); err != nil {
			return fmt.Errorf("failed to enable %s: %w", unit, err)
		}
		return c.conn.ReloadContext(ctx)
	case ActionDisable:
		if _, err := c.conn.DisableUnitFilesContext(ctx, []string{unit}, false); err != nil {
			return fmt.Errorf("failed to disable %s: %w", unit, err)
		}
		return c.conn.ReloadContext(ctx)
	default:
		return fmt.Errorf("unsupported service action %q", action)
	}
}

type unitJob func(ctx context.Context, name, mode string, ch chan<- string) (int, error)

func (c *SystemdController) waitJob(ctx context.Context, unit string, action Action, job unitJob) error {
	done := make(chan string, 1)
	if _, err := job(ctx, unit, "replace", done); err != nil {
		return fmt.Errorf("failed to %s %s: %w", action, unit, err)
	}

	select {
	case result := <-done:
		if result != "done" {
			return fmt.Errorf("%s %s: job %s", action, unit, result)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *SystemdController) status(ctx context.Context, unit string) error {
	units, err := c.conn.ListUnitsByNamesContext(ctx, []string{unit})
	if err != nil {
		return fmt.Errorf("failed to query %s: %w", unit, err)
	}
	if len(units) == 0 {
		fmt.Fprintf(c.out, "%s: not found\n", unit)
		return nil
	}

	u := units[0]
	fmt.Fprintf(c.out, "%s - %s\n", u.Name, u.Description)
	fmt.Fprintf(c.out, "   Loaded: %s\n", u.LoadState)
	fmt.Fprintf(c.out, "   Active: %s (%s)\n", u.ActiveState, u.SubState)
	return nil
}
