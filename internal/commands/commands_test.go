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
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/floof-os/osc-cli/internal/config"
	"github.com/floof-os/osc-cli/internal/credential"
	"github.com/floof-os/osc-cli/internal/shell"
	"github.com/floof-os/osc-cli/internal/system"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	color.NoColor = true
}

type fakeRunner struct {
	calls   []string
	outputs map[string]string
}

func (r *fakeRunner) Run(_ context.Context, name string, args ...string) error {
	r.calls = append(r.calls, strings.Join(append([]string{name}, args...), " "))
	return nil
}

func (r *fakeRunner) Output(_ context.Context, name string, args ...string) (string, error) {
	cmd := strings.Join(append([]string{name}, args...), " ")
	r.calls = append(r.calls, cmd)
	out, ok := r.outputs[cmd]
	if !ok {
		return "", errors.New("no output for " + cmd)
	}
	return out, nil
}

type serviceCall struct {
	name   string
	action system.Action
}

type fakeServices struct {
	calls []serviceCall
}

func (s *fakeServices) Control(_ context.Context, name string, action system.Action) error {
	s.calls = append(s.calls, serviceCall{name, action})
	return nil
}

type edit struct {
	path string
	drop string
	head []string
	tail []string
}

type fakeEditor struct {
	edits []edit
	fail  bool
}

func (e *fakeEditor) Apply(path string, drop *regexp.Regexp, head, tail []string) error {
	if e.fail {
		return errors.New("permission denied")
	}
	d := ""
	if drop != nil {
		d = drop.String()
	}
	e.edits = append(e.edits, edit{path: path, drop: d, head: head, tail: tail})
	return nil
}

type fakePager struct {
	pages []string
}

func (p *fakePager) Page(output string) { p.pages = append(p.pages, output) }

type env struct {
	root     *shell.Node
	runner   *fakeRunner
	services *fakeServices
	editor   *fakeEditor
	pager    *fakePager
	deps     *Deps
}

func newEnv(t *testing.T) *env {
	t.Helper()

	cfg := &config.Config{}
	cfg.Network.Resolv = filepath.Join(t.TempDir(), "resolv.conf")
	cfg.Network.Network = filepath.Join(t.TempDir(), "network")
	cfg.Network.Interface = "/etc/sysconfig/network-scripts/ifcfg-eth0"
	cfg.Network.NTP = filepath.Join(t.TempDir(), "ntp.conf")
	cfg.Network.StepTickers = "/etc/ntp/step-tickers"
	cfg.Service.Log = "/opt/vmidc/bin/log/securityBroker.log"
	cfg.Service.Controller = "securityBroker"

	e := &env{
		runner:   &fakeRunner{outputs: map[string]string{}},
		services: &fakeServices{},
		editor:   &fakeEditor{},
		pager:    &fakePager{},
	}
	e.deps = &Deps{
		Runner:     e.runner,
		Services:   e.services,
		Files:      e.editor,
		Pager:      e.pager,
		Settings:   cfg,
		Hostname:   func() string { return "osc-appliance" },
		Paths:      PathsFromConfig(cfg),
		Controller: cfg.Service.Controller,
		Sudo:       "sudo",
		Version:    "1.2.3",
	}
	e.root = Build(e.deps)
	return e
}

func (e *env) run(line string) string {
	var out bytes.Buffer
	e.root.Dispatch(&out, line)
	return out.String()
}

func TestSetNetworkDNS(t *testing.T) {
	e := newEnv(t)

	out := e.run("set network dns 8.8.8.8 8.8.4.4")
	assert.Empty(t, out)
	require.Len(t, e.editor.edits, 1)
	assert.Equal(t, edit{
		path: e.deps.Paths.Resolv,
		drop: `^nameserver\b`,
		tail: []string{"nameserver 8.8.8.8", "nameserver 8.8.4.4"},
	}, e.editor.edits[0])
}

func TestSetNetworkDNS_RejectsBadAddress(t *testing.T) {
	e := newEnv(t)

	out := e.run("set network dns 8.8.8.8 8.8.8.8.8")
	assert.Equal(t, "Illegal IP Address 8.8.8.8.8\n", out)
	assert.Empty(t, e.editor.edits)
}

func TestSetNetworkDomain(t *testing.T) {
	e := newEnv(t)

	e.run("set network domain example.com")
	e.run("set network domain")
	require.Len(t, e.editor.edits, 2)
	assert.Equal(t, []string{"domain example.com"}, e.editor.edits[0].head)
	assert.Empty(t, e.editor.edits[1].head)
	assert.Equal(t, `^domain\b`, e.editor.edits[1].drop)
}

func TestSetNetworkIP_DHCP(t *testing.T) {
	e := newEnv(t)

	assert.Empty(t, e.run("set network ip dhcp"))
	require.Len(t, e.editor.edits, 2)

	assert.Equal(t, e.deps.Paths.Network, e.editor.edits[0].path)
	assert.Equal(t, "^GATEWAY=", e.editor.edits[0].drop)
	assert.Empty(t, e.editor.edits[0].head)
	assert.Empty(t, e.editor.edits[0].tail)

	assert.Equal(t, e.deps.Paths.Interface, e.editor.edits[1].path)
	assert.Equal(t, []string{"ONBOOT=yes", "BOOTPROTO=dhcp"}, e.editor.edits[1].tail)

	assert.Equal(t, []serviceCall{{"network", system.ActionRestart}}, e.services.calls)
}

func TestSetNetworkIP_Static(t *testing.T) {
	e := newEnv(t)
	e.runner.outputs["/bin/ipcalc -4bmn 10.0.0.5/24"] = "NETMASK=255.255.255.0\nBROADCAST=10.0.0.255\nNETWORK=10.0.0.0\n"

	e.run("set network ip 10.0.0.5/24")
	require.Len(t, e.editor.edits, 1)
	assert.Equal(t, []string{
		"ONBOOT=yes",
		"NETMASK=255.255.255.0",
		"BROADCAST=10.0.0.255",
		"NETWORK=10.0.0.0",
		"IPADDR=10.0.0.5",
		"BOOTPROTO=static",
	}, e.editor.edits[0].tail)
	assert.Equal(t, `^(IPADDR|NETMASK|BROADCAST|NETWORK|BOOTPROTO|ONBOOT)=`, e.editor.edits[0].drop)
	assert.Equal(t, []serviceCall{{"network", system.ActionRestart}}, e.services.calls)
}

func TestSetNetworkIP_Rejects(t *testing.T) {
	e := newEnv(t)

	assert.Equal(t, "Illegal IP Address/CIDR 10.0.0.5/33\n", e.run("set network ip 10.0.0.5/33"))
	assert.Equal(t, "Illegal IP Address/CIDR 10.0.0.5\n", e.run("set network ip 10.0.0.5"))
	assert.Empty(t, e.editor.edits)
	assert.Empty(t, e.services.calls)
}

func TestSetNetworkGateway(t *testing.T) {
	e := newEnv(t)

	e.run("set network gateway 10.0.0.1")
	require.Len(t, e.editor.edits, 1)
	assert.Equal(t, []string{"GATEWAY=10.0.0.1"}, e.editor.edits[0].head)
	assert.Equal(t, []serviceCall{{"network", system.ActionRestart}}, e.services.calls)
}

func TestSetNetworkGateway_EditFailureSkipsRestart(t *testing.T) {
	e := newEnv(t)
	e.editor.fail = true

	out := e.run("set network gateway 10.0.0.1")
	assert.Contains(t, out, "could not update")
	assert.Empty(t, e.services.calls)
}

func TestSetNetworkHostname(t *testing.T) {
	e := newEnv(t)

	e.run("set network hostname osc-02")
	require.Len(t, e.editor.edits, 2)
	assert.Equal(t, []string{"HOSTNAME=osc-02"}, e.editor.edits[0].head)
	assert.Equal(t, []string{"DHCP_HOSTNAME=osc-02"}, e.editor.edits[1].head)
	assert.Equal(t, []serviceCall{{"network", system.ActionRestart}}, e.services.calls)
	assert.Equal(t, []string{"sudo /bin/hostname osc-02"}, e.runner.calls)

	assert.Equal(t, "Illegal hostname Address \n", e.run("set network hostname"))
}

func TestSetNetworkNTP(t *testing.T) {
	e := newEnv(t)

	e.run("set network ntp 10.0.0.1 pool.ntp.org")
	require.Len(t, e.editor.edits, 2)
	assert.Equal(t, []string{"server 10.0.0.1", "server pool.ntp.org"}, e.editor.edits[0].tail)
	assert.Equal(t, []string{"10.0.0.1", "pool.ntp.org"}, e.editor.edits[1].tail)
	assert.Equal(t, []serviceCall{
		{"ntpd", system.ActionStop},
		{"ntpdate", system.ActionStart},
		{"ntpd", system.ActionStart},
		{"ntpd", system.ActionEnable},
		{"ntpdate", system.ActionEnable},
	}, e.services.calls)
}

func TestSetNetworkNTP_EmptyDisables(t *testing.T) {
	e := newEnv(t)

	e.run("set network ntp")
	require.Len(t, e.editor.edits, 2)
	assert.Empty(t, e.editor.edits[0].tail)
	assert.Equal(t, ".*", e.editor.edits[1].drop)
	assert.Equal(t, []serviceCall{
		{"ntpd", system.ActionStop},
		{"ntpd", system.ActionDisable},
		{"ntpdate", system.ActionDisable},
	}, e.services.calls)
}

func TestSetTime(t *testing.T) {
	e := newEnv(t)

	out := e.run("set time 101712302026")
	assert.Equal(t, "Local time: UTC   time: ", out)
	assert.Equal(t, []string{"sudo /bin/date 101712302026", "/bin/date", "/bin/date -u"}, e.runner.calls)

	e.runner.calls = nil
	for _, bad := range []string{"131712302026", "1017123020", "101725302026", "101712302026.60", "now"} {
		assert.Equal(t, "Illegal date/time "+bad+"\n", e.run("set time "+bad), bad)
	}
	assert.Empty(t, e.runner.calls)

	e.run("set time 101712302026.59")
	assert.Contains(t, e.runner.calls, "sudo /bin/date 101712302026.59")
}

func TestSetTimezone(t *testing.T) {
	e := newEnv(t)
	e.runner.outputs["/usr/bin/tzselect"] = "Europe/Paris\n"

	assert.Equal(t, "Europe/Paris\n", e.run("set timezone"))
	assert.Equal(t, "sudo /bin/ln -sf /usr/share/zoneinfo/Europe/Paris /etc/localtime", e.runner.calls[len(e.runner.calls)-1])

	e.runner.calls = nil
	e.runner.outputs["/usr/bin/tzselect"] = "../../etc/passwd\n"
	out := e.run("set timezone")
	assert.Contains(t, out, "Illegal time zone")
	assert.Equal(t, []string{"/usr/bin/tzselect"}, e.runner.calls)
}

func TestSetTimesync(t *testing.T) {
	e := newEnv(t)

	e.run("set timesync enabled")
	e.run("set timesync disabled")
	assert.Equal(t, []string{
		"sudo vmware-toolbox-cmd timesync enable",
		"sudo vmware-toolbox-cmd timesync disable",
	}, e.runner.calls)
}

func TestServer(t *testing.T) {
	e := newEnv(t)

	e.run("server status")
	e.run("server restart")
	assert.Equal(t, []serviceCall{
		{"securityBroker", system.ActionStatus},
		{"securityBroker", system.ActionRestart},
	}, e.services.calls)
}

func TestForwardingIsTransparent(t *testing.T) {
	viaRoot := newEnv(t)
	rootOut := viaRoot.run("set network dns 1.1.1.1")

	direct := newEnv(t)
	set, ok := direct.root.Lookup("set")
	require.True(t, ok)
	network, ok := set.Lookup("network")
	require.True(t, ok)
	var directOut bytes.Buffer
	network.Dispatch(&directOut, "dns 1.1.1.1")

	assert.Equal(t, rootOut, directOut.String())
	assert.Equal(t, direct.editor.edits[0].tail, viaRoot.editor.edits[0].tail)
}

func TestListHasNoDuplicates(t *testing.T) {
	e := newEnv(t)

	seen := map[string]bool{}
	for _, entry := range e.root.Describe("") {
		assert.False(t, seen[entry.Command], entry.Command)
		seen[entry.Command] = true
	}

	assert.True(t, seen["set network dns <IP> [<IP> ...]"])
	assert.True(t, seen["show log last <NUM>"])
	assert.True(t, seen["server status"])
	assert.False(t, seen["enable"])

	out := e.run("list")
	assert.Equal(t, 1, strings.Count(out, "\nset network ntp "))
}

func TestEnable(t *testing.T) {
	e := newEnv(t)
	assert.Equal(t, "Login disabled\n", e.run("enable"))

	salt := []byte("0123456789abcdef")
	rec := &credential.Record{Salt: salt, Rounds: 1000, KeyLen: 20}
	rec.Key = rec.Derive("hunter2")

	spawned := 0
	e.deps.Escalator = credential.NewEscalator(rec, staticPassword("hunter2"), func(context.Context) error {
		spawned++
		return nil
	}, nil)
	e.root = Build(e.deps)

	assert.Empty(t, e.run("enable"))
	assert.Equal(t, 1, spawned)
}

type staticPassword string

func (p staticPassword) ReadPassword(string) (string, error) { return string(p), nil }

func TestShowNetwork(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, os.WriteFile(e.deps.Paths.Resolv, []byte("domain example.com\nnameserver 8.8.8.8\nnameserver 8.8.4.4\n"), 0644))
	require.NoError(t, os.WriteFile(e.deps.Paths.NTP, []byte("driftfile /var/lib/ntp/drift\n  server 10.0.0.1 iburst\n"), 0644))

	assert.Equal(t, "8.8.8.8\n8.8.4.4\n", e.run("show network dns"))
	assert.Equal(t, "example.com\n", e.run("show network domain"))
	assert.Equal(t, "10.0.0.1 iburst\n", e.run("show network ntp"))
	assert.Equal(t, "osc-appliance\n", e.run("show network hostname"))

	e.run("show network route")
	assert.Equal(t, []string{"/sbin/ip route"}, e.runner.calls)
}

func TestShowLog(t *testing.T) {
	e := newEnv(t)
	log := e.deps.Paths.ControllerLog

	assert.Equal(t, "Not a number ten\n", e.run("show log last ten"))
	assert.Empty(t, e.runner.calls)

	e.run("show log last 10")
	assert.Equal(t, []string{"sudo /usr/bin/tail -n 10 " + log}, e.runner.calls)

	e.runner.outputs["sudo /usr/bin/tac "+log] = "second\nfirst\n"
	e.runner.outputs["sudo /bin/cat "+log] = "first\nsecond\n"
	e.run("show log reverse")
	e.run("show log")
	assert.Equal(t, []string{"second\nfirst\n", "first\nsecond\n"}, e.pager.pages)
}

func TestShowProcessDefaultsToPS(t *testing.T) {
	e := newEnv(t)

	e.run("show process")
	e.run("show process monitor")
	assert.Equal(t, []string{"/bin/ps aux", "/usr/bin/top -s"}, e.runner.calls)
}

type fakeProc struct{}

func (fakeProc) Snapshot() (system.Snapshot, error) {
	return system.Snapshot{MemTotal: 4096000, MemAvailable: 1024000, Load1: 0.5}, nil
}

func TestShowSystem(t *testing.T) {
	e := newEnv(t)

	assert.Equal(t, "Dashboard unavailable\n", e.run("show system dashboard"))
	assert.Equal(t, "System summary unavailable\n", e.run("show system summary"))

	ran := false
	e.deps.Proc = fakeProc{}
	e.deps.Dashboard = func(context.Context) error { ran = true; return nil }
	e.root = Build(e.deps)

	assert.Contains(t, e.run("show system summary"), "(75%)")
	e.run("show system dashboard")
	assert.True(t, ran)
}

func TestShowSettingsAndVersion(t *testing.T) {
	e := newEnv(t)

	out := e.run("show settings")
	assert.Contains(t, out, "controller: securityBroker")

	assert.Equal(t, "oscctl 1.2.3\n", e.run("show version"))
	assert.Equal(t, []string{"sudo /bin/bash -c cd /opt/vmidc/bin/; bash ./vmidc.sh --version"}, e.runner.calls)
}

func TestDebug(t *testing.T) {
	e := newEnv(t)
	assert.Equal(t, "No gateway configured\n", e.run("debug"))

	require.NoError(t, os.WriteFile(e.deps.Paths.Network, []byte("NETWORKING=yes\nGATEWAY=10.0.0.1\n"), 0644))
	assert.Equal(t, "Gateway: 10.0.0.1\n", e.run("debug"))
	assert.Equal(t, []string{"/bin/ping -c 3 10.0.0.1"}, e.runner.calls)
}

func TestProbes(t *testing.T) {
	e := newEnv(t)

	assert.Contains(t, e.run("ping"), "Missing destination address")
	e.run("ping 10.0.0.1")
	e.run("traceroute6 ::1")
	assert.Equal(t, []string{"/bin/ping -c 5 10.0.0.1", "/bin/traceroute6 ::1"}, e.runner.calls)
}

func TestHistoryCommand(t *testing.T) {
	e := newEnv(t)
	e.deps.History = shell.NewHistory("", 0)
	e.deps.History.Add("show clock")
	e.deps.History.Add("history")
	e.root = Build(e.deps)

	assert.Equal(t, "show clock\nhistory\n", e.run("history"))
}
