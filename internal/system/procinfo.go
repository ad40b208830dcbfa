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
	"fmt"
	"time"

	"github.com/prometheus/procfs"
)

// Snapshot is one sample of system load. Memory figures are in kB.
type Snapshot struct {
	MemTotal     uint64
	MemAvailable uint64
	SwapTotal    uint64
	SwapFree     uint64
	Load1        float64
	Load5        float64
	Load15       float64
	Uptime       time.Duration
}

// MemUsedPercent is the share of memory not available to new processes.
func (s Snapshot) MemUsedPercent() int {
	if s.MemTotal == 0 {
		return 0
	}
	return int((s.MemTotal - s.MemAvailable) * 100 / s.MemTotal)
}

type ProcReader struct {
	fs  procfs.FS
	now func() time.Time
}

func NewProcReader(mountPoint string) (*ProcReader, error) {
	if mountPoint == "" {
		mountPoint = procfs.DefaultMountPoint
	}
	fs, err := procfs.NewFS(mountPoint)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", mountPoint, err)
	}
	return &ProcReader{fs: fs, now: time.Now}, nil
}

func (p *ProcReader) Snapshot() (Snapshot, error) {
	var s Snapshot

	mem, err := p.fs.Meminfo()
	if err != nil {
		return s, fmt.Errorf("failed to read meminfo: %w", err)
	}
	s.MemTotal = value(mem.MemTotal)
	s.MemAvailable = value(mem.MemAvailable)
	if mem.MemAvailable == nil {
		s.MemAvailable = value(mem.MemFree) + value(mem.Buffers) + value(mem.Cached)
	}
	s.SwapTotal = value(mem.SwapTotal)
	s.SwapFree = value(mem.SwapFree)

	load, err := p.fs.LoadAvg()
	if err != nil {
		return s, fmt.Errorf("failed to read loadavg: %w", err)
	}
	s.Load1, s.Load5, s.Load15 = load.Load1, load.Load5, load.Load15

	if stat, err := p.fs.Stat(); err == nil && stat.BootTime > 0 {
		s.Uptime = p.now().Sub(time.Unix(int64(stat.BootTime), 0)).Truncate(time.Second)
	}

	return s, nil
}

func value(v *uint64) uint64 {
	if v == nil {
		return 0
	}
	return *v
}

// Summary renders s the way the dashboard's text panel shows it.
func (s Snapshot) Summary() string {
	return fmt.Sprintf("Uptime: %s\nLoad average: %.2f %.2f %.2f\nMemory: %d MB used of %d MB (%d%%)\nSwap: %d MB used of %d MB",
		s.Uptime,
		s.Load1, s.Load5, s.Load15,
		(s.MemTotal-s.MemAvailable)/1024, s.MemTotal/1024, s.MemUsedPercent(),
		(s.SwapTotal-s.SwapFree)/1024, s.SwapTotal/1024)
}
