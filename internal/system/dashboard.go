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
	"time"

	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"
)

const maxDataPoints = 155

// Dashboard is a full screen view of memory and load, refreshed every
// second until the user presses q.
type Dashboard struct {
	Proc     *ProcReader
	Interval time.Duration
}

func (d *Dashboard) Run(ctx context.Context) error {
	interval := d.Interval
	if interval <= 0 {
		interval = time.Second
	}

	first, err := d.Proc.Snapshot()
	if err != nil {
		return err
	}

	if err := ui.Init(); err != nil {
		return fmt.Errorf("failed to initialize UI: %w", err)
	}
	defer ui.Close()

	memGauge := widgets.NewGauge()
	memGauge.Title = "Memory"
	memGauge.BarColor = ui.ColorGreen

	loadChart := widgets.NewPlot()
	loadChart.Title = "Load average (1 min)"
	loadChart.Data = [][]float64{{first.Load1, first.Load1}}
	loadChart.DataLabels = []string{"load1"}
	loadChart.LineColors[0] = ui.ColorCyan
	loadChart.AxesColor = ui.ColorWhite

	stats := widgets.NewParagraph()
	stats.Title = "System"

	history := []float64{first.Load1, first.Load1}
	paused := false

	render := func(s Snapshot) {
		memGauge.Percent = s.MemUsedPercent()
		memGauge.Label = fmt.Sprintf("%d%% of %d MB", s.MemUsedPercent(), s.MemTotal/1024)
		loadChart.Data[0] = append([]float64(nil), history...)
		stats.Text = s.Summary() + "\n\nPress 'q' to exit, 'p' to pause/resume"
		if paused {
			stats.Title = "System (PAUSED)"
		} else {
			stats.Title = "System"
		}

		termWidth, termHeight := ui.TerminalDimensions()
		memGauge.SetRect(0, 0, termWidth, 3)
		loadChart.SetRect(0, 3, termWidth, termHeight-8)
		stats.SetRect(0, termHeight-8, termWidth, termHeight)

		func() {
			defer func() {
				recover()
			}()
			ui.Render(memGauge, loadChart, stats)
		}()
	}

	last := first
	render(last)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	uiEvents := ui.PollEvents()
	for {
		select {
		case <-ctx.Done():
			return nil
		case e := <-uiEvents:
			switch e.ID {
			case "q", "<C-c>":
				return nil
			case "p":
				paused = !paused
				render(last)
			case "<Resize>":
				render(last)
			}
		case <-ticker.C:
			if paused {
				continue
			}
			s, err := d.Proc.Snapshot()
			if err != nil {
				continue
			}
			last = s
			history = append(history, s.Load1)
			if len(history) > maxDataPoints {
				history = history[1:]
			}
			render(last)
		}
	}
}
