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
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

const DefaultPageSize = 25

// Pager prints long output a screen at a time. On a terminal a single
// keypress advances; otherwise a line of input does.
type Pager struct {
	In       io.Reader
	Out      io.Writer
	PageSize int
}

func NewPager() *Pager {
	return &Pager{In: os.Stdin, Out: os.Stdout, PageSize: DefaultPageSize}
}

func (p *Pager) Page(output string) {
	lines := strings.Split(strings.TrimRight(output, "\n"), "\n")

	pageSize := p.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	if len(lines) <= pageSize {
		fmt.Fprint(p.Out, output)
		if output != "" && !strings.HasSuffix(output, "\n") {
			fmt.Fprintln(p.Out)
		}
		return
	}

	for i := 0; i < pageSize; i++ {
		fmt.Fprintln(p.Out, lines[i])
	}

	var reader *bufio.Reader
	for i := pageSize; i < len(lines); {
		fmt.Fprintf(p.Out, "-- more -- (%d/%d) [Enter=next line, Space=next page, q=quit] ", i, len(lines))

		key, ok := p.readKey(&reader)
		fmt.Fprint(p.Out, "\r\033[K")
		if !ok || key == 'q' || key == 'Q' {
			return
		}

		step := 1
		if key == ' ' {
			step = pageSize
		}
		for end := i + step; i < end && i < len(lines); i++ {
			fmt.Fprintln(p.Out, lines[i])
		}
	}
}

func (p *Pager) readKey(reader **bufio.Reader) (byte, bool) {
	if f, ok := p.In.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		oldState, err := term.MakeRaw(int(f.Fd()))
		if err == nil {
			defer term.Restore(int(f.Fd()), oldState)

			var buf [1]byte
			if _, err := f.Read(buf[:]); err != nil {
				return 0, false
			}
			return buf[0], true
		}
	}

	if *reader == nil {
		*reader = bufio.NewReader(p.In)
	}
	input, err := (*reader).ReadString('\n')
	if err != nil && input == "" {
		return 0, false
	}
	input = strings.TrimRight(input, "\r\n")
	if input == "" {
		return '\n', true
	}
	return input[0], true
}
