/*
 * FloofOS - Fast Line-rate Offload On Fabric Operating System
 * Copyright (C) 2025 FloofOS Networks <dev@floofos.io>
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, either version 3 of the License.
 */

package shell

import (
	"fmt"
	"io"
	"strings"
)

// Entry is one line of a command listing.
type Entry struct {
	Command     string
	Description string
}

// newEntry splits doc on its first ':' into usage and description. The
// usage, when present, follows the command path.
func newEntry(prefix, name, doc string) Entry {
	cmd := prefix + name
	desc := doc
	if usage, rest, ok := strings.Cut(doc, ":"); ok {
		cmd += " " + usage
		desc = rest
	}
	return Entry{Command: cmd, Description: desc}
}

func (e Entry) String() string {
	return fmt.Sprintf("%-40s %s", e.Command, e.Description)
}

func writeEntries(out io.Writer, entries []Entry) {
	for _, e := range entries {
		fmt.Fprintln(out, e.String())
	}
}

// FormatColumns lays names out in as many columns as fit termWidth.
func FormatColumns(names []string, termWidth int) string {
	if len(names) == 0 {
		return ""
	}

	maxLen := 0
	for _, name := range names {
		if len(name) > maxLen {
			maxLen = len(name)
		}
	}

	colWidth := maxLen + 4
	if colWidth < 20 {
		colWidth = 20
	}

	if termWidth == 0 {
		termWidth = 80
	}
	numCols := termWidth / colWidth
	if numCols < 1 {
		numCols = 1
	}
	if numCols > 6 {
		numCols = 6
	}

	var output strings.Builder
	for i, name := range names {
		output.WriteString(fmt.Sprintf("%-*s", colWidth, name))
		if (i+1)%numCols == 0 {
			output.WriteString("\n")
		}
	}
	if len(names)%numCols != 0 {
		output.WriteString("\n")
	}

	return output.String()
}
