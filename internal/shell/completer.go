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
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/chzyer/readline"
)

// TreeCompleter adapts a command tree to readline's completion interface.
type TreeCompleter struct {
	root *Node
}

var _ readline.AutoCompleter = (*TreeCompleter)(nil)

func NewTreeCompleter(root *Node) *TreeCompleter {
	return &TreeCompleter{root: root}
}

func (c *TreeCompleter) Do(line []rune, pos int) (newLine [][]rune, length int) {
	lineStr := string(line[:pos])

	head, completions := c.root.completeAt(lineStr)
	if len(completions) == 0 {
		return [][]rune{}, 0
	}

	prefix := lineStr[len(head):]

	if len(completions) == 1 {
		suffix := completions[0][len(prefix):]
		return [][]rune{[]rune(suffix)}, len([]rune(prefix))
	}

	commonPrefix := findCommonPrefix(completions)
	if len(commonPrefix) > len(prefix) {
		return [][]rune{[]rune(commonPrefix[len(prefix):])}, len([]rune(prefix))
	}

	newLine = make([][]rune, len(completions))
	for i, completion := range completions {
		newLine[i] = []rune(completion[len(prefix):])
	}
	return newLine, len([]rune(prefix))
}

func findCommonPrefix(completions []string) string {
	if len(completions) == 0 {
		return ""
	}

	prefix := completions[0]
	for _, comp := range completions[1:] {
		i := 0
		for i < len(prefix) && i < len(comp) && prefix[i] == comp[i] {
			i++
		}
		prefix = prefix[:i]

		if prefix == "" {
			return ""
		}
	}

	return prefix
}

// suggest returns the name closest to unknown by edit distance, or "" when
// nothing is within three edits.
func suggest(unknown string, names []string) string {
	bestName := ""
	bestDistance := 4

	for _, name := range names {
		distance := levenshtein.ComputeDistance(unknown, name)
		if distance < bestDistance {
			bestDistance = distance
			bestName = name
		}
	}

	return bestName
}

// splitHelpSuffix reports whether line asks for inline help on a partial
// word, as in "show net?", and returns the line without the '?'.
func splitHelpSuffix(line string) (string, bool) {
	if !strings.HasSuffix(line, "?") || strings.HasSuffix(line, " ?") || line == "?" {
		return line, false
	}
	return strings.TrimSuffix(line, "?"), true
}
