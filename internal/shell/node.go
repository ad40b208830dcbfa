/*
 * FloofOS - Fast Line-rate Offload On Fabric Operating System
 * Copyright (C) 2025 FloofOS Networks <dev@floofos.io>
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, either version 3 of the License.
 */

// Package shell implements the command tree behind the interactive prompt
// and the loop that drives it.
//
// A tree is declared once with Node.Leaf, Node.Child, Node.Exit and
// Node.OnEmpty and never changes afterwards. Every node answers list and
// help on its own, forwards the rest of the line to child namespaces and
// offers completion for the names it knows.
package shell

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// Result tells the loop whether to keep reading input.
type Result int

const (
	Continue Result = iota
	Terminate
)

// Handler runs a leaf command. args is the unconsumed remainder of the
// line, leading whitespace removed.
type Handler func(out io.Writer, args string)

// Namespace is a scope that can run a line and describe what it holds.
type Namespace interface {
	Dispatch(out io.Writer, remainder string) Result
	Describe(prefix string) []Entry
}

var _ Namespace = (*Node)(nil)

const (
	listCommand = "list"
	helpCommand = "help"
)

var builtinDocs = map[string]string{
	listCommand: "Print command list",
	helpCommand: "[<command>]:Print command list",
}

type command struct {
	name    string
	doc     string
	handler Handler
	child   *Node
	exit    bool
}

type Node struct {
	commands map[string]*command
	onEmpty  Handler
}

func NewNode() *Node {
	return &Node{commands: make(map[string]*command)}
}

func (n *Node) add(cmd *command) {
	if cmd.name == "" || strings.ContainsAny(cmd.name, " \t") {
		panic(fmt.Sprintf("shell: invalid command name %q", cmd.name))
	}
	if _, ok := builtinDocs[cmd.name]; ok {
		panic(fmt.Sprintf("shell: %q is reserved", cmd.name))
	}
	if _, ok := n.commands[cmd.name]; ok {
		panic(fmt.Sprintf("shell: duplicate command %q", cmd.name))
	}
	n.commands[cmd.name] = cmd
}

// Leaf registers a command. doc is either a description or
// "usage:description"; an empty doc hides the command from listings.
func (n *Node) Leaf(name, doc string, h Handler) *Node {
	n.add(&command{name: name, doc: doc, handler: h})
	return n
}

// Child registers a nested namespace under name and lets build populate it.
func (n *Node) Child(name, doc string, build func(*Node)) *Node {
	child := NewNode()
	if build != nil {
		build(child)
	}
	n.add(&command{name: name, doc: doc, child: child})
	return n
}

// Exit registers the leaf that ends the session.
func (n *Node) Exit(name, doc string) *Node {
	n.add(&command{name: name, doc: doc, exit: true})
	return n
}

// OnEmpty replaces the command menu shown for an empty remainder.
func (n *Node) OnEmpty(h Handler) *Node {
	n.onEmpty = h
	return n
}

// Lookup returns the child namespace registered under name.
func (n *Node) Lookup(name string) (*Node, bool) {
	cmd, ok := n.commands[name]
	if !ok || cmd.child == nil {
		return nil, false
	}
	return cmd.child, true
}

func (n *Node) Dispatch(out io.Writer, remainder string) Result {
	token, rest := splitToken(remainder)

	if token == "" {
		if n.onEmpty != nil {
			n.onEmpty(out, "")
			return Continue
		}
		n.menu(out)
		return Continue
	}

	if cmd, ok := n.commands[token]; ok {
		switch {
		case cmd.exit:
			return Terminate
		case cmd.child != nil:
			return cmd.child.Dispatch(out, rest)
		default:
			cmd.handler(out, rest)
			return Continue
		}
	}

	switch token {
	case listCommand:
		n.List(out, "")
	case helpCommand, "?":
		n.help(out, rest)
	default:
		fmt.Fprintf(out, "Unknown command: %s\n", token)
		if s := suggest(token, n.names()); s != "" {
			fmt.Fprintf(out, "Did you mean '%s'?\n", s)
		}
		n.menu(out)
	}
	return Continue
}

func (n *Node) menu(out io.Writer) {
	fmt.Fprintln(out, "Expected one of")
	n.List(out, "   ")
}

// help lists the node, or the namespace or leaf named by args.
func (n *Node) help(out io.Writer, args string) {
	token, rest := splitToken(args)
	if token == "" {
		n.List(out, "")
		return
	}

	cmd, ok := n.commands[token]
	if !ok {
		fmt.Fprintf(out, "No help on %s\n", token)
		return
	}
	if cmd.child != nil {
		cmd.child.help(out, rest)
		return
	}
	if cmd.doc != "" {
		writeEntries(out, []Entry{newEntry("", cmd.name, cmd.doc)})
	}
}

// List writes the recursive listing of the node. Built-in commands are
// only included when prefix is empty, so they appear once at the node the
// listing was requested from.
func (n *Node) List(out io.Writer, prefix string) {
	writeEntries(out, n.Describe(prefix))
}

func (n *Node) Describe(prefix string) []Entry {
	names := make([]string, 0, len(n.commands)+len(builtinDocs))
	for name := range n.commands {
		names = append(names, name)
	}
	if prefix == "" {
		for name := range builtinDocs {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	var entries []Entry
	for _, name := range names {
		cmd, ok := n.commands[name]
		if !ok {
			entries = append(entries, newEntry(prefix, name, builtinDocs[name]))
			continue
		}
		if cmd.doc != "" {
			entries = append(entries, newEntry(prefix, name, cmd.doc))
		}
		if cmd.child != nil {
			entries = append(entries, cmd.child.Describe(prefix+name+" ")...)
		}
	}
	return entries
}

func (n *Node) names() []string {
	names := make([]string, 0, len(n.commands)+len(builtinDocs))
	for name := range n.commands {
		names = append(names, name)
	}
	for name := range builtinDocs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Complete returns the names at this node that start with prefix, sorted.
// A lone match naming a child namespace carries a trailing space.
func (n *Node) Complete(prefix string) []string {
	var matches []string
	for _, name := range n.names() {
		if strings.HasPrefix(name, prefix) {
			matches = append(matches, name)
		}
	}

	if len(matches) == 1 {
		if cmd, ok := n.commands[matches[0]]; ok && cmd.child != nil {
			matches[0] += " "
		}
	}
	return matches
}

// CompleteLine completes the last word of line. Complete words before it
// select child namespaces; the returned candidates are whole lines.
func (n *Node) CompleteLine(line string) []string {
	head, matches := n.completeAt(line)
	for i := range matches {
		matches[i] = head + matches[i]
	}
	return matches
}

// completeAt walks line through the tree and returns the consumed text
// along with the candidates for the partial word that follows it.
func (n *Node) completeAt(line string) (string, []string) {
	node := n
	rest := strings.TrimLeft(line, " \t")
	head := line[:len(line)-len(rest)]

	for {
		i := strings.IndexAny(rest, " \t")
		if i < 0 {
			break
		}

		child, ok := node.Lookup(rest[:i])
		if !ok {
			return head, nil
		}
		node = child

		after := strings.TrimLeft(rest[i:], " \t")
		head += rest[:len(rest)-len(after)]
		rest = after
	}

	return head, node.Complete(rest)
}

func splitToken(s string) (string, string) {
	s = strings.TrimLeft(s, " \t")
	i := strings.IndexAny(s, " \t")
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimLeft(s[i:], " \t")
}
