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
	"errors"
	"fmt"

	"github.com/chzyer/readline"
	"github.com/peterh/liner"
)

// ErrInterrupted is returned by Console.Prompt when the user presses ^C.
var ErrInterrupted = errors.New("prompt interrupted")

// Console is the line editor the loop reads from. Prompt returns io.EOF on
// ^D and ErrInterrupted on ^C.
type Console interface {
	Prompt(prompt string) (string, error)
	ReadPassword(prompt string) (string, error)
	AppendHistory(line string)
	// Reset recovers the editor after an unexpected read error.
	Reset() error
	Close() error
}

const (
	EditorLiner    = "liner"
	EditorReadline = "readline"
)

// NewConsole builds the console named by editor.
func NewConsole(editor string, root *Node) (Console, error) {
	switch editor {
	case "", EditorLiner:
		return NewLinerConsole(root), nil
	case EditorReadline:
		return NewReadlineConsole(root)
	default:
		return nil, fmt.Errorf("unknown console editor %q", editor)
	}
}

type LinerConsole struct {
	root  *Node
	state *liner.State
}

func NewLinerConsole(root *Node) *LinerConsole {
	c := &LinerConsole{root: root}
	c.state = c.newState()
	return c
}

func (c *LinerConsole) newState() *liner.State {
	state := liner.NewLiner()
	state.SetCtrlCAborts(true)
	state.SetCompleter(func(currentLine string) []string {
		return c.root.CompleteLine(currentLine)
	})
	state.SetTabCompletionStyle(liner.TabPrints)
	return state
}

func (c *LinerConsole) Prompt(prompt string) (string, error) {
	line, err := c.state.Prompt(prompt)
	if errors.Is(err, liner.ErrPromptAborted) {
		return "", ErrInterrupted
	}
	return line, err
}

func (c *LinerConsole) ReadPassword(prompt string) (string, error) {
	password, err := c.state.PasswordPrompt(prompt + " ")
	if errors.Is(err, liner.ErrPromptAborted) {
		return "", ErrInterrupted
	}
	return password, err
}

func (c *LinerConsole) AppendHistory(line string) {
	c.state.AppendHistory(line)
}

func (c *LinerConsole) Reset() error {
	c.state.Close()
	c.state = c.newState()
	return nil
}

func (c *LinerConsole) Close() error {
	return c.state.Close()
}

type ReadlineConsole struct {
	rl *readline.Instance
}

func NewReadlineConsole(root *Node) (*ReadlineConsole, error) {
	rl, err := readline.NewEx(&readline.Config{
		AutoComplete:           NewTreeCompleter(root),
		InterruptPrompt:        "^C",
		EOFPrompt:              "exit",
		HistorySearchFold:      true,
		DisableAutoSaveHistory: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize console: %w", err)
	}
	return &ReadlineConsole{rl: rl}, nil
}

func (c *ReadlineConsole) Prompt(prompt string) (string, error) {
	c.rl.SetPrompt(prompt)
	line, err := c.rl.Readline()
	if errors.Is(err, readline.ErrInterrupt) {
		return "", ErrInterrupted
	}
	return line, err
}

func (c *ReadlineConsole) ReadPassword(prompt string) (string, error) {
	password, err := c.rl.ReadPassword(prompt + " ")
	if errors.Is(err, readline.ErrInterrupt) {
		return "", ErrInterrupted
	}
	return string(password), err
}

func (c *ReadlineConsole) AppendHistory(line string) {
	c.rl.SaveHistory(line)
}

func (c *ReadlineConsole) Reset() error {
	c.rl.Refresh()
	return nil
}

func (c *ReadlineConsole) Close() error {
	return c.rl.Close()
}
