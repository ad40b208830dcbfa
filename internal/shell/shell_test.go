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
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type promptResult struct {
	line string
	err  error
}

type fakeConsole struct {
	inputs   []promptResult
	prompts  []string
	history  []string
	resets   int
	closed   int
	password string
}

func (f *fakeConsole) Prompt(prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if len(f.inputs) == 0 {
		return "", io.EOF
	}
	next := f.inputs[0]
	f.inputs = f.inputs[1:]
	return next.line, next.err
}

func (f *fakeConsole) ReadPassword(string) (string, error) { return f.password, nil }
func (f *fakeConsole) AppendHistory(line string)           { f.history = append(f.history, line) }
func (f *fakeConsole) Reset() error                        { f.resets++; return nil }
func (f *fakeConsole) Close() error                        { f.closed++; return nil }

func lines(in ...string) []promptResult {
	out := make([]promptResult, len(in))
	for i, l := range in {
		out[i] = promptResult{line: l}
	}
	return out
}

func TestRun_ExitCommandFlushesHistory(t *testing.T) {
	rec := &recorder{}
	console := &fakeConsole{inputs: lines("server status", "", "exit", "server stop")}
	histPath := filepath.Join(t.TempDir(), "history")

	var out bytes.Buffer
	sh := New(testTree(rec), Options{
		Console: console,
		History: NewHistory(histPath, 0),
		Out:     &out,
	})

	require.NoError(t, sh.Run(context.Background()))

	require.Len(t, rec.calls, 1)
	assert.Equal(t, "server status", rec.calls[0].name)
	assert.Equal(t, 1, console.closed)
	assert.Len(t, console.inputs, 1)

	data, err := os.ReadFile(histPath)
	require.NoError(t, err)
	assert.Equal(t, "server status\nexit\n", string(data))
}

func TestRun_EOFEndsSession(t *testing.T) {
	console := &fakeConsole{inputs: lines("ping 1.1.1.1")}
	sh := New(testTree(&recorder{}), Options{Console: console, Out: io.Discard})

	require.NoError(t, sh.Run(context.Background()))
	assert.Len(t, console.prompts, 2)
	assert.Equal(t, 1, console.closed)
}

func TestRun_InterruptAndErrorsKeepLooping(t *testing.T) {
	rec := &recorder{}
	console := &fakeConsole{inputs: []promptResult{
		{err: ErrInterrupted},
		{err: errors.New("terminal hiccup")},
		{line: "server start"},
	}}
	sh := New(testTree(rec), Options{Console: console, Out: io.Discard})

	require.NoError(t, sh.Run(context.Background()))
	assert.Equal(t, 1, console.resets)
	require.Len(t, rec.calls, 1)
	assert.Equal(t, "server start", rec.calls[0].name)
}

func TestRun_PromptTracksHostname(t *testing.T) {
	hosts := []string{"alpha", "beta", ""}
	i := 0
	console := &fakeConsole{inputs: lines("list", "list")}
	sh := New(testTree(&recorder{}), Options{
		Console: console,
		Out:     io.Discard,
		Hostname: func() string {
			h := hosts[i]
			i++
			return h
		},
	})

	require.NoError(t, sh.Run(context.Background()))
	assert.Equal(t, []string{"alpha> ", "beta> ", "osc> "}, console.prompts)
}

func TestRun_LoadsHistoryIntoConsole(t *testing.T) {
	histPath := filepath.Join(t.TempDir(), "history")
	require.NoError(t, os.WriteFile(histPath, []byte("show clock\nserver status\n"), 0600))

	console := &fakeConsole{}
	sh := New(testTree(&recorder{}), Options{
		Console: console,
		History: NewHistory(histPath, 0),
		Out:     io.Discard,
	})

	require.NoError(t, sh.Run(context.Background()))
	assert.Equal(t, []string{"show clock", "server status"}, console.history)
}

func TestExecute_PartialHelpListsCandidates(t *testing.T) {
	rec := &recorder{}
	var out bytes.Buffer
	sh := New(testTree(rec), Options{Console: &fakeConsole{}, Out: &out})

	assert.Equal(t, Continue, sh.Execute("server st?"))
	assert.Empty(t, rec.calls)
	assert.Contains(t, out.String(), "start")
	assert.Contains(t, out.String(), "status")
	assert.Contains(t, out.String(), "stop")

	out.Reset()
	sh.Execute("zz?")
	assert.Equal(t, "No commands match \"zz\"\n", out.String())
}

func TestExecute_EmptyLineAtRootIsSilent(t *testing.T) {
	var out bytes.Buffer
	console := &fakeConsole{}
	sh := New(testTree(&recorder{}), Options{Console: console, Out: &out})

	assert.Equal(t, Continue, sh.Execute("   "))
	assert.Empty(t, out.String())
	assert.Empty(t, console.history)

	sh.Execute("server")
	assert.Contains(t, out.String(), "Expected one of")
}

func TestHandleSignals(t *testing.T) {
	histPath := filepath.Join(t.TempDir(), "history")
	console := &fakeConsole{}
	exitCode := make(chan int, 1)

	sh := New(testTree(&recorder{}), Options{
		Console: console,
		History: NewHistory(histPath, 0),
		Out:     io.Discard,
		Exit:    func(code int) { exitCode <- code },
	})
	sh.Execute("server status")

	sigChan := make(chan os.Signal, 2)
	sigChan <- os.Interrupt
	sigChan <- syscall.SIGTERM

	go sh.handleSignals(context.Background(), sigChan)

	select {
	case code := <-exitCode:
		assert.Equal(t, 128+int(syscall.SIGTERM), code)
	case <-time.After(5 * time.Second):
		t.Fatal("signal handler did not exit")
	}

	data, err := os.ReadFile(histPath)
	require.NoError(t, err)
	assert.Equal(t, "server status\n", string(data))
	assert.Equal(t, 1, console.closed)

	require.NoError(t, sh.Close())
	assert.Equal(t, 1, console.closed)
}

func TestHistory_LimitAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history")

	h := NewHistory(path, 3)
	for _, l := range []string{"a", "b", "c", "d"} {
		h.Add(l)
	}
	assert.Equal(t, []string{"b", "c", "d"}, h.Entries())
	require.NoError(t, h.Save())

	reloaded := NewHistory(path, 3)
	require.NoError(t, reloaded.Load())
	assert.Equal(t, []string{"b", "c", "d"}, reloaded.Entries())
}

func TestHistory_SaveWhileAdding(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history")
	h := NewHistory(path, 50)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 500; i++ {
			h.Add(fmt.Sprintf("show clock %d", i))
		}
	}()
	for i := 0; i < 20; i++ {
		require.NoError(t, h.Save())
	}
	<-done

	require.NoError(t, h.Save())
	entries := h.Entries()
	require.Len(t, entries, 50)
	assert.Equal(t, "show clock 499", entries[49])

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, strings.Join(entries, "\n")+"\n", string(data))
}

func TestHistory_MissingFileIsNotAnError(t *testing.T) {
	h := NewHistory(filepath.Join(t.TempDir(), "nope"), 0)
	require.NoError(t, h.Load())
	assert.Empty(t, h.Entries())

	require.NoError(t, NewHistory("", 0).Save())
}

func TestTreeCompleter_Do(t *testing.T) {
	c := NewTreeCompleter(testTree(&recorder{}))

	newLine, length := c.Do([]rune("set net"), len("set net"))
	assert.Equal(t, 3, length)
	assert.Equal(t, [][]rune{[]rune("work ")}, newLine)

	newLine, length = c.Do([]rune("server st"), len("server st"))
	assert.Equal(t, 2, length)
	assert.Equal(t, [][]rune{[]rune("art"), []rune("atus"), []rune("op")}, newLine)

	newLine, length = c.Do([]rune("show p"), len("show p"))
	assert.Equal(t, 1, length)
	assert.Equal(t, [][]rune{[]rune("rocess ")}, newLine)

	newLine, _ = c.Do([]rune("bogus x"), len("bogus x"))
	assert.Empty(t, newLine)
}

func TestFormatColumns(t *testing.T) {
	out := FormatColumns([]string{"start", "status", "stop"}, 40)
	rows := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, rows, 2)
	assert.True(t, strings.HasPrefix(rows[0], "start"))
	assert.True(t, strings.HasPrefix(rows[1], "stop"))
	assert.Empty(t, FormatColumns(nil, 80))
}
