// Copyright (C) 2024 Toitware ApS. All rights reserved.
// Use of this source code is governed by an MIT-style license that can be
// found in the LICENSE file.

package ledmatrix

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/toitware/boardtest/cmd/boardtest/console"
	"github.com/toitware/boardtest/cmd/boardtest/link"
	"go.uber.org/zap"
)

const (
	cmdFill   console.Command = 'f'
	cmdClear  console.Command = 'c'
	cmdNext   console.Command = 'n'
	cmdPause  console.Command = 'p'
	cmdResend console.Command = console.Enter
)

// ManualControls is the control map printed for the manual test.
var ManualControls = []string{
	"f - light the whole display",
	"c - clear the display",
	"n - light the next cell",
	"p - pause/resume the automatic sweep",
	"Enter - resend the current frame",
}

// CommandSource yields operator commands.
type CommandSource interface {
	Poll() (console.Command, bool)
	Wait(ctx context.Context) console.Command
}

// ManualTest lets the operator drive the display. It starts paused; while
// the sweep runs, commands are polled between frames.
type ManualTest struct {
	Buffer   *DrawBuffer
	Sender   *link.FrameSender
	Link     link.Link
	Commands CommandSource
	Delay    time.Duration
	Out      io.Writer
	Log      *zap.Logger

	frames int
}

func (m *ManualTest) Frames() int {
	return m.frames
}

func (m *ManualTest) send() error {
	if err := m.Sender.Send(m.Link, m.Buffer.Bytes()); err != nil {
		return err
	}
	m.frames++
	return nil
}

func (m *ManualTest) Run(ctx context.Context) error {
	log := m.Log
	if log == nil {
		log = zap.NewNop()
	}
	out := m.Out
	if out == nil {
		out = io.Discard
	}

	if err := m.send(); err != nil {
		return err
	}

	paused := true
	for {
		var cmd console.Command
		var ok bool
		if paused {
			cmd, ok = m.Commands.Wait(ctx), true
		} else {
			cmd, ok = m.Commands.Poll()
		}

		if ok {
			log.Debug("command", zap.Stringer("command", cmd))
			changed := true
			switch cmd {
			case console.Quit:
				return nil
			case cmdFill:
				m.Buffer.FillAll()
			case cmdClear:
				m.Buffer.Clear()
			case cmdNext:
				m.Buffer.FillNext()
			case cmdResend:
			case cmdPause:
				paused = !paused
				changed = false
				if paused {
					fmt.Fprintln(out, "Sweep paused")
				} else {
					fmt.Fprintln(out, "Sweep running")
				}
			default:
				changed = false
				fmt.Fprintf(out, "Unknown command '%s'\n", cmd)
			}
			if changed {
				if err := m.send(); err != nil {
					return err
				}
				fmt.Fprintf(out, "%d/%d cells lit\n", m.Buffer.Filled(), m.Buffer.Len())
			}
		}

		if paused {
			continue
		}
		m.Buffer.FillNext()
		if err := m.send(); err != nil {
			return err
		}
		if !sleep(ctx, m.Delay) {
			return nil
		}
	}
}
