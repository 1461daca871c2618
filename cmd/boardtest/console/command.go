// Copyright (C) 2024 Toitware ApS. All rights reserved.
// Use of this source code is governed by an MIT-style license that can be
// found in the LICENSE file.

package console

import (
	"context"
)

// Command is the first character of an operator input line.
type Command rune

const (
	// Quit ends the session. The reader stops after forwarding it.
	Quit Command = 'q'
	// Enter is the command of an empty line.
	Enter Command = '\n'
)

// Size of the command queue. The reader stops consuming console input while
// the queue is full.
const commandQueueSize = 64

func (c Command) String() string {
	if c == Enter {
		return "Enter"
	}
	return string(c)
}

// CommandChannel forwards operator commands from a background console reader.
// Once Quit has been delivered or the reader is gone, every call observes Quit.
// It has a single consumer.
type CommandChannel struct {
	commands chan Command
	quit     bool
}

// NewCommandChannel prints the control map and starts the background reader.
// Each entry of controls is one line of the legend, e.g. "f - fill".
func NewCommandChannel(c *Console, controls []string) (*CommandChannel, error) {
	if err := c.claim(); err != nil {
		return nil, err
	}
	c.Println("Control map:")
	c.Printf("\t%c - exiting the session\n", Quit)
	for _, row := range controls {
		c.Printf("\t%s\n", row)
	}

	ch := &CommandChannel{commands: make(chan Command, commandQueueSize)}
	go ch.read(c)
	return ch, nil
}

// read forwards one command per line. Console input is not consumed while the
// queue is full.
func (ch *CommandChannel) read(c *Console) {
	defer close(ch.commands)
	defer c.release()
	for {
		line, err := c.readLine()
		if line != "" || err == nil {
			cmd := firstCommand(line)
			ch.commands <- cmd
			if cmd == Quit {
				return
			}
		}
		if err != nil {
			return
		}
	}
}

func firstCommand(line string) Command {
	for _, r := range line {
		return Command(r)
	}
	return Enter
}

// Poll returns the next queued command without blocking. The boolean is false
// when nothing is queued. After the reader has stopped, Poll returns Quit.
func (ch *CommandChannel) Poll() (Command, bool) {
	if ch.quit {
		return Quit, true
	}
	select {
	case cmd, ok := <-ch.commands:
		return ch.received(cmd, ok), true
	default:
		return 0, false
	}
}

// Wait blocks until a command is available. It returns Quit right away if the
// reader has stopped, and also when ctx is done.
func (ch *CommandChannel) Wait(ctx context.Context) Command {
	if ch.quit {
		return Quit
	}
	select {
	case cmd, ok := <-ch.commands:
		return ch.received(cmd, ok)
	case <-ctx.Done():
		return Quit
	}
}

func (ch *CommandChannel) received(cmd Command, ok bool) Command {
	if !ok || cmd == Quit {
		ch.quit = true
		return Quit
	}
	return cmd
}
