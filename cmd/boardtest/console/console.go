// Copyright (C) 2024 Toitware ApS. All rights reserved.
// Use of this source code is governed by an MIT-style license that can be
// found in the LICENSE file.

// Package console holds the operator console and the two background-reader
// primitives that let a hardware loop be cancelled or driven from it.
package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
)

// ErrBusy is returned when a second reader tries to claim a console that
// already has an active background reader.
var ErrBusy = errors.New("console is already owned by another reader")

// Console is the single-owner operator console of a test session.
type Console struct {
	in   *bufio.Reader
	out  io.Writer
	held atomic.Bool
}

func New(in io.Reader, out io.Writer) *Console {
	return &Console{
		in:  bufio.NewReader(in),
		out: out,
	}
}

func (c *Console) Printf(format string, args ...interface{}) {
	fmt.Fprintf(c.out, format, args...)
}

func (c *Console) Println(args ...interface{}) {
	fmt.Fprintln(c.out, args...)
}

func (c *Console) claim() error {
	if !c.held.CompareAndSwap(false, true) {
		return ErrBusy
	}
	return nil
}

func (c *Console) release() {
	c.held.Store(false)
}

// readLine blocks until a full line is available. A final line without a
// terminator is returned together with io.EOF.
func (c *Console) readLine() (string, error) {
	line, err := c.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), err
}
