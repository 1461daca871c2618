// Copyright (C) 2024 Toitware ApS. All rights reserved.
// Use of this source code is governed by an MIT-style license that can be
// found in the LICENSE file.

package link

import (
	"fmt"
	"time"
)

const (
	DefaultDataBaud  = 500000
	DefaultBreakBaud = 1200
	// The receiver needs the break condition for at least this long.
	MinBreakHold = 10 * time.Millisecond
)

// Timing describes the break-then-data sequence that precedes a frame.
type Timing struct {
	DataBaud  int
	BreakBaud int
	BreakHold time.Duration
}

func DefaultTiming() Timing {
	return Timing{
		DataBaud:  DefaultDataBaud,
		BreakBaud: DefaultBreakBaud,
		BreakHold: MinBreakHold,
	}
}

// IOError is a failed step of a frame send. The frame is lost; a resend of
// the remainder would desynchronize the receiver.
type IOError struct {
	Op   string
	Baud int
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s (%d baud): %v", e.Op, e.Baud, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// FrameSender writes frames to a receiver that resynchronizes on a framing
// error: a single zero byte at the break rate, held long enough for the
// receiver to sample it, followed by the payload at the data rate.
type FrameSender struct {
	Timing Timing
	// Sleep defaults to time.Sleep.
	Sleep func(time.Duration)
}

func NewFrameSender(timing Timing) *FrameSender {
	return &FrameSender{Timing: timing}
}

func (s *FrameSender) Send(l Link, payload []byte) error {
	breakByte := []byte{0}
	if err := l.SetBaudRate(s.Timing.BreakBaud); err != nil {
		return &IOError{Op: "set break rate", Baud: s.Timing.BreakBaud, Err: err}
	}
	if _, err := l.Write(breakByte); err != nil {
		return &IOError{Op: "write break", Baud: s.Timing.BreakBaud, Err: err}
	}
	s.sleep(s.Timing.BreakHold)
	if err := l.SetBaudRate(s.Timing.DataBaud); err != nil {
		return &IOError{Op: "set data rate", Baud: s.Timing.DataBaud, Err: err}
	}
	if _, err := l.Write(payload); err != nil {
		return &IOError{Op: "write payload", Baud: s.Timing.DataBaud, Err: err}
	}
	return nil
}

func (s *FrameSender) sleep(d time.Duration) {
	if s.Sleep != nil {
		s.Sleep(d)
		return
	}
	time.Sleep(d)
}
