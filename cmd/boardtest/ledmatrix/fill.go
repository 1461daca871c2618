// Copyright (C) 2024 Toitware ApS. All rights reserved.
// Use of this source code is governed by an MIT-style license that can be
// found in the LICENSE file.

package ledmatrix

import (
	"context"
	"time"

	"github.com/toitware/boardtest/cmd/boardtest/link"
	"go.uber.org/zap"
)

type State int

const (
	Idle State = iota
	Filling
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Filling:
		return "filling"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Canceller is polled between frames.
type Canceller interface {
	Check() bool
}

// FillTest lights the display one byte per frame until it is cancelled.
// Bytes are never cleared, so the display fills up and then stays lit.
type FillTest struct {
	Buffer *DrawBuffer
	Sender *link.FrameSender
	Link   link.Link
	Exit   Canceller
	Delay  time.Duration
	Log    *zap.Logger
	// OnFrame, if set, is called after every frame sent.
	OnFrame func(cursor, filled int)

	state  State
	frames int
}

func (f *FillTest) State() State {
	return f.state
}

// Frames is the number of frames sent.
func (f *FillTest) Frames() int {
	return f.frames
}

// Run returns nil once the operator cancels the test or ctx is done, and the
// link error if a frame cannot be sent.
func (f *FillTest) Run(ctx context.Context) error {
	log := f.Log
	if log == nil {
		log = zap.NewNop()
	}

	f.state = Filling
	defer func() { f.state = Stopped }()

	for {
		cursor := f.Buffer.FillNext()
		if err := f.Sender.Send(f.Link, f.Buffer.Bytes()); err != nil {
			return err
		}
		f.frames++
		log.Debug("frame sent", zap.Int("frame", f.frames), zap.Int("cursor", cursor))
		if f.OnFrame != nil {
			f.OnFrame(cursor, f.Buffer.Filled())
		}

		if f.Exit.Check() {
			log.Info("fill test cancelled by operator", zap.Int("frames", f.frames))
			return nil
		}

		if !sleep(ctx, f.Delay) {
			log.Info("fill test interrupted", zap.Int("frames", f.frames))
			return nil
		}
	}
}

// sleep waits for d and reports false if ctx was done first.
func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
