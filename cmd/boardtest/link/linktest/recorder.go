// Copyright (C) 2024 Toitware ApS. All rights reserved.
// Use of this source code is governed by an MIT-style license that can be
// found in the LICENSE file.

// Package linktest provides an in-memory link that records what was done to it.
package linktest

import (
	"sync"
)

type OpKind int

const (
	SetBaud OpKind = iota
	Write
)

// Op is one call made on a Recorder.
type Op struct {
	Kind OpKind
	Baud int
	Data []byte
}

// Recorder implements link.Link. Failures can be injected per call index.
type Recorder struct {
	mu  sync.Mutex
	ops []Op
	// FailAt maps a call index (counting both kinds) to the error it returns.
	FailAt map[int]error
	closed bool
}

func (r *Recorder) SetBaudRate(baud int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failure(); err != nil {
		return err
	}
	r.ops = append(r.ops, Op{Kind: SetBaud, Baud: baud})
	return nil
}

func (r *Recorder) Write(data []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failure(); err != nil {
		return 0, err
	}
	r.ops = append(r.ops, Op{Kind: Write, Data: append([]byte(nil), data...)})
	return len(data), nil
}

func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *Recorder) failure() error {
	index := len(r.ops)
	if err, ok := r.FailAt[index]; ok {
		// Count the failed call so later indices stay stable.
		r.ops = append(r.ops, Op{Kind: -1})
		return err
	}
	return nil
}

// Ops returns the successful calls in order.
func (r *Recorder) Ops() []Op {
	r.mu.Lock()
	defer r.mu.Unlock()
	var res []Op
	for _, op := range r.ops {
		if op.Kind >= 0 {
			res = append(res, op)
		}
	}
	return res
}

// Frames returns the payload writes. A frame sends two rate changes, break
// then data; the payload is the write following the data rate change.
func (r *Recorder) Frames() [][]byte {
	var res [][]byte
	rates := 0
	for _, op := range r.Ops() {
		switch op.Kind {
		case SetBaud:
			rates++
		case Write:
			if rates > 0 && rates%2 == 0 {
				res = append(res, op.Data)
			}
		}
	}
	return res
}

func (r *Recorder) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}
