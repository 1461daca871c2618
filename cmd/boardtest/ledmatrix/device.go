// Copyright (C) 2024 Toitware ApS. All rights reserved.
// Use of this source code is governed by an MIT-style license that can be
// found in the LICENSE file.

// Package ledmatrix tests the LED dot-matrix display of the board.
package ledmatrix

import (
	"context"
	"io"

	"github.com/cheggaaa/pb/v3"
	"github.com/toitware/boardtest/cmd/boardtest/console"
	"github.com/toitware/boardtest/cmd/boardtest/device"
	"github.com/toitware/boardtest/cmd/boardtest/link"
	"go.uber.org/zap"
)

// Port is an open display link.
type Port interface {
	link.Link
	io.Closer
}

// Opener opens the display link described by cfg.
type Opener func(cfg Config) (Port, error)

func OpenSerial(cfg Config) (Port, error) {
	l, err := link.Open(cfg.Driver, cfg.DataBaud)
	if err != nil {
		return nil, err
	}
	return l, nil
}

type base struct {
	open Opener
}

func (base) Section() string {
	return SectionName
}

func (base) Validate(section map[string]interface{}) error {
	_, err := ParseConfig(section)
	return err
}

func (b base) start(section map[string]interface{}, s *device.Session) (Config, Port, error) {
	cfg, err := ParseConfig(section)
	if err != nil {
		return cfg, nil, err
	}
	port, err := b.open(cfg)
	if err != nil {
		return cfg, nil, err
	}
	s.Log.Info("display link open",
		zap.String("driver", cfg.Driver),
		zap.Int("data_baud", cfg.DataBaud),
		zap.Int("frame_size", DataSize(cfg.Width, cfg.Height)))
	return cfg, port, nil
}

// FillDevice is the automatic fill test.
type FillDevice struct {
	base
}

func NewFillDevice(open Opener) *FillDevice {
	if open == nil {
		open = OpenSerial
	}
	return &FillDevice{base{open: open}}
}

func (*FillDevice) Name() string {
	return "ledmatrix"
}

func (*FillDevice) Short() string {
	return "Fill the LED matrix display cell by cell until cancelled"
}

func (d *FillDevice) Test(ctx context.Context, section map[string]interface{}, s *device.Session) error {
	s.Printf("\n[LEDMATRIX] Test begin..\n")
	s.Printf("Display should be filling of white color..\n")

	cfg, port, err := d.start(section, s)
	if err != nil {
		return err
	}
	defer port.Close()

	exit, err := console.NewExitSignal(s.Console)
	if err != nil {
		return err
	}

	test := &FillTest{
		Buffer: NewDrawBuffer(cfg.Width, cfg.Height),
		Sender: link.NewFrameSender(cfg.Timing()),
		Link:   port,
		Exit:   exit,
		Delay:  cfg.Delay(),
		Log:    s.Log,
	}

	if s.Progress {
		bar := pb.New(test.Buffer.Len()).SetWriter(s.Out)
		bar.Start()
		defer bar.Finish()
		test.OnFrame = func(_, filled int) {
			bar.SetCurrent(int64(filled))
		}
	}
	return test.Run(ctx)
}

// ManualDevice is the operator driven display test.
type ManualDevice struct {
	base
}

func NewManualDevice(open Opener) *ManualDevice {
	if open == nil {
		open = OpenSerial
	}
	return &ManualDevice{base{open: open}}
}

func (*ManualDevice) Name() string {
	return "ledmatrix-manual"
}

func (*ManualDevice) Short() string {
	return "Drive the LED matrix display from the console"
}

func (d *ManualDevice) Test(ctx context.Context, section map[string]interface{}, s *device.Session) error {
	s.Printf("\n[LEDMATRIX] Manual test begin..\n")

	cfg, port, err := d.start(section, s)
	if err != nil {
		return err
	}
	defer port.Close()

	commands, err := console.NewCommandChannel(s.Console, ManualControls)
	if err != nil {
		return err
	}

	test := &ManualTest{
		Buffer:   NewDrawBuffer(cfg.Width, cfg.Height),
		Sender:   link.NewFrameSender(cfg.Timing()),
		Link:     port,
		Commands: commands,
		Delay:    cfg.Delay(),
		Out:      s.Out,
		Log:      s.Log,
	}
	return test.Run(ctx)
}
