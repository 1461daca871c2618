// Copyright (C) 2024 Toitware ApS. All rights reserved.
// Use of this source code is governed by an MIT-style license that can be
// found in the LICENSE file.

// Package link drives display receivers over a serial line.
package link

import (
	"errors"
	"fmt"
	"io"
	"os"

	"go.bug.st/serial"
)

// Link is a serial line whose transfer rate can be changed between writes.
type Link interface {
	SetBaudRate(baud int) error
	Write(data []byte) (int, error)
}

// ErrOpen is wrapped by every error returned from Open.
var ErrOpen = errors.New("failed to open serial port")

// OpenError reports that the serial device could not be opened.
type OpenError struct {
	Name string
	Err  error
}

func (e *OpenError) Error() string {
	if os.IsNotExist(e.Err) {
		return fmt.Sprintf("the port '%s' was not found", e.Name)
	}
	return fmt.Sprintf("failed to open serial port '%s': %v", e.Name, e.Err)
}

func (e *OpenError) Unwrap() []error {
	return []error{ErrOpen, e.Err}
}

// SerialLink owns one open serial port.
type SerialLink struct {
	port serial.Port
	mode serial.Mode
	name string
}

// Open opens the serial device name at the given rate, 8N1.
func Open(name string, baud int) (*SerialLink, error) {
	mode := serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(name, &mode)
	if err != nil {
		return nil, &OpenError{Name: name, Err: err}
	}
	return &SerialLink{
		port: port,
		mode: mode,
		name: name,
	}, nil
}

func (l *SerialLink) Name() string {
	return l.name
}

func (l *SerialLink) BaudRate() int {
	return l.mode.BaudRate
}

func (l *SerialLink) SetBaudRate(baud int) error {
	mode := l.mode
	mode.BaudRate = baud
	if err := l.port.SetMode(&mode); err != nil {
		return err
	}
	l.mode = mode
	return nil
}

// Write writes all of data, or returns the error that stopped it.
func (l *SerialLink) Write(data []byte) (int, error) {
	return writeAll(l.port, data)
}

func (l *SerialLink) Close() error {
	return l.port.Close()
}

func writeAll(w io.Writer, data []byte) (int, error) {
	written := 0
	for written < len(data) {
		count, err := w.Write(data[written:])
		written += count
		if err != nil {
			return written, err
		}
		if count == 0 {
			return written, io.ErrShortWrite
		}
	}
	return written, nil
}

// Ports lists the serial ports of the system.
func Ports() ([]string, error) {
	return serial.GetPortsList()
}
