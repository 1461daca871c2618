// Copyright (C) 2024 Toitware ApS. All rights reserved.
// Use of this source code is governed by an MIT-style license that can be
// found in the LICENSE file.

// Package device defines the contract every board peripheral test satisfies
// and the registry that dispatches to them.
package device

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"
	"github.com/toitware/boardtest/cmd/boardtest/console"
	"go.uber.org/zap"
)

// Device is one peripheral test routine of the controller board.
type Device interface {
	Name() string
	Short() string
	// Section is the settings file section the test is configured from.
	Section() string
	// Test exercises the peripheral until it fails or the operator ends it.
	Test(ctx context.Context, section map[string]interface{}, s *Session) error
}

// Validator is implemented by devices that can check their settings
// without touching hardware.
type Validator interface {
	Validate(section map[string]interface{}) error
}

// Session carries what a device test may use while it runs.
type Session struct {
	ID      uuid.UUID
	Console *console.Console
	Out     io.Writer
	Log     *zap.Logger
	// Progress enables progress rendering on Out.
	Progress bool
}

func NewSession(c *console.Console, out io.Writer, log *zap.Logger) *Session {
	return &Session{
		ID:      uuid.New(),
		Console: c,
		Out:     out,
		Log:     log,
	}
}

func (s *Session) Printf(format string, args ...interface{}) {
	fmt.Fprintf(s.Out, format, args...)
}

// ConfigError reports a missing or malformed settings section.
type ConfigError struct {
	Section string
	Err     error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid settings section [%s]: %v", e.Section, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// DecodeSection decodes a settings section into out. Unknown keys are an
// error, durations may be given as strings like "10ms".
func DecodeSection(name string, section map[string]interface{}, out interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:  mapstructure.StringToTimeDurationHookFunc(),
		ErrorUnused: true,
		Result:      out,
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(section); err != nil {
		return &ConfigError{Section: name, Err: err}
	}
	return nil
}
