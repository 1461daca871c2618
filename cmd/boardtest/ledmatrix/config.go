// Copyright (C) 2024 Toitware ApS. All rights reserved.
// Use of this source code is governed by an MIT-style license that can be
// found in the LICENSE file.

package ledmatrix

import (
	"fmt"
	"time"

	"github.com/toitware/boardtest/cmd/boardtest/device"
	"github.com/toitware/boardtest/cmd/boardtest/link"
)

const (
	SectionName = "ledmatrix"

	DefaultWidth     = 64
	DefaultHeight    = 32
	DefaultFillDelay = 50
)

// Config is the [ledmatrix] section of the settings file.
type Config struct {
	// Driver is the serial device the display is attached to.
	Driver string `mapstructure:"driver" yaml:"driver" json:"driver"`
	// FillDelay is the pause between frames, in milliseconds.
	FillDelay uint          `mapstructure:"fill_delay" yaml:"fill_delay" json:"fill_delay"`
	Width     int           `mapstructure:"width" yaml:"width" json:"width"`
	Height    int           `mapstructure:"height" yaml:"height" json:"height"`
	DataBaud  int           `mapstructure:"data_baud" yaml:"data_baud" json:"data_baud"`
	BreakBaud int           `mapstructure:"break_baud" yaml:"break_baud" json:"break_baud"`
	BreakHold time.Duration `mapstructure:"break_hold" yaml:"break_hold" json:"break_hold"`
}

func DefaultConfig() Config {
	return Config{
		FillDelay: DefaultFillDelay,
		Width:     DefaultWidth,
		Height:    DefaultHeight,
		DataBaud:  link.DefaultDataBaud,
		BreakBaud: link.DefaultBreakBaud,
		BreakHold: link.MinBreakHold,
	}
}

// ParseConfig decodes a settings section on top of the defaults and
// validates the result.
func ParseConfig(section map[string]interface{}) (Config, error) {
	cfg := DefaultConfig()
	if err := device.DecodeSection(SectionName, section, &cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, &device.ConfigError{Section: SectionName, Err: err}
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Driver == "" {
		return fmt.Errorf("'driver' is required")
	}
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("display geometry %dx%d is invalid", c.Width, c.Height)
	}
	if (c.Width*c.Height)%2 != 0 {
		return fmt.Errorf("display geometry %dx%d has an odd number of pixels", c.Width, c.Height)
	}
	if c.DataBaud <= 0 || c.BreakBaud <= 0 {
		return fmt.Errorf("baud rates must be positive, got data %d and break %d", c.DataBaud, c.BreakBaud)
	}
	if c.BreakHold < link.MinBreakHold {
		return fmt.Errorf("'break_hold' must be at least %s, got %s", link.MinBreakHold, c.BreakHold)
	}
	return nil
}

func (c Config) Timing() link.Timing {
	return link.Timing{
		DataBaud:  c.DataBaud,
		BreakBaud: c.BreakBaud,
		BreakHold: c.BreakHold,
	}
}

func (c Config) Delay() time.Duration {
	return time.Duration(c.FillDelay) * time.Millisecond
}
