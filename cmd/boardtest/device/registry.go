// Copyright (C) 2024 Toitware ApS. All rights reserved.
// Use of this source code is governed by an MIT-style license that can be
// found in the LICENSE file.

package device

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// ErrMissingSection is wrapped when the settings have no section for a device.
var ErrMissingSection = errors.New("section is missing")

type Registry struct {
	devices map[string]Device
	order   []string
}

func NewRegistry(devices ...Device) *Registry {
	r := &Registry{
		devices: map[string]Device{},
	}
	for _, d := range devices {
		r.Register(d)
	}
	return r
}

// Register adds d. Registering a name twice panics.
func (r *Registry) Register(d Device) {
	if _, exists := r.devices[d.Name()]; exists {
		panic(fmt.Sprintf("device '%s' registered twice", d.Name()))
	}
	r.devices[d.Name()] = d
	r.order = append(r.order, d.Name())
}

func (r *Registry) Lookup(name string) (Device, error) {
	d, ok := r.devices[name]
	if !ok {
		return nil, fmt.Errorf("no device test named '%s'", name)
	}
	return d, nil
}

// List returns the devices in registration order.
func (r *Registry) List() []Device {
	res := make([]Device, 0, len(r.order))
	for _, name := range r.order {
		res = append(res, r.devices[name])
	}
	return res
}

// SectionOf returns the settings section of d.
func SectionOf(settings *viper.Viper, d Device) (map[string]interface{}, error) {
	if !settings.IsSet(d.Section()) {
		return nil, &ConfigError{Section: d.Section(), Err: ErrMissingSection}
	}
	section := settings.GetStringMap(d.Section())
	if section == nil {
		return nil, &ConfigError{Section: d.Section(), Err: ErrMissingSection}
	}
	return section, nil
}

// Check validates the section of every device that can validate itself.
// The returned map holds the failures by device name.
func (r *Registry) Check(settings *viper.Viper) map[string]error {
	res := map[string]error{}
	for _, d := range r.List() {
		v, ok := d.(Validator)
		if !ok {
			continue
		}
		section, err := SectionOf(settings, d)
		if err == nil {
			err = v.Validate(section)
		}
		if err != nil {
			res[d.Name()] = err
		}
	}
	return res
}

// Run runs the named device test with its settings section.
func (r *Registry) Run(ctx context.Context, settings *viper.Viper, name string, s *Session) error {
	d, err := r.Lookup(name)
	if err != nil {
		return err
	}
	section, err := SectionOf(settings, d)
	if err != nil {
		return err
	}

	log := s.Log.With(zap.String("session", s.ID.String()), zap.String("device", name))
	log.Info("test started")
	start := time.Now()

	err = d.Test(ctx, section, &Session{
		ID:       s.ID,
		Console:  s.Console,
		Out:      s.Out,
		Log:      log,
		Progress: s.Progress,
	})
	if err != nil {
		log.Error("test failed", zap.Duration("elapsed", time.Since(start)), zap.Error(err))
		return fmt.Errorf("%s test failed: %w", name, err)
	}
	log.Info("test finished", zap.Duration("elapsed", time.Since(start)))
	return nil
}
