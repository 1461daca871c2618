// Copyright (C) 2021 Toitware ApS. All rights reserved.
// Use of this source code is governed by an MIT-style license that can be
// found in the LICENSE file.

package commands

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/toitware/boardtest/cmd/boardtest/device"
	"github.com/toitware/boardtest/cmd/boardtest/logger"
	"go.uber.org/zap"
)

type ctxKey string

const (
	ctxKeyInfo   ctxKey = "info"
	ctxKeyLogger ctxKey = "logger"
)

type Info struct {
	Version string `mapstructure:"version" yaml:"version" json:"version"`
	Date    string `mapstructure:"date" yaml:"date" json:"date"`
}

func SetInfo(ctx context.Context, info Info) context.Context {
	return context.WithValue(ctx, ctxKeyInfo, info)
}

func GetInfo(ctx context.Context) Info {
	return ctx.Value(ctxKeyInfo).(Info)
}

func SetLogger(ctx context.Context, log *zap.Logger) context.Context {
	return context.WithValue(ctx, ctxKeyLogger, log)
}

// GetLogger returns the logger of the command, or a no-op logger.
func GetLogger(ctx context.Context) *zap.Logger {
	if log, ok := ctx.Value(ctxKeyLogger).(*zap.Logger); ok {
		return log
	}
	return zap.NewNop()
}

func BoardtestCmd(info Info, registry *device.Registry) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "boardtest",
		Short: "Diagnostics for the controller board peripherals",
		Long: "boardtest exercises the peripherals of the controller board one at a time.\n\n" +
			"Every peripheral is configured from a section of the settings file and\n" +
			"tested by a routine that runs until it fails or the operator ends it.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := cmd.Flags().GetString("log-level")
			if err != nil {
				return err
			}
			file, err := cmd.Flags().GetString("log-file")
			if err != nil {
				return err
			}
			log, err := logger.New(logger.Options{
				Level:   level,
				File:    file,
				Console: cmd.ErrOrStderr(),
			})
			if err != nil {
				return err
			}
			cmd.SetContext(SetLogger(cmd.Context(), log))
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			GetLogger(cmd.Context()).Sync()
		},
	}

	cmd.PersistentFlags().StringP("settings", "s", "", "path to the settings file (default $"+settingsEnvHint+" or ./settings.toml)")
	cmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn or error")
	cmd.PersistentFlags().String("log-file", "", "also write JSON logs to this file, rotated by size")

	cmd.AddCommand(
		TestCmd(registry),
		DevicesCmd(registry),
		PortsCmd(registry),
		ConfigCmd(registry),
		VersionCmd(info),
	)
	return cmd
}
