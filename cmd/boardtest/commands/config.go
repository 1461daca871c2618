// Copyright (C) 2021 Toitware ApS. All rights reserved.
// Use of this source code is governed by an MIT-style license that can be
// found in the LICENSE file.

package commands

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/toitware/boardtest/cmd/boardtest/device"
	"github.com/toitware/boardtest/cmd/boardtest/directory"
	"go.uber.org/zap"
)

func ConfigCmd(registry *device.Registry) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the settings file",
		Long:  "Inspect and validate the settings file the device tests are configured from.",
	}

	cmd.AddCommand(
		ConfigShowCmd(),
		ConfigCheckCmd(registry),
	)
	return cmd
}

func ConfigShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "show",
		Short:        "Print the parsed settings",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			output, err := cmd.Flags().GetString("output")
			if err != nil {
				return err
			}
			if output == "short" {
				return fmt.Errorf("--output flag must be either json or yaml")
			}
			enc, err := parseOutputFlag(cmd)
			if err != nil {
				return err
			}
			settings, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			return enc.Encode(settings.AllSettings())
		},
	}
	cmd.Flags().StringP("output", "o", "yaml", "set output format to json or yaml")
	return cmd
}

func ConfigCheckCmd(registry *device.Registry) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate the settings of every device test",
		Long: "Validates the section of every device test without touching the hardware.\n\n" +
			"With --watch the settings are validated again whenever the file changes,\n" +
			"until interrupted.",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			watch, err := cmd.Flags().GetBool("watch")
			if err != nil {
				return err
			}
			path, err := settingsPath(cmd.Flags())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			settings, err := directory.GetSettings(path)
			if !watch {
				if err != nil {
					return err
				}
				if failed := reportCheck(out, registry, settings); failed > 0 {
					return fmt.Errorf("%d device test(s) have invalid settings", failed)
				}
				return nil
			}

			if err != nil {
				fmt.Fprintln(out, "Error:", err)
			} else {
				reportCheck(out, registry, settings)
			}
			fmt.Fprintf(out, "Watching '%s' for changes ...\n", path)

			ctx := cmd.Context()
			log := GetLogger(ctx)
			return directory.WatchSettings(ctx, path, func(settings *viper.Viper, err error) {
				log.Debug("settings changed", zap.String("path", path))
				if err != nil {
					fmt.Fprintln(out, "Error:", err)
					return
				}
				reportCheck(out, registry, settings)
			})
		},
	}
	cmd.Flags().BoolP("watch", "w", false, "validate again whenever the settings file changes")
	return cmd
}

// reportCheck prints one line per device and returns the number of failures.
func reportCheck(w io.Writer, registry *device.Registry, settings *viper.Viper) int {
	failures := registry.Check(settings)
	var names []string
	for _, d := range registry.List() {
		names = append(names, d.Name())
	}
	sort.Strings(names)
	for _, name := range names {
		if err, failed := failures[name]; failed {
			failColor.Fprint(w, "FAIL")
			fmt.Fprintf(w, " %s: %v\n", name, err)
		} else {
			passColor.Fprint(w, "OK")
			fmt.Fprintf(w, "   %s\n", name)
		}
	}
	return len(failures)
}
