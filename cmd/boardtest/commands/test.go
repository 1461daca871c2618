// Copyright (C) 2024 Toitware ApS. All rights reserved.
// Use of this source code is governed by an MIT-style license that can be
// found in the LICENSE file.

package commands

import (
	"fmt"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/toitware/boardtest/cmd/boardtest/console"
	"github.com/toitware/boardtest/cmd/boardtest/device"
	"go.uber.org/zap"
)

func TestCmd(registry *device.Registry) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test [device]",
		Short: "Run the test routine of a board peripheral",
		Long: "Runs the test routine of one peripheral, configured from its section of the\n" +
			"settings file. Without a device name you can pick one from a list.\n" +
			"Use 'boardtest devices' to list the available tests.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings(cmd)
			if err != nil {
				return err
			}

			progress, err := cmd.Flags().GetBool("progress")
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("progress") {
				progress = isTerminal(cmd.OutOrStdout())
			}

			var name string
			if len(args) == 1 {
				name = args[0]
			} else {
				if name, err = pickDevice(registry); err != nil {
					return err
				}
			}
			if _, err := registry.Lookup(name); err != nil {
				return err
			}
			cmd.SilenceUsage = true

			ctx := cmd.Context()
			log := GetLogger(ctx)
			in, out := cmd.InOrStdin(), cmd.OutOrStdout()
			if !isTerminal(in) {
				log.Debug("operator console is not a terminal")
			}

			session := device.NewSession(console.New(in, out), out, log)
			session.Progress = progress

			start := time.Now()
			err = registry.Run(ctx, settings, name, session)
			printResult(out, name, session.ID.String(), time.Since(start), err)
			if err != nil {
				log.Debug("test result", zap.String("device", name), zap.Error(err))
				// The result line already shows the error.
				cmd.SilenceErrors = true
				return err
			}
			return nil
		},
	}

	cmd.Flags().Bool("progress", false, "show fill progress (default: when the output is a terminal)")
	return cmd
}

func pickDevice(registry *device.Registry) (string, error) {
	devices := registry.List()
	if len(devices) == 0 {
		return "", fmt.Errorf("no device tests are registered")
	}

	items := make([]string, 0, len(devices))
	for _, d := range devices {
		items = append(items, fmt.Sprintf("%s - %s", d.Name(), d.Short()))
	}

	prompt := promptui.Select{
		Label:     "Choose which peripheral you want to test",
		Items:     items,
		Templates: &promptui.SelectTemplates{},
	}

	i, _, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("you didn't select anything")
	}
	return devices[i].Name(), nil
}
