// Copyright (C) 2021 Toitware ApS. All rights reserved.
// Use of this source code is governed by an MIT-style license that can be
// found in the LICENSE file.

package commands

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/toitware/boardtest/cmd/boardtest/device"
	"github.com/toitware/boardtest/cmd/boardtest/directory"
	"github.com/toitware/boardtest/cmd/boardtest/link"
)

type portInfo struct {
	Name string `yaml:"name" json:"name"`
}

func (p portInfo) Short() string {
	return p.Name
}

type portInfos []portInfo

func (p portInfos) Elements() []Short {
	var res []Short
	for _, e := range p {
		res = append(res, e)
	}
	return res
}

// listPorts is replaced in tests.
var listPorts = link.Ports

func PortsCmd(registry *device.Registry) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "ports",
		Short:        "List the serial ports peripherals can be attached to",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			all, err := cmd.Flags().GetBool("all")
			if err != nil {
				return err
			}
			enc, err := parseOutputFlag(cmd)
			if err != nil {
				return err
			}

			ports, err := listPorts()
			if err != nil {
				return err
			}
			if !all {
				ports = filterPorts(ports)
			}
			infos := portInfos{}
			for _, p := range ports {
				infos = append(infos, portInfo{Name: p})
			}
			return enc.Encode(infos)
		},
	}

	cmd.Flags().Bool("all", false, "if set, will show all available ports")
	cmd.Flags().StringP("output", "o", "short", "set output format to json, yaml or short")
	cmd.AddCommand(SetPortCmd(registry))
	return cmd
}

func SetPortCmd(registry *device.Registry) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <device>",
		Short: "Select the serial port of a device and store it in the settings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := registry.Lookup(args[0])
			if err != nil {
				return err
			}
			all, err := cmd.Flags().GetBool("all")
			if err != nil {
				return err
			}
			port, err := cmd.Flags().GetString("port")
			if err != nil {
				return err
			}
			cmd.SilenceUsage = true

			settings, err := loadSettings(cmd)
			if err != nil {
				return err
			}

			if port == "" {
				if port, err = pickPort(all); err != nil {
					return err
				}
			}
			settings.Set(d.Section()+".driver", port)
			if err := directory.WriteSettings(settings); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stored '%s' as the driver of [%s]\n", port, d.Section())
			return nil
		},
	}

	cmd.Flags().Bool("all", false, "if set, will show all available ports")
	cmd.Flags().StringP("port", "p", "", "store this port instead of choosing one")
	return cmd
}

func pickPort(all bool) (string, error) {
	ports, err := listPorts()
	if err != nil {
		return "", err
	}
	if !all {
		ports = filterPorts(ports)
	}
	if len(ports) == 0 {
		return "", fmt.Errorf("no serial ports detected. Is the board connected and powered?")
	}

	prompt := promptui.Select{
		Label:     "Choose what serial port you want to use",
		Items:     ports,
		Templates: &promptui.SelectTemplates{},
	}

	i, _, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("you didn't select anything")
	}

	return ports[i], nil
}

func filterPorts(ports []string) []string {
	switch runtime.GOOS {
	case "darwin":
		return darwinFilterPaths(ports)
	case "linux":
		return linuxFilterPaths(ports)
	default:
		return ports
	}
}

func darwinFilterPaths(paths []string) []string {
	existing := map[string]struct{}{}
	for _, p := range paths {
		existing[p] = struct{}{}
	}
	var res []string
	for _, path := range paths {
		if strings.HasPrefix(path, "/dev/cu") && !strings.Contains(path, "Bluetooth") {
			res = append(res, path)
		} else if strings.HasPrefix(path, "/dev/tty") && !strings.Contains(path, "Bluetooth") {
			candidate := "/dev/cu" + strings.TrimPrefix(path, "/dev/tty")
			if _, exists := existing[candidate]; !exists {
				res = append(res, path)
			}
		}
	}
	return res
}

// linuxFilterPaths keeps USB adapters and the on-board UARTs the
// peripherals are wired to.
func linuxFilterPaths(paths []string) []string {
	res := []string(nil)
	for _, path := range paths {
		if !strings.Contains(path, "tty") {
			continue
		}
		if strings.Contains(path, "USB") || strings.Contains(path, "ACM") || isBoardUART(path) {
			res = append(res, path)
		}
	}
	return res
}

func isBoardUART(path string) bool {
	for _, prefix := range []string{"/dev/ttyS", "/dev/ttyAMA", "/dev/ttymxc"} {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
