// Copyright (C) 2024 Toitware ApS. All rights reserved.
// Use of this source code is governed by an MIT-style license that can be
// found in the LICENSE file.

package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/toitware/boardtest/cmd/boardtest/device"
)

type deviceInfo struct {
	Name        string `yaml:"name" json:"name"`
	Section     string `yaml:"section" json:"section"`
	Description string `yaml:"description" json:"description"`
}

func (d deviceInfo) Short() string {
	return fmt.Sprintf("%s\t[%s]\t%s", d.Name, d.Section, d.Description)
}

type deviceInfos []deviceInfo

func (d deviceInfos) Elements() []Short {
	var res []Short
	for _, e := range d {
		res = append(res, e)
	}
	return res
}

func DevicesCmd(registry *device.Registry) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "devices",
		Short:        "List the available device tests",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			enc, err := parseOutputFlag(cmd)
			if err != nil {
				return err
			}
			var infos deviceInfos
			for _, d := range registry.List() {
				infos = append(infos, deviceInfo{
					Name:        d.Name(),
					Section:     d.Section(),
					Description: d.Short(),
				})
			}
			return enc.Encode(infos)
		},
	}
	cmd.Flags().StringP("output", "o", "short", "set output format to json, yaml or short")
	return cmd
}
